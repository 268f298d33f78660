// Package storage coordinates persistence of the workspace tree and board
// payloads on top of a kv.Store.
//
// Storage failures never surface to callers mutating the workspace: they are
// logged and the in-memory state stays authoritative.
package storage

import (
	"errors"
	"strings"
)

// Keys names the storage keys used in the kv store.
type Keys struct {
	// Workspace holds the JSON encoded workspace tree.
	Workspace string `json:"workspace"`
	// BoardPrefix is prepended to a board id to form its payload key.
	BoardPrefix string `json:"board_prefix"`
	// Legacy is the single payload key used before boards existed.
	Legacy string `json:"legacy"`
}

// DefaultKeys returns the keys used unless configured otherwise.
func DefaultKeys() Keys {
	return Keys{
		Workspace:   "boarddb:workspace",
		BoardPrefix: "boarddb:board:",
		Legacy:      "boarddb:drawing",
	}
}

// Board returns the payload key of boardID.
func (k Keys) Board(boardID string) string {
	return k.BoardPrefix + boardID
}

// Validate checks that keys are set and cannot collide.
func (k *Keys) Validate() error {
	if k.Workspace == "" || k.BoardPrefix == "" {
		return errors.New("workspace and board_prefix keys are required")
	}
	if strings.HasPrefix(k.Workspace, k.BoardPrefix) {
		return errors.New("workspace key must not start with board_prefix")
	}
	if k.Legacy != "" && strings.HasPrefix(k.Legacy, k.BoardPrefix) {
		return errors.New("legacy key must not start with board_prefix")
	}
	return nil
}
