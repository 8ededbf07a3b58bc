// Package workbench keeps the table blocks of every chat session and the
// list of pinned sessions.
package workbench

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/salmonumbrella/webclaw-cli/internal/tableblock"
)

// DefaultSessionKey is used when a session key is blank.
const DefaultSessionKey = "new"

// ErrBlockNotFound is returned when a block id is not in the session.
var ErrBlockNotFound = errors.New("table block not found")

// Store persists one ordered block list per session key.
type Store interface {
	// Get returns the session's blocks, or an empty list for an unknown key.
	Get(ctx context.Context, sessionKey string) ([]tableblock.Block, error)
	// Set replaces the session's blocks. A nil list clears the session.
	Set(ctx context.Context, sessionKey string, blocks []tableblock.Block) error
	// Sessions lists session keys that hold at least one block.
	Sessions(ctx context.Context) ([]string, error)
}

// PinStore persists the ordered list of pinned session keys.
type PinStore interface {
	Pinned(ctx context.Context) ([]string, error)
	Pin(ctx context.Context, sessionKey string) error
	Unpin(ctx context.Context, sessionKey string) error
}

// NormalizeSessionKey trims key and falls back to DefaultSessionKey.
func NormalizeSessionKey(key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return DefaultSessionKey
	}
	return trimmed
}

// Workbench applies block-level operations on top of a Store.
type Workbench struct {
	store Store
}

// New returns a Workbench backed by store.
func New(store Store) *Workbench {
	return &Workbench{store: store}
}

// Blocks returns the blocks of a session in order.
func (w *Workbench) Blocks(ctx context.Context, sessionKey string) ([]tableblock.Block, error) {
	return w.store.Get(ctx, NormalizeSessionKey(sessionKey))
}

// Sessions lists the session keys that hold blocks.
func (w *Workbench) Sessions(ctx context.Context) ([]string, error) {
	return w.store.Sessions(ctx)
}

// Block returns one block of a session.
func (w *Workbench) Block(ctx context.Context, sessionKey, blockID string) (tableblock.Block, error) {
	blocks, err := w.Blocks(ctx, sessionKey)
	if err != nil {
		return tableblock.Block{}, err
	}
	for _, block := range blocks {
		if block.ID == blockID {
			return block, nil
		}
	}
	return tableblock.Block{}, fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
}

// Add appends a blank block to the session and returns it.
func (w *Workbench) Add(ctx context.Context, sessionKey string, opts ...tableblock.BlockOption) (tableblock.Block, error) {
	return w.append(ctx, sessionKey, tableblock.NewBlock(opts...))
}

// Import appends a block hydrated from CSV text. Nothing is stored when the
// CSV is rejected.
func (w *Workbench) Import(ctx context.Context, sessionKey, csvText string) (tableblock.Block, error) {
	block, err := tableblock.FromCSV(csvText, "")
	if err != nil {
		return tableblock.Block{}, err
	}
	return w.append(ctx, sessionKey, block)
}

func (w *Workbench) append(ctx context.Context, sessionKey string, block tableblock.Block) (tableblock.Block, error) {
	key := NormalizeSessionKey(sessionKey)
	blocks, err := w.store.Get(ctx, key)
	if err != nil {
		return tableblock.Block{}, err
	}
	next := make([]tableblock.Block, len(blocks), len(blocks)+1)
	copy(next, blocks)
	next = append(next, block)
	if err := w.store.Set(ctx, key, next); err != nil {
		return tableblock.Block{}, err
	}
	return block, nil
}

// Update replaces the block with the given id.
func (w *Workbench) Update(ctx context.Context, sessionKey, blockID string, block tableblock.Block) error {
	key := NormalizeSessionKey(sessionKey)
	blocks, err := w.store.Get(ctx, key)
	if err != nil {
		return err
	}
	found := false
	next := make([]tableblock.Block, len(blocks))
	for i, current := range blocks {
		if current.ID == blockID {
			current = block
			found = true
		}
		next[i] = current
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	return w.store.Set(ctx, key, next)
}

// Modify loads a block, applies fn and stores the result.
func (w *Workbench) Modify(ctx context.Context, sessionKey, blockID string, fn func(tableblock.Block) (tableblock.Block, error)) (tableblock.Block, error) {
	block, err := w.Block(ctx, sessionKey, blockID)
	if err != nil {
		return tableblock.Block{}, err
	}
	next, err := fn(block)
	if err != nil {
		return tableblock.Block{}, err
	}
	if err := w.Update(ctx, sessionKey, blockID, next); err != nil {
		return tableblock.Block{}, err
	}
	return next, nil
}

// Remove deletes the block with the given id.
func (w *Workbench) Remove(ctx context.Context, sessionKey, blockID string) error {
	key := NormalizeSessionKey(sessionKey)
	blocks, err := w.store.Get(ctx, key)
	if err != nil {
		return err
	}
	next := make([]tableblock.Block, 0, len(blocks))
	for _, block := range blocks {
		if block.ID != blockID {
			next = append(next, block)
		}
	}
	if len(next) == len(blocks) {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	return w.store.Set(ctx, key, next)
}

// Clear drops every block of the session.
func (w *Workbench) Clear(ctx context.Context, sessionKey string) error {
	return w.store.Set(ctx, NormalizeSessionKey(sessionKey), nil)
}

// IsPinned reports whether sessionKey is pinned.
func IsPinned(ctx context.Context, pins PinStore, sessionKey string) (bool, error) {
	pinned, err := pins.Pinned(ctx)
	if err != nil {
		return false, err
	}
	for _, key := range pinned {
		if key == sessionKey {
			return true, nil
		}
	}
	return false, nil
}

// TogglePin pins an unpinned session or unpins a pinned one, and returns the
// new state.
func TogglePin(ctx context.Context, pins PinStore, sessionKey string) (bool, error) {
	pinned, err := IsPinned(ctx, pins, sessionKey)
	if err != nil {
		return false, err
	}
	if pinned {
		return false, pins.Unpin(ctx, sessionKey)
	}
	return true, pins.Pin(ctx, sessionKey)
}
