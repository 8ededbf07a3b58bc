package workbench

import (
	"context"
	"sort"
	"sync"

	"github.com/salmonumbrella/webclaw-cli/internal/tableblock"
)

// MemoryStore is a Store and PinStore that lives for the process.
type MemoryStore struct {
	mu     sync.Mutex
	docs   map[string][]tableblock.Block
	pinned []string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]tableblock.Block)}
}

func (s *MemoryStore) Get(_ context.Context, sessionKey string) ([]tableblock.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneBlocks(s.docs[sessionKey]), nil
}

func (s *MemoryStore) Set(_ context.Context, sessionKey string, blocks []tableblock.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(blocks) == 0 {
		delete(s.docs, sessionKey)
		return nil
	}
	s.docs[sessionKey] = cloneBlocks(blocks)
	return nil
}

func (s *MemoryStore) Sessions(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.docs))
	for key := range s.docs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Pinned(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.pinned))
	copy(out, s.pinned)
	return out, nil
}

func (s *MemoryStore) Pin(_ context.Context, sessionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range s.pinned {
		if key == sessionKey {
			return nil
		}
	}
	s.pinned = append(s.pinned, sessionKey)
	return nil
}

func (s *MemoryStore) Unpin(_ context.Context, sessionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.pinned[:0]
	for _, key := range s.pinned {
		if key != sessionKey {
			kept = append(kept, key)
		}
	}
	s.pinned = kept
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func cloneBlocks(blocks []tableblock.Block) []tableblock.Block {
	out := make([]tableblock.Block, len(blocks))
	for i, block := range blocks {
		out[i] = block.Clone()
	}
	return out
}
