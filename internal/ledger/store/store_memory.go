package store

import (
	"context"
	"sync"

	"certledger/internal/ledger"
	"certledger/internal/sentinel"
)

// InMemoryStore is an in-memory implementation of Store for tests or local use.
// It is safe for concurrent access but does not persist across process restarts.
type InMemoryStore struct {
	mu      sync.RWMutex
	blocks  []ledger.Block
	entries map[string]ledger.Entry
	byBlock map[int64][]ledger.Entry
}

// NewInMemoryStore constructs an empty in-memory chain store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]ledger.Entry),
		byBlock: make(map[int64][]ledger.Entry),
	}
}

// AppendBlock appends a block and its entries atomically. The index and
// previous-hash checks under the write lock are the compare-and-swap that
// keeps concurrent writers from forking the chain.
func (s *InMemoryStore) AppendBlock(_ context.Context, block ledger.Block, entries []ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if int64(len(s.blocks)) != block.Index {
		return sentinel.ErrConflict
	}
	if len(s.blocks) > 0 && s.blocks[len(s.blocks)-1].Hash != block.PreviousHash {
		return sentinel.ErrConflict
	}
	for _, entry := range entries {
		if _, exists := s.entries[entry.CertificateID]; exists {
			return sentinel.ErrConflict
		}
	}

	s.blocks = append(s.blocks, block)
	for _, entry := range entries {
		s.entries[entry.CertificateID] = entry
		s.byBlock[block.Index] = append(s.byBlock[block.Index], entry)
	}
	return nil
}

func (s *InMemoryStore) LatestBlock(_ context.Context) (ledger.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.blocks) == 0 {
		return ledger.Block{}, sentinel.ErrNotFound
	}
	return s.blocks[len(s.blocks)-1], nil
}

func (s *InMemoryStore) BlockByIndex(_ context.Context, index int64) (ledger.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= int64(len(s.blocks)) {
		return ledger.Block{}, sentinel.ErrNotFound
	}
	return s.blocks[index], nil
}

func (s *InMemoryStore) Blocks(_ context.Context) ([]ledger.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ledger.Block(nil), s.blocks...), nil
}

func (s *InMemoryStore) EntryByCertificateID(_ context.Context, certificateID string) (ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, ok := s.entries[certificateID]; ok {
		return entry, nil
	}
	return ledger.Entry{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) EntriesByBlockIndex(_ context.Context, index int64) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ledger.Entry(nil), s.byBlock[index]...), nil
}

func (s *InMemoryStore) Counts(_ context.Context) (int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.blocks)), int64(len(s.entries)), nil
}

// TamperBlock overwrites a stored block in place. Only tests use it, to
// simulate at-rest corruption for chain validation.
func (s *InMemoryStore) TamperBlock(index int64, mutate func(*ledger.Block)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= int64(len(s.blocks)) {
		return false
	}
	mutate(&s.blocks[index])
	return true
}

// TamperEntry overwrites a stored entry in place for tamper tests.
func (s *InMemoryStore) TamperEntry(certificateID string, mutate func(*ledger.Entry)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[certificateID]
	if !ok {
		return false
	}
	mutate(&entry)
	s.entries[certificateID] = entry
	for i := range s.byBlock[entry.BlockIndex] {
		if s.byBlock[entry.BlockIndex][i].CertificateID == certificateID {
			s.byBlock[entry.BlockIndex][i] = entry
		}
	}
	return true
}

var _ Store = (*InMemoryStore)(nil)
