package store

import (
	"context"
	"sync"

	"certledger/internal/issuer/models"
	"certledger/internal/sentinel"
)

// InMemoryStore is an in-memory implementation of Store for tests or local use.
type InMemoryStore struct {
	mu         sync.RWMutex
	issuers    map[string]models.Issuer
	byUsername map[string]string
	keys       map[string]models.KeyRecord
}

// NewInMemoryStore constructs an empty in-memory issuer store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		issuers:    make(map[string]models.Issuer),
		byUsername: make(map[string]string),
		keys:       make(map[string]models.KeyRecord),
	}
}

func (s *InMemoryStore) SaveIssuer(_ context.Context, issuer models.Issuer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.issuers[issuer.IssuerID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byUsername[issuer.Username]; exists {
		return sentinel.ErrConflict
	}
	s.issuers[issuer.IssuerID] = issuer
	s.byUsername[issuer.Username] = issuer.IssuerID
	return nil
}

func (s *InMemoryStore) IssuerByID(_ context.Context, issuerID string) (models.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if issuer, ok := s.issuers[issuerID]; ok {
		return issuer, nil
	}
	return models.Issuer{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) IssuerByUsername(_ context.Context, username string) (models.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if issuerID, ok := s.byUsername[username]; ok {
		return s.issuers[issuerID], nil
	}
	return models.Issuer{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) SaveKey(_ context.Context, key models.KeyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.keys[key.IssuerID]; exists {
		return sentinel.ErrConflict
	}
	s.keys[key.IssuerID] = key
	return nil
}

func (s *InMemoryStore) KeyByIssuerID(_ context.Context, issuerID string) (models.KeyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if key, ok := s.keys[issuerID]; ok {
		return key, nil
	}
	return models.KeyRecord{}, sentinel.ErrNotFound
}

var _ Store = (*InMemoryStore)(nil)
