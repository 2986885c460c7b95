package store

import (
	"context"
	"sort"
	"sync"

	"certledger/internal/credential/models"
	"certledger/internal/sentinel"
)

// InMemoryStore is an in-memory implementation of Store for tests or local use.
// It is safe for concurrent access but does not persist across process restarts.
type InMemoryStore struct {
	mu          sync.RWMutex
	credentials map[string]models.Credential
	signatures  map[string]models.SignatureRecord
}

// NewInMemoryStore constructs an empty in-memory credential store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		credentials: make(map[string]models.Credential),
		signatures:  make(map[string]models.SignatureRecord),
	}
}

func (s *InMemoryStore) SaveCredential(_ context.Context, credential models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.credentials[credential.CertificateID]; exists {
		return sentinel.ErrConflict
	}
	s.credentials[credential.CertificateID] = credential
	return nil
}

func (s *InMemoryStore) CredentialByID(_ context.Context, certificateID string) (models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if credential, ok := s.credentials[certificateID]; ok {
		return credential, nil
	}
	return models.Credential{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) CredentialsBySubject(_ context.Context, subjectID string) ([]models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(c models.Credential) bool { return c.SubjectID == subjectID }), nil
}

func (s *InMemoryStore) CredentialsByIssuer(_ context.Context, issuerID string) ([]models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(c models.Credential) bool { return c.IssuerID == issuerID }), nil
}

func (s *InMemoryStore) SetStatus(_ context.Context, certificateID string, status models.Status, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	credential, ok := s.credentials[certificateID]
	if !ok {
		return sentinel.ErrNotFound
	}
	credential.Status = status
	credential.RevocationReason = reason
	s.credentials[certificateID] = credential
	return nil
}

func (s *InMemoryStore) SaveSignature(_ context.Context, record models.SignatureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.signatures[record.CertificateID]; exists {
		return sentinel.ErrConflict
	}
	s.signatures[record.CertificateID] = record
	return nil
}

func (s *InMemoryStore) SignatureByCertificateID(_ context.Context, certificateID string) (models.SignatureRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.signatures[certificateID]; ok {
		return record, nil
	}
	return models.SignatureRecord{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) StatusCounts(_ context.Context) (int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var active, revoked int64
	for _, credential := range s.credentials {
		if credential.Status == models.StatusRevoked {
			revoked++
		} else {
			active++
		}
	}
	return active, revoked, nil
}

// Tamper overwrites a stored credential in place. Only tests use it, to
// simulate private-store corruption for verification.
func (s *InMemoryStore) Tamper(certificateID string, mutate func(*models.Credential)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	credential, ok := s.credentials[certificateID]
	if !ok {
		return false
	}
	mutate(&credential)
	s.credentials[certificateID] = credential
	return true
}

// Delete removes a credential record entirely. Only tests use it, to
// simulate the ledger/private-store inconsistency case.
func (s *InMemoryStore) Delete(certificateID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.credentials, certificateID)
}

func (s *InMemoryStore) filter(keep func(models.Credential) bool) []models.Credential {
	var out []models.Credential
	for _, credential := range s.credentials {
		if keep(credential) {
			out = append(out, credential)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}

var _ Store = (*InMemoryStore)(nil)
