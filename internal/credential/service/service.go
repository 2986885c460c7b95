// Package service implements the credential lifecycle: issuance anchors a
// commitment on the ledger and signs the claim, verification replays the
// cryptographic evidence, revocation flips the one-way status bit.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"certledger/internal/commitment"
	"certledger/internal/credential/models"
	credstore "certledger/internal/credential/store"
	issuermodels "certledger/internal/issuer/models"
	"certledger/internal/ledger"
	"certledger/internal/merkle"
	"certledger/internal/platform/metrics"
	"certledger/internal/platform/tracing"
	"certledger/internal/sentinel"
	"certledger/internal/signer"
	dErrors "certledger/pkg/domain-errors"
)

// appendAttempts bounds retries when a concurrent writer wins the block
// append race.
const appendAttempts = 3

// IssuerDirectory resolves issuer accounts and their signing keys.
// *issuer/service.Service satisfies it.
type IssuerDirectory interface {
	Issuer(ctx context.Context, issuerID string) (issuermodels.Issuer, error)
	Key(ctx context.Context, issuerID string) (issuermodels.KeyRecord, error)
}

// Option configures the credential service.
type Option func(*Service)

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics wires Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracer wires a tracer; defaults to a no-op.
func WithTracer(t tracing.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithBatchSize sets how many issuances accumulate before a block is
// appended. 1 (the default) anchors every issuance synchronously.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithClock overrides the timestamp source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// pendingItem is one issuance waiting for the next block. The private record
// and signature are persisted together with the block at flush time.
type pendingItem struct {
	credential models.Credential
	signature  models.SignatureRecord
}

// Service orchestrates issuance, verification, and revocation.
type Service struct {
	ledger  *ledger.Ledger
	chain   ledger.Store
	creds   credstore.Store
	issuers IssuerDirectory
	tx      TxRunner

	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    tracing.Tracer
	batchSize int
	now       func() time.Time

	mu      sync.Mutex
	pending []pendingItem
}

// New creates the credential service. chain and creds are read-side stores;
// writes go through tx.
func New(l *ledger.Ledger, chain ledger.Store, creds credstore.Store, issuers IssuerDirectory, tx TxRunner, opts ...Option) *Service {
	s := &Service{
		ledger:    l,
		chain:     chain,
		creds:     creds,
		issuers:   issuers,
		tx:        tx,
		tracer:    tracing.NewNoop(),
		batchSize: 1,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates a credential for the authenticated issuer: it derives the
// commitment, signs the canonical payload, and anchors the commitment on the
// ledger. With a batch size above one the issuance is queued instead and
// anchored when the batch fills or the flush worker fires.
func (s *Service) Issue(ctx context.Context, issuerID string, req models.IssueRequest) (result *models.IssueResult, err error) {
	ctx, span := s.tracer.Start(ctx, tracing.SpanIssue,
		tracing.String(tracing.AttrIssuerID, issuerID),
		tracing.String(tracing.AttrSubjectID, tracing.HashSubjectID(req.SubjectID)),
	)
	defer func() {
		span.End(err)
		if err != nil && s.metrics != nil {
			s.metrics.IssuanceFailures.WithLabelValues(string(dErrors.CodeOf(err))).Inc()
		}
	}()

	req.Normalize()
	if err = req.Validate(); err != nil {
		return nil, err
	}

	issuer, err := s.issuers.Issuer(ctx, issuerID)
	if err != nil {
		return nil, err
	}
	key, err := s.issuers.Key(ctx, issuerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	issueDate := req.IssueDate
	if issueDate == "" {
		issueDate = now.UTC().Format("2006-01-02")
	}

	item := pendingItem{
		credential: models.Credential{
			CertificateID: newCertificateID(req.SubjectID, req.ClaimName, now),
			SubjectName:   req.SubjectName,
			SubjectID:     req.SubjectID,
			ClaimName:     req.ClaimName,
			ClaimValue:    req.ClaimValue,
			IssuerID:      issuer.IssuerID,
			IssuerName:    issuer.Name,
			IssueDate:     issueDate,
			Timestamp:     now.UnixNano(),
			Status:        models.StatusActive,
		},
	}

	payload := signingPayload(item.credential)
	sig, err := signer.Sign(key.PrivateKey, payload)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "sign credential payload")
	}
	item.signature = models.SignatureRecord{
		CertificateID: item.credential.CertificateID,
		SignerKeyID:   key.KeyID,
		Signature:     sig,
		PublicKey:     key.PublicKey,
	}

	span.SetAttributes(tracing.String(tracing.AttrCertificateID, item.credential.CertificateID))

	if s.batchSize > 1 {
		s.mu.Lock()
		s.pending = append(s.pending, item)
		full := len(s.pending) >= s.batchSize
		var batch []pendingItem
		if full {
			batch, s.pending = s.pending, nil
		}
		s.mu.Unlock()

		if !full {
			span.SetAttributes(tracing.Bool(tracing.AttrPending, true))
			if s.metrics != nil {
				s.metrics.CredentialsIssued.Inc()
			}
			return &models.IssueResult{
				CertificateID: item.credential.CertificateID,
				Pending:       true,
				Signature:     sig,
			}, nil
		}

		block, flushErr := s.flush(ctx, batch)
		if flushErr != nil {
			err = flushErr
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.CredentialsIssued.Inc()
		}
		return &models.IssueResult{
			CertificateID: item.credential.CertificateID,
			Block:         &block,
			Signature:     sig,
		}, nil
	}

	block, err := s.flush(ctx, []pendingItem{item})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CredentialsIssued.Inc()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "credential issued",
			"certificate_id", item.credential.CertificateID,
			"issuer_id", issuer.IssuerID,
			"block_index", block.Index,
		)
	}
	return &models.IssueResult{
		CertificateID: item.credential.CertificateID,
		Block:         &block,
		Signature:     sig,
	}, nil
}

// FlushPending anchors whatever the batch queue holds. It returns the block
// and the number of items anchored; an empty queue is a no-op.
func (s *Service) FlushPending(ctx context.Context) (*ledger.Block, int, error) {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil, 0, nil
	}
	block, err := s.flush(ctx, batch)
	if err != nil {
		// Put the batch back so the items are not lost; the next flush
		// retries them.
		s.mu.Lock()
		s.pending = append(batch, s.pending...)
		s.mu.Unlock()
		return nil, 0, err
	}
	return &block, len(batch), nil
}

// flush appends one block for the batch and persists the private records and
// signatures in the same transaction. A lost append race is retried against
// the new chain tip.
func (s *Service) flush(ctx context.Context, batch []pendingItem) (ledger.Block, error) {
	items := make([]ledger.BatchItem, 0, len(batch))
	for _, p := range batch {
		items = append(items, ledger.BatchItem{
			CertificateID: p.credential.CertificateID,
			CommitmentHash: commitment.Hash(commitment.Fields{
				SubjectName: commitment.String(p.credential.SubjectName),
				SubjectID:   commitment.String(p.credential.SubjectID),
				ClaimValue:  commitment.String(p.credential.ClaimValue),
			}),
		})
	}

	ctx, span := s.tracer.Start(ctx, tracing.SpanLedgerFlush,
		tracing.Int64(tracing.AttrBatchSize, int64(len(batch))),
	)

	var block ledger.Block
	var err error
	for attempt := 1; attempt <= appendAttempts; attempt++ {
		err = s.tx.RunInTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
			appended, appendErr := s.ledger.AppendBatch(ctx, uow.Ledger(), items)
			if appendErr != nil {
				return appendErr
			}
			for _, p := range batch {
				if saveErr := uow.Credentials().SaveCredential(ctx, p.credential); saveErr != nil {
					if errors.Is(saveErr, sentinel.ErrConflict) {
						return dErrors.New(dErrors.CodeConflict, "certificate id already exists")
					}
					return dErrors.Wrap(saveErr, dErrors.CodeStorage, "save credential")
				}
				if saveErr := uow.Credentials().SaveSignature(ctx, p.signature); saveErr != nil {
					return dErrors.Wrap(saveErr, dErrors.CodeStorage, "save signature")
				}
			}
			block = appended
			return nil
		})
		if err == nil {
			break
		}
		if !dErrors.HasCode(err, dErrors.CodeConflict) || attempt == appendAttempts {
			span.End(err)
			return ledger.Block{}, err
		}
		if s.metrics != nil {
			s.metrics.AppendConflicts.Inc()
		}
		span.AddEvent(tracing.EventAppendRetried, tracing.Int64("attempt", int64(attempt)))
		if s.logger != nil {
			s.logger.WarnContext(ctx, "block append race lost, retrying",
				"attempt", attempt,
			)
		}
	}

	span.AddEvent(tracing.EventBlockAppended, tracing.Int64(tracing.AttrBlockIndex, block.Index))
	span.End(nil)
	if s.metrics != nil {
		s.metrics.BlocksAppended.Inc()
		s.metrics.BatchSize.Observe(float64(len(batch)))
	}
	return block, nil
}

// Verify replays the full evidence chain for a certificate: ledger presence,
// commitment recomputation, Merkle proof, issuer signature, and revocation
// status. Cryptographic failures come back as diagnostics on the result, not
// as errors; only storage trouble errors out.
func (s *Service) Verify(ctx context.Context, certificateID string) (result *models.VerificationResult, err error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, tracing.SpanVerify,
		tracing.String(tracing.AttrCertificateID, certificateID),
	)
	defer func() {
		span.End(err)
		if s.metrics != nil {
			s.metrics.VerificationLatency.Observe(time.Since(start).Seconds())
			if err == nil {
				s.metrics.Verifications.WithLabelValues(verificationOutcome(result)).Inc()
			}
		}
		if result != nil {
			span.SetAttributes(tracing.String(tracing.AttrOutcome, verificationOutcome(result)))
		}
	}()

	certificateID = strings.TrimSpace(certificateID)
	if certificateID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "certificate_id is required")
	}

	entry, err := s.chain.EntryByCertificateID(ctx, certificateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return &models.VerificationResult{Reason: models.ReasonNotFound}, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "read ledger entry")
	}

	result = &models.VerificationResult{
		Verified:   true,
		BlockIndex: entry.BlockIndex,
		BlockHash:  entry.BlockHash,
		MerkleRoot: entry.MerkleRoot,
		Timestamp:  entry.Timestamp,
	}

	cred, err := s.creds.CredentialByID(ctx, certificateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Anchored on the ledger but the private record is gone. The
			// evidence cannot be replayed without it.
			result.Reason = models.ReasonDataInconsistency
			return result, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "read credential")
	}
	result.Credential = &cred
	result.Status = cred.Status

	recomputed := commitment.Hash(commitment.Fields{
		SubjectName: commitment.String(cred.SubjectName),
		SubjectID:   commitment.String(cred.SubjectID),
		ClaimValue:  commitment.String(cred.ClaimValue),
	})
	result.CommitmentValid = recomputed == entry.CommitmentHash

	siblings, err := s.chain.EntriesByBlockIndex(ctx, entry.BlockIndex)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "read block entries")
	}
	leaves := make([]string, 0, len(siblings))
	for _, sibling := range siblings {
		leaves = append(leaves, sibling.CommitmentHash)
	}
	if proof, found := merkle.GenerateProof(leaves, entry.CommitmentHash); found {
		result.Proof = proof
		result.ProofValid = merkle.VerifyProof(entry.CommitmentHash, entry.MerkleRoot, proof)
	}

	if sigRecord, sigErr := s.creds.SignatureByCertificateID(ctx, certificateID); sigErr == nil {
		result.SignatureValid = signer.Verify(sigRecord.PublicKey, signingPayload(cred), sigRecord.Signature)
	} else if !errors.Is(sigErr, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(sigErr, dErrors.CodeStorage, "read signature")
	}

	result.Valid = result.CommitmentValid && result.ProofValid && result.SignatureValid &&
		cred.Status == models.StatusActive
	if !result.Valid {
		result.Reason = failureReason(result, cred.Status)
	}
	return result, nil
}

// Revoke flips a credential to revoked. Only the issuing institution may
// revoke, the transition is one-way, and revoking twice is a no-op. The
// ledger entry is untouched; status lives beside the private record.
func (s *Service) Revoke(ctx context.Context, issuerID, certificateID, reason string) (*models.Credential, error) {
	ctx, span := s.tracer.Start(ctx, tracing.SpanRevoke,
		tracing.String(tracing.AttrCertificateID, certificateID),
		tracing.String(tracing.AttrIssuerID, issuerID),
	)
	var err error
	defer func() { span.End(err) }()

	cred, err := s.creds.CredentialByID(ctx, certificateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			err = dErrors.New(dErrors.CodeNotFound, "certificate not found")
			return nil, err
		}
		err = dErrors.Wrap(err, dErrors.CodeStorage, "read credential")
		return nil, err
	}
	if cred.IssuerID != issuerID {
		err = dErrors.New(dErrors.CodeForbidden, "certificate was issued by a different institution")
		return nil, err
	}
	if cred.Status == models.StatusRevoked {
		return &cred, nil
	}

	if err = s.creds.SetStatus(ctx, certificateID, models.StatusRevoked, reason); err != nil {
		err = dErrors.Wrap(err, dErrors.CodeStorage, "revoke credential")
		return nil, err
	}
	cred.Status = models.StatusRevoked
	cred.RevocationReason = reason

	if s.metrics != nil {
		s.metrics.CredentialsRevoked.Inc()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "credential revoked",
			"certificate_id", certificateID,
			"issuer_id", issuerID,
		)
	}
	return &cred, nil
}

// Credential returns the private record for a certificate.
func (s *Service) Credential(ctx context.Context, certificateID string) (models.Credential, error) {
	cred, err := s.creds.CredentialByID(ctx, certificateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Credential{}, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return models.Credential{}, dErrors.Wrap(err, dErrors.CodeStorage, "read credential")
	}
	return cred, nil
}

// BySubject lists a subject's credentials, newest first.
func (s *Service) BySubject(ctx context.Context, subjectID string) ([]models.Credential, error) {
	creds, err := s.creds.CredentialsBySubject(ctx, subjectID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "list by subject")
	}
	return creds, nil
}

// ByIssuer lists an issuer's credentials, newest first.
func (s *Service) ByIssuer(ctx context.Context, issuerID string) ([]models.Credential, error) {
	creds, err := s.creds.CredentialsByIssuer(ctx, issuerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "list by issuer")
	}
	return creds, nil
}

// LedgerStatus aggregates chain shape with credential lifecycle counts.
type LedgerStatus struct {
	ledger.Info
	ActiveCredentials  int64 `json:"active_credentials"`
	RevokedCredentials int64 `json:"revoked_credentials"`
}

// Status reports the ledger's shape and credential counts.
func (s *Service) Status(ctx context.Context) (LedgerStatus, error) {
	info, err := s.ledger.ChainInfo(ctx)
	if err != nil {
		return LedgerStatus{}, err
	}
	active, revoked, err := s.creds.StatusCounts(ctx)
	if err != nil {
		return LedgerStatus{}, dErrors.Wrap(err, dErrors.CodeStorage, "count credentials")
	}
	return LedgerStatus{Info: info, ActiveCredentials: active, RevokedCredentials: revoked}, nil
}

// ValidateChain runs a full integrity walk over the chain.
func (s *Service) ValidateChain(ctx context.Context) (ledger.ChainReport, error) {
	ctx, span := s.tracer.Start(ctx, tracing.SpanChainCheck)
	report, err := s.ledger.ValidateChain(ctx)
	span.End(err)
	if err != nil {
		return ledger.ChainReport{}, err
	}
	if s.metrics != nil {
		label := "valid"
		if !report.Valid {
			label = string(report.Failure)
		}
		s.metrics.ChainValidations.WithLabelValues(label).Inc()
	}
	return report, nil
}

// signingPayload builds the canonical signature payload from a stored record.
// The subject's name is deliberately absent.
func signingPayload(cred models.Credential) signer.Payload {
	return signer.Payload{
		CertificateID: cred.CertificateID,
		SubjectID:     cred.SubjectID,
		ClaimName:     cred.ClaimName,
		ClaimValue:    cred.ClaimValue,
		IssuerID:      cred.IssuerID,
		IssueDate:     cred.IssueDate,
		Timestamp:     cred.Timestamp,
	}
}

// newCertificateID derives a 32-hex-char id from the claim coordinates, the
// issuance instant, and a random nonce, so concurrent issuance of identical
// claims still gets distinct ids.
func newCertificateID(subjectID, claimName string, now time.Time) string {
	seed := fmt.Sprintf("%s|%s|%d|%s", subjectID, claimName, now.UnixNano(), uuid.NewString())
	sum := sha256.Sum256([]byte(seed))
	return strings.ToUpper(hex.EncodeToString(sum[:16]))
}

// failureReason picks the dominant diagnosis for an anchored but invalid
// credential, in evidence order.
func failureReason(result *models.VerificationResult, status models.Status) string {
	switch {
	case !result.CommitmentValid:
		return models.ReasonCommitmentMismatch
	case !result.ProofValid:
		return models.ReasonProofInvalid
	case !result.SignatureValid:
		return models.ReasonSignatureInvalid
	case status == models.StatusRevoked:
		return models.ReasonRevoked
	}
	return ""
}

// verificationOutcome maps a result to its metrics label.
func verificationOutcome(result *models.VerificationResult) string {
	if result == nil {
		return "error"
	}
	if result.Valid {
		return "valid"
	}
	if result.Reason != "" {
		return result.Reason
	}
	return "invalid"
}
