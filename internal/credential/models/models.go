// Package models defines the credential records shared by the service,
// stores, and transport layer.
package models

import (
	"strings"

	"certledger/internal/ledger"
	"certledger/internal/merkle"
	dErrors "certledger/pkg/domain-errors"
)

// Status is the lifecycle state of a credential. The only transition is
// active to revoked, and it is one-way.
type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// Credential is the private record holding the full claim, PII included.
// It never appears on the ledger; only its commitment hash does.
type Credential struct {
	CertificateID    string `json:"certificate_id"`
	SubjectName      string `json:"subject_name"`
	SubjectID        string `json:"subject_id"`
	ClaimName        string `json:"claim_name"`
	ClaimValue       string `json:"claim_value"`
	IssuerID         string `json:"issuer_id"`
	IssuerName       string `json:"issuer_name"`
	IssueDate        string `json:"issue_date"`
	Timestamp        int64  `json:"timestamp"`
	Status           Status `json:"status"`
	RevocationReason string `json:"revocation_reason,omitempty"`
}

// SignatureRecord binds a certificate to its issuer's signature over the
// canonical non-PII payload. The public key is denormalized so verification
// needs no key-store lookup.
type SignatureRecord struct {
	CertificateID string `json:"certificate_id"`
	SignerKeyID   string `json:"signer_key_id"`
	Signature     string `json:"signature"`
	PublicKey     string `json:"public_key"`
}

// IssueRequest carries the claim fields an authenticated issuer submits.
type IssueRequest struct {
	SubjectName string `json:"subject_name"`
	SubjectID   string `json:"subject_id"`
	ClaimName   string `json:"claim_name"`
	ClaimValue  string `json:"claim_value"`
	IssueDate   string `json:"issue_date,omitempty"`
}

// Normalize trims surrounding whitespace from all fields.
func (r *IssueRequest) Normalize() {
	r.SubjectName = strings.TrimSpace(r.SubjectName)
	r.SubjectID = strings.TrimSpace(r.SubjectID)
	r.ClaimName = strings.TrimSpace(r.ClaimName)
	r.ClaimValue = strings.TrimSpace(r.ClaimValue)
	r.IssueDate = strings.TrimSpace(r.IssueDate)
}

// Validate rejects requests missing required claim fields.
func (r *IssueRequest) Validate() error {
	switch {
	case r.SubjectName == "":
		return dErrors.New(dErrors.CodeValidation, "subject_name is required")
	case r.SubjectID == "":
		return dErrors.New(dErrors.CodeValidation, "subject_id is required")
	case r.ClaimName == "":
		return dErrors.New(dErrors.CodeValidation, "claim_name is required")
	case r.ClaimValue == "":
		return dErrors.New(dErrors.CodeValidation, "claim_value is required")
	}
	return nil
}

// IssueResult reports what issuance anchored. Pending means the credential
// joined the current batch and will be anchored at the next flush.
type IssueResult struct {
	CertificateID string        `json:"certificate_id"`
	Pending       bool          `json:"pending"`
	Block         *ledger.Block `json:"block,omitempty"`
	Signature     string        `json:"signature,omitempty"`
}

// Reason codes carried by verification results.
const (
	ReasonNotFound           = "not_found"
	ReasonDataInconsistency  = "data_inconsistency"
	ReasonCommitmentMismatch = "commitment_mismatch"
	ReasonProofInvalid       = "merkle_proof_invalid"
	ReasonSignatureInvalid   = "signature_invalid"
	ReasonRevoked            = "revoked"
)

// VerificationResult is the evidence bundle returned for a public
// verification query. Verified says the certificate exists on the ledger;
// Valid is the overall verdict.
type VerificationResult struct {
	Verified bool   `json:"verified"`
	Valid    bool   `json:"valid"`
	Reason   string `json:"reason,omitempty"`

	Status          Status `json:"status,omitempty"`
	CommitmentValid bool   `json:"commitment_valid"`
	ProofValid      bool   `json:"proof_valid"`
	SignatureValid  bool   `json:"signature_valid"`

	Credential *Credential        `json:"credential,omitempty"`
	Proof      []merkle.ProofStep `json:"merkle_proof,omitempty"`
	BlockIndex int64              `json:"block_index,omitempty"`
	BlockHash  string             `json:"block_hash,omitempty"`
	MerkleRoot string             `json:"merkle_root,omitempty"`
	Timestamp  int64              `json:"timestamp,omitempty"`
}
