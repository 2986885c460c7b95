package signer

import "encoding/json"

// Payload is the fixed field set covered by a credential signature.
//
// The subject's display name is deliberately absent (PII minimization), and
// so is the signature itself (circularity). The set is part of the external
// contract: adding or removing a field invalidates verification of every
// record signed under the old set, so schema changes need explicit
// versioning rather than edits here.
type Payload struct {
	CertificateID string
	SubjectID     string
	ClaimName     string
	ClaimValue    string
	IssuerID      string
	IssueDate     string
	Timestamp     int64
}

// Canonical serializes the payload deterministically: a sorted-key JSON
// object, identical across implementations, so signatures are reproducible
// cross-language.
func (p Payload) Canonical() ([]byte, error) {
	// A map guarantees sorted key output from encoding/json.
	return json.Marshal(map[string]any{
		"certificate_id": p.CertificateID,
		"claim_name":     p.ClaimName,
		"claim_value":    p.ClaimValue,
		"issue_date":     p.IssueDate,
		"issuer_id":      p.IssuerID,
		"subject_id":     p.SubjectID,
		"timestamp":      p.Timestamp,
	})
}
