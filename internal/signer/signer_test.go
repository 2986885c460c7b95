package signer

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SignerSuite struct {
	suite.Suite
	keys    KeyPair
	payload Payload
}

func TestSignerSuite(t *testing.T) {
	suite.Run(t, new(SignerSuite))
}

func (s *SignerSuite) SetupTest() {
	keys, err := GenerateKeyPair()
	s.Require().NoError(err)
	s.keys = keys
	s.payload = Payload{
		CertificateID: "A1B2C3D4E5F60718",
		SubjectID:     "STU001",
		ClaimName:     "Distributed Systems",
		ClaimValue:    "A+",
		IssuerID:      "MIT001",
		IssueDate:     "2026-08-29",
		Timestamp:     1790674800000000000,
	}
}

func (s *SignerSuite) TestGenerateKeyPairFormat() {
	// Both halves decode as base64-wrapped PEM.
	for _, encoded := range []string{s.keys.PrivateKey, s.keys.PublicKey} {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		s.Require().NoError(err)
		s.Contains(string(raw), "-----BEGIN")
	}
	s.NotEqual(s.keys.PrivateKey, s.keys.PublicKey)
}

func (s *SignerSuite) TestSignVerifyRoundTrip() {
	sig, err := Sign(s.keys.PrivateKey, s.payload)
	s.Require().NoError(err)
	s.True(Verify(s.keys.PublicKey, s.payload, sig))
}

func (s *SignerSuite) TestVerifyRejectsPayloadChange() {
	sig, err := Sign(s.keys.PrivateKey, s.payload)
	s.Require().NoError(err)

	altered := s.payload
	altered.ClaimValue = "B"
	s.False(Verify(s.keys.PublicKey, altered, sig))

	altered = s.payload
	altered.Timestamp++
	s.False(Verify(s.keys.PublicKey, altered, sig))
}

func (s *SignerSuite) TestVerifyRejectsCorruptedSignature() {
	sig, err := Sign(s.keys.PrivateKey, s.payload)
	s.Require().NoError(err)

	raw, err := base64.StdEncoding.DecodeString(sig)
	s.Require().NoError(err)
	raw[len(raw)/2] ^= 0x01
	corrupted := base64.StdEncoding.EncodeToString(raw)
	s.False(Verify(s.keys.PublicKey, s.payload, corrupted))
}

func (s *SignerSuite) TestVerifyRejectsWrongKey() {
	sig, err := Sign(s.keys.PrivateKey, s.payload)
	s.Require().NoError(err)

	other, err := GenerateKeyPair()
	s.Require().NoError(err)
	s.False(Verify(other.PublicKey, s.payload, sig))
}

func (s *SignerSuite) TestVerifyNeverErrorsOnGarbage() {
	s.False(Verify("not-base64!!", s.payload, "junk"))
	s.False(Verify(s.keys.PublicKey, s.payload, "junk"))
	s.False(Verify(base64.StdEncoding.EncodeToString([]byte("no pem here")), s.payload, ""))
}

func (s *SignerSuite) TestSignRejectsMalformedKey() {
	_, err := Sign("garbage", s.payload)
	s.Error(err)
}

func TestCanonicalPayloadIsStable(t *testing.T) {
	p := Payload{
		CertificateID: "C1",
		SubjectID:     "S1",
		ClaimName:     "Algebra",
		ClaimValue:    "A",
		IssuerID:      "I1",
		IssueDate:     "2026-01-02",
		Timestamp:     42,
	}
	data, err := p.Canonical()
	require.NoError(t, err)
	require.JSONEq(t,
		`{"certificate_id":"C1","claim_name":"Algebra","claim_value":"A","issue_date":"2026-01-02","issuer_id":"I1","subject_id":"S1","timestamp":42}`,
		string(data))
	// Keys come out sorted, byte for byte.
	require.Equal(t,
		`{"certificate_id":"C1","claim_name":"Algebra","claim_value":"A","issue_date":"2026-01-02","issuer_id":"I1","subject_id":"S1","timestamp":42}`,
		string(data))
}
