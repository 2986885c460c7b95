package domainerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the domain error primitives.
//
// These are the error primitives used at every trust boundary, so invariants
// like "wrapped domain errors preserve original code" and "errors.Is matches
// by code" need to hold.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeNotFound, Message: "credential not found"}
		s.Equal("credential not found", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodeIntegrityViolation}
		s.Equal("integrity_violation", err.Error())
	})
}

func (s *DomainErrorsSuite) TestUnwrap() {
	inner := errors.New("disk failure")
	err := Wrap(inner, CodeStorage, "failed to persist block")
	s.ErrorIs(err, inner)
}

func (s *DomainErrorsSuite) TestIsMatchesByCode() {
	err := New(CodeConflict, "block index already taken")
	s.ErrorIs(err, &Error{Code: CodeConflict})
	s.NotErrorIs(err, &Error{Code: CodeNotFound})
}

func (s *DomainErrorsSuite) TestWrapPreservesOriginalCode() {
	original := New(CodeConflict, "append race")
	wrapped := Wrap(original, CodeInternal, "issuance failed")

	s.True(HasCode(wrapped, CodeConflict))
	s.False(HasCode(wrapped, CodeInternal))
}

func (s *DomainErrorsSuite) TestHasCode() {
	s.True(HasCode(New(CodeSignatureInvalid, ""), CodeSignatureInvalid))
	s.False(HasCode(errors.New("plain"), CodeSignatureInvalid))
	s.False(HasCode(nil, CodeSignatureInvalid))
}

func (s *DomainErrorsSuite) TestCodeOf() {
	s.Equal(CodeNotFound, CodeOf(New(CodeNotFound, "missing")))
	s.Equal(CodeInternal, CodeOf(errors.New("plain")))
}
