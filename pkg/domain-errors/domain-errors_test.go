package domainerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the domain error primitives.
//
// Justification: every verification failure in the token and lifecycle layers
// is reported through these codes, so invariants like "wrapped domain errors
// preserve original code" and "errors.Is matches by code" must hold.
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
		err := &Error{Code: CodeInvalidSignature}
		s.Equal("invalid_signature", err.Error())
	})
}

func (s *DomainErrorsSuite) TestUnwrap() {
	s.Run("returns wrapped error", func() {
		inner := errors.New("registry unreachable")
		err := &Error{Code: CodeRegistry, Message: "registry call failed", Err: inner}
		s.Equal(inner, err.Unwrap())
	})

	s.Run("returns nil when no wrapped error", func() {
		err := &Error{Code: CodeNotFound, Message: "not found"}
		s.Nil(err.Unwrap())
	})
}

func (s *DomainErrorsSuite) TestIsMatching() {
	s.Run("matches by code only", func() {
		err1 := &Error{Code: CodeExpired, Message: "token expired at 12:00"}
		err2 := &Error{Code: CodeExpired, Message: "token expired at 13:00"}
		s.True(errors.Is(err1, err2))
	})

	s.Run("does not match different codes", func() {
		err1 := &Error{Code: CodeExpired}
		err2 := &Error{Code: CodeNotYetValid}
		s.False(errors.Is(err1, err2))
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("preserves code of wrapped domain error", func() {
		inner := New(CodeProtocol, "malformed token")
		wrapped := Wrap(inner, CodeInternal, "verification failed")
		s.True(HasCode(wrapped, CodeProtocol))
	})

	s.Run("applies code to plain errors", func() {
		wrapped := Wrap(errors.New("dial tcp: refused"), CodeRegistry, "registry call failed")
		s.True(HasCode(wrapped, CodeRegistry))
	})
}

func (s *DomainErrorsSuite) TestHasCode() {
	s.False(HasCode(nil, CodeNotFound))
	s.False(HasCode(errors.New("plain"), CodeNotFound))
	s.True(HasCode(New(CodeAccessDenied, "only the issuer can revoke"), CodeAccessDenied))
}
