package domainerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorString() {
	s.Run("message wins over code", func() {
		err := &Error{Code: CodeNotFound, Message: "session not found"}
		s.Equal("session not found", err.Error())
	})

	s.Run("falls back to code", func() {
		err := &Error{Code: CodeUnavailable}
		s.Equal("unavailable", err.Error())
	})
}

func (s *DomainErrorsSuite) TestIs() {
	s.Run("matches by code only", func() {
		a := &Error{Code: CodeNotFound, Message: "session not found"}
		b := &Error{Code: CodeNotFound, Message: "consent record not found"}
		s.True(a.Is(b))
	})

	s.Run("plain errors never match", func() {
		s.False((&Error{Code: CodeNotFound}).Is(errors.New("not found")))
	})

	s.Run("errors.Is walks the chain", func() {
		inner := &Error{Code: CodeNotFound}
		outer := &Error{Code: CodeInternal, Err: inner}
		s.True(errors.Is(outer, &Error{Code: CodeNotFound}))
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("keeps the first classification", func() {
		wrapped := Wrap(New(CodeUnavailable, "queue full"), CodeInternal, "push failed")

		var de *Error
		s.Require().True(errors.As(wrapped, &de))
		s.Equal(CodeUnavailable, de.Code)
		s.Equal("push failed", de.Message)
	})

	s.Run("classifies plain errors", func() {
		root := errors.New("redis: connection refused")
		wrapped := Wrap(root, CodeInternal, "failed to persist consent")

		s.True(HasCode(wrapped, CodeInternal))
		s.True(errors.Is(wrapped, root))
	})
}

func (s *DomainErrorsSuite) TestHasCode() {
	s.True(HasCode(New(CodeConflict, "already resolved"), CodeConflict))
	s.False(HasCode(New(CodeConflict, "already resolved"), CodeInternal))
	s.False(HasCode(errors.New("plain"), CodeInternal))
	s.False(HasCode(nil, CodeInternal))
}
