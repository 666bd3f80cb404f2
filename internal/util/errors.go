package util

import (
	"errors"
	"strings"
)

var (
	ErrEmailRegistered    = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrTrilhaNotFound     = errors.New("trilha not found")
	ErrConteudoNotFound   = errors.New("conteudo not found")
	ErrNoQuestions        = errors.New("conteudo has no questions")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrSessionNotFound    = errors.New("quiz session not found")
	ErrNotSessionOwner    = errors.New("session belongs to another user")
	ErrSessionCompleted   = errors.New("quiz session already completed")
	ErrSessionAbandoned   = errors.New("quiz session was abandoned")
	ErrSessionTimeout     = errors.New("quiz session timed out")
	ErrSessionConflict    = errors.New("concurrent modification of quiz session")
	ErrInvalidState       = errors.New("operation not valid for session state")
	ErrAlreadyEnrolled    = errors.New("user already enrolled in trilha")
	ErrNotEnrolled        = errors.New("user not enrolled in trilha")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError carries every violated constraint of a request.
// Handlers accumulate violations instead of failing on the first one.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// NewValidationError returns nil when no violations were collected, so
// callers can build the list unconditionally and return the result.
func NewValidationError(violations []string) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

// IsTerminalRejection reports whether err is one of the terminal-state
// rejections a session returns after completion or abandonment.
func IsTerminalRejection(err error) bool {
	return errors.Is(err, ErrSessionCompleted) || errors.Is(err, ErrSessionAbandoned)
}
