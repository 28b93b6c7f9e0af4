// Package businessflow contains the core business logic for the search and tagging engine.
package businessflow

import (
	"errors"
	"fmt"

	"github.com/opencivic/agora/repository"
)

// Business flow error constants
var (
	// Taxonomy errors
	ErrInvalidTagName = errors.New("invalid tag name")
	ErrTagNotFound    = errors.New("tag not found")

	// Entity errors. ErrEntityNotFound aliases the repository sentinel so
	// errors.Is works whichever layer raised it.
	ErrEntityNotFound = repository.ErrEntityNotFound
	ErrInvalidKind    = errors.New("invalid entity kind")

	// Creator errors
	ErrCreatorNotFound = errors.New("creator not found")
	ErrCreatorInactive = errors.New("creator is inactive")

	// Storage failures propagate wrapped in this sentinel; retry policy
	// belongs to the caller's infrastructure, not this core.
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)

// BusinessError carries a stable machine code alongside the human message.
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// AsBusinessError unwraps err into a *BusinessError if one is in the chain.
func AsBusinessError(err error, target **BusinessError) bool {
	return errors.As(err, target)
}

func IsInvalidTagName(err error) bool {
	return errors.Is(err, ErrInvalidTagName)
}

func IsTagNotFound(err error) bool {
	return errors.Is(err, ErrTagNotFound)
}

func IsEntityNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound)
}

func IsRepositoryUnavailable(err error) bool {
	return errors.Is(err, ErrRepositoryUnavailable)
}

// repoErr wraps storage failures so they surface as a distinct
// RepositoryUnavailable condition without losing the cause.
func repoErr(err error) error {
	return fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
}
