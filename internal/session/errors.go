package session

import (
	"errors"
	"fmt"

	"github.com/pavelanni/mockexam/internal/model"
)

var (
	// ErrInvalidTransition is matched by every *TransitionError.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrAlreadyAnswered means the current question already has an answer or a flag.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrNotAnswered means advance was called before the current question was settled.
	ErrNotAnswered = errors.New("question not answered")
	// ErrInvalidChoice means the submitted key is not one of A, B, C, D.
	ErrInvalidChoice = errors.New("invalid choice")
	// ErrWrongQuestion means an answer was submitted for a question other than the current one.
	ErrWrongQuestion = errors.New("not the current question")
)

// TransitionError reports an operation attempted in a phase that does not allow it.
type TransitionError struct {
	Op    string
	Phase model.Phase
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: not allowed in phase %s", e.Op, e.Phase)
}

// Is makes errors.Is(err, ErrInvalidTransition) true.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// ConfigurationError reports a rejected duration or exam definition at setup.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return "configure exam: " + e.Reason + ": " + e.Err.Error()
	}
	return "configure exam: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
