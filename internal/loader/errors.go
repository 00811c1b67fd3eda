package loader

import "fmt"

// Kind classifies a structural problem in an exam document.
type Kind string

const (
	KindInvalidJSON          Kind = "invalid_json"
	KindMissingField         Kind = "missing_field"
	KindEmptyQuestions       Kind = "empty_questions"
	KindKeyMismatch          Kind = "key_mismatch"
	KindInvalidCorrectAnswer Kind = "invalid_correct_answer"
)

// MalformedExamError reports the first structural violation found in an exam document.
type MalformedExamError struct {
	Kind   Kind
	Field  string // JSON path of the offending field, e.g. questions[3].options
	Index  int    // question index, -1 when the problem is not question specific
	Detail string
	Err    error
}

func (e *MalformedExamError) Error() string {
	msg := "malformed exam: " + string(e.Kind)
	if e.Field != "" {
		msg += fmt.Sprintf(" at %s", e.Field)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *MalformedExamError) Unwrap() error {
	return e.Err
}

func malformed(kind Kind, index int, field, detail string) *MalformedExamError {
	return &MalformedExamError{Kind: kind, Index: index, Field: field, Detail: detail}
}
