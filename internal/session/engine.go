// Package session implements the exam session engine.
//
// An Engine moves one attempt through its phases:
//   - Setup: an exam definition and duration are configured.
//   - InProgress: questions are answered or flagged one at a time, in order.
//   - Finished: the attempt is scored and recorded in the history ledger.
//   - Reviewing: a read-only view over the finished attempt.
//
// Finished returns to Setup through Reset, and Reviewing returns to Finished
// through ExitReview, so one engine serves repeated attempts. Time expiry is
// observed only when the caller polls Tick. An Engine is not safe for
// concurrent use.
package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/mockexam/internal/history"
	"github.com/pavelanni/mockexam/internal/loader"
	"github.com/pavelanni/mockexam/internal/model"
)

const (
	MinDurationMinutes     = 30
	MaxDurationMinutes     = 180
	DefaultDurationMinutes = 90
)

// Finish reasons, logged when an attempt ends.
const (
	reasonCompleted = "completed"
	reasonExpired   = "time_expired"
	reasonEarly     = "finished_early"
)

// Engine is the exam session state machine.
type Engine struct {
	def        model.ExamDefinition
	configured bool
	state      *State
	result     *model.ScoreSummary
	ledger     *history.Ledger
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now as the source of the start and finish instants.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLedger makes the engine append results to l instead of a private ledger.
func WithLedger(l *history.Ledger) Option {
	return func(e *Engine) { e.ledger = l }
}

// New creates an Engine in the Setup phase.
func New(opts ...Option) *Engine {
	e := &Engine{
		state:  newState(),
		ledger: history.New(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Phase returns the current lifecycle phase.
func (e *Engine) Phase() model.Phase {
	return e.state.Phase
}

// Definition returns the configured exam and whether one is configured.
func (e *Engine) Definition() (model.ExamDefinition, bool) {
	return e.def, e.configured
}

// Snapshot returns a deep copy of the session state.
func (e *Engine) Snapshot() State {
	return e.state.Clone()
}

// History returns the ledger that finished attempts are appended to.
func (e *Engine) History() *history.Ledger {
	return e.ledger
}

// Configure stores the exam definition and duration. It is valid only in Setup
// and may be called again to replace an earlier configuration.
func (e *Engine) Configure(def model.ExamDefinition, durationMinutes int) error {
	if e.state.Phase != model.PhaseSetup {
		return &TransitionError{Op: "configure", Phase: e.state.Phase}
	}
	if durationMinutes < MinDurationMinutes || durationMinutes > MaxDurationMinutes {
		return &ConfigurationError{
			Reason: fmt.Sprintf("duration %d minutes outside %d-%d", durationMinutes, MinDurationMinutes, MaxDurationMinutes),
		}
	}
	if err := loader.Validate(def); err != nil {
		return &ConfigurationError{Reason: "invalid exam definition", Err: err}
	}

	e.def = def
	e.configured = true
	e.state.DurationMinutes = durationMinutes
	slog.Debug("exam configured", "title", def.Title, "questions", def.Len(), "duration_minutes", durationMinutes)
	return nil
}

// Start moves Setup to InProgress and records the start instant.
func (e *Engine) Start() error {
	if e.state.Phase != model.PhaseSetup {
		return &TransitionError{Op: "start", Phase: e.state.Phase}
	}
	if !e.configured {
		return &ConfigurationError{Reason: "no exam configured"}
	}

	e.state.Phase = model.PhaseInProgress
	e.state.StartedAt = e.now()
	e.state.CurrentIndex = 0
	slog.Debug("exam started", "title", e.def.Title, "started_at", e.state.StartedAt)
	return nil
}

// Tick polls the timer at now and forces Finished once no time remains.
// It returns the remaining seconds. In Finished and Reviewing it is a no-op.
func (e *Engine) Tick(now time.Time) (int, error) {
	switch e.state.Phase {
	case model.PhaseInProgress:
	case model.PhaseFinished, model.PhaseReviewing:
		return 0, nil
	default:
		return 0, &TransitionError{Op: "tick", Phase: e.state.Phase}
	}

	left := Remaining(e.state.DurationMinutes, e.state.StartedAt, now)
	if left == 0 {
		e.finish(reasonExpired)
	}
	return left, nil
}

// Remaining returns the seconds left at now without changing any state.
func (e *Engine) Remaining(now time.Time) int {
	return Remaining(e.state.DurationMinutes, e.state.StartedAt, now)
}

// SubmitAnswer records choice for the current question and reveals its
// explanations. It does not advance; call Advance to move on.
func (e *Engine) SubmitAnswer(index int, choice model.Choice) error {
	if e.state.Phase != model.PhaseInProgress {
		return &TransitionError{Op: "submit answer", Phase: e.state.Phase}
	}
	if index != e.state.CurrentIndex {
		return fmt.Errorf("submit answer %d: current question is %d: %w", index, e.state.CurrentIndex, ErrWrongQuestion)
	}
	if e.state.settled(index) {
		return fmt.Errorf("submit answer %d: %w", index, ErrAlreadyAnswered)
	}
	if !choice.Valid() {
		return fmt.Errorf("submit answer %d: %q: %w", index, choice, ErrInvalidChoice)
	}

	e.state.Answers[index] = choice
	e.state.Revealed.Add(index)
	slog.Debug("answer submitted", "index", index, "choice", choice)
	return nil
}

// FlagCurrent excludes the current, unanswered question from scoring and
// advances exactly like Advance.
func (e *Engine) FlagCurrent() error {
	if e.state.Phase != model.PhaseInProgress {
		return &TransitionError{Op: "flag", Phase: e.state.Phase}
	}
	idx := e.state.CurrentIndex
	if e.state.settled(idx) {
		return fmt.Errorf("flag question %d: %w", idx, ErrAlreadyAnswered)
	}

	e.state.Flagged.Add(idx)
	slog.Debug("question flagged", "index", idx)
	e.step()
	return nil
}

// Advance moves to the next question, or to Finished from the last one.
// The current question must be answered or flagged.
func (e *Engine) Advance() error {
	if e.state.Phase != model.PhaseInProgress {
		return &TransitionError{Op: "advance", Phase: e.state.Phase}
	}
	if !e.state.settled(e.state.CurrentIndex) {
		return fmt.Errorf("advance from question %d: %w", e.state.CurrentIndex, ErrNotAnswered)
	}
	e.step()
	return nil
}

func (e *Engine) step() {
	if e.state.CurrentIndex >= e.def.Len()-1 {
		e.finish(reasonCompleted)
		return
	}
	e.state.CurrentIndex++
}

// FinishNow ends an attempt early. Calling it again once finished is a no-op.
func (e *Engine) FinishNow() error {
	switch e.state.Phase {
	case model.PhaseInProgress:
		e.finish(reasonEarly)
		return nil
	case model.PhaseFinished, model.PhaseReviewing:
		return nil
	default:
		return &TransitionError{Op: "finish", Phase: e.state.Phase}
	}
}

func (e *Engine) finish(reason string) {
	summary := Score(e.def, *e.state)
	summary.ID = uuid.NewString()
	summary.Timestamp = e.now()

	e.state.Phase = model.PhaseFinished
	e.result = &summary
	e.ledger.Append(summary)

	slog.Info("exam finished",
		"title", summary.ExamTitle,
		"reason", reason,
		"correct", summary.CorrectCount,
		"valid_total", summary.ValidTotal,
		"flagged", summary.FlaggedCount,
		"percentage", summary.Percentage,
	)
}

// Result returns the summary produced when the attempt finished.
func (e *Engine) Result() (model.ScoreSummary, bool) {
	if e.result == nil {
		return model.ScoreSummary{}, false
	}
	return *e.result, true
}

// Score recomputes the summary of the finished attempt.
func (e *Engine) Score() (model.ScoreSummary, error) {
	if e.state.Phase != model.PhaseFinished && e.state.Phase != model.PhaseReviewing {
		return model.ScoreSummary{}, &TransitionError{Op: "score", Phase: e.state.Phase}
	}
	summary := Score(e.def, *e.state)
	if e.result != nil {
		summary.ID = e.result.ID
		summary.Timestamp = e.result.Timestamp
	}
	return summary, nil
}

// EnterReview moves Finished to Reviewing.
func (e *Engine) EnterReview() error {
	if e.state.Phase != model.PhaseFinished {
		return &TransitionError{Op: "enter review", Phase: e.state.Phase}
	}
	e.state.Phase = model.PhaseReviewing
	return nil
}

// ExitReview moves Reviewing back to Finished.
func (e *Engine) ExitReview() error {
	if e.state.Phase != model.PhaseReviewing {
		return &TransitionError{Op: "exit review", Phase: e.state.Phase}
	}
	e.state.Phase = model.PhaseFinished
	return nil
}

// Reset discards the finished attempt and returns to an unconfigured Setup.
// The history ledger is kept.
func (e *Engine) Reset() error {
	if e.state.Phase != model.PhaseFinished {
		return &TransitionError{Op: "reset", Phase: e.state.Phase}
	}
	e.state = newState()
	e.def = model.ExamDefinition{}
	e.configured = false
	e.result = nil
	slog.Debug("session reset")
	return nil
}
