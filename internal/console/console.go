// Package console runs an exam session on a text terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pavelanni/mockexam/internal/i18n"
	"github.com/pavelanni/mockexam/internal/model"
	"github.com/pavelanni/mockexam/internal/session"
)

// WarningSeconds is the remaining time below which the timer shows a warning.
const WarningSeconds = 5 * 60

// ErrQuit is returned by Run when the user leaves before the exam starts.
var ErrQuit = errors.New("quit before start")

// Runner drives one configured Engine through an attempt using line input.
type Runner struct {
	engine *session.Engine
	in     *bufio.Scanner
	out    io.Writer
	now    func() time.Time
	review bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock sets the clock used for timer polling. It should match the engine's clock.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithReviewPrompt controls whether the review screen is offered after the results.
func WithReviewPrompt(on bool) Option {
	return func(r *Runner) { r.review = on }
}

// New creates a Runner reading commands from in and writing screens to out.
func New(e *session.Engine, in io.Reader, out io.Writer, opts ...Option) *Runner {
	r := &Runner{
		engine: e,
		in:     bufio.NewScanner(in),
		out:    out,
		now:    time.Now,
		review: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run shows the setup screen, runs the attempt to completion and shows the
// results. The engine must be configured and is reset to Setup on return.
// ctx carries the localizer; cancelling it finishes the attempt early.
func (r *Runner) Run(ctx context.Context) (model.ScoreSummary, error) {
	def, ok := r.engine.Definition()
	if !ok || r.engine.Phase() != model.PhaseSetup {
		return model.ScoreSummary{}, fmt.Errorf("run exam: engine not configured")
	}

	r.renderSetup(ctx, def)
	line, ok := r.readLine()
	if !ok || strings.EqualFold(line, "q") {
		return model.ScoreSummary{}, ErrQuit
	}
	if err := r.engine.Start(); err != nil {
		return model.ScoreSummary{}, fmt.Errorf("start exam: %w", err)
	}

	if err := r.loop(ctx); err != nil {
		return model.ScoreSummary{}, err
	}

	result, ok := r.engine.Result()
	if !ok {
		return model.ScoreSummary{}, fmt.Errorf("run exam: no result after finish")
	}
	r.renderResult(ctx, result)

	if r.review {
		if err := r.offerReview(ctx); err != nil {
			return result, err
		}
	}
	r.renderStats(ctx, r.engine.History().Aggregate())

	if err := r.engine.Reset(); err != nil {
		return result, fmt.Errorf("reset session: %w", err)
	}
	return result, nil
}

func (r *Runner) loop(ctx context.Context) error {
	for r.engine.Phase() == model.PhaseInProgress {
		if r.expired(ctx) {
			return nil
		}
		view, err := r.engine.Current()
		if err != nil {
			return fmt.Errorf("current question: %w", err)
		}
		r.renderQuestion(ctx, view, r.engine.Remaining(r.now()))

		line, ok := r.readLine()
		if !ok || ctx.Err() != nil {
			slog.Debug("input closed, finishing early")
			return r.engine.FinishNow()
		}
		// Time spent waiting for input counts; an answer typed after expiry is dropped.
		if r.expired(ctx) {
			return nil
		}
		if err := r.dispatch(ctx, view, line); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) expired(ctx context.Context) bool {
	if _, err := r.engine.Tick(r.now()); err != nil {
		slog.Warn("tick failed", "error", err)
	}
	if r.engine.Phase() == model.PhaseInProgress {
		return false
	}
	r.println(i18n.T(ctx, "TimeUp"))
	return true
}

func (r *Runner) dispatch(ctx context.Context, view session.QuestionView, line string) error {
	cmd := strings.ToLower(strings.TrimSpace(line))
	var err error
	switch cmd {
	case "a", "b", "c", "d":
		err = r.engine.SubmitAnswer(view.Index, model.Choice(strings.ToUpper(cmd)))
	case "f":
		err = r.engine.FlagCurrent()
	case "n":
		err = r.engine.Advance()
	case "q":
		return r.engine.FinishNow()
	case "":
		return nil
	default:
		r.println(i18n.Td(ctx, "UnknownCommand", map[string]any{"Input": line}))
		return nil
	}

	switch {
	case err == nil:
	case errors.Is(err, session.ErrAlreadyAnswered):
		r.println(i18n.T(ctx, "AlreadyAnswered"))
	case errors.Is(err, session.ErrNotAnswered):
		r.println(i18n.T(ctx, "NotAnswered"))
	default:
		return err
	}
	return nil
}

func (r *Runner) offerReview(ctx context.Context) error {
	r.println(i18n.T(ctx, "ReviewPrompt"))
	line, ok := r.readLine()
	if !ok || !strings.EqualFold(strings.TrimSpace(line), "y") {
		return nil
	}

	if err := r.engine.EnterReview(); err != nil {
		return fmt.Errorf("enter review: %w", err)
	}
	items, err := r.engine.Review()
	if err != nil {
		return fmt.Errorf("review: %w", err)
	}
	r.renderReview(ctx, items)
	return r.engine.ExitReview()
}

func (r *Runner) readLine() (string, bool) {
	fmt.Fprint(r.out, "> ")
	if !r.in.Scan() {
		fmt.Fprintln(r.out)
		return "", false
	}
	return strings.TrimSpace(r.in.Text()), true
}

func (r *Runner) println(a ...any) {
	fmt.Fprintln(r.out, a...)
}

// formatTime renders seconds as MM:SS. Minutes are not wrapped into hours.
func formatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// formatPercent renders a percentage with at most one decimal digit.
func formatPercent(p float64) string {
	return humanize.FtoaWithDigits(p, 1)
}
