package session

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/pavelanni/mockexam/internal/history"
	"github.com/pavelanni/mockexam/internal/loader"
	"github.com/pavelanni/mockexam/internal/model"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func testQuestion(i int, correct model.Choice) model.Question {
	opts := make(map[model.Choice]string, 4)
	expl := make(map[model.Choice]string, 4)
	for _, c := range model.Choices {
		opts[c] = fmt.Sprintf("q%d option %s", i, c)
		expl[c] = fmt.Sprintf("q%d explanation %s", i, c)
	}
	return model.Question{
		Text:          fmt.Sprintf("question %d", i),
		Options:       opts,
		CorrectAnswer: correct,
		Explanations:  expl,
	}
}

func testDefinition(correct ...model.Choice) model.ExamDefinition {
	def := model.ExamDefinition{Title: "Practice Exam"}
	for i, c := range correct {
		def.Questions = append(def.Questions, testQuestion(i, c))
	}
	return def
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func startedEngine(t *testing.T, def model.ExamDefinition, duration int) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: t0}
	e := New(WithClock(clock.Now))
	if err := e.Configure(def, duration); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return e, clock
}

func mustDo(t *testing.T, name string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
}

func TestConfigure(t *testing.T) {
	def := testDefinition(model.ChoiceA, model.ChoiceB)
	bad := testDefinition(model.ChoiceA)
	delete(bad.Questions[0].Options, model.ChoiceD)

	tests := []struct {
		name      string
		def       model.ExamDefinition
		duration  int
		wantErr   bool
		malformed bool
	}{
		{"minimum duration", def, 30, false, false},
		{"maximum duration", def, 180, false, false},
		{"default duration", def, DefaultDurationMinutes, false, false},
		{"too short", def, 29, true, false},
		{"too long", def, 181, true, false},
		{"missing option", bad, 90, true, true},
		{"no questions", model.ExamDefinition{Title: "empty"}, 90, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			before := e.Snapshot()
			err := e.Configure(tt.def, tt.duration)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Configure() = %v, want nil", err)
				}
				if got := e.Snapshot().DurationMinutes; got != tt.duration {
					t.Errorf("DurationMinutes = %d, want %d", got, tt.duration)
				}
				return
			}

			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("Configure() = %v, want *ConfigurationError", err)
			}
			var me *loader.MalformedExamError
			if got := errors.As(err, &me); got != tt.malformed {
				t.Errorf("errors.As(MalformedExamError) = %v, want %v", got, tt.malformed)
			}
			if !reflect.DeepEqual(e.Snapshot(), before) {
				t.Error("failed Configure changed state")
			}
			if _, ok := e.Definition(); ok {
				t.Error("failed Configure stored a definition")
			}
		})
	}
}

func TestStart(t *testing.T) {
	e := New()
	var ce *ConfigurationError
	if err := e.Start(); !errors.As(err, &ce) {
		t.Fatalf("Start() unconfigured = %v, want *ConfigurationError", err)
	}

	e, _ = startedEngine(t, testDefinition(model.ChoiceA), 60)
	st := e.Snapshot()
	if st.Phase != model.PhaseInProgress {
		t.Errorf("Phase = %q, want in_progress", st.Phase)
	}
	if !st.StartedAt.Equal(t0) {
		t.Errorf("StartedAt = %v, want %v", st.StartedAt, t0)
	}

	if err := e.Start(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Start() = %v, want ErrInvalidTransition", err)
	}
	if err := e.Configure(testDefinition(model.ChoiceB), 90); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Configure() in progress = %v, want ErrInvalidTransition", err)
	}
}

func TestWalkThroughReachesFinished(t *testing.T) {
	def := testDefinition(model.ChoiceA, model.ChoiceB, model.ChoiceC, model.ChoiceD, model.ChoiceA)
	e, _ := startedEngine(t, def, 90)

	for i := range def.Questions {
		if e.Phase() != model.PhaseInProgress {
			t.Fatalf("phase %q before question %d", e.Phase(), i)
		}
		if i%2 == 0 {
			mustDo(t, "SubmitAnswer", e.SubmitAnswer(i, model.ChoiceB))
			mustDo(t, "Advance", e.Advance())
		} else {
			mustDo(t, "FlagCurrent", e.FlagCurrent())
		}
	}
	if e.Phase() != model.PhaseFinished {
		t.Fatalf("Phase = %q, want finished", e.Phase())
	}
	if e.History().Len() != 1 {
		t.Errorf("History().Len() = %d, want 1", e.History().Len())
	}
}

func TestSubmitAnswer(t *testing.T) {
	def := testDefinition(model.ChoiceA, model.ChoiceB)

	t.Run("records and reveals without advancing", func(t *testing.T) {
		e, _ := startedEngine(t, def, 90)
		mustDo(t, "SubmitAnswer", e.SubmitAnswer(0, model.ChoiceC))
		st := e.Snapshot()
		if st.Answers[0] != model.ChoiceC {
			t.Errorf("Answers[0] = %q, want C", st.Answers[0])
		}
		if !st.Revealed.Has(0) {
			t.Error("question 0 should be revealed")
		}
		if st.CurrentIndex != 0 {
			t.Errorf("CurrentIndex = %d, want 0", st.CurrentIndex)
		}
	})

	t.Run("second submit fails and leaves state unchanged", func(t *testing.T) {
		e, _ := startedEngine(t, def, 90)
		mustDo(t, "SubmitAnswer", e.SubmitAnswer(0, model.ChoiceA))
		before := e.Snapshot()
		err := e.SubmitAnswer(0, model.ChoiceB)
		if !errors.Is(err, ErrAlreadyAnswered) {
			t.Fatalf("SubmitAnswer() = %v, want ErrAlreadyAnswered", err)
		}
		if !reflect.DeepEqual(e.Snapshot(), before) {
			t.Error("failed SubmitAnswer changed state")
		}
	})

	t.Run("invalid choice", func(t *testing.T) {
		e, _ := startedEngine(t, def, 90)
		before := e.Snapshot()
		if err := e.SubmitAnswer(0, "E"); !errors.Is(err, ErrInvalidChoice) {
			t.Fatalf("SubmitAnswer(E) = %v, want ErrInvalidChoice", err)
		}
		if !reflect.DeepEqual(e.Snapshot(), before) {
			t.Error("failed SubmitAnswer changed state")
		}
	})

	t.Run("not the current question", func(t *testing.T) {
		e, _ := startedEngine(t, def, 90)
		if err := e.SubmitAnswer(1, model.ChoiceA); !errors.Is(err, ErrWrongQuestion) {
			t.Fatalf("SubmitAnswer(1) = %v, want ErrWrongQuestion", err)
		}
	})

	t.Run("outside in progress", func(t *testing.T) {
		e := New()
		if err := e.SubmitAnswer(0, model.ChoiceA); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("SubmitAnswer() in setup = %v, want ErrInvalidTransition", err)
		}
	})
}

func TestFlagCurrent(t *testing.T) {
	def := testDefinition(model.ChoiceA, model.ChoiceB)

	t.Run("flags and advances", func(t *testing.T) {
		e, _ := startedEngine(t, def, 90)
		mustDo(t, "FlagCurrent", e.FlagCurrent())
		st := e.Snapshot()
		if !st.Flagged.Has(0) {
			t.Error("question 0 should be flagged")
		}
		if st.CurrentIndex != 1 {
			t.Errorf("CurrentIndex = %d, want 1", st.CurrentIndex)
		}
	})

	t.Run("answered question cannot be flagged", func(t *testing.T) {
		e, _ := startedEngine(t, def, 90)
		mustDo(t, "SubmitAnswer", e.SubmitAnswer(0, model.ChoiceA))
		before := e.Snapshot()
		if err := e.FlagCurrent(); !errors.Is(err, ErrAlreadyAnswered) {
			t.Fatalf("FlagCurrent() = %v, want ErrAlreadyAnswered", err)
		}
		if !reflect.DeepEqual(e.Snapshot(), before) {
			t.Error("failed FlagCurrent changed state")
		}
	})

	t.Run("flagging last question finishes", func(t *testing.T) {
		e, _ := startedEngine(t, def, 90)
		mustDo(t, "FlagCurrent", e.FlagCurrent())
		mustDo(t, "FlagCurrent", e.FlagCurrent())
		if e.Phase() != model.PhaseFinished {
			t.Errorf("Phase = %q, want finished", e.Phase())
		}
	})
}

func TestAdvanceBeforeAnswer(t *testing.T) {
	e, _ := startedEngine(t, testDefinition(model.ChoiceA, model.ChoiceB, model.ChoiceC), 90)
	mustDo(t, "SubmitAnswer", e.SubmitAnswer(0, model.ChoiceA))
	mustDo(t, "Advance", e.Advance())

	before := e.Snapshot()
	if err := e.Advance(); !errors.Is(err, ErrNotAnswered) {
		t.Fatalf("Advance() = %v, want ErrNotAnswered", err)
	}
	after := e.Snapshot()
	if after.CurrentIndex != 1 {
		t.Errorf("CurrentIndex = %d, want 1", after.CurrentIndex)
	}
	if !reflect.DeepEqual(after, before) {
		t.Error("failed Advance changed state")
	}
}

func TestTickExpiry(t *testing.T) {
	def := testDefinition(model.ChoiceA, model.ChoiceB, model.ChoiceC)

	tests := []struct {
		name     string
		elapsed  time.Duration
		wantLeft int
		finished bool
	}{
		{"just started", 0, 30 * 60, false},
		{"one second short", 30*time.Minute - time.Second, 1, false},
		{"exactly expired", 30 * time.Minute, 0, true},
		{"long overdue", 5 * time.Hour, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := startedEngine(t, def, 30)
			// Leave question 1 unanswered at the current index.
			mustDo(t, "SubmitAnswer", e.SubmitAnswer(0, model.ChoiceA))
			mustDo(t, "Advance", e.Advance())

			left, err := e.Tick(t0.Add(tt.elapsed))
			if err != nil {
				t.Fatalf("Tick: %v", err)
			}
			if left != tt.wantLeft {
				t.Errorf("Tick() = %d, want %d", left, tt.wantLeft)
			}
			if got := e.Phase() == model.PhaseFinished; got != tt.finished {
				t.Errorf("finished = %v, want %v", got, tt.finished)
			}
		})
	}
}

func TestFinishIsIdempotent(t *testing.T) {
	e, clock := startedEngine(t, testDefinition(model.ChoiceA, model.ChoiceB), 30)
	mustDo(t, "FinishNow", e.FinishNow())
	first, ok := e.Result()
	if !ok {
		t.Fatal("Result() missing after FinishNow")
	}

	clock.now = t0.Add(time.Hour)
	if _, err := e.Tick(clock.now); err != nil {
		t.Fatalf("Tick after finish: %v", err)
	}
	mustDo(t, "FinishNow again", e.FinishNow())

	if e.History().Len() != 1 {
		t.Errorf("History().Len() = %d, want 1", e.History().Len())
	}
	second, _ := e.Result()
	if second.ID != first.ID {
		t.Error("re-entering Finished produced a new result")
	}

	mustDo(t, "EnterReview", e.EnterReview())
	if _, err := e.Tick(clock.now); err != nil {
		t.Errorf("Tick in review: %v", err)
	}
	if e.Phase() != model.PhaseReviewing {
		t.Errorf("Phase = %q, want reviewing", e.Phase())
	}

	if _, err := New().Tick(t0); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Tick() in setup = %v, want ErrInvalidTransition", err)
	}
	if err := New().FinishNow(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("FinishNow() in setup = %v, want ErrInvalidTransition", err)
	}
}

func TestReviewTransitions(t *testing.T) {
	e, _ := startedEngine(t, testDefinition(model.ChoiceA, model.ChoiceB), 90)
	if err := e.EnterReview(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("EnterReview() in progress = %v, want ErrInvalidTransition", err)
	}
	mustDo(t, "SubmitAnswer", e.SubmitAnswer(0, model.ChoiceA))
	mustDo(t, "FinishNow", e.FinishNow())

	before := e.Snapshot()
	mustDo(t, "EnterReview", e.EnterReview())
	during := e.Snapshot()
	during.Phase = model.PhaseFinished
	if !reflect.DeepEqual(during, before) {
		t.Error("EnterReview changed more than the phase")
	}
	if err := e.Reset(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Reset() in review = %v, want ErrInvalidTransition", err)
	}
	mustDo(t, "ExitReview", e.ExitReview())
	if !reflect.DeepEqual(e.Snapshot(), before) {
		t.Error("review round trip changed state")
	}
	if err := e.ExitReview(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("ExitReview() in finished = %v, want ErrInvalidTransition", err)
	}
}

func TestResetRoundTrip(t *testing.T) {
	ledger := history.New()
	clock := &fakeClock{now: t0}
	e := New(WithClock(clock.Now), WithLedger(ledger))
	def := testDefinition(model.ChoiceA, model.ChoiceB, model.ChoiceC)

	mustDo(t, "Configure", e.Configure(def, 45))
	mustDo(t, "Start", e.Start())
	mustDo(t, "SubmitAnswer", e.SubmitAnswer(0, model.ChoiceA))
	mustDo(t, "Advance", e.Advance())
	mustDo(t, "FlagCurrent", e.FlagCurrent())
	mustDo(t, "FinishNow", e.FinishNow())

	if err := e.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if e.Phase() != model.PhaseSetup {
		t.Fatalf("Phase = %q, want setup", e.Phase())
	}
	if _, ok := e.Definition(); ok {
		t.Error("Reset kept the definition")
	}
	if _, ok := e.Result(); ok {
		t.Error("Reset kept the result")
	}

	clock.now = t0.Add(2 * time.Hour)
	mustDo(t, "Configure", e.Configure(def, 90))
	mustDo(t, "Start", e.Start())

	st := e.Snapshot()
	if len(st.Answers) != 0 || st.Flagged.Len() != 0 || st.Revealed.Len() != 0 {
		t.Errorf("fresh attempt leaked state: answers=%v flagged=%v revealed=%v", st.Answers, st.Flagged, st.Revealed)
	}
	if st.CurrentIndex != 0 {
		t.Errorf("CurrentIndex = %d, want 0", st.CurrentIndex)
	}
	if !st.StartedAt.Equal(clock.now) {
		t.Errorf("StartedAt = %v, want %v", st.StartedAt, clock.now)
	}
	if ledger.Len() != 1 {
		t.Errorf("ledger.Len() = %d, want 1", ledger.Len())
	}
}

func TestScenarioFourQuestions(t *testing.T) {
	def := testDefinition(model.ChoiceA, model.ChoiceB, model.ChoiceC, model.ChoiceD)
	e, _ := startedEngine(t, def, 90)

	mustDo(t, "answer q0", e.SubmitAnswer(0, model.ChoiceA))
	mustDo(t, "advance", e.Advance())
	mustDo(t, "answer q1", e.SubmitAnswer(1, model.ChoiceC))
	mustDo(t, "advance", e.Advance())
	mustDo(t, "flag q2", e.FlagCurrent())
	mustDo(t, "answer q3", e.SubmitAnswer(3, model.ChoiceD))
	mustDo(t, "advance", e.Advance())

	if e.Phase() != model.PhaseFinished {
		t.Fatalf("Phase = %q, want finished", e.Phase())
	}
	got, ok := e.Result()
	if !ok {
		t.Fatal("Result() missing")
	}
	if got.CorrectCount != 2 || got.ValidTotal != 3 || got.FlaggedCount != 1 {
		t.Errorf("Result() = %+v, want correct=2 total=3 flagged=1", got)
	}
	if math.Abs(got.Percentage-66.666) > 0.01 {
		t.Errorf("Percentage = %v, want about 66.7", got.Percentage)
	}
	if got.ExamTitle != def.Title || got.ID == "" || !got.Timestamp.Equal(t0) {
		t.Errorf("Result() metadata = %+v", got)
	}

	again, err := e.Score()
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if again != got {
		t.Errorf("Score() = %+v, want %+v", again, got)
	}
}

func TestCurrentView(t *testing.T) {
	e, _ := startedEngine(t, testDefinition(model.ChoiceB, model.ChoiceA), 90)

	v, err := e.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if v.Revealed || v.CorrectAnswer != "" {
		t.Error("unanswered question should not reveal the answer")
	}
	for _, o := range v.Options {
		if o.Explanation != "" || o.Mark != MarkHidden {
			t.Errorf("option %s revealed before submit", o.Key)
		}
	}

	mustDo(t, "SubmitAnswer", e.SubmitAnswer(0, model.ChoiceD))
	v, _ = e.Current()
	if !v.Revealed || v.Correct || v.CorrectAnswer != model.ChoiceB {
		t.Errorf("Current() after wrong answer = %+v", v)
	}
	wantMarks := map[model.Choice]Mark{
		model.ChoiceA: MarkNeutral,
		model.ChoiceB: MarkCorrect,
		model.ChoiceC: MarkNeutral,
		model.ChoiceD: MarkWrongPick,
	}
	for _, o := range v.Options {
		if o.Mark != wantMarks[o.Key] {
			t.Errorf("option %s Mark = %q, want %q", o.Key, o.Mark, wantMarks[o.Key])
		}
		if o.Explanation == "" {
			t.Errorf("option %s explanation hidden after submit", o.Key)
		}
	}
}

func TestReview(t *testing.T) {
	e, _ := startedEngine(t, testDefinition(model.ChoiceA, model.ChoiceB, model.ChoiceC, model.ChoiceD), 90)
	if _, err := e.Review(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Review() in progress = %v, want ErrInvalidTransition", err)
	}

	mustDo(t, "answer", e.SubmitAnswer(0, model.ChoiceA))
	mustDo(t, "advance", e.Advance())
	mustDo(t, "answer", e.SubmitAnswer(1, model.ChoiceA))
	mustDo(t, "advance", e.Advance())
	mustDo(t, "flag", e.FlagCurrent())
	mustDo(t, "finish", e.FinishNow())

	items, err := e.Review()
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	want := []ReviewStatus{ReviewCorrect, ReviewIncorrect, ReviewFlagged, ReviewUnanswered}
	for i, item := range items {
		if item.Status != want[i] {
			t.Errorf("items[%d].Status = %q, want %q", i, item.Status, want[i])
		}
	}
}
