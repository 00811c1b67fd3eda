package model

import "time"

// Choice is one of the four fixed option identifiers of a question.
type Choice string

const (
	ChoiceA Choice = "A"
	ChoiceB Choice = "B"
	ChoiceC Choice = "C"
	ChoiceD Choice = "D"
)

// Choices lists the option identifiers in display order.
var Choices = []Choice{ChoiceA, ChoiceB, ChoiceC, ChoiceD}

// Valid reports whether c is one of A, B, C or D.
func (c Choice) Valid() bool {
	switch c {
	case ChoiceA, ChoiceB, ChoiceC, ChoiceD:
		return true
	default:
		return false
	}
}

// Phase represents the lifecycle phase of an exam session.
type Phase string

const (
	PhaseSetup      Phase = "setup"
	PhaseInProgress Phase = "in_progress"
	PhaseFinished   Phase = "finished"
	PhaseReviewing  Phase = "reviewing"
)

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the difficulty labels shown in the setup breakdown.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Question is a single multiple-choice question. Its ID is its position in the exam.
type Question struct {
	Text          string            `json:"question"`
	Options       map[Choice]string `json:"options"`
	CorrectAnswer Choice            `json:"correct_answer"`
	Explanations  map[Choice]string `json:"explanations"`
}

// ExamDefinition is a loaded, validated exam. It is never mutated after loading.
type ExamDefinition struct {
	Title               string             `json:"exam_title"`
	Questions           []Question         `json:"questions"`
	DifficultyBreakdown map[Difficulty]int `json:"difficulty_breakdown,omitempty"`
}

// Len returns the number of questions.
func (d ExamDefinition) Len() int {
	return len(d.Questions)
}

// ScoreSummary is the immutable result of one finished attempt.
type ScoreSummary struct {
	ID              string    `json:"id"`
	ExamTitle       string    `json:"exam_title"`
	CorrectCount    int       `json:"correct"`
	ValidTotal      int       `json:"total"`
	Percentage      float64   `json:"percentage"`
	FlaggedCount    int       `json:"flagged"`
	DurationMinutes int       `json:"duration_minutes"`
	Timestamp       time.Time `json:"date"`
}

// Band classifies a score percentage for the result message.
type Band string

const (
	BandExcellent    Band = "excellent"
	BandGood         Band = "good"
	BandKeepStudying Band = "keep_studying"
	BandKeepGoing    Band = "keep_going"
)

// Band returns the performance band for the summary's percentage.
func (s ScoreSummary) Band() Band {
	switch {
	case s.Percentage >= 80:
		return BandExcellent
	case s.Percentage >= 60:
		return BandGood
	case s.Percentage >= 40:
		return BandKeepStudying
	default:
		return BandKeepGoing
	}
}

// Aggregate holds statistics over a set of score summaries.
// Average, Best and Worst are meaningful only when Count > 0.
type Aggregate struct {
	Count   int
	Average float64
	Best    float64
	Worst   float64
}

// Empty reports whether the aggregate covers no results.
func (a Aggregate) Empty() bool {
	return a.Count == 0
}

// RunConfig holds runtime parameters set via CLI flags.
type RunConfig struct {
	DurationMinutes int
	Lang            string // UI language (en, ru)
	ReviewPrompt    bool   // Offer the review screen after finishing
}

// ExamRecord is an exam document imported into the store.
type ExamRecord struct {
	ID         int64
	Path       string
	Title      string
	Hash       string
	Questions  int
	Document   []byte
	ImportedAt time.Time
}
