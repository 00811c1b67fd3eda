package session

import "github.com/pavelanni/mockexam/internal/model"

// Mark tells a presentation how to highlight an option once explanations are shown.
type Mark string

const (
	MarkHidden    Mark = ""
	MarkCorrect   Mark = "correct"
	MarkWrongPick Mark = "wrong_pick"
	MarkNeutral   Mark = "neutral"
)

// OptionView is one option of a question as seen by a presentation layer.
type OptionView struct {
	Key         model.Choice
	Text        string
	Explanation string // empty until revealed
	Mark        Mark
	Selected    bool
}

// QuestionView is the current question with its answer and reveal state.
type QuestionView struct {
	Index         int
	Total         int
	Text          string
	Options       []OptionView
	Answer        model.Choice // empty when unanswered
	Flagged       bool
	Revealed      bool
	Correct       bool         // meaningful only when Revealed
	CorrectAnswer model.Choice // set only when Revealed
}

// ReviewStatus is the outcome of one question in review mode.
type ReviewStatus string

const (
	ReviewCorrect    ReviewStatus = "correct"
	ReviewIncorrect  ReviewStatus = "incorrect"
	ReviewFlagged    ReviewStatus = "flagged"
	ReviewUnanswered ReviewStatus = "unanswered"
)

// ReviewItem is one question of a finished attempt.
type ReviewItem struct {
	Index         int
	Text          string
	Status        ReviewStatus
	Answer        model.Choice
	CorrectAnswer model.Choice
	Options       []OptionView
}

// Current returns the question at the current index.
func (e *Engine) Current() (QuestionView, error) {
	if e.state.Phase != model.PhaseInProgress {
		return QuestionView{}, &TransitionError{Op: "current question", Phase: e.state.Phase}
	}
	idx := e.state.CurrentIndex
	q := e.def.Questions[idx]
	answer := e.state.Answers[idx]
	revealed := e.state.Revealed.Has(idx)

	v := QuestionView{
		Index:    idx,
		Total:    e.def.Len(),
		Text:     q.Text,
		Options:  optionViews(q, answer, revealed),
		Answer:   answer,
		Flagged:  e.state.Flagged.Has(idx),
		Revealed: revealed,
	}
	if revealed {
		v.Correct = answer == q.CorrectAnswer
		v.CorrectAnswer = q.CorrectAnswer
	}
	return v, nil
}

// Review lists every question of the finished attempt with its outcome.
func (e *Engine) Review() ([]ReviewItem, error) {
	if e.state.Phase != model.PhaseFinished && e.state.Phase != model.PhaseReviewing {
		return nil, &TransitionError{Op: "review", Phase: e.state.Phase}
	}
	items := make([]ReviewItem, 0, e.def.Len())
	for i, q := range e.def.Questions {
		answer := e.state.Answers[i]
		item := ReviewItem{
			Index:         i,
			Text:          q.Text,
			Answer:        answer,
			CorrectAnswer: q.CorrectAnswer,
			Options:       optionViews(q, answer, true),
		}
		switch {
		case e.state.Flagged.Has(i):
			item.Status = ReviewFlagged
		case !e.state.Answered(i):
			item.Status = ReviewUnanswered
		case answer == q.CorrectAnswer:
			item.Status = ReviewCorrect
		default:
			item.Status = ReviewIncorrect
		}
		items = append(items, item)
	}
	return items, nil
}

func optionViews(q model.Question, answer model.Choice, reveal bool) []OptionView {
	opts := make([]OptionView, 0, len(model.Choices))
	for _, c := range model.Choices {
		ov := OptionView{
			Key:      c,
			Text:     q.Options[c],
			Selected: c == answer,
		}
		if reveal {
			ov.Explanation = q.Explanations[c]
			switch {
			case c == q.CorrectAnswer:
				ov.Mark = MarkCorrect
			case c == answer:
				ov.Mark = MarkWrongPick
			default:
				ov.Mark = MarkNeutral
			}
		}
		opts = append(opts, ov)
	}
	return opts
}
