package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/pavelanni/mockexam/internal/i18n"
	"github.com/pavelanni/mockexam/internal/model"
	"github.com/pavelanni/mockexam/internal/session"
)

var difficultyMsg = map[model.Difficulty]string{
	model.DifficultyEasy:   "DifficultyEasy",
	model.DifficultyMedium: "DifficultyMedium",
	model.DifficultyHard:   "DifficultyHard",
}

var bandMsg = map[model.Band]string{
	model.BandExcellent:    "BandExcellent",
	model.BandGood:         "BandGood",
	model.BandKeepStudying: "BandKeepStudying",
	model.BandKeepGoing:    "BandKeepGoing",
}

var statusMsg = map[session.ReviewStatus]string{
	session.ReviewCorrect:    "StatusCorrect",
	session.ReviewIncorrect:  "StatusIncorrect",
	session.ReviewFlagged:    "StatusFlagged",
	session.ReviewUnanswered: "StatusUnanswered",
}

func (r *Runner) rule() {
	r.println(strings.Repeat("-", 60))
}

func (r *Runner) renderSetup(ctx context.Context, def model.ExamDefinition) {
	r.rule()
	r.println(i18n.T(ctx, "AppTitle") + ": " + def.Title)
	r.println(i18n.Tp(ctx, "QuestionsInExam", def.Len()))

	if len(def.DifficultyBreakdown) > 0 {
		r.println(i18n.T(ctx, "DifficultyHeader"))
		for _, d := range model.Difficulties {
			r.println(i18n.Td(ctx, "DifficultyLine", map[string]any{
				"Difficulty": i18n.T(ctx, difficultyMsg[d]),
				"Count":      def.DifficultyBreakdown[d],
			}))
		}
	}

	st := r.engine.Snapshot()
	r.println(i18n.Td(ctx, "TimeLimit", map[string]any{"Minutes": st.DurationMinutes}))
	r.rule()
	r.println(i18n.T(ctx, "StartPrompt"))
}

func (r *Runner) renderQuestion(ctx context.Context, v session.QuestionView, remaining int) {
	st := r.engine.Snapshot()

	r.rule()
	r.println(i18n.Td(ctx, "QuestionNofM", map[string]any{"N": v.Index + 1, "Total": v.Total}) +
		"    " + i18n.Td(ctx, "TimeRemaining", map[string]any{"Time": formatTime(remaining)}))
	if remaining < WarningSeconds {
		r.println(i18n.T(ctx, "TimeWarning"))
	}
	r.println(i18n.Td(ctx, "Progress", map[string]any{
		"Answered": len(st.Answers),
		"Flagged":  st.Flagged.Len(),
	}))
	r.println()
	r.println(v.Text)
	r.println()
	r.renderOptions(v.Options)

	if v.Revealed {
		r.println()
		if v.Correct {
			r.println(i18n.T(ctx, "VerdictCorrect"))
		} else {
			r.println(i18n.Td(ctx, "VerdictIncorrect", map[string]any{"Answer": string(v.CorrectAnswer)}))
		}
		r.println(i18n.T(ctx, "NextHint"))
	} else {
		r.println()
		r.println(i18n.T(ctx, "CommandHelp"))
	}
}

func (r *Runner) renderOptions(opts []session.OptionView) {
	for _, o := range opts {
		pointer := " "
		if o.Selected {
			pointer = ">"
		}
		fmt.Fprintf(r.out, "%s %s%s %s\n", pointer, markSymbol(o.Mark), o.Key, o.Text)
		if o.Explanation != "" {
			fmt.Fprintf(r.out, "      %s\n", o.Explanation)
		}
	}
}

func markSymbol(m session.Mark) string {
	switch m {
	case session.MarkCorrect:
		return "[+] "
	case session.MarkWrongPick:
		return "[x] "
	case session.MarkNeutral:
		return "[ ] "
	default:
		return ""
	}
}

func (r *Runner) renderResult(ctx context.Context, s model.ScoreSummary) {
	r.rule()
	r.println(i18n.T(ctx, "ResultsHeader") + ": " + s.ExamTitle)
	r.println(i18n.Td(ctx, "ScoreLine", map[string]any{
		"Correct":    s.CorrectCount,
		"Total":      s.ValidTotal,
		"Percentage": formatPercent(s.Percentage),
	}))
	if s.FlaggedCount > 0 {
		r.println(i18n.Tp(ctx, "FlaggedExcluded", s.FlaggedCount))
	}
	r.println(i18n.T(ctx, bandMsg[s.Band()]))
}

func (r *Runner) renderReview(ctx context.Context, items []session.ReviewItem) {
	r.rule()
	r.println(i18n.T(ctx, "ReviewHeader"))
	for _, it := range items {
		r.println()
		r.println(fmt.Sprintf("%d. [%s] %s", it.Index+1, i18n.T(ctx, statusMsg[it.Status]), it.Text))
		answer := string(it.Answer)
		if answer == "" {
			answer = i18n.T(ctx, "NoAnswer")
		}
		r.println(i18n.Td(ctx, "YourAnswer", map[string]any{"Answer": answer}) + "  " +
			i18n.Td(ctx, "CorrectAnswer", map[string]any{"Answer": string(it.CorrectAnswer)}))
		r.renderOptions(it.Options)
	}
}

func (r *Runner) renderStats(ctx context.Context, agg model.Aggregate) {
	r.rule()
	r.println(i18n.T(ctx, "StatsHeader"))
	if agg.Empty() {
		r.println(i18n.T(ctx, "NoResults"))
		return
	}
	r.println(i18n.Tp(ctx, "Attempts", agg.Count))
	r.println(i18n.Td(ctx, "StatsLine", map[string]any{
		"Average": formatPercent(agg.Average),
		"Best":    formatPercent(agg.Best),
		"Worst":   formatPercent(agg.Worst),
	}))
}
