package session

import "github.com/pavelanni/mockexam/internal/model"

// Score computes the summary of an attempt. Flagged questions are excluded
// from both the correct count and the valid total; unanswered questions that
// are not flagged count as incorrect. The percentage is 0 when every question
// is flagged. ID and Timestamp are left for the caller to stamp.
func Score(def model.ExamDefinition, st State) model.ScoreSummary {
	total := len(def.Questions)
	flagged := 0
	for i := range st.Flagged {
		if i >= 0 && i < total {
			flagged++
		}
	}
	validTotal := total - flagged

	correct := 0
	for i, q := range def.Questions {
		if st.Flagged.Has(i) {
			continue
		}
		if ans, ok := st.Answers[i]; ok && ans == q.CorrectAnswer {
			correct++
		}
	}

	percentage := 0.0
	if validTotal > 0 {
		percentage = float64(correct) / float64(validTotal) * 100
	}

	return model.ScoreSummary{
		ExamTitle:       def.Title,
		CorrectCount:    correct,
		ValidTotal:      validTotal,
		Percentage:      percentage,
		FlaggedCount:    flagged,
		DurationMinutes: st.DurationMinutes,
	}
}
