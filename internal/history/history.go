// Package history keeps the score summaries of finished attempts for the
// lifetime of the process.
package history

import "github.com/pavelanni/mockexam/internal/model"

// Ledger is an append-only list of score summaries. It is not safe for
// concurrent use; one engine owns one ledger.
type Ledger struct {
	entries []model.ScoreSummary
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// FromSummaries returns a ledger preloaded with summaries, e.g. results read back from the store.
func FromSummaries(summaries []model.ScoreSummary) *Ledger {
	l := &Ledger{entries: make([]model.ScoreSummary, len(summaries))}
	copy(l.entries, summaries)
	return l
}

// Append adds a summary. There is no deduplication and no cap.
func (l *Ledger) Append(s model.ScoreSummary) {
	l.entries = append(l.entries, s)
}

// Len returns the number of recorded summaries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the recorded summaries in append order.
func (l *Ledger) Entries() []model.ScoreSummary {
	out := make([]model.ScoreSummary, len(l.entries))
	copy(out, l.entries)
	return out
}

// Aggregate returns count, average, best and worst percentage.
// When the ledger is empty only Count is set; check Aggregate.Empty first.
func (l *Ledger) Aggregate() model.Aggregate {
	if len(l.entries) == 0 {
		return model.Aggregate{}
	}
	agg := model.Aggregate{
		Count: len(l.entries),
		Best:  l.entries[0].Percentage,
		Worst: l.entries[0].Percentage,
	}
	sum := 0.0
	for _, e := range l.entries {
		sum += e.Percentage
		agg.Best = max(agg.Best, e.Percentage)
		agg.Worst = min(agg.Worst, e.Percentage)
	}
	agg.Average = sum / float64(agg.Count)
	return agg
}
