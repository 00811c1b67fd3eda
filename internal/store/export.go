package store

import (
	"fmt"
	"time"

	"github.com/pavelanni/mockexam/internal/history"
	"github.com/pavelanni/mockexam/internal/model"
)

// ExportResults builds the export document from all stored results.
func (s *Store) ExportResults() (model.ResultsExport, error) {
	results, err := s.ListResults()
	if err != nil {
		return model.ResultsExport{}, fmt.Errorf("list results: %w", err)
	}

	export := model.ResultsExport{
		ExportedAt: time.Now().UTC(),
		Results:    results,
	}
	if export.Results == nil {
		export.Results = []model.ScoreSummary{}
	}

	agg := history.FromSummaries(results).Aggregate()
	export.Count = agg.Count
	// Statistics are omitted rather than reported as zero when there are no results.
	if !agg.Empty() {
		export.Average = &agg.Average
		export.Best = &agg.Best
		export.Worst = &agg.Worst
	}
	return export, nil
}
