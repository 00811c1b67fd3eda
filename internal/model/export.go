package model

import "time"

// ResultsExport is the top-level JSON structure for the results export.
type ResultsExport struct {
	ExportedAt time.Time      `json:"exported_at"`
	Count      int            `json:"count"`
	Average    *float64       `json:"average,omitempty"`
	Best       *float64       `json:"best,omitempty"`
	Worst      *float64       `json:"worst,omitempty"`
	Results    []ScoreSummary `json:"results"`
}
