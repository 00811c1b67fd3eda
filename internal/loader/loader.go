// Package loader parses exam documents and validates them into model.ExamDefinition.
package loader

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/pavelanni/mockexam/internal/model"
)

// Document is the on-disk JSON shape of an exam.
type Document struct {
	ExamTitle           string             `json:"exam_title" validate:"required"`
	TotalQuestions      int                `json:"total_questions"`
	DifficultyBreakdown map[string]int     `json:"difficulty_breakdown"`
	Questions           []QuestionDocument `json:"questions" validate:"required,dive"`
}

// QuestionDocument is one question entry of a Document.
type QuestionDocument struct {
	Question      string            `json:"question" validate:"required"`
	Options       map[string]string `json:"options" validate:"required"`
	CorrectAnswer string            `json:"correct_answer" validate:"required,oneof=A B C D"`
	Explanations  map[string]string `json:"explanations" validate:"required"`
}

var docValidator = newDocumentValidator()

// Load reads and parses the exam document at path.
func Load(path string) (model.ExamDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ExamDefinition{}, fmt.Errorf("read %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return model.ExamDefinition{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return def, nil
}

// Parse decodes a JSON exam document and validates it.
// Every failure is a *MalformedExamError.
func Parse(data []byte) (model.ExamDefinition, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.ExamDefinition{}, &MalformedExamError{
			Kind:   KindInvalidJSON,
			Index:  -1,
			Detail: err.Error(),
			Err:    err,
		}
	}
	if err := docValidator.check(&doc); err != nil {
		return model.ExamDefinition{}, err
	}

	def := doc.definition()
	if err := Validate(def); err != nil {
		return model.ExamDefinition{}, err
	}

	if doc.TotalQuestions != 0 && doc.TotalQuestions != len(doc.Questions) {
		slog.Warn("total_questions does not match question list",
			"title", def.Title,
			"total_questions", doc.TotalQuestions,
			"questions", len(doc.Questions))
	}
	return def, nil
}

func (d Document) definition() model.ExamDefinition {
	def := model.ExamDefinition{
		Title:     d.ExamTitle,
		Questions: make([]model.Question, 0, len(d.Questions)),
	}
	if len(d.DifficultyBreakdown) > 0 {
		def.DifficultyBreakdown = make(map[model.Difficulty]int, len(d.DifficultyBreakdown))
		for label, n := range d.DifficultyBreakdown {
			def.DifficultyBreakdown[model.Difficulty(strings.ToLower(label))] += n
		}
	}
	for _, q := range d.Questions {
		def.Questions = append(def.Questions, model.Question{
			Text:          q.Question,
			Options:       choiceMap(q.Options),
			CorrectAnswer: model.Choice(q.CorrectAnswer),
			Explanations:  choiceMap(q.Explanations),
		})
	}
	return def
}

func choiceMap(m map[string]string) map[model.Choice]string {
	out := make(map[model.Choice]string, len(m))
	for k, v := range m {
		out[model.Choice(k)] = v
	}
	return out
}

// Validate checks the invariants of an already decoded definition: a title,
// at least one question, and for each question non-empty text, options and
// explanations keyed by exactly A-D, and a correct answer among those keys.
func Validate(def model.ExamDefinition) error {
	if strings.TrimSpace(def.Title) == "" {
		return malformed(KindMissingField, -1, "exam_title", "exam_title is a required field")
	}
	if len(def.Questions) == 0 {
		return malformed(KindEmptyQuestions, -1, "questions", "exam has no questions")
	}
	for i, q := range def.Questions {
		prefix := fmt.Sprintf("questions[%d]", i)
		if strings.TrimSpace(q.Text) == "" {
			return malformed(KindMissingField, i, prefix+".question", "question is a required field")
		}
		if detail := keyMismatch(q.Options); detail != "" {
			return malformed(KindKeyMismatch, i, prefix+".options", detail)
		}
		if detail := keyMismatch(q.Explanations); detail != "" {
			return malformed(KindKeyMismatch, i, prefix+".explanations", detail)
		}
		if !q.CorrectAnswer.Valid() {
			return malformed(KindInvalidCorrectAnswer, i, prefix+".correct_answer",
				fmt.Sprintf("%q is not one of A, B, C, D", q.CorrectAnswer))
		}
	}
	return nil
}

// keyMismatch describes how the keys of m differ from {A,B,C,D}, or returns "".
func keyMismatch(m map[model.Choice]string) string {
	var missing, extra []string
	for _, c := range model.Choices {
		if _, ok := m[c]; !ok {
			missing = append(missing, string(c))
		}
	}
	for k := range m {
		if !k.Valid() {
			extra = append(extra, string(k))
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return ""
	}
	sort.Strings(extra)
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing "+strings.Join(missing, ","))
	}
	if len(extra) > 0 {
		parts = append(parts, "unexpected "+strings.Join(extra, ","))
	}
	return strings.Join(parts, "; ")
}
