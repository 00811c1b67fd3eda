package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/pavelanni/mockexam/internal/loader"
	"github.com/pavelanni/mockexam/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer, and :memory: databases are per connection.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		title TEXT NOT NULL,
		hash TEXT NOT NULL UNIQUE,
		questions INTEGER NOT NULL,
		document BLOB NOT NULL,
		imported_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		exam_title TEXT NOT NULL,
		correct INTEGER NOT NULL,
		valid_total INTEGER NOT NULL,
		percentage REAL NOT NULL,
		flagged INTEGER NOT NULL,
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		finished_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ImportExam validates and stores an exam document. A document whose content
// was imported before is not stored again; the existing record is returned
// with created set to false.
func (s *Store) ImportExam(path string, data []byte) (rec model.ExamRecord, created bool, err error) {
	hash := sha256sum(data)
	existing, err := s.getExamByHash(hash)
	if err != nil {
		return model.ExamRecord{}, false, fmt.Errorf("check import status for %s: %w", path, err)
	}
	if existing != nil {
		slog.Info("exam file unchanged, skipping", "path", path, "id", existing.ID)
		return *existing, false, nil
	}

	def, err := loader.Parse(data)
	if err != nil {
		return model.ExamRecord{}, false, fmt.Errorf("parse %s: %w", path, err)
	}

	rec = model.ExamRecord{
		Path:       path,
		Title:      def.Title,
		Hash:       hash,
		Questions:  def.Len(),
		Document:   data,
		ImportedAt: time.Now(),
	}
	res, err := s.db.Exec(
		`INSERT INTO exams (path, title, hash, questions, document, imported_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Path, rec.Title, rec.Hash, rec.Questions, rec.Document, rec.ImportedAt,
	)
	if err != nil {
		return model.ExamRecord{}, false, fmt.Errorf("insert exam from %s: %w", path, err)
	}
	if rec.ID, err = res.LastInsertId(); err != nil {
		return model.ExamRecord{}, false, err
	}
	slog.Info("imported exam", "path", path, "id", rec.ID, "title", rec.Title, "questions", rec.Questions)
	return rec, true, nil
}

// GetExam returns an imported exam by ID, or nil if there is none.
func (s *Store) GetExam(id int64) (*model.ExamRecord, error) {
	return s.scanExam(s.db.QueryRow(
		`SELECT id, path, title, hash, questions, document, imported_at FROM exams WHERE id = ?`, id,
	))
}

func (s *Store) getExamByHash(hash string) (*model.ExamRecord, error) {
	return s.scanExam(s.db.QueryRow(
		`SELECT id, path, title, hash, questions, document, imported_at FROM exams WHERE hash = ?`, hash,
	))
}

func (s *Store) scanExam(row *sql.Row) (*model.ExamRecord, error) {
	var e model.ExamRecord
	err := row.Scan(&e.ID, &e.Path, &e.Title, &e.Hash, &e.Questions, &e.Document, &e.ImportedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListExams returns all imported exams without their documents.
func (s *Store) ListExams() ([]model.ExamRecord, error) {
	rows, err := s.db.Query(`SELECT id, path, title, hash, questions, imported_at FROM exams ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exams []model.ExamRecord
	for rows.Next() {
		var e model.ExamRecord
		if err := rows.Scan(&e.ID, &e.Path, &e.Title, &e.Hash, &e.Questions, &e.ImportedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// ExamCount returns the number of imported exams.
func (s *Store) ExamCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM exams`).Scan(&count)
	return count, err
}

// SaveResult stores the summary of a finished attempt.
func (s *Store) SaveResult(r model.ScoreSummary) error {
	_, err := s.db.Exec(
		`INSERT INTO results (id, exam_title, correct, valid_total, percentage, flagged, duration_minutes, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ExamTitle, r.CorrectCount, r.ValidTotal, r.Percentage, r.FlaggedCount, r.DurationMinutes, r.Timestamp,
	)
	return err
}

// ListResults returns all stored results, oldest first.
func (s *Store) ListResults() ([]model.ScoreSummary, error) {
	rows, err := s.db.Query(
		`SELECT id, exam_title, correct, valid_total, percentage, flagged, duration_minutes, finished_at
		 FROM results ORDER BY finished_at, rowid`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.ScoreSummary
	for rows.Next() {
		var r model.ScoreSummary
		if err := rows.Scan(&r.ID, &r.ExamTitle, &r.CorrectCount, &r.ValidTotal, &r.Percentage,
			&r.FlaggedCount, &r.DurationMinutes, &r.Timestamp); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
