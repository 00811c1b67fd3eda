package store

import (
	"database/sql"
	"strconv"
)

const keyDefaultDuration = "default_duration_minutes"

// SetSetting upserts a key-value pair in the settings table.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetSetting returns the value for a settings key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetDefaultDuration remembers the last chosen exam duration.
func (s *Store) SetDefaultDuration(minutes int) error {
	return s.SetSetting(keyDefaultDuration, strconv.Itoa(minutes))
}

// DefaultDuration returns the remembered exam duration, or 0 if none is stored.
func (s *Store) DefaultDuration() (int, error) {
	v, err := s.GetSetting(keyDefaultDuration)
	if err != nil || v == "" {
		return 0, err
	}
	return strconv.Atoi(v)
}
