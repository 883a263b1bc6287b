package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

// SettingsStore persists the single application settings row.
type SettingsStore struct {
	db *DB
}

// NewSettingsStore creates a new SQLite-backed settings store.
func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the settings row, creating it with defaults on first read.
func (s *SettingsStore) Get() (*domain.Settings, error) {
	row := s.db.QueryRow(`
		SELECT id, theme, voice_enabled FROM settings WHERE id = ?`,
		domain.SettingsID)

	var settings domain.Settings
	err := row.Scan(&settings.ID, &settings.Theme, &settings.VoiceEnabled)
	if err == sql.ErrNoRows {
		defaults := domain.DefaultSettings()
		if err := s.Save(defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &settings, nil
}

// Save overwrites the settings row. The id is pinned to the singleton.
func (s *SettingsStore) Save(settings *domain.Settings) error {
	settings.ID = domain.SettingsID
	_, err := s.db.Exec(`
		INSERT INTO settings (id, theme, voice_enabled)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			theme = excluded.theme,
			voice_enabled = excluded.voice_enabled`,
		settings.ID, settings.Theme, settings.VoiceEnabled,
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
