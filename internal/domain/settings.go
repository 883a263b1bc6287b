package domain

// SettingsID is the fixed primary key of the singleton settings row.
const SettingsID = 1

// Settings is the singleton preference record, lazily created on first read.
type Settings struct {
	ID           int    `json:"id"`
	Theme        string `json:"theme"`
	VoiceEnabled int    `json:"voice_enabled"`
}

// DefaultSettings returns the row created on first read of an empty table.
func DefaultSettings() *Settings {
	return &Settings{
		ID:           SettingsID,
		Theme:        "dark",
		VoiceEnabled: 1,
	}
}
