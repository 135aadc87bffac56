package entities

// Settings controls the automatic enrichment behavior after a capture ends.
type Settings struct {
	AutoTranscribeEnabled bool   `json:"autoTranscribeEnabled"`
	AutoSummaryEnabled    bool   `json:"autoSummaryEnabled"`
	DefaultLanguage       string `json:"defaultLanguage"`
}

func DefaultSettings() Settings {
	return Settings{
		AutoTranscribeEnabled: true,
		AutoSummaryEnabled:    true,
		DefaultLanguage:       "de",
	}
}
