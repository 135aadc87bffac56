package dto

import "voicememo/constant"

type RenameRequest struct {
	Name string `json:"name" binding:"required"`
}

type SummarizeRequest struct {
	Language string `json:"language"`
}

type CustomPromptRequest struct {
	Prompt   string `json:"prompt" binding:"required"`
	Language string `json:"language"`
}

type TemplateRequest struct {
	Name   string `json:"name" binding:"required"`
	Prompt string `json:"prompt" binding:"required"`
}

type SettingsRequest struct {
	AutoTranscribeEnabled *bool   `json:"autoTranscribeEnabled"`
	AutoSummaryEnabled    *bool   `json:"autoSummaryEnabled"`
	DefaultLanguage       *string `json:"defaultLanguage"`
}

type CaptureResult struct {
	FileURI  string `json:"fileUri"`
	Duration int    `json:"durationSeconds"`
}

type ExportResult struct {
	AudioObject    string `json:"audioObject"`
	MetadataObject string `json:"metadataObject"`
}

// RecordEvent is the message published for record lifecycle events.
type RecordEvent struct {
	Type     constant.EventType `json:"type"`
	RecordID string             `json:"recordId"`
	Name     string             `json:"name,omitempty"`
}
