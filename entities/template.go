package entities

import "time"

// PromptTemplate is a reusable instruction for the custom-prompt job.
// System templates ship with the app and cannot be edited or deleted.
type PromptTemplate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Prompt    string    `json:"prompt"`
	IsSystem  bool      `json:"isSystem"`
	CreatedAt time.Time `json:"createdAt"`
}
