package entities

import (
	"time"

	"voicememo/constant"
)

// Record is one audio memo plus the artifacts derived from it. The JSON
// layout is the persisted format: optional artifacts are omitted, not null.
type Record struct {
	ID            string     `json:"id"`
	URI           string     `json:"uri"`
	Name          string     `json:"name"`
	CreatedAt     time.Time  `json:"createdAt"`
	Duration      int        `json:"duration"`
	Transcript    *Artifact  `json:"transcript,omitempty"`
	Summary       *Artifact  `json:"summary,omitempty"`
	CustomPrompts []Artifact `json:"customPrompts,omitempty"`
}

// Artifact is the tracked result of one enrichment job. Error is set only
// when Status is error; Prompt only on custom-prompt artifacts.
type Artifact struct {
	Text      string                  `json:"text"`
	Status    constant.ArtifactStatus `json:"status"`
	CreatedAt time.Time               `json:"createdAt"`
	Error     string                  `json:"error,omitempty"`
	Prompt    string                  `json:"prompt,omitempty"`
}

func (r *Record) HasCompletedTranscript() bool {
	return r.Transcript != nil && r.Transcript.Status == constant.ArtifactStatusCompleted
}
