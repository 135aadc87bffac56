package constant

type ArtifactStatus string

const (
	ArtifactStatusPending    ArtifactStatus = "pending"
	ArtifactStatusProcessing ArtifactStatus = "processing"
	ArtifactStatusCompleted  ArtifactStatus = "completed"
	ArtifactStatusError      ArtifactStatus = "error"
)

func (s ArtifactStatus) String() string {
	return string(s)
}

type EventType string

const (
	EventRecordCreated     EventType = "record.created"
	EventRecordDeleted     EventType = "record.deleted"
	EventRecordTranscribed EventType = "record.transcribed"
	EventRecordSummarized  EventType = "record.summarized"
)

func (e EventType) String() string {
	return string(e)
}

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}
