package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voicememo/constant"
	"voicememo/dto"
	"voicememo/entities"
	"voicememo/pkg/openai"
	"voicememo/repository"
)

const recordsKey = "audio_memo_recordings"

// Transcriber is the remote speech-to-text collaborator.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (openai.TranscriptionResult, error)
}

// Completer is the remote chat-completion collaborator.
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error)
}

// EventPublisher emits record lifecycle events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event dto.RecordEvent) error
}

// RecordService is the single authority for the record list within a running
// process. The durable store holds the source of truth across restarts; the
// in-memory list is a mirror that every operation pushes its result back into.
type RecordService interface {
	Load(ctx context.Context) error
	Add(ctx context.Context, rec entities.Record) bool
	CreateFromCapture(ctx context.Context, fileURI string, duration int, name string) (entities.Record, bool)
	Rename(ctx context.Context, id, newName string) bool
	Delete(ctx context.Context, id string) bool
	GetByID(id string) (entities.Record, bool)
	List() []entities.Record
	Transcribe(ctx context.Context, id, audioRef string) error
	Summarize(ctx context.Context, id, language string) error
	CustomPrompt(ctx context.Context, id, promptText, language string) error
}

type recordService struct {
	kv          repository.KeyValue
	transcriber Transcriber
	completer   Completer
	settings    SettingsService
	events      EventPublisher

	mu      sync.Mutex
	records []entities.Record
}

func NewRecordService(kv repository.KeyValue, transcriber Transcriber, completer Completer, settings SettingsService, events EventPublisher) RecordService {
	return &recordService{
		kv:          kv,
		transcriber: transcriber,
		completer:   completer,
		settings:    settings,
		events:      events,
	}
}

// Load reads the persisted list, drops records whose backing audio file no
// longer exists and, only if any were dropped, rewrites the store without
// them. Safe to call repeatedly; also used as a refresh poll.
func (s *recordService) Load(ctx context.Context) error {
	list, err := s.readAll(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to load records")
		return err
	}

	validated := make([]entities.Record, 0, len(list))
	for _, rec := range list {
		if _, statErr := os.Stat(rec.URI); statErr == nil {
			validated = append(validated, rec)
		} else {
			zerolog.Ctx(ctx).Warn().Str("record_id", rec.ID).Str("uri", rec.URI).Msg("audio file missing, dropping record")
		}
	}

	if len(validated) != len(list) {
		if err := s.persist(ctx, validated); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("failed to persist pruned records")
			return err
		}
	}

	s.mirror(validated)
	return nil
}

// Add prepends the record (newest-first is the canonical order) and persists
// the full list. Prior state stays untouched on persistence failure.
func (s *recordService) Add(ctx context.Context, rec entities.Record) bool {
	s.mu.Lock()
	updated := append([]entities.Record{rec}, s.records...)
	s.mu.Unlock()

	if err := s.persist(ctx, updated); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("record_id", rec.ID).Msg("failed to add record")
		return false
	}

	s.mirror(updated)
	s.publish(ctx, constant.EventRecordCreated, rec)
	return true
}

// CreateFromCapture builds a record for a finished capture, stores it and,
// when auto-transcribe is enabled, fires the detached transcription with the
// explicit audio ref so the job never depends on a stale in-memory list.
func (s *recordService) CreateFromCapture(ctx context.Context, fileURI string, duration int, name string) (entities.Record, bool) {
	now := time.Now()
	rec := entities.Record{
		ID:        strconv.FormatInt(now.UnixMilli(), 10),
		URI:       fileURI,
		Name:      name,
		CreatedAt: now,
		Duration:  duration,
	}
	if rec.Name == "" {
		rec.Name = "Memo " + now.Format("2006-01-02 15:04")
	}

	if !s.Add(ctx, rec) {
		return entities.Record{}, false
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to read settings, skipping auto-transcribe")
		return rec, true
	}
	if cfg.AutoTranscribeEnabled {
		s.spawnDetached(ctx, "transcribe", func(ctx context.Context) error {
			return s.Transcribe(ctx, rec.ID, rec.URI)
		})
	}

	return rec, true
}

// Rename replaces the display name. A missing id is a silent no-op that
// still persists the unchanged list.
func (s *recordService) Rename(ctx context.Context, id, newName string) bool {
	s.mu.Lock()
	updated := make([]entities.Record, len(s.records))
	copy(updated, s.records)
	s.mu.Unlock()

	for i := range updated {
		if updated[i].ID == id {
			updated[i].Name = newName
		}
	}

	if err := s.persist(ctx, updated); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("record_id", id).Msg("failed to rename record")
		return false
	}

	s.mirror(updated)
	return true
}

// Delete removes the record and best-effort deletes the backing audio file.
// Deleting an already-missing file is not an error.
func (s *recordService) Delete(ctx context.Context, id string) bool {
	rec, ok := s.GetByID(id)
	if !ok {
		return false
	}

	if err := os.Remove(rec.URI); err != nil && !os.IsNotExist(err) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("uri", rec.URI).Msg("failed to delete audio file")
	}

	s.mu.Lock()
	updated := make([]entities.Record, 0, len(s.records))
	for _, r := range s.records {
		if r.ID != id {
			updated = append(updated, r)
		}
	}
	s.mu.Unlock()

	if err := s.persist(ctx, updated); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("record_id", id).Msg("failed to delete record")
		return false
	}

	s.mirror(updated)
	s.publish(ctx, constant.EventRecordDeleted, rec)
	return true
}

// GetByID is a pure in-memory lookup, no I/O.
func (s *recordService) GetByID(id string) (entities.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := findRecord(s.records, id); ok {
		return rec, true
	}
	return entities.Record{}, false
}

func (s *recordService) List() []entities.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]entities.Record, len(s.records))
	copy(list, s.records)
	return list
}

// readAll fetches the authoritative list from the durable store. Absent is
// an empty list.
func (s *recordService) readAll(ctx context.Context) ([]entities.Record, error) {
	stored, ok, err := s.kv.Get(ctx, recordsKey)
	if err != nil {
		return nil, err
	}
	if !ok || stored == "" {
		return []entities.Record{}, nil
	}

	var list []entities.Record
	if err := json.Unmarshal([]byte(stored), &list); err != nil {
		return nil, fmt.Errorf("corrupted record list: %w", err)
	}

	return list, nil
}

func (s *recordService) persist(ctx context.Context, list []entities.Record) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}

	return s.kv.Set(ctx, recordsKey, string(raw))
}

// mirror replaces the in-memory list with the result of an operation's
// read-modify-write cycle.
func (s *recordService) mirror(list []entities.Record) {
	s.mu.Lock()
	s.records = list
	s.mu.Unlock()
}

func (s *recordService) publish(ctx context.Context, eventType constant.EventType, rec entities.Record) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, dto.RecordEvent{
		Type:     eventType,
		RecordID: rec.ID,
		Name:     rec.Name,
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event", eventType.String()).Msg("failed to publish event")
	}
}

func findRecord(list []entities.Record, id string) (entities.Record, bool) {
	for _, rec := range list {
		if rec.ID == id {
			return rec, true
		}
	}
	return entities.Record{}, false
}
