package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"voicememo/constant"
	"voicememo/entities"
)

const (
	locateAttempts = 10
	locateInterval = 100 * time.Millisecond

	summaryTemperature = 0.5
	summaryMaxTokens   = 500
	promptTemperature  = 0.7
	promptMaxTokens    = 1000
)

// Transcribe runs the speech-to-text job for one record. An empty audioRef
// resolves the audio file through the in-memory list; the capture flow passes
// it explicitly because the list may not contain the record yet.
//
// The job never trusts the in-memory snapshot it started with: the durable
// store is re-read before every status transition it writes, first through a
// bounded retry loop that waits for a just-added record to become visible,
// then once more before the terminal write so interim writes by other
// operations are not clobbered.
func (s *recordService) Transcribe(ctx context.Context, id, audioRef string) error {
	if audioRef == "" {
		rec, ok := s.GetByID(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
		}
		audioRef = rec.URI
	}

	list, err := s.waitForRecord(ctx, id)
	if err != nil {
		return err
	}

	setTranscript(list, id, &entities.Artifact{
		Status:    constant.ArtifactStatusProcessing,
		CreatedAt: time.Now(),
	})
	if err := s.persistAndMirror(ctx, list); err != nil {
		return err
	}

	result, callErr := s.transcriber.Transcribe(ctx, audioRef)

	// Fresh read before the terminal write, not the snapshot from above.
	list, err = s.readAll(ctx)
	if err != nil {
		return err
	}

	if callErr != nil {
		setTranscript(list, id, &entities.Artifact{
			Status:    constant.ArtifactStatusError,
			CreatedAt: time.Now(),
			Error:     callErr.Error(),
		})
		if persistErr := s.persistAndMirror(ctx, list); persistErr != nil {
			zerolog.Ctx(ctx).Error().Err(persistErr).Str("record_id", id).Msg("failed to persist transcript error state")
		}
		return callErr
	}

	setTranscript(list, id, &entities.Artifact{
		Text:      result.Text,
		Status:    constant.ArtifactStatusCompleted,
		CreatedAt: time.Now(),
	})
	if err := s.persistAndMirror(ctx, list); err != nil {
		return err
	}

	rec, _ := findRecord(list, id)
	s.publish(ctx, constant.EventRecordTranscribed, rec)
	s.maybeAutoSummarize(ctx, list, id)

	return nil
}

// Summarize regenerates the summary artifact. Requires a completed
// transcript; overwrites any previous summary in place.
func (s *recordService) Summarize(ctx context.Context, id, language string) error {
	list, err := s.readAll(ctx)
	if err != nil {
		return err
	}

	rec, ok := findRecord(list, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if !rec.HasCompletedTranscript() {
		return fmt.Errorf("%w: summary requires a completed transcript", ErrPreconditionFailed)
	}
	transcriptText := rec.Transcript.Text

	setSummary(list, id, &entities.Artifact{
		Status:    constant.ArtifactStatusProcessing,
		CreatedAt: time.Now(),
	})
	if err := s.persistAndMirror(ctx, list); err != nil {
		return err
	}

	text, callErr := s.completer.Complete(ctx, summarySystemPrompt(language), summaryUserPrompt(transcriptText), summaryTemperature, summaryMaxTokens)

	list, err = s.readAll(ctx)
	if err != nil {
		return err
	}

	if callErr != nil {
		setSummary(list, id, &entities.Artifact{
			Status:    constant.ArtifactStatusError,
			CreatedAt: time.Now(),
			Error:     callErr.Error(),
		})
		if persistErr := s.persistAndMirror(ctx, list); persistErr != nil {
			zerolog.Ctx(ctx).Error().Err(persistErr).Str("record_id", id).Msg("failed to persist summary error state")
		}
		return callErr
	}

	setSummary(list, id, &entities.Artifact{
		Text:      text,
		Status:    constant.ArtifactStatusCompleted,
		CreatedAt: time.Now(),
	})
	if err := s.persistAndMirror(ctx, list); err != nil {
		return err
	}

	rec, _ = findRecord(list, id)
	s.publish(ctx, constant.EventRecordSummarized, rec)

	return nil
}

// CustomPrompt runs a free-form instruction against the transcript. The
// pending artifact is appended and its terminal state later replaces the
// trailing entry, so concurrent custom prompts on one record race to
// overwrite each other's result. Callers serialize per record.
func (s *recordService) CustomPrompt(ctx context.Context, id, promptText, language string) error {
	list, err := s.readAll(ctx)
	if err != nil {
		return err
	}

	rec, ok := findRecord(list, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if !rec.HasCompletedTranscript() {
		return fmt.Errorf("%w: custom prompt requires a completed transcript", ErrPreconditionFailed)
	}
	transcriptText := rec.Transcript.Text

	appendPrompt(list, id, entities.Artifact{
		Status:    constant.ArtifactStatusProcessing,
		CreatedAt: time.Now(),
		Prompt:    promptText,
	})
	if err := s.persistAndMirror(ctx, list); err != nil {
		return err
	}

	text, callErr := s.completer.Complete(ctx, promptSystemPrompt(language), promptUserPrompt(transcriptText, promptText), promptTemperature, promptMaxTokens)

	list, err = s.readAll(ctx)
	if err != nil {
		return err
	}

	if callErr != nil {
		replaceLastPrompt(list, id, entities.Artifact{
			Status:    constant.ArtifactStatusError,
			CreatedAt: time.Now(),
			Error:     callErr.Error(),
			Prompt:    promptText,
		})
		if persistErr := s.persistAndMirror(ctx, list); persistErr != nil {
			zerolog.Ctx(ctx).Error().Err(persistErr).Str("record_id", id).Msg("failed to persist prompt error state")
		}
		return callErr
	}

	replaceLastPrompt(list, id, entities.Artifact{
		Text:      text,
		Status:    constant.ArtifactStatusCompleted,
		CreatedAt: time.Now(),
		Prompt:    promptText,
	})
	return s.persistAndMirror(ctx, list)
}

// waitForRecord polls the durable store until the record is visible. This
// closes the race between Add persisting a brand-new record and a job being
// fired against it before any in-memory refresh.
func (s *recordService) waitForRecord(ctx context.Context, id string) ([]entities.Record, error) {
	operation := func() ([]entities.Record, error) {
		list, err := s.readAll(ctx)
		if err != nil {
			return nil, err
		}
		if _, ok := findRecord(list, id); !ok {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
		}
		return list, nil
	}

	list, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(locateInterval)),
		backoff.WithMaxTries(locateAttempts))
	if err != nil {
		return nil, err
	}

	return list, nil
}

// maybeAutoSummarize chains a detached summary after a successful
// transcription. Its failure must never surface through the transcription
// call that triggered it.
func (s *recordService) maybeAutoSummarize(ctx context.Context, list []entities.Record, id string) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to read settings, skipping auto-summary")
		return
	}
	if !cfg.AutoSummaryEnabled {
		return
	}

	rec, ok := findRecord(list, id)
	if !ok {
		return
	}
	if rec.Summary != nil && rec.Summary.Status != constant.ArtifactStatusError {
		return
	}

	s.spawnDetached(ctx, "summarize", func(ctx context.Context) error {
		return s.Summarize(ctx, id, cfg.DefaultLanguage)
	})
}

// spawnDetached runs fn on its own goroutine and discards its error after
// logging. The intent is an explicitly fire-and-forget chained job, not an
// accidental unawaited call.
func (s *recordService) spawnDetached(ctx context.Context, name string, fn func(context.Context) error) {
	detached := context.WithoutCancel(ctx)
	go func() {
		if err := fn(detached); err != nil {
			zerolog.Ctx(detached).Warn().Err(err).Str("job", name).Msg("detached job failed")
		}
	}()
}

func (s *recordService) persistAndMirror(ctx context.Context, list []entities.Record) error {
	if err := s.persist(ctx, list); err != nil {
		return err
	}
	s.mirror(list)
	return nil
}

// The set/append helpers mutate the matching record in place and leave the
// list unchanged when the id is absent, so a record deleted mid-job simply
// loses the job's result.

func setTranscript(list []entities.Record, id string, artifact *entities.Artifact) {
	for i := range list {
		if list[i].ID == id {
			list[i].Transcript = artifact
		}
	}
}

func setSummary(list []entities.Record, id string, artifact *entities.Artifact) {
	for i := range list {
		if list[i].ID == id {
			list[i].Summary = artifact
		}
	}
}

func appendPrompt(list []entities.Record, id string, artifact entities.Artifact) {
	for i := range list {
		if list[i].ID == id {
			list[i].CustomPrompts = append(list[i].CustomPrompts, artifact)
		}
	}
}

func replaceLastPrompt(list []entities.Record, id string, artifact entities.Artifact) {
	for i := range list {
		if list[i].ID == id && len(list[i].CustomPrompts) > 0 {
			list[i].CustomPrompts[len(list[i].CustomPrompts)-1] = artifact
		}
	}
}
