package service

import (
	"context"
	"encoding/json"
	"fmt"

	"voicememo/dto"
	"voicememo/entities"
	"voicememo/repository"
)

const settingsKey = "audio_memo_settings"

// SettingsService persists the automatic enrichment settings. Updates merge
// over the stored document so partial writes preserve the other fields.
type SettingsService interface {
	Get(ctx context.Context) (entities.Settings, error)
	Update(ctx context.Context, req dto.SettingsRequest) (entities.Settings, error)
}

type settingsService struct {
	kv repository.KeyValue
}

func NewSettingsService(kv repository.KeyValue) SettingsService {
	return &settingsService{kv: kv}
}

func (s *settingsService) Get(ctx context.Context) (entities.Settings, error) {
	settings := entities.DefaultSettings()

	stored, ok, err := s.kv.Get(ctx, settingsKey)
	if err != nil {
		return settings, err
	}
	if !ok || stored == "" {
		return settings, nil
	}

	if err := json.Unmarshal([]byte(stored), &settings); err != nil {
		return entities.DefaultSettings(), fmt.Errorf("corrupted settings: %w", err)
	}

	return settings, nil
}

func (s *settingsService) Update(ctx context.Context, req dto.SettingsRequest) (entities.Settings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return settings, err
	}

	if req.AutoTranscribeEnabled != nil {
		settings.AutoTranscribeEnabled = *req.AutoTranscribeEnabled
	}
	if req.AutoSummaryEnabled != nil {
		settings.AutoSummaryEnabled = *req.AutoSummaryEnabled
	}
	if req.DefaultLanguage != nil {
		settings.DefaultLanguage = *req.DefaultLanguage
	}

	raw, err := json.Marshal(settings)
	if err != nil {
		return settings, err
	}
	if err := s.kv.Set(ctx, settingsKey, string(raw)); err != nil {
		return settings, err
	}

	return settings, nil
}
