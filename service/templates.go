package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"voicememo/entities"
	"voicememo/repository"
)

const templatesKey = "prompt_templates"

var (
	ErrTemplateNotFound = errors.New("template not found")

	// ErrSystemTemplate rejects edits to the built-in templates.
	ErrSystemTemplate = errors.New("system templates cannot be modified")
)

var systemTemplates = []entities.PromptTemplate{
	{ID: "system-summary", Name: "Summary", Prompt: "Create a concise summary of the main points.", IsSystem: true},
	{ID: "system-todo", Name: "To-Do List", Prompt: "Extract all action items and create a to-do list.", IsSystem: true},
	{ID: "system-keypoints", Name: "Key Points", Prompt: "List the key points and takeaways.", IsSystem: true},
	{ID: "system-questions", Name: "Questions", Prompt: "Extract all questions mentioned and provide answers if possible.", IsSystem: true},
	{ID: "system-email", Name: "Email Draft", Prompt: "Convert this into a professional email.", IsSystem: true},
}

// TemplateService manages the prompt library: the fixed system templates
// plus user templates persisted under their own key.
type TemplateService interface {
	List(ctx context.Context) ([]entities.PromptTemplate, error)
	Get(ctx context.Context, id string) (entities.PromptTemplate, error)
	Add(ctx context.Context, name, prompt string) (entities.PromptTemplate, error)
	Update(ctx context.Context, id, name, prompt string) (entities.PromptTemplate, error)
	Delete(ctx context.Context, id string) error
}

type templateService struct {
	kv repository.KeyValue
}

func NewTemplateService(kv repository.KeyValue) TemplateService {
	return &templateService{kv: kv}
}

func (s *templateService) List(ctx context.Context) ([]entities.PromptTemplate, error) {
	userTemplates, err := s.readUserTemplates(ctx)
	if err != nil {
		return nil, err
	}

	list := make([]entities.PromptTemplate, 0, len(systemTemplates)+len(userTemplates))
	list = append(list, systemTemplates...)
	list = append(list, userTemplates...)
	return list, nil
}

func (s *templateService) Get(ctx context.Context, id string) (entities.PromptTemplate, error) {
	list, err := s.List(ctx)
	if err != nil {
		return entities.PromptTemplate{}, err
	}

	for _, tpl := range list {
		if tpl.ID == id {
			return tpl, nil
		}
	}
	return entities.PromptTemplate{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
}

func (s *templateService) Add(ctx context.Context, name, prompt string) (entities.PromptTemplate, error) {
	userTemplates, err := s.readUserTemplates(ctx)
	if err != nil {
		return entities.PromptTemplate{}, err
	}

	tpl := entities.PromptTemplate{
		ID:        "user-" + uuid.NewString(),
		Name:      name,
		Prompt:    prompt,
		CreatedAt: time.Now(),
	}
	if err := s.writeUserTemplates(ctx, append(userTemplates, tpl)); err != nil {
		return entities.PromptTemplate{}, err
	}

	return tpl, nil
}

func (s *templateService) Update(ctx context.Context, id, name, prompt string) (entities.PromptTemplate, error) {
	if isSystemTemplate(id) {
		return entities.PromptTemplate{}, ErrSystemTemplate
	}

	userTemplates, err := s.readUserTemplates(ctx)
	if err != nil {
		return entities.PromptTemplate{}, err
	}

	for i := range userTemplates {
		if userTemplates[i].ID == id {
			userTemplates[i].Name = name
			userTemplates[i].Prompt = prompt
			if err := s.writeUserTemplates(ctx, userTemplates); err != nil {
				return entities.PromptTemplate{}, err
			}
			return userTemplates[i], nil
		}
	}

	return entities.PromptTemplate{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
}

func (s *templateService) Delete(ctx context.Context, id string) error {
	if isSystemTemplate(id) {
		return ErrSystemTemplate
	}

	userTemplates, err := s.readUserTemplates(ctx)
	if err != nil {
		return err
	}

	filtered := make([]entities.PromptTemplate, 0, len(userTemplates))
	for _, tpl := range userTemplates {
		if tpl.ID != id {
			filtered = append(filtered, tpl)
		}
	}
	if len(filtered) == len(userTemplates) {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}

	return s.writeUserTemplates(ctx, filtered)
}

func (s *templateService) readUserTemplates(ctx context.Context) ([]entities.PromptTemplate, error) {
	stored, ok, err := s.kv.Get(ctx, templatesKey)
	if err != nil {
		return nil, err
	}
	if !ok || stored == "" {
		return []entities.PromptTemplate{}, nil
	}

	var list []entities.PromptTemplate
	if err := json.Unmarshal([]byte(stored), &list); err != nil {
		return nil, fmt.Errorf("corrupted template list: %w", err)
	}

	return list, nil
}

func (s *templateService) writeUserTemplates(ctx context.Context, list []entities.PromptTemplate) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, templatesKey, string(raw))
}

func isSystemTemplate(id string) bool {
	for _, tpl := range systemTemplates {
		if tpl.ID == id {
			return true
		}
	}
	return false
}
