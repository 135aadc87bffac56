package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"

	"voicememo/config"
)

var (
	// ErrNotConfigured is returned before any network attempt when the API
	// key is missing.
	ErrNotConfigured = errors.New("openai api key not configured")

	ErrRemoteCallFailed = errors.New("remote call failed")
)

type TranscriptionResult struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type Client struct {
	http *resty.Client
	cfg  config.OpenAI
}

func NewClient(cfg config.OpenAI) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetTimeout(cfg.Timeout)

	return &Client{
		http: httpClient,
		cfg:  cfg,
	}
}

// Transcribe uploads the audio file to the transcriptions endpoint and
// returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (TranscriptionResult, error) {
	if c.cfg.APIKey == "" {
		return TranscriptionResult{}, ErrNotConfigured
	}

	if _, err := os.Stat(audioPath); err != nil {
		return TranscriptionResult{}, fmt.Errorf("audio file not found: %s", audioPath)
	}

	result := TranscriptionResult{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetFile("file", audioPath).
		SetFormData(map[string]string{"model": c.cfg.SttModel}).
		SetResult(&result).
		Post("/audio/transcriptions")
	if err != nil {
		return TranscriptionResult{}, fmt.Errorf("%w: %v", ErrRemoteCallFailed, err)
	}
	if resp.IsError() {
		return TranscriptionResult{}, fmt.Errorf("%w: %s", ErrRemoteCallFailed, errorMessage(resp))
	}

	return result, nil
}

// Complete sends one system/user message pair to the chat completions
// endpoint. An empty completion is a failure, not an empty success.
func (c *Client) Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}

	result := completionResponse{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(completionRequest{
			Model: c.cfg.ChatModel,
			Messages: []message{
				{Role: "system", Content: system},
				{Role: "user", Content: user},
			},
			Temperature: temperature,
			MaxTokens:   maxTokens,
		}).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRemoteCallFailed, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: %s", ErrRemoteCallFailed, errorMessage(resp))
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: no response generated", ErrRemoteCallFailed)
	}

	return result.Choices[0].Message.Content, nil
}

// errorMessage extracts the provider's error message from a non-2xx body,
// falling back to the status and raw body.
func errorMessage(resp *resty.Response) string {
	apiErr := apiError{}
	if err := json.Unmarshal(resp.Body(), &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}

	return fmt.Sprintf("API error %d: %s", resp.StatusCode(), resp.Body())
}
