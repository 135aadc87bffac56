package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicememo/config"
)

func testConfig(url string) config.OpenAI {
	return config.OpenAI{
		APIKey:    "test-key",
		BaseURL:   url,
		SttModel:  "whisper-1",
		ChatModel: "gpt-4o-mini",
		Timeout:   5 * time.Second,
	}
}

func writeAudioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memo.mp3")
	require.NoError(t, os.WriteFile(path, []byte("audio-bytes"), 0o644))
	return path
}

func TestTranscribeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		_, _, err := r.FormFile("file")
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"hello world","duration":3.5}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	result, err := client.Transcribe(context.Background(), writeAudioFile(t))
	require.NoError(t, err)
	assert.Equal(t, "hello world", result.Text)
	assert.Equal(t, 3.5, result.Duration)
}

func TestTranscribeExtractsProviderErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached"}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Transcribe(context.Background(), writeAudioFile(t))
	require.ErrorIs(t, err, ErrRemoteCallFailed)
	assert.Contains(t, err.Error(), "Rate limit reached")
}

func TestTranscribeFallsBackToStatusMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream broke`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Transcribe(context.Background(), writeAudioFile(t))
	require.ErrorIs(t, err, ErrRemoteCallFailed)
	assert.Contains(t, err.Error(), "API error 502")
	assert.Contains(t, err.Error(), "upstream broke")
}

func TestTranscribeMissingFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Transcribe(context.Background(), "/nope/missing.mp3")
	assert.ErrorContains(t, err, "audio file not found")
}

func TestCompleteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"the answer"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	text, err := client.Complete(context.Background(), "be helpful", "question", 0.5, 500)
	require.NoError(t, err)
	assert.Equal(t, "the answer", text)
}

func TestCompleteEmptyContentIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":""}}]}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Complete(context.Background(), "sys", "user", 0.5, 500)
	require.ErrorIs(t, err, ErrRemoteCallFailed)
	assert.Contains(t, err.Error(), "no response generated")
}

func TestMissingAPIKeyFailsBeforeAnyRequest(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.APIKey = ""
	client := NewClient(cfg)

	_, err := client.Transcribe(context.Background(), writeAudioFile(t))
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = client.Complete(context.Background(), "sys", "user", 0.5, 500)
	assert.ErrorIs(t, err, ErrNotConfigured)

	assert.Equal(t, int32(0), requests.Load())
}
