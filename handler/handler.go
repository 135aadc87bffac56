package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"voicememo/dto"
	"voicememo/pkg/capture"
	"voicememo/pkg/openai"
	"voicememo/service"
)

type Handler struct {
	Records   service.RecordService
	Settings  service.SettingsService
	Templates service.TemplateService
	Export    service.ExportService
	Capture   *capture.Manager
	DataDir   string
}

// ListRecords doubles as the refresh poll: background jobs mutate state
// outside any request's lifetime, so every list re-reads the durable store.
func (h *Handler) ListRecords(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.Records.Load(ctx); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Records.List())
}

func (h *Handler) GetRecord(c *gin.Context) {
	rec, ok := h.Records.GetByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// CreateRecord accepts a multipart audio upload and enrolls it like a
// finished capture.
func (h *Handler) CreateRecord(c *gin.Context) {
	ctx := c.Request.Context()

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing audio file"})
		return
	}

	duration, _ := strconv.Atoi(c.PostForm("duration"))
	if duration < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration must be non-negative"})
		return
	}

	path := filepath.Join(h.DataDir, fmt.Sprintf("memo-%s%s", uuid.NewString(), filepath.Ext(file.Filename)))
	if err := c.SaveUploadedFile(file, path); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to save uploaded audio")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store audio file"})
		return
	}

	rec, ok := h.Records.CreateFromCapture(ctx, path, duration, c.PostForm("name"))
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist record"})
		return
	}

	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) RenameRecord(c *gin.Context) {
	var req dto.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.Records.Rename(c.Request.Context(), c.Param("id"), req.Name) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rename record"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) DeleteRecord(c *gin.Context) {
	if !h.Records.Delete(c.Request.Context(), c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) TranscribeRecord(c *gin.Context) {
	id := c.Param("id")
	if err := h.Records.Transcribe(c.Request.Context(), id, ""); err != nil {
		respondError(c, err)
		return
	}

	rec, _ := h.Records.GetByID(id)
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) SummarizeRecord(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var req dto.SummarizeRequest
	_ = c.ShouldBindJSON(&req)
	language, err := h.resolveLanguage(c, req.Language)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.Records.Summarize(ctx, id, language); err != nil {
		respondError(c, err)
		return
	}

	rec, _ := h.Records.GetByID(id)
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) CustomPromptRecord(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var req dto.CustomPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	language, err := h.resolveLanguage(c, req.Language)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.Records.CustomPrompt(ctx, id, req.Prompt, language); err != nil {
		respondError(c, err)
		return
	}

	rec, _ := h.Records.GetByID(id)
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) ExportRecord(c *gin.Context) {
	rec, ok := h.Records.GetByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}

	result, err := h.Export.Export(c.Request.Context(), rec)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.Settings.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req dto.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.Settings.Update(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.Templates.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *Handler) AddTemplate(c *gin.Context) {
	var req dto.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tpl, err := h.Templates.Add(c.Request.Context(), req.Name, req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

func (h *Handler) UpdateTemplate(c *gin.Context) {
	var req dto.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tpl, err := h.Templates.Update(c.Request.Context(), c.Param("id"), req.Name, req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (h *Handler) DeleteTemplate(c *gin.Context) {
	if err := h.Templates.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) StartCapture(c *gin.Context) {
	id, err := h.Capture.Start(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sessionId": id})
}

func (h *Handler) PauseCapture(c *gin.Context) {
	if err := h.Capture.Pause(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) ResumeCapture(c *gin.Context) {
	if err := h.Capture.Resume(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// StopCapture finishes the session and enrolls the result as a new record.
// When auto-transcribe is on, the detached transcription races the next list
// refresh; the job's retry-read protocol makes that safe.
func (h *Handler) StopCapture(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := h.Capture.Stop(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	rec, ok := h.Records.CreateFromCapture(ctx, result.FileURI, result.Duration, "")
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist record"})
		return
	}

	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) CancelCapture(c *gin.Context) {
	if err := h.Capture.Cancel(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) resolveLanguage(c *gin.Context, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}

	settings, err := h.Settings.Get(c.Request.Context())
	if err != nil {
		return "", err
	}
	return settings.DefaultLanguage, nil
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrRecordNotFound), errors.Is(err, service.ErrTemplateNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrPreconditionFailed):
		status = http.StatusPreconditionFailed
	case errors.Is(err, service.ErrSystemTemplate):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrExportNotConfigured), errors.Is(err, openai.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	case errors.Is(err, openai.ErrRemoteCallFailed):
		status = http.StatusBadGateway
	case errors.Is(err, capture.ErrNoActiveCapture),
		errors.Is(err, capture.ErrCaptureInProgress),
		errors.Is(err, capture.ErrNotRecording),
		errors.Is(err, capture.ErrNotPaused),
		errors.Is(err, capture.ErrEmptyCapture),
		errors.Is(err, capture.ErrAlreadyDone):
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
