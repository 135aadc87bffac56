package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"voicememo/config"
	"voicememo/constant"
	recordHandler "voicememo/handler"
	"voicememo/pkg/capture"
	"voicememo/pkg/events"
	"voicememo/pkg/openai"
	"voicememo/repository"
	"voicememo/service"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	kv, err := repository.New(cfg)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("failed to open key-value store")
	}

	var publisher service.EventPublisher
	if cfg.Queue != nil {
		conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
		} else {
			publisher = events.NewPublisher(conn, cfg.Queue)
		}
	}

	openaiClient := openai.NewClient(cfg.OpenAI)
	settingsService := service.NewSettingsService(kv)
	templateService := service.NewTemplateService(kv)
	exportService := service.NewExportService(cfg.Objects, cfg.MinIOBucket)
	recordService := service.NewRecordService(kv, openaiClient, openaiClient, settingsService, publisher)

	if err := recordService.Load(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to load records at startup")
	}

	h := &recordHandler.Handler{
		Records:   recordService,
		Settings:  settingsService,
		Templates: templateService,
		Export:    exportService,
		Capture:   capture.NewManager(capture.NewRecorder(cfg.App.DataDir)),
		DataDir:   cfg.App.DataDir,
	}

	r := gin.Default()
	r.Use(contextLogger(ctx))
	addHealth(r)
	addRoutes(r, h)

	server := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	if err := server.Shutdown(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

func addRoutes(r *gin.Engine, h *recordHandler.Handler) {
	api := r.Group("/api")

	api.GET("/records", h.ListRecords)
	api.POST("/records", h.CreateRecord)
	api.GET("/records/:id", h.GetRecord)
	api.PATCH("/records/:id", h.RenameRecord)
	api.DELETE("/records/:id", h.DeleteRecord)
	api.POST("/records/:id/transcribe", h.TranscribeRecord)
	api.POST("/records/:id/summarize", h.SummarizeRecord)
	api.POST("/records/:id/prompt", h.CustomPromptRecord)
	api.POST("/records/:id/export", h.ExportRecord)

	api.GET("/settings", h.GetSettings)
	api.PUT("/settings", h.UpdateSettings)

	api.GET("/templates", h.ListTemplates)
	api.POST("/templates", h.AddTemplate)
	api.PUT("/templates/:id", h.UpdateTemplate)
	api.DELETE("/templates/:id", h.DeleteTemplate)

	api.POST("/capture/start", h.StartCapture)
	api.POST("/capture/pause", h.PauseCapture)
	api.POST("/capture/resume", h.ResumeCapture)
	api.POST("/capture/stop", h.StopCapture)
	api.POST("/capture/cancel", h.CancelCapture)
}

// contextLogger carries the process logger into each request context so
// services can use zerolog.Ctx.
func contextLogger(ctx context.Context) gin.HandlerFunc {
	logger := zerolog.Ctx(ctx)
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Next()
	}
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
