package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/provoice/interview-agent/internal/config"
	"github.com/provoice/interview-agent/internal/gateway"
	"github.com/provoice/interview-agent/internal/genai"
	"github.com/provoice/interview-agent/internal/observability"
	"github.com/provoice/interview-agent/internal/speech"
	"github.com/provoice/interview-agent/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("generation_model", cfg.GenerationModel).
		Str("log_level", cfg.LogLevel).
		Bool("generation_configured", cfg.GenerationConfigured()).
		Bool("speech_configured", cfg.SpeechConfigured()).
		Msg("Interview Agent starting")

	prompts, err := genai.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.PromptsFile).Msg("Failed to load prompt templates")
	}

	transcripts, err := store.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to open transcript store")
	}
	defer transcripts.Close()

	generator := genai.NewClient(cfg, prompts)
	voice := speech.NewDeepgramSpeech(cfg)
	bridge := speech.NewBridge(voice, voice)
	gw := gateway.New(generator, bridge, transcripts)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/interview", gw.HandleInterviewWS())
	mux.HandleFunc("GET /sessions", gw.HandleListSessions())
	mux.HandleFunc("GET /sessions/{id}/rounds", gw.HandleGetRounds())

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	// Readiness: the store must answer; generation and speech report their
	// configured state without spending API calls.
	storeCheck := func(ctx context.Context) (bool, error) {
		if err := transcripts.Ping(ctx); err != nil {
			return false, err
		}
		return true, nil
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"store":      storeCheck,
		"generation": generator.Check,
		"speech":     voice.Check,
	}))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/ws/interview", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
