package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"clinchat/internal/config"
	"clinchat/internal/conventions"
	"clinchat/internal/handler"
	"clinchat/internal/llm/anthropic"
	"clinchat/internal/middleware"
	"clinchat/internal/repository/clinicaldb"
	chatsvc "clinchat/internal/service/chat"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load and validate configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"driver", cfg.DatabaseDriver,
		"model", cfg.Model,
	)

	// Connect to the clinical database
	ctx := context.Background()
	db, err := clinicaldb.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	db.AllowWrites(cfg.AllowWrites)

	// The web variant expects an already-seeded database (see cmd/seed),
	// but refuses to start against one with no tables at all.
	schema, err := db.Snapshot(ctx)
	if err != nil {
		log.Fatalf("Failed to read database schema: %v", err)
	}
	if schema == "" {
		log.Fatalf("Database has no tables. Run cmd/seed with SCHEMA_FILE=%s first.", cfg.SchemaFile)
	}

	logger.Info("database connected", "dialect", db.Dialect())

	// Load domain SQL conventions
	conv, err := conventions.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load SQL conventions: %v", err)
	}

	// Create LLM provider
	provider, err := anthropic.NewProvider(cfg.AnthropicAPIKey, cfg.Model)
	if err != nil {
		log.Fatalf("Failed to create LLM provider: %v", err)
	}

	// Build the question pipeline. The web variant answers not-a-query
	// questions conversationally.
	synthesizer := chatsvc.NewSynthesizer(provider, conv, db.Dialect(), logger)
	composer := chatsvc.NewComposer(provider, logger)
	orchestrator := chatsvc.NewOrchestrator(db, synthesizer, composer, provider, true, logger)
	sessions := chatsvc.NewSessionStore(cfg.MaxHistoryTurns)

	chatHandler := handler.NewChatHandler(orchestrator, sessions, cfg.TurnTimeout, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", chatHandler.HealthCheck)

	// Session routes
	mux.HandleFunc("POST /api/sessions", chatHandler.CreateSession)
	mux.HandleFunc("GET /api/sessions/{id}/messages", chatHandler.GetTranscript)
	mux.HandleFunc("POST /api/sessions/{id}/messages", chatHandler.PostMessage)

	// Build middleware chain: CORS → Recovery → Routes
	var h http.Handler = mux
	h = middleware.Recovery(logger)(h)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	// Create HTTP server. WriteTimeout must outlast a full turn (two LLM
	// calls plus a query execution).
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.TurnTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
