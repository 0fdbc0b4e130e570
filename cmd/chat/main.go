// Command chat is the interactive terminal front end: a line-based loop
// that reads a question, prints the generated SQL as a diagnostic, and
// prints the conversational answer.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"clinchat/internal/config"
	"clinchat/internal/conventions"
	chatmodel "clinchat/internal/domain/models/chat"
	"clinchat/internal/llm/anthropic"
	"clinchat/internal/repository/clinicaldb"
	chatsvc "clinchat/internal/service/chat"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Log to stderr so the conversation on stdout stays readable.
	logLevel := slog.LevelWarn
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	ctx := context.Background()
	db, err := clinicaldb.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	db.AllowWrites(cfg.AllowWrites)

	// The interactive variant bootstraps its tables from the schema file
	// when the database is empty.
	schema, err := db.Snapshot(ctx)
	if err != nil {
		log.Fatalf("Failed to read database schema: %v", err)
	}
	if schema == "" {
		if err := db.ApplySchemaFile(ctx, cfg.SchemaFile); err != nil {
			log.Fatalf("Failed to set up database from %s: %v", cfg.SchemaFile, err)
		}
		logger.Info("database bootstrapped", "schema_file", cfg.SchemaFile)
	}

	conv, err := conventions.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load SQL conventions: %v", err)
	}

	provider, err := anthropic.NewProvider(cfg.AnthropicAPIKey, cfg.Model)
	if err != nil {
		log.Fatalf("Failed to create LLM provider: %v", err)
	}

	// Interactive mode uses the fixed refusal for not-a-query questions.
	synthesizer := chatsvc.NewSynthesizer(provider, conv, db.Dialect(), logger)
	composer := chatsvc.NewComposer(provider, logger)
	orchestrator := chatsvc.NewOrchestrator(db, synthesizer, composer, provider, false, logger)
	history := chatmodel.NewHistory(cfg.MaxHistoryTurns)

	fmt.Println("Chatbot is ready! Ask me anything about the clinical data (or type 'quit' to exit).")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nUser: ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if q := strings.ToLower(question); q == "quit" || q == "exit" {
			fmt.Println("Chatbot: Goodbye!")
			break
		}

		turnCtx, cancel := context.WithTimeout(ctx, cfg.TurnTimeout)
		reply := orchestrator.Answer(turnCtx, history, question)
		cancel()

		if reply.SQL != "" {
			fmt.Printf("Generated SQL: %s\n", reply.SQL)
		}
		fmt.Printf("\nChatbot: %s\n", reply.Text)
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}
}
