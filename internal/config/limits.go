package config

import "time"

const (
	// MaxQuestionLength is the maximum length for a chat message.
	// Questions are short natural-language sentences; anything larger is
	// a paste mistake, and oversized prompts waste LLM tokens.
	MaxQuestionLength = 4000

	// DefaultMaxHistoryTurns is the number of user/assistant pairs kept
	// in the prompting window. Older turns are evicted first.
	DefaultMaxHistoryTurns = 5

	// DefaultTurnTimeout bounds one full turn (schema fetch, up to two
	// LLM calls, one query execution) so a stuck provider cannot hang
	// the session.
	DefaultTurnTimeout = 60 * time.Second

	// DefaultLogMaxFiles is how many timestamped server log files are
	// kept when LOG_DIR is set.
	DefaultLogMaxFiles = 5
)
