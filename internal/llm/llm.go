// Package llm provides language model clients for SQL generation and answer
// composition. Each client is one synchronous request/response call to a
// model-serving endpoint.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sumoql/sumoql/internal/config"
)

// Client is a single-call completion interface.
type Client interface {
	// Complete submits a prompt and returns the raw completion text.
	Complete(ctx context.Context, prompt string) (string, error)

	// Model returns the model name for logging and prompt selection.
	Model() string

	// Check verifies the endpoint is reachable. Callers treat a failure
	// here as fatal at startup and as a per-question error afterwards.
	Check(ctx context.Context) error
}

// New builds a client for the configured provider.
func New(cfg config.ModelConfig) (Client, error) {
	switch cfg.Provider {
	case "ollama", "":
		return NewOllamaClient(cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	case "openai":
		return NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown model provider: %q (supported: ollama, openai)", cfg.Provider)
	}
}

// NewAnswerClient returns the client used for the conversational answer.
// SQL-specialized completion models cannot produce prose, so when an answer
// model is configured a second client is built for it; otherwise the SQL
// client is reused.
func NewAnswerClient(cfg config.ModelConfig, sqlClient Client) (Client, error) {
	if strings.TrimSpace(cfg.AnswerModel) == "" {
		return sqlClient, nil
	}
	answerCfg := cfg
	answerCfg.Model = cfg.AnswerModel
	return New(answerCfg)
}

// IsCompletionModel reports whether the model is a completion-style SQL
// model that continues a statement fragment rather than following
// instructions. Those models get the bare "### Task" prompt shape and a
// reinserted leading SELECT.
func IsCompletionModel(model string) bool {
	lower := strings.ToLower(model)
	return strings.Contains(lower, "sqlcoder") || strings.Contains(lower, "nsql")
}
