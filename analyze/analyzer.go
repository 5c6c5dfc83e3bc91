package analyze

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/semdiff/semdiff/config"
)

// ErrMissingAPIKey is returned at construction when no API credential is
// configured. It is never retried.
var ErrMissingAPIKey = errors.New("ANTHROPIC_API_KEY not found in environment or config")

// Analyzer runs the full pipeline for one commit: prompt building, the
// resilient model call, payload extraction, normalization, and assembly.
//
// An Analyzer is not safe for concurrent use; each concurrent analysis should
// construct its own instance.
type Analyzer struct {
	model   string
	builder *PromptBuilder
	client  *Client
	logger  *slog.Logger
}

// New creates an Analyzer from configuration. A missing API key is a fatal
// configuration error surfaced immediately.
func New(cfg *config.Config, logger *slog.Logger) (*Analyzer, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := NewClient(cfg.APIKey, cfg.Model, ClientOptions{
		MaxRetries:   cfg.MaxRetries,
		BaseDelay:    cfg.BaseDelay,
		MaxTotalWait: cfg.MaxTotalWait,
	}, logger)

	return &Analyzer{
		model:   cfg.Model,
		builder: NewPromptBuilder(cfg.MaxDiffChars),
		client:  client,
		logger:  logger,
	}, nil
}

// Model returns the model identifier the analyzer calls.
func (a *Analyzer) Model() string {
	return a.model
}

// Analyze performs the semantic analysis of one commit. A commit with zero
// changed files still succeeds and yields an analysis with an empty
// files_changed list.
func (a *Analyzer) Analyze(ctx context.Context, commit CommitInfo, files []FileChange, project ProjectContext) (*SemanticAnalysis, error) {
	prompt := a.builder.Build(commit, files, project)
	a.logger.Debug("built analysis prompt",
		"commit", commit.ShortHash,
		"files", len(files),
		"prompt_size", len(prompt),
	)

	reply, err := a.client.Call(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}
	a.logger.Info("model call succeeded",
		"input_tokens", reply.Usage.InputTokens,
		"output_tokens", reply.Usage.OutputTokens,
	)

	payload, err := ExtractPayload(reply.Text)
	if err != nil {
		return nil, err
	}

	payload, defaulted := NormalizePayload(payload, a.logger)
	if len(defaulted) > 0 {
		a.logger.Debug("normalized payload", "defaulted_fields", defaulted)
	}

	analysis, err := assemble(commit, files, payload, a.model, reply.Usage)
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

// LastUsage exposes the token usage of the most recent successful model call.
func (a *Analyzer) LastUsage() *TokenUsage {
	return a.client.LastUsage()
}
