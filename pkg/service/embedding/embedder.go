package embedding

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/mnemo-chat/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/utils/logging"
)

const (
	DefaultDimension = 1536
	DefaultTimeout   = 10 * time.Second
)

// Embedder turns text into vectors through a gollem LLM client
type Embedder struct {
	llmClient gollem.LLMClient
	dimension int
	timeout   time.Duration
	modelName string
	usage     interfaces.RecordRepository
}

// Option is a functional option for Embedder configuration
type Option func(*Embedder)

// WithDimension sets the requested vector dimension
func WithDimension(dimension int) Option {
	return func(e *Embedder) {
		e.dimension = dimension
	}
}

// WithTimeout bounds every embedding call
func WithTimeout(timeout time.Duration) Option {
	return func(e *Embedder) {
		e.timeout = timeout
	}
}

// WithModelName sets the model name written to usage records
func WithModelName(name string) Option {
	return func(e *Embedder) {
		e.modelName = name
	}
}

// WithUsageRecorder enables a usage row per successful call
func WithUsageRecorder(repo interfaces.RecordRepository) Option {
	return func(e *Embedder) {
		e.usage = repo
	}
}

// New creates an Embedder
func New(llmClient gollem.LLMClient, opts ...Option) (*Embedder, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	e := &Embedder{
		llmClient: llmClient,
		dimension: DefaultDimension,
		timeout:   DefaultTimeout,
		modelName: "embedding",
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.dimension <= 0 {
		return nil, goerr.New("embedding dimension must be positive", goerr.V("dimension", e.dimension))
	}
	return e, nil
}

// Dimension returns the configured vector dimension
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Embed generates an embedding for text on behalf of userID
func (e *Embedder) Embed(ctx context.Context, userID, text string) ([]float32, error) {
	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	embeddings, err := e.llmClient.GenerateEmbedding(callCtx, e.dimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(model.ErrEmbeddingGeneration, "failed to generate embedding",
			goerr.V("cause", err.Error()),
			goerr.V("dimension", e.dimension),
		)
	}

	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, goerr.Wrap(model.ErrEmbeddingGeneration, "no embedding returned")
	}

	// Convert float64 to float32
	result := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		result[i] = float32(v)
	}

	e.recordUsage(ctx, userID, text)
	return result, nil
}

func (e *Embedder) recordUsage(ctx context.Context, userID, text string) {
	if e.usage == nil || userID == "" {
		return
	}

	record := model.NewUsageRecord(userID, model.UsageOperationEmbedding, e.modelName, model.EstimateTokens(text))
	if err := e.usage.Put(ctx, record); err != nil {
		logging.From(ctx).Warn("failed to record embedding usage",
			slog.String("userID", userID),
			slog.Any("error", err),
		)
	}
}
