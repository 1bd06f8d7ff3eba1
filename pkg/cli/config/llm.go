package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/mnemo-chat/mnemo/pkg/domain/interfaces"
	domainConfig "github.com/mnemo-chat/mnemo/pkg/domain/model/config"
	"github.com/mnemo-chat/mnemo/pkg/service/embedding"
	"github.com/urfave/cli/v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// LLM holds configuration for the embedding provider
type LLM struct {
	provider       string
	geminiProject  string
	geminiLocation string
	openaiAPIKey   string
	embeddingModel string
}

// Flags returns CLI flags for LLM configuration
func (x *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Category:    "LLM",
			Usage:       "Embedding provider (gemini or openai); embeddings are disabled when unset",
			Sources:     cli.EnvVars("MNEMO_LLM_PROVIDER"),
			Destination: &x.provider,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Category:    "LLM",
			Usage:       "Google Cloud project ID for Gemini API",
			Sources:     cli.EnvVars("MNEMO_GEMINI_PROJECT"),
			Destination: &x.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Category:    "LLM",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Sources:     cli.EnvVars("MNEMO_GEMINI_LOCATION"),
			Destination: &x.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Category:    "LLM",
			Usage:       "OpenAI API key",
			Sources:     cli.EnvVars("MNEMO_OPENAI_API_KEY"),
			Destination: &x.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Category:    "LLM",
			Usage:       "Model name recorded with embedding usage",
			Sources:     cli.EnvVars("MNEMO_EMBEDDING_MODEL"),
			Destination: &x.embeddingModel,
		},
	}
}

// LogValue implements slog.LogValuer without exposing the API key
func (x LLM) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", x.provider),
		slog.String("gemini_project", x.geminiProject),
		slog.String("gemini_location", x.geminiLocation),
		slog.Int("openai_api_key.len", len(x.openaiAPIKey)),
		slog.String("embedding_model", x.embeddingModel),
	)
}

// Client creates the LLM client for the configured provider. It returns nil
// when no provider is set, which disables every embedding-backed feature.
func (x *LLM) Client(ctx context.Context) (gollem.LLMClient, error) {
	switch x.provider {
	case "":
		return nil, nil

	case ProviderGemini:
		if x.geminiProject == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "gemini-project is required for the gemini provider")
		}
		client, err := gemini.New(ctx, x.geminiProject, x.geminiLocation)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		return client, nil

	case ProviderOpenAI:
		if x.openaiAPIKey == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "openai-api-key is required for the openai provider")
		}
		client, err := openai.New(ctx, x.openaiAPIKey)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client")
		}
		return client, nil

	default:
		return nil, goerr.Wrap(ErrInvalidProvider, "failed to configure LLM", goerr.V(ProviderKey, x.provider))
	}
}

// Configure builds the embedder, recording usage into records. It returns
// nil when no provider is configured.
func (x *LLM) Configure(ctx context.Context, tuning domainConfig.Embedding, records interfaces.RecordRepository) (*embedding.Embedder, error) {
	client, err := x.Client(ctx)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, nil
	}

	opts := []embedding.Option{
		embedding.WithDimension(tuning.Dimension),
		embedding.WithTimeout(tuning.Timeout.Duration),
		embedding.WithUsageRecorder(records),
	}
	if x.embeddingModel != "" {
		opts = append(opts, embedding.WithModelName(x.embeddingModel))
	} else {
		opts = append(opts, embedding.WithModelName(x.provider))
	}

	return embedding.New(client, opts...)
}
