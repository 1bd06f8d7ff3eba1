package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-chat/mnemo/pkg/cli/config"
	"github.com/mnemo-chat/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-chat/mnemo/pkg/usecase"
	"github.com/mnemo-chat/mnemo/pkg/utils/logging"
	"github.com/mnemo-chat/mnemo/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// coreConfig bundles the flag groups every data command needs
type coreConfig struct {
	app  config.AppConfig
	repo config.Repository
	llm  config.LLM
}

func (x *coreConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, x.app.Flags()...)
	flags = append(flags, x.repo.Flags()...)
	flags = append(flags, x.llm.Flags()...)
	return flags
}

// Configure builds the repository and use cases. The caller must close the
// returned repository.
func (x *coreConfig) Configure(ctx context.Context) (*usecase.UseCases, interfaces.Repository, error) {
	tuning, err := x.app.Configure()
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load tuning")
	}

	repo, err := x.repo.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}

	embedder, err := x.llm.Configure(ctx, tuning.Embedding, repo.Record())
	if err != nil {
		closeRepository(repo)
		return nil, nil, goerr.Wrap(err, "failed to configure embedder")
	}

	opts := []usecase.Option{usecase.WithTuning(tuning)}
	if embedder != nil {
		opts = append(opts, usecase.WithEmbedder(embedder))
		logging.Default().Info("Embeddings enabled", "llm", x.llm, "dimension", embedder.Dimension())
	} else {
		logging.Default().Warn("No LLM provider configured, semantic matching and memory features are disabled")
	}

	return usecase.New(repo, opts...), repo, nil
}

func closeRepository(repo interfaces.Repository) {
	safe.Close(context.Background(), repo)
}
