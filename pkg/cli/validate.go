package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-chat/mnemo/pkg/cli/config"
	"github.com/mnemo-chat/mnemo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var appCfg config.AppConfig

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate a tuning file",
		Flags:   appCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			if appCfg.Path() == "" {
				return goerr.Wrap(config.ErrConfigNotFound, "--config is required")
			}

			tuning, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}

			logging.Default().Info("Configuration validation passed",
				"path", appCfg.Path(),
				"matching", tuning.Matching,
				"memory", tuning.Memory,
				"prompt", tuning.Prompt,
				"embedding.dimension", tuning.Embedding.Dimension,
				"embedding.timeout", tuning.Embedding.Timeout.String(),
				"cascade", tuning.Cascade,
			)
			return nil
		},
	}
}
