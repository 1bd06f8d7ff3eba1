package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/usecase"
	"github.com/mnemo-chat/mnemo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

var errMissingID = goerr.New("ID argument is required")

func cmdPurge() *cli.Command {
	var core coreConfig
	var dryRun bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Print the deletion plan without deleting anything",
			Destination: &dryRun,
		},
	}
	flags = append(flags, core.Flags()...)

	return &cli.Command{
		Name:  "purge",
		Usage: "Delete a conversation or every record of a user with all dependents",
		Flags: flags,
		Commands: []*cli.Command{
			cmdPurgeConversation(&core, &dryRun),
			cmdPurgeUser(&core, &dryRun),
		},
	}
}

func cmdPurgeConversation(core *coreConfig, dryRun *bool) *cli.Command {
	var keepMessages bool
	var keepConversation bool

	return &cli.Command{
		Name:      "conversation",
		Usage:     "Delete a conversation and its dependents",
		ArgsUsage: "<conversation-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "keep-messages",
				Usage:       "Keep the conversation's messages",
				Destination: &keepMessages,
			},
			&cli.BoolFlag{
				Name:        "keep-conversation",
				Usage:       "Keep the conversation row itself",
				Destination: &keepConversation,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			conversationID := c.Args().First()
			if conversationID == "" {
				return goerr.Wrap(errMissingID, "failed to purge conversation")
			}

			uc, repo, err := core.Configure(ctx)
			if err != nil {
				return err
			}
			defer closeRepository(repo)

			opts := usecase.CascadeOptions{
				DeleteMessages:     !keepMessages,
				DeleteConversation: !keepConversation,
			}

			if *dryRun {
				plan, err := uc.Cascade.PlanConversation(ctx, conversationID, opts)
				if err != nil {
					return goerr.Wrap(err, "failed to plan conversation purge")
				}
				logPlan(ctx, plan, true)
				return nil
			}

			plan, err := uc.Cascade.DeleteConversation(ctx, conversationID, opts)
			if err != nil {
				return goerr.Wrap(err, "failed to purge conversation")
			}
			logPlan(ctx, plan, false)
			return nil
		},
	}
}

func cmdPurgeUser(core *coreConfig, dryRun *bool) *cli.Command {
	return &cli.Command{
		Name:      "user",
		Usage:     "Delete every record owned by a user",
		ArgsUsage: "<user-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			userID := c.Args().First()
			if userID == "" {
				return goerr.Wrap(errMissingID, "failed to purge user")
			}

			uc, repo, err := core.Configure(ctx)
			if err != nil {
				return err
			}
			defer closeRepository(repo)

			if *dryRun {
				plan, err := uc.Cascade.PlanUser(ctx, userID, usecase.CascadeOptions{})
				if err != nil {
					return goerr.Wrap(err, "failed to plan user purge")
				}
				logPlan(ctx, plan, true)
				return nil
			}

			plan, err := uc.Cascade.DeleteUserData(ctx, userID, usecase.CascadeOptions{})
			if err != nil {
				return goerr.Wrap(err, "failed to purge user")
			}
			logPlan(ctx, plan, false)
			return nil
		},
	}
}

func logPlan(ctx context.Context, plan *model.DeletionPlan, dryRun bool) {
	logger := logging.From(ctx)
	if plan.IsEmpty() {
		logger.Info("Nothing to delete", "root", plan.Root)
		return
	}

	if dryRun {
		for _, phase := range plan.Phases {
			for _, op := range phase.Ops {
				logger.Info("Deletion step", "phase", phase.Name, "sequential", phase.Sequential, "op", op.String())
			}
		}
	}

	logger.Info("Deletion plan",
		"root", plan.Root,
		"phases", len(plan.Phases),
		"deleted", plan.Count(model.DeletionKindDelete),
		"nullified", plan.Count(model.DeletionKindNullify),
		"dryRun", dryRun,
	)
}
