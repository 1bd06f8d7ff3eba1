package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

type matchOutput struct {
	Candidate  string          `json:"candidate"`
	MatchType  types.MatchType `json:"match_type"`
	Confidence float64         `json:"confidence"`
	TagID      string          `json:"tag_id,omitempty"`
	Slug       string          `json:"slug,omitempty"`
	Created    bool            `json:"created,omitempty"`
}

func cmdMatch() *cli.Command {
	var core coreConfig
	var userID string
	var resolve bool

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user",
			Aliases:     []string{"u"},
			Usage:       "Owner of the tags to match against",
			Required:    true,
			Destination: &userID,
		},
		&cli.BoolFlag{
			Name:        "resolve",
			Usage:       "Create a tag for every candidate without a match",
			Destination: &resolve,
		},
	}
	flags = append(flags, core.Flags()...)

	return &cli.Command{
		Name:      "match",
		Usage:     "Match candidate labels against a user's tags and print one JSON line per candidate",
		ArgsUsage: "<candidate>...",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			candidates := c.Args().Slice()
			if len(candidates) == 0 {
				return goerr.New("at least one candidate is required")
			}

			uc, repo, err := core.Configure(ctx)
			if err != nil {
				return err
			}
			defer closeRepository(repo)

			enc := json.NewEncoder(os.Stdout)

			if resolve {
				resolved, err := uc.Tag.ResolveTags(ctx, userID, candidates)
				if err != nil {
					return goerr.Wrap(err, "failed to resolve tags")
				}
				for _, r := range resolved {
					if err := enc.Encode(matchOutput{
						Candidate:  r.Label,
						MatchType:  r.MatchType,
						Confidence: r.Confidence,
						TagID:      string(r.Tag.ID),
						Slug:       r.Tag.Slug,
						Created:    r.Created,
					}); err != nil {
						return goerr.Wrap(err, "failed to write result")
					}
				}
				return nil
			}

			for _, candidate := range candidates {
				result, err := uc.Tag.MatchUserTag(ctx, userID, candidate)
				if err != nil {
					return goerr.Wrap(err, "failed to match tag", goerr.V("candidate", candidate))
				}
				out := matchOutput{
					Candidate:  candidate,
					MatchType:  result.MatchType,
					Confidence: result.Confidence,
				}
				if result.Existing != nil {
					out.TagID = string(result.Existing.ID)
					out.Slug = result.Existing.Slug
				}
				if err := enc.Encode(out); err != nil {
					return goerr.Wrap(err, "failed to write result")
				}
			}
			return nil
		},
	}
}
