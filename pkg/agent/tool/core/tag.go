package core

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/mnemo-chat/mnemo/pkg/agent/tool"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/usecase"
)

// resolveTagsTool maps free-form labels onto the user's tags
type resolveTagsTool struct {
	uc     *usecase.UseCases
	userID string
}

func (t *resolveTagsTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "tag__resolve",
		Description: "Tag content with labels. Each label is matched to an existing tag of the user (exact, typo-tolerant or by meaning) and a new tag is created only when nothing matches.",
		Parameters: map[string]*gollem.Parameter{
			"labels": {
				Type:        gollem.TypeArray,
				Description: "Labels to resolve",
				Required:    true,
				Items: &gollem.Parameter{
					Type: gollem.TypeString,
				},
			},
		},
	}
}

func (t *resolveTagsTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	labels := extractStrings(args, "labels")
	if len(labels) == 0 {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "labels is required")
	}

	tool.Update(ctx, fmt.Sprintf("Resolving %d tag(s)...", len(labels)))

	resolved, err := t.uc.Tag.ResolveTags(ctx, t.userID, labels)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve tags", goerr.V("userID", t.userID))
	}

	items := make([]map[string]any, len(resolved))
	for i, r := range resolved {
		items[i] = map[string]any{
			"label":      r.Label,
			"tag_id":     string(r.Tag.ID),
			"slug":       r.Tag.Slug,
			"match_type": r.MatchType.String(),
			"confidence": r.Confidence,
			"created":    r.Created,
		}
	}
	return map[string]any{"tags": items}, nil
}
