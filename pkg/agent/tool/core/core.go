package core

import (
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
	"github.com/mnemo-chat/mnemo/pkg/usecase"
)

// New builds the function-calling tools a chat model uses to manage the
// memories and tags of userID
func New(uc *usecase.UseCases, userID string) []gollem.Tool {
	return []gollem.Tool{
		&saveMemoryTool{uc: uc, userID: userID},
		&forgetMemoryTool{uc: uc, userID: userID},
		&searchMemoryTool{uc: uc, userID: userID},
		&listMemoriesTool{uc: uc, userID: userID},
		&resolveTagsTool{uc: uc, userID: userID},
	}
}

// Find returns the tool named name, or nil
func Find(tools []gollem.Tool, name string) gollem.Tool {
	for _, t := range tools {
		if t.Spec().Name == name {
			return t
		}
	}
	return nil
}

func categoryNames() []string {
	all := types.AllMemoryCategories()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = c.String()
	}
	return names
}

// extractInt64 extracts an int64 value from args map, accepting int, int64, or float64
func extractInt64(args map[string]any, key string) (int64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, goerr.Wrap(model.ErrInvalidArgument, "argument is required", goerr.V("key", key))
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, goerr.Wrap(model.ErrInvalidArgument, "argument must be an integer",
			goerr.V("key", key),
			goerr.V("type", fmt.Sprintf("%T", v)),
		)
	}
}

func extractStrings(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
