package model

import (
	"strconv"

	"github.com/mnemo-chat/mnemo/pkg/domain/types"
)

// Usage operations
const (
	UsageOperationEmbedding = "embedding"
)

// NewUsageRecord builds the usage row written after each external model call
func NewUsageRecord(userID, operation, modelName string, inputTokens int) *Record {
	return NewRecord(types.TableUsageRecords, map[string]string{
		types.FieldUserID: userID,
		"Operation":       operation,
		"Model":           modelName,
		"InputTokens":     strconv.Itoa(inputTokens),
	})
}
