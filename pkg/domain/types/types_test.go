package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
)

func TestMemoryCategory_IsIdentity(t *testing.T) {
	tests := []struct {
		category types.MemoryCategory
		want     bool
	}{
		{types.MemoryCategoryIdentity, true},
		{types.MemoryCategoryPreference, true},
		{types.MemoryCategoryRelationship, true},
		{types.MemoryCategoryProject, false},
		{types.MemoryCategoryGoal, false},
		{types.MemoryCategoryContext, false},
	}

	for _, tt := range tests {
		t.Run(tt.category.String(), func(t *testing.T) {
			gt.Value(t, tt.category.IsIdentity()).Equal(tt.want)
		})
	}
}

func TestParseMemoryCategory(t *testing.T) {
	c, err := types.ParseMemoryCategory("goal")
	gt.NoError(t, err)
	gt.Value(t, c).Equal(types.MemoryCategoryGoal)

	_, err = types.ParseMemoryCategory("unknown")
	gt.Error(t, err)
}

func TestExtractionLevel(t *testing.T) {
	gt.Value(t, types.ExtractionLevel("").Normalize()).Equal(types.ExtractionLevelModerate)
	gt.Bool(t, types.ExtractionLevelNone.MemoriesEnabled()).False()
	gt.Bool(t, types.ExtractionLevelPassive.MemoriesEnabled()).True()
	gt.Bool(t, types.ExtractionLevel("").MemoriesEnabled()).True()

	_, err := types.ParseExtractionLevel("loud")
	gt.Error(t, err)
}

func TestMatchType_IsMatch(t *testing.T) {
	gt.Bool(t, types.MatchTypeExact.IsMatch()).True()
	gt.Bool(t, types.MatchTypeFuzzy.IsMatch()).True()
	gt.Bool(t, types.MatchTypeSemantic.IsMatch()).True()
	gt.Bool(t, types.MatchTypeNone.IsMatch()).False()
}
