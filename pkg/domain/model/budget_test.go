package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
)

func TestBudgetState_IsContextFull(t *testing.T) {
	b := &model.BudgetState{TotalTokens: 750, ContextLimit: 1000}
	gt.Bool(t, b.IsContextFull(0.75)).True()
	gt.Bool(t, b.IsContextFull(0.8)).False()
	gt.Value(t, b.RemainingTokens()).Equal(250)

	var nilState *model.BudgetState
	gt.Bool(t, nilState.IsContextFull(0.5)).False()
	gt.Value(t, nilState.UsageRatio()).Equal(0.0)

	noLimit := &model.BudgetState{TotalTokens: 10}
	gt.Bool(t, noLimit.IsContextFull(0.1)).False()
}

func TestBudgetState_HasLowQualitySearchStreak(t *testing.T) {
	low := model.SearchRecord{Query: "q", TopScore: 0.2}
	high := model.SearchRecord{Query: "q", TopScore: 0.9}

	t.Run("streak of low scores", func(t *testing.T) {
		b := &model.BudgetState{SearchHistory: []model.SearchRecord{high, low, low, low}}
		gt.Bool(t, b.HasLowQualitySearchStreak(3, 0.5)).True()
	})

	t.Run("recent good search breaks streak", func(t *testing.T) {
		b := &model.BudgetState{SearchHistory: []model.SearchRecord{low, low, high}}
		gt.Bool(t, b.HasLowQualitySearchStreak(3, 0.5)).False()
	})

	t.Run("not enough history", func(t *testing.T) {
		b := &model.BudgetState{SearchHistory: []model.SearchRecord{low, low}}
		gt.Bool(t, b.HasLowQualitySearchStreak(3, 0.5)).False()
	})
}
