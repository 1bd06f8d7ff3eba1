package usecase

import "time"

// SelectIdentityMemories is exported for testing
var SelectIdentityMemories = selectIdentityMemories

// RenderSection is exported for testing
var RenderSection = renderSection

// SetPromptClock replaces the clock used for the date in the base identity
func SetPromptClock(uc *PromptUseCase, now func() time.Time) {
	uc.now = now
}
