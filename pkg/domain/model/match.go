package model

import "github.com/mnemo-chat/mnemo/pkg/domain/types"

// MatchResult is the outcome of matching a candidate label against existing
// tags. Existing is nil when MatchType is none.
type MatchResult struct {
	Existing   *Tag
	MatchType  types.MatchType
	Confidence float64
}

// NoMatch is returned when the candidate should become a new tag
func NoMatch() MatchResult {
	return MatchResult{MatchType: types.MatchTypeNone}
}

// IsMatch reports whether an existing tag was found
func (r MatchResult) IsMatch() bool {
	return r.Existing != nil && r.MatchType.IsMatch()
}
