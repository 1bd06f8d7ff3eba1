package types

// MatchType describes which tier of the tag matcher produced a result
type MatchType string

const (
	MatchTypeExact    MatchType = "exact"
	MatchTypeFuzzy    MatchType = "fuzzy"
	MatchTypeSemantic MatchType = "semantic"
	MatchTypeNone     MatchType = "none"
)

// String returns the string representation of the match type
func (m MatchType) String() string {
	return string(m)
}

// IsMatch reports whether the match type refers to an existing entity
func (m MatchType) IsMatch() bool {
	switch m {
	case MatchTypeExact, MatchTypeFuzzy, MatchTypeSemantic:
		return true
	default:
		return false
	}
}
