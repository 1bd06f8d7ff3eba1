package types

import "fmt"

// ExtractionLevel controls how aggressively memories are extracted from and
// injected into conversations.
type ExtractionLevel string

const (
	ExtractionLevelNone     ExtractionLevel = "none"
	ExtractionLevelPassive  ExtractionLevel = "passive"
	ExtractionLevelModerate ExtractionLevel = "moderate"
	ExtractionLevelActive   ExtractionLevel = "active"
)

// IsValid checks if the extraction level is valid
func (l ExtractionLevel) IsValid() bool {
	switch l {
	case ExtractionLevelNone,
		ExtractionLevelPassive,
		ExtractionLevelModerate,
		ExtractionLevelActive:
		return true
	default:
		return false
	}
}

// Normalize treats empty as ExtractionLevelModerate
func (l ExtractionLevel) Normalize() ExtractionLevel {
	if l == "" {
		return ExtractionLevelModerate
	}
	return l
}

// MemoriesEnabled reports whether memory sections may be rendered
func (l ExtractionLevel) MemoriesEnabled() bool {
	return l.Normalize() != ExtractionLevelNone
}

// ParseExtractionLevel parses a string into an ExtractionLevel
func ParseExtractionLevel(s string) (ExtractionLevel, error) {
	l := ExtractionLevel(s)
	if !l.IsValid() {
		return "", fmt.Errorf("invalid extraction level: %s", s)
	}
	return l, nil
}
