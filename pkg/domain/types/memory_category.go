package types

import "fmt"

// MemoryCategory classifies a memory entry
type MemoryCategory string

const (
	MemoryCategoryIdentity     MemoryCategory = "identity"
	MemoryCategoryPreference   MemoryCategory = "preference"
	MemoryCategoryRelationship MemoryCategory = "relationship"
	MemoryCategoryProject      MemoryCategory = "project"
	MemoryCategoryGoal         MemoryCategory = "goal"
	MemoryCategoryContext      MemoryCategory = "context"
)

// AllMemoryCategories returns all valid memory categories
func AllMemoryCategories() []MemoryCategory {
	return []MemoryCategory{
		MemoryCategoryIdentity,
		MemoryCategoryPreference,
		MemoryCategoryRelationship,
		MemoryCategoryProject,
		MemoryCategoryGoal,
		MemoryCategoryContext,
	}
}

// IsValid checks if the memory category is valid
func (c MemoryCategory) IsValid() bool {
	for _, v := range AllMemoryCategories() {
		if c == v {
			return true
		}
	}
	return false
}

// IsIdentity reports whether memories of this category describe who the user
// is and belong to the identity section of the system prompt.
func (c MemoryCategory) IsIdentity() bool {
	switch c {
	case MemoryCategoryIdentity, MemoryCategoryPreference, MemoryCategoryRelationship:
		return true
	default:
		return false
	}
}

// IdentityMemoryCategories returns the categories for which IsIdentity is true
func IdentityMemoryCategories() []MemoryCategory {
	return []MemoryCategory{
		MemoryCategoryIdentity,
		MemoryCategoryPreference,
		MemoryCategoryRelationship,
	}
}

// String returns the string representation of the memory category
func (c MemoryCategory) String() string {
	return string(c)
}

// ParseMemoryCategory parses a string into a MemoryCategory
func ParseMemoryCategory(s string) (MemoryCategory, error) {
	c := MemoryCategory(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid memory category: %s", s)
	}
	return c, nil
}
