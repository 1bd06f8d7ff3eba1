package model

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// TagID is a UUID-based identifier for Tag
type TagID string

// NewTagID generates a new UUID v4 TagID
func NewTagID() TagID {
	return TagID(uuid.New().String())
}

// Tag is a user-scoped label. Slug is always derived from DisplayName with
// Slugify; Embedding is generated lazily on the first semantic comparison and
// kept until the tag is renamed.
type Tag struct {
	ID          TagID
	UserID      string
	Slug        string
	DisplayName string
	Embedding   []float32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTag builds a tag for userID whose slug is derived from displayName
func NewTag(userID, displayName string) *Tag {
	name := strings.TrimSpace(displayName)
	return &Tag{
		ID:          NewTagID(),
		UserID:      userID,
		Slug:        Slugify(name),
		DisplayName: name,
	}
}

// HasEmbedding reports whether a persisted embedding is attached
func (t *Tag) HasEmbedding() bool {
	return len(t.Embedding) > 0
}

// Slugify converts a display name into its canonical slug: lowercase, runs of
// whitespace and underscores become a single hyphen, and "/" separated path
// segments are trimmed and collapsed.
//
//	"Machine Learning"        -> "machine-learning"
//	" Work / Side  Projects/" -> "work/side-projects"
func Slugify(s string) string {
	segments := strings.Split(strings.ToLower(s), "/")
	out := make([]string, 0, len(segments))

	for _, seg := range segments {
		var b strings.Builder
		pendingHyphen := false
		for _, r := range seg {
			if unicode.IsSpace(r) || r == '_' || r == '-' {
				pendingHyphen = b.Len() > 0
				continue
			}
			if pendingHyphen {
				b.WriteByte('-')
				pendingHyphen = false
			}
			b.WriteRune(r)
		}
		if b.Len() > 0 {
			out = append(out, b.String())
		}
	}

	return strings.Join(out, "/")
}
