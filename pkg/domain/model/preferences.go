package model

import (
	"time"

	"github.com/mnemo-chat/mnemo/pkg/domain/types"
)

// CustomInstructions are free-form instructions the user wants applied to every chat
type CustomInstructions struct {
	Enabled       bool
	AboutUser     string
	ResponseStyle string
	Nickname      string
}

// IsEmpty reports whether there is nothing to render
func (c CustomInstructions) IsEmpty() bool {
	return c.AboutUser == "" && c.ResponseStyle == "" && c.Nickname == ""
}

// UserPreferences is the per-user configuration consumed by prompt assembly
type UserPreferences struct {
	UserID             string
	DisplayName        string
	CustomInstructions CustomInstructions
	ExtractionLevel    types.ExtractionLevel
	UpdatedAt          time.Time
}
