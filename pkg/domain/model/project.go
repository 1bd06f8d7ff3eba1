package model

import "time"

// Project groups conversations, notes and files and can carry its own instructions
type Project struct {
	ID           string
	UserID       string
	Name         string
	Description  string
	SystemPrompt string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
