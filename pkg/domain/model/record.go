package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
)

// NewRecordID generates a new record identifier
func NewRecordID() string {
	return uuid.New().String()
}

// Record is a generic row in a table the core only addresses by foreign keys
// (bookmarks, attachments, canvas history, usage rows...).
type Record struct {
	ID        string
	Table     types.Table
	Fields    map[string]string
	CreatedAt time.Time
}

// NewRecord builds a record with a generated ID
func NewRecord(table types.Table, fields map[string]string) *Record {
	return &Record{
		ID:     NewRecordID(),
		Table:  table,
		Fields: fields,
	}
}

// Get returns the value of field, or empty
func (r *Record) Get(field string) string {
	if r == nil || r.Fields == nil {
		return ""
	}
	return r.Fields[field]
}
