package interfaces

import (
	"context"

	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
)

// RecordRepository addresses any table by ID and foreign key. Cascade deletion
// works exclusively through this interface, including tables that also have a
// typed repository (conversations, memories, tags...).
type RecordRepository interface {
	// Put creates or replaces a generic record
	Put(ctx context.Context, record *model.Record) error

	// ListIDs returns IDs of records in table whose field equals value
	ListIDs(ctx context.Context, table types.Table, field, value string) ([]string, error)

	// Exists reports whether a record exists
	Exists(ctx context.Context, table types.Table, id string) (bool, error)

	// Delete removes a record. Returns model.ErrNotFound if it does not exist.
	Delete(ctx context.Context, table types.Table, id string) error

	// Nullify clears field of a record. Returns model.ErrNotFound if the
	// record does not exist.
	Nullify(ctx context.Context, table types.Table, id, field string) error
}
