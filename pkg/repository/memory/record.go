package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
)

// recordTable is implemented by every table of the in-memory backend so that
// generic record operations reach typed repositories too.
type recordTable interface {
	listIDs(field, value string) []string
	exists(id string) bool
	remove(id string) bool
	nullify(id, field string) bool
}

// genericTable stores plain records
type genericTable struct {
	mu      sync.RWMutex
	records map[string]*model.Record
}

func newGenericTable() *genericTable {
	return &genericTable{records: make(map[string]*model.Record)}
}

func copyRecord(r *model.Record) *model.Record {
	copied := &model.Record{
		ID:        r.ID,
		Table:     r.Table,
		CreatedAt: r.CreatedAt,
		Fields:    make(map[string]string, len(r.Fields)),
	}
	for k, v := range r.Fields {
		copied.Fields[k] = v
	}
	return copied
}

func (t *genericTable) put(r *model.Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[r.ID] = copyRecord(r)
}

func (t *genericTable) listIDs(field, value string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var ids []string
	for id, r := range t.records {
		if v, ok := r.Fields[field]; ok && v == value {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (t *genericTable) exists(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.records[id]
	return ok
}

func (t *genericTable) remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.records[id]; !ok {
		return false
	}
	delete(t.records, id)
	return true
}

func (t *genericTable) nullify(id, field string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.records[id]
	if !ok {
		return false
	}
	delete(r.Fields, field)
	return true
}

type recordRepository struct {
	mu     sync.Mutex
	typed  map[types.Table]recordTable
	tables map[types.Table]*genericTable
}

func newRecordRepository(typed map[types.Table]recordTable) *recordRepository {
	return &recordRepository{
		typed:  typed,
		tables: make(map[types.Table]*genericTable),
	}
}

func (r *recordRepository) table(t types.Table) recordTable {
	if typed, ok := r.typed[t]; ok {
		return typed
	}
	return r.generic(t)
}

func (r *recordRepository) generic(t types.Table) *genericTable {
	r.mu.Lock()
	defer r.mu.Unlock()
	tbl, ok := r.tables[t]
	if !ok {
		tbl = newGenericTable()
		r.tables[t] = tbl
	}
	return tbl
}

func (r *recordRepository) Put(ctx context.Context, record *model.Record) error {
	if record == nil || record.Table == "" {
		return goerr.Wrap(model.ErrInvalidArgument, "record and table are required")
	}
	if _, ok := r.typed[record.Table]; ok {
		return goerr.Wrap(model.ErrInvalidArgument, "table is managed by a typed repository",
			goerr.V("table", record.Table))
	}
	if record.ID == "" {
		record.ID = model.NewRecordID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	r.generic(record.Table).put(record)
	return nil
}

func (r *recordRepository) ListIDs(ctx context.Context, table types.Table, field, value string) ([]string, error) {
	return r.table(table).listIDs(field, value), nil
}

func (r *recordRepository) Exists(ctx context.Context, table types.Table, id string) (bool, error) {
	return r.table(table).exists(id), nil
}

func (r *recordRepository) Delete(ctx context.Context, table types.Table, id string) error {
	if !r.table(table).remove(id) {
		return goerr.Wrap(ErrNotFound, "record not found", goerr.V("table", table), goerr.V("id", id))
	}
	return nil
}

func (r *recordRepository) Nullify(ctx context.Context, table types.Table, id, field string) error {
	if !r.table(table).nullify(id, field) {
		return goerr.Wrap(ErrNotFound, "record not found", goerr.V("table", table), goerr.V("id", id))
	}
	return nil
}
