package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
	"google.golang.org/api/iterator"
)

type recordRepository struct {
	client     *firestore.Client
	collection collectionFunc
}

func (r *recordRepository) Put(ctx context.Context, record *model.Record) error {
	if record == nil || record.Table == "" {
		return goerr.Wrap(model.ErrInvalidArgument, "record and table are required")
	}
	if record.ID == "" {
		record.ID = model.NewRecordID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	data := make(map[string]any, len(record.Fields)+1)
	for k, v := range record.Fields {
		data[k] = v
	}
	data["CreatedAt"] = record.CreatedAt

	if _, err := r.collection(record.Table).Doc(record.ID).Set(ctx, data); err != nil {
		return goerr.Wrap(err, "failed to put record",
			goerr.V("table", record.Table),
			goerr.V("id", record.ID),
		)
	}
	return nil
}

func (r *recordRepository) ListIDs(ctx context.Context, table types.Table, field, value string) ([]string, error) {
	// Select with no paths returns document references only
	iter := r.collection(table).Where(field, "==", value).Select().Documents(ctx)
	defer iter.Stop()

	var ids []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list record IDs",
				goerr.V("table", table),
				goerr.V("field", field),
			)
		}
		ids = append(ids, doc.Ref.ID)
	}
	return ids, nil
}

func (r *recordRepository) Exists(ctx context.Context, table types.Table, id string) (bool, error) {
	_, err := r.collection(table).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to get record", goerr.V("table", table), goerr.V("id", id))
	}
	return true, nil
}

func (r *recordRepository) Delete(ctx context.Context, table types.Table, id string) error {
	exists, err := r.Exists(ctx, table, id)
	if err != nil {
		return err
	}
	if !exists {
		return goerr.Wrap(ErrNotFound, "record not found", goerr.V("table", table), goerr.V("id", id))
	}

	if _, err := r.collection(table).Doc(id).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete record", goerr.V("table", table), goerr.V("id", id))
	}
	return nil
}

func (r *recordRepository) Nullify(ctx context.Context, table types.Table, id, field string) error {
	_, err := r.collection(table).Doc(id).Update(ctx, []firestore.Update{
		{Path: field, Value: firestore.Delete},
	})
	if err != nil {
		if isNotFound(err) {
			return goerr.Wrap(ErrNotFound, "record not found", goerr.V("table", table), goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to nullify record field",
			goerr.V("table", table),
			goerr.V("id", id),
			goerr.V("field", field),
		)
	}
	return nil
}
