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

// tagDoc is the Firestore document representation of model.Tag
type tagDoc struct {
	ID          model.TagID        `firestore:"ID"`
	UserID      string             `firestore:"UserID"`
	Slug        string             `firestore:"Slug"`
	DisplayName string             `firestore:"DisplayName"`
	Embedding   firestore.Vector32 `firestore:"Embedding,omitempty"`
	CreatedAt   time.Time          `firestore:"CreatedAt"`
	UpdatedAt   time.Time          `firestore:"UpdatedAt"`
}

func toTagDoc(t *model.Tag) *tagDoc {
	doc := &tagDoc{
		ID:          t.ID,
		UserID:      t.UserID,
		Slug:        t.Slug,
		DisplayName: t.DisplayName,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if len(t.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(t.Embedding)
	}
	return doc
}

func fromTagDoc(d *tagDoc) *model.Tag {
	t := &model.Tag{
		ID:          d.ID,
		UserID:      d.UserID,
		Slug:        d.Slug,
		DisplayName: d.DisplayName,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if len(d.Embedding) > 0 {
		t.Embedding = []float32(d.Embedding)
	}
	return t
}

type tagRepository struct {
	client     *firestore.Client
	collection collectionFunc
}

func (r *tagRepository) tags() *firestore.CollectionRef {
	return r.collection(types.TableTags)
}

func (r *tagRepository) Create(ctx context.Context, tag *model.Tag) (*model.Tag, error) {
	if tag.UserID == "" || tag.Slug == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "tag user ID and slug are required",
			goerr.V("slug", tag.Slug))
	}
	if tag.ID == "" {
		tag.ID = model.NewTagID()
	}
	now := time.Now().UTC()
	tag.CreatedAt = now
	tag.UpdatedAt = now

	if _, err := r.tags().Doc(string(tag.ID)).Set(ctx, toTagDoc(tag)); err != nil {
		return nil, goerr.Wrap(err, "failed to create tag", goerr.V("tagID", tag.ID))
	}
	return tag, nil
}

func (r *tagRepository) Get(ctx context.Context, userID string, tagID model.TagID) (*model.Tag, error) {
	doc, err := r.tags().Doc(string(tagID)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrNotFound, "tag not found", goerr.V("tagID", tagID))
		}
		return nil, goerr.Wrap(err, "failed to get tag", goerr.V("tagID", tagID))
	}

	var d tagDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal tag", goerr.V("tagID", tagID))
	}
	if d.UserID != userID {
		return nil, goerr.Wrap(ErrNotFound, "tag not found", goerr.V("tagID", tagID))
	}

	return fromTagDoc(&d), nil
}

func (r *tagRepository) GetBySlug(ctx context.Context, userID, slug string) (*model.Tag, error) {
	iter := r.tags().
		Where("UserID", "==", userID).
		Where("Slug", "==", slug).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.Wrap(ErrNotFound, "tag not found", goerr.V("slug", slug))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query tag by slug", goerr.V("slug", slug))
	}

	var d tagDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal tag", goerr.V("slug", slug))
	}
	return fromTagDoc(&d), nil
}

func (r *tagRepository) List(ctx context.Context, userID string) ([]*model.Tag, error) {
	iter := r.tags().
		Where("UserID", "==", userID).
		OrderBy("CreatedAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	tags := make([]*model.Tag, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate tags", goerr.V("userID", userID))
		}

		var d tagDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal tag")
		}
		tags = append(tags, fromTagDoc(&d))
	}

	return tags, nil
}

func (r *tagRepository) Rename(ctx context.Context, userID string, tagID model.TagID, displayName, slug string) (*model.Tag, error) {
	if _, err := r.Get(ctx, userID, tagID); err != nil {
		return nil, err
	}

	_, err := r.tags().Doc(string(tagID)).Update(ctx, []firestore.Update{
		{Path: "DisplayName", Value: displayName},
		{Path: "Slug", Value: slug},
		{Path: "Embedding", Value: firestore.Delete},
		{Path: "UpdatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to rename tag", goerr.V("tagID", tagID))
	}

	return r.Get(ctx, userID, tagID)
}

func (r *tagRepository) SetEmbedding(ctx context.Context, userID string, tagID model.TagID, embedding []float32) error {
	if _, err := r.Get(ctx, userID, tagID); err != nil {
		return err
	}

	_, err := r.tags().Doc(string(tagID)).Update(ctx, []firestore.Update{
		{Path: "Embedding", Value: firestore.Vector32(embedding)},
		{Path: "UpdatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to set tag embedding", goerr.V("tagID", tagID))
	}
	return nil
}
