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

// memoryDoc is the Firestore document representation of model.Memory.
// Embedding is stored as firestore.Vector32 for FindNearest vector search.
type memoryDoc struct {
	ID             model.MemoryID     `firestore:"ID"`
	UserID         string             `firestore:"UserID"`
	ConversationID string             `firestore:"ConversationID,omitempty"`
	Content        string             `firestore:"Content"`
	Embedding      firestore.Vector32 `firestore:"Embedding,omitempty"`
	Category       string             `firestore:"Category"`
	Importance     int                `firestore:"Importance"`
	Confidence     float64            `firestore:"Confidence"`
	ExpirationHint string             `firestore:"ExpirationHint,omitempty"`
	Version        int                `firestore:"Version"`
	CreatedAt      time.Time          `firestore:"CreatedAt"`
	UpdatedAt      time.Time          `firestore:"UpdatedAt"`
}

func toMemoryDoc(m *model.Memory) *memoryDoc {
	doc := &memoryDoc{
		ID:             m.ID,
		UserID:         m.UserID,
		ConversationID: m.ConversationID,
		Content:        m.Content,
		Category:       m.Metadata.Category.String(),
		Importance:     m.Metadata.Importance,
		Confidence:     m.Metadata.Confidence,
		ExpirationHint: m.Metadata.ExpirationHint,
		Version:        m.Metadata.Version,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if len(m.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(m.Embedding)
	}
	return doc
}

func fromMemoryDoc(d *memoryDoc) *model.Memory {
	m := &model.Memory{
		ID:             d.ID,
		UserID:         d.UserID,
		ConversationID: d.ConversationID,
		Content:        d.Content,
		Metadata: model.MemoryMetadata{
			Category:       types.MemoryCategory(d.Category),
			Importance:     d.Importance,
			Confidence:     d.Confidence,
			ExpirationHint: d.ExpirationHint,
			Version:        d.Version,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if len(d.Embedding) > 0 {
		m.Embedding = []float32(d.Embedding)
	}
	return m
}

type memoryRepository struct {
	client     *firestore.Client
	collection collectionFunc
}

func (r *memoryRepository) memories() *firestore.CollectionRef {
	return r.collection(types.TableMemories)
}

func (r *memoryRepository) Create(ctx context.Context, mem *model.Memory) (*model.Memory, error) {
	if mem.UserID == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "memory user ID is required")
	}
	if mem.ID == "" {
		mem.ID = model.NewMemoryID()
	}
	now := time.Now().UTC()
	mem.CreatedAt = now
	mem.UpdatedAt = now

	if _, err := r.memories().Doc(string(mem.ID)).Set(ctx, toMemoryDoc(mem)); err != nil {
		return nil, goerr.Wrap(err, "failed to create memory", goerr.V("memoryID", mem.ID))
	}

	return mem, nil
}

func (r *memoryRepository) Get(ctx context.Context, userID string, memoryID model.MemoryID) (*model.Memory, error) {
	doc, err := r.memories().Doc(string(memoryID)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrNotFound, "memory not found", goerr.V("memoryID", memoryID))
		}
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V("memoryID", memoryID))
	}

	var d memoryDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal memory", goerr.V("memoryID", memoryID))
	}
	if d.UserID != userID {
		return nil, goerr.Wrap(ErrNotFound, "memory not found", goerr.V("memoryID", memoryID))
	}

	return fromMemoryDoc(&d), nil
}

func (r *memoryRepository) Delete(ctx context.Context, userID string, memoryID model.MemoryID) error {
	if _, err := r.Get(ctx, userID, memoryID); err != nil {
		return err
	}

	if _, err := r.memories().Doc(string(memoryID)).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete memory", goerr.V("memoryID", memoryID))
	}

	return nil
}

func (r *memoryRepository) collect(iter *firestore.DocumentIterator, capacity int) ([]*model.Memory, error) {
	defer iter.Stop()

	memories := make([]*model.Memory, 0, capacity)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate memories")
		}

		var d memoryDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal memory")
		}

		memories = append(memories, fromMemoryDoc(&d))
	}

	return memories, nil
}

func (r *memoryRepository) List(ctx context.Context, userID string) ([]*model.Memory, error) {
	iter := r.memories().
		Where("UserID", "==", userID).
		OrderBy("CreatedAt", firestore.Desc).
		Documents(ctx)
	return r.collect(iter, 0)
}

func (r *memoryRepository) ListByCategory(ctx context.Context, userID string, categories ...types.MemoryCategory) ([]*model.Memory, error) {
	if len(categories) == 0 {
		return []*model.Memory{}, nil
	}

	values := make([]string, len(categories))
	for i, c := range categories {
		values[i] = c.String()
	}

	iter := r.memories().
		Where("UserID", "==", userID).
		Where("Category", "in", values).
		OrderBy("CreatedAt", firestore.Desc).
		Documents(ctx)
	return r.collect(iter, 0)
}

func (r *memoryRepository) FindByEmbedding(ctx context.Context, userID string, embedding []float32, limit int) ([]*model.Memory, error) {
	if limit <= 0 {
		return nil, nil
	}

	vq := r.memories().
		Where("UserID", "==", userID).
		FindNearest("Embedding", firestore.Vector32(embedding), limit, firestore.DistanceMeasureCosine, nil)

	memories, err := r.collect(vq.Documents(ctx), limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run memory vector search", goerr.V("userID", userID))
	}
	return memories, nil
}
