package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-chat/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrNotFound is returned when a requested document does not exist
var ErrNotFound = model.ErrNotFound

type Firestore struct {
	client           *firestore.Client
	collectionPrefix string

	tag          *tagRepository
	memory       *memoryRepository
	conversation *conversationRepository
	project      *projectRepository
	preference   *preferenceRepository
	record       *recordRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prepends prefix to every collection name. Used to
// isolate test runs sharing one database.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID),
		)
	}

	f := &Firestore{client: client}
	for _, opt := range opts {
		opt(f)
	}

	f.tag = &tagRepository{client: client, collection: f.collection}
	f.memory = &memoryRepository{client: client, collection: f.collection}
	f.conversation = &conversationRepository{client: client, collection: f.collection}
	f.project = &projectRepository{client: client, collection: f.collection}
	f.preference = &preferenceRepository{client: client, collection: f.collection}
	f.record = &recordRepository{client: client, collection: f.collection}

	return f, nil
}

func (f *Firestore) collection(table types.Table) *firestore.CollectionRef {
	return f.client.Collection(f.collectionPrefix + table.String())
}

func (f *Firestore) Tag() interfaces.TagRepository {
	return f.tag
}

func (f *Firestore) Memory() interfaces.MemoryRepository {
	return f.memory
}

func (f *Firestore) Conversation() interfaces.ConversationRepository {
	return f.conversation
}

func (f *Firestore) Project() interfaces.ProjectRepository {
	return f.project
}

func (f *Firestore) Preference() interfaces.PreferenceRepository {
	return f.preference
}

func (f *Firestore) Record() interfaces.RecordRepository {
	return f.record
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

type collectionFunc func(types.Table) *firestore.CollectionRef

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
