package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
)

type searchRecordDoc struct {
	Query    string  `firestore:"Query"`
	TopScore float64 `firestore:"TopScore"`
}

type budgetDoc struct {
	SystemTokens   int               `firestore:"SystemTokens"`
	MessagesTokens int               `firestore:"MessagesTokens"`
	MemoriesTokens int               `firestore:"MemoriesTokens"`
	TotalTokens    int               `firestore:"TotalTokens"`
	ContextLimit   int               `firestore:"ContextLimit"`
	SearchHistory  []searchRecordDoc `firestore:"SearchHistory,omitempty"`
}

func toBudgetDoc(b *model.BudgetState) *budgetDoc {
	if b == nil {
		return nil
	}
	doc := &budgetDoc{
		SystemTokens:   b.SystemTokens,
		MessagesTokens: b.MessagesTokens,
		MemoriesTokens: b.MemoriesTokens,
		TotalTokens:    b.TotalTokens,
		ContextLimit:   b.ContextLimit,
	}
	for _, s := range b.SearchHistory {
		doc.SearchHistory = append(doc.SearchHistory, searchRecordDoc{Query: s.Query, TopScore: s.TopScore})
	}
	return doc
}

func fromBudgetDoc(d *budgetDoc) *model.BudgetState {
	if d == nil {
		return nil
	}
	b := &model.BudgetState{
		SystemTokens:   d.SystemTokens,
		MessagesTokens: d.MessagesTokens,
		MemoriesTokens: d.MemoriesTokens,
		TotalTokens:    d.TotalTokens,
		ContextLimit:   d.ContextLimit,
	}
	for _, s := range d.SearchHistory {
		b.SearchHistory = append(b.SearchHistory, model.SearchRecord{Query: s.Query, TopScore: s.TopScore})
	}
	return b
}

type conversationDoc struct {
	ID                      string     `firestore:"ID"`
	UserID                  string     `firestore:"UserID"`
	ProjectID               string     `firestore:"ProjectID,omitempty"`
	Title                   string     `firestore:"Title"`
	Mode                    string     `firestore:"Mode"`
	Instructions            string     `firestore:"Instructions,omitempty"`
	Incognito               bool       `firestore:"Incognito"`
	ApplyCustomInstructions bool       `firestore:"ApplyCustomInstructions"`
	BudgetSnapshot          *budgetDoc `firestore:"BudgetSnapshot,omitempty"`
	CreatedAt               time.Time  `firestore:"CreatedAt"`
	UpdatedAt               time.Time  `firestore:"UpdatedAt"`
}

type conversationRepository struct {
	client     *firestore.Client
	collection collectionFunc
}

func (r *conversationRepository) Put(ctx context.Context, conv *model.Conversation) error {
	if conv.ID == "" {
		conv.ID = model.NewConversationID()
	}
	now := time.Now().UTC()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	conv.UpdatedAt = now

	doc := &conversationDoc{
		ID:             conv.ID,
		UserID:         conv.UserID,
		ProjectID:      conv.ProjectID,
		Title:          conv.Title,
		Mode:           string(conv.Mode.Normalize()),
		Instructions:   conv.Instructions,
		BudgetSnapshot: toBudgetDoc(conv.BudgetSnapshot),
		CreatedAt:      conv.CreatedAt,
		UpdatedAt:      conv.UpdatedAt,
	}
	if conv.Incognito != nil {
		doc.Incognito = true
		doc.ApplyCustomInstructions = conv.Incognito.ApplyCustomInstructions
	}

	if _, err := r.collection(types.TableConversations).Doc(conv.ID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put conversation", goerr.V("conversationID", conv.ID))
	}
	return nil
}

func (r *conversationRepository) Get(ctx context.Context, conversationID string) (*model.Conversation, error) {
	snap, err := r.collection(types.TableConversations).Doc(conversationID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrNotFound, "conversation not found", goerr.V("conversationID", conversationID))
		}
		return nil, goerr.Wrap(err, "failed to get conversation", goerr.V("conversationID", conversationID))
	}

	var d conversationDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal conversation", goerr.V("conversationID", conversationID))
	}

	conv := &model.Conversation{
		ID:             d.ID,
		UserID:         d.UserID,
		ProjectID:      d.ProjectID,
		Title:          d.Title,
		Mode:           types.ConversationMode(d.Mode),
		Instructions:   d.Instructions,
		BudgetSnapshot: fromBudgetDoc(d.BudgetSnapshot),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if d.Incognito {
		conv.Incognito = &model.IncognitoSettings{ApplyCustomInstructions: d.ApplyCustomInstructions}
	}
	return conv, nil
}

func (r *conversationRepository) SaveBudgetSnapshot(ctx context.Context, conversationID string, state *model.BudgetState) error {
	_, err := r.collection(types.TableConversations).Doc(conversationID).Update(ctx, []firestore.Update{
		{Path: "BudgetSnapshot", Value: toBudgetDoc(state)},
	})
	if err != nil {
		if isNotFound(err) {
			return goerr.Wrap(ErrNotFound, "conversation not found", goerr.V("conversationID", conversationID))
		}
		return goerr.Wrap(err, "failed to save budget snapshot", goerr.V("conversationID", conversationID))
	}
	return nil
}

type projectDoc struct {
	ID           string    `firestore:"ID"`
	UserID       string    `firestore:"UserID"`
	Name         string    `firestore:"Name"`
	Description  string    `firestore:"Description,omitempty"`
	SystemPrompt string    `firestore:"SystemPrompt,omitempty"`
	CreatedAt    time.Time `firestore:"CreatedAt"`
	UpdatedAt    time.Time `firestore:"UpdatedAt"`
}

type projectRepository struct {
	client     *firestore.Client
	collection collectionFunc
}

func (r *projectRepository) Put(ctx context.Context, p *model.Project) error {
	if p.ID == "" {
		p.ID = model.NewRecordID()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	doc := &projectDoc{
		ID:           p.ID,
		UserID:       p.UserID,
		Name:         p.Name,
		Description:  p.Description,
		SystemPrompt: p.SystemPrompt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if _, err := r.collection(types.TableProjects).Doc(p.ID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put project", goerr.V("projectID", p.ID))
	}
	return nil
}

func (r *projectRepository) Get(ctx context.Context, projectID string) (*model.Project, error) {
	snap, err := r.collection(types.TableProjects).Doc(projectID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrNotFound, "project not found", goerr.V("projectID", projectID))
		}
		return nil, goerr.Wrap(err, "failed to get project", goerr.V("projectID", projectID))
	}

	var d projectDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal project", goerr.V("projectID", projectID))
	}

	return &model.Project{
		ID:           d.ID,
		UserID:       d.UserID,
		Name:         d.Name,
		Description:  d.Description,
		SystemPrompt: d.SystemPrompt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

type preferencesDoc struct {
	UserID          string    `firestore:"UserID"`
	DisplayName     string    `firestore:"DisplayName,omitempty"`
	CIEnabled       bool      `firestore:"CustomInstructionsEnabled"`
	AboutUser       string    `firestore:"AboutUser,omitempty"`
	ResponseStyle   string    `firestore:"ResponseStyle,omitempty"`
	Nickname        string    `firestore:"Nickname,omitempty"`
	ExtractionLevel string    `firestore:"ExtractionLevel,omitempty"`
	UpdatedAt       time.Time `firestore:"UpdatedAt"`
}

type preferenceRepository struct {
	client     *firestore.Client
	collection collectionFunc
}

// preferences documents are keyed by user ID
func (r *preferenceRepository) Put(ctx context.Context, prefs *model.UserPreferences) error {
	if prefs.UserID == "" {
		return goerr.Wrap(model.ErrInvalidArgument, "preferences user ID is required")
	}
	prefs.UpdatedAt = time.Now().UTC()

	doc := &preferencesDoc{
		UserID:          prefs.UserID,
		DisplayName:     prefs.DisplayName,
		CIEnabled:       prefs.CustomInstructions.Enabled,
		AboutUser:       prefs.CustomInstructions.AboutUser,
		ResponseStyle:   prefs.CustomInstructions.ResponseStyle,
		Nickname:        prefs.CustomInstructions.Nickname,
		ExtractionLevel: string(prefs.ExtractionLevel),
		UpdatedAt:       prefs.UpdatedAt,
	}
	if _, err := r.collection(types.TableUserPreferences).Doc(prefs.UserID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put preferences", goerr.V("userID", prefs.UserID))
	}
	return nil
}

func (r *preferenceRepository) Get(ctx context.Context, userID string) (*model.UserPreferences, error) {
	snap, err := r.collection(types.TableUserPreferences).Doc(userID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrNotFound, "preferences not found", goerr.V("userID", userID))
		}
		return nil, goerr.Wrap(err, "failed to get preferences", goerr.V("userID", userID))
	}

	var d preferencesDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal preferences", goerr.V("userID", userID))
	}

	return &model.UserPreferences{
		UserID:      d.UserID,
		DisplayName: d.DisplayName,
		CustomInstructions: model.CustomInstructions{
			Enabled:       d.CIEnabled,
			AboutUser:     d.AboutUser,
			ResponseStyle: d.ResponseStyle,
			Nickname:      d.Nickname,
		},
		ExtractionLevel: types.ExtractionLevel(d.ExtractionLevel),
		UpdatedAt:       d.UpdatedAt,
	}, nil
}
