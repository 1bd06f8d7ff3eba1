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

type conversationRepository struct {
	mu    sync.RWMutex
	convs map[string]*model.Conversation
}

func newConversationRepository() *conversationRepository {
	return &conversationRepository{convs: make(map[string]*model.Conversation)}
}

func copyConversation(c *model.Conversation) *model.Conversation {
	copied := *c
	if c.Incognito != nil {
		incognito := *c.Incognito
		copied.Incognito = &incognito
	}
	if c.BudgetSnapshot != nil {
		snapshot := *c.BudgetSnapshot
		snapshot.SearchHistory = append([]model.SearchRecord(nil), c.BudgetSnapshot.SearchHistory...)
		copied.BudgetSnapshot = &snapshot
	}
	return &copied
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

	r.mu.Lock()
	defer r.mu.Unlock()
	r.convs[conv.ID] = copyConversation(conv)
	return nil
}

func (r *conversationRepository) Get(ctx context.Context, conversationID string) (*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.convs[conversationID]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "conversation not found", goerr.V("conversationID", conversationID))
	}
	return copyConversation(c), nil
}

func (r *conversationRepository) SaveBudgetSnapshot(ctx context.Context, conversationID string, state *model.BudgetState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.convs[conversationID]
	if !ok {
		return goerr.Wrap(ErrNotFound, "conversation not found", goerr.V("conversationID", conversationID))
	}
	snapshot := *state
	snapshot.SearchHistory = append([]model.SearchRecord(nil), state.SearchHistory...)
	c.BudgetSnapshot = &snapshot
	return nil
}

func (r *conversationRepository) listIDs(field, value string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, c := range r.convs {
		switch field {
		case types.FieldUserID:
			if c.UserID == value {
				ids = append(ids, id)
			}
		case types.FieldProjectID:
			if c.ProjectID == value {
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids
}

func (r *conversationRepository) exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.convs[id]
	return ok
}

func (r *conversationRepository) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.convs[id]; !ok {
		return false
	}
	delete(r.convs, id)
	return true
}

func (r *conversationRepository) nullify(id, field string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return false
	}
	if field == types.FieldProjectID {
		c.ProjectID = ""
	}
	return true
}

type projectRepository struct {
	mu       sync.RWMutex
	projects map[string]*model.Project
}

func newProjectRepository() *projectRepository {
	return &projectRepository{projects: make(map[string]*model.Project)}
}

func (r *projectRepository) Put(ctx context.Context, project *model.Project) error {
	if project.ID == "" {
		project.ID = model.NewRecordID()
	}
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *project
	r.projects[project.ID] = &copied
	return nil
}

func (r *projectRepository) Get(ctx context.Context, projectID string) (*model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[projectID]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "project not found", goerr.V("projectID", projectID))
	}
	copied := *p
	return &copied, nil
}

func (r *projectRepository) listIDs(field, value string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	if field != types.FieldUserID {
		return ids
	}
	for id, p := range r.projects {
		if p.UserID == value {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (r *projectRepository) exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.projects[id]
	return ok
}

func (r *projectRepository) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return false
	}
	delete(r.projects, id)
	return true
}

func (r *projectRepository) nullify(id, field string) bool {
	return r.exists(id)
}

type preferenceRepository struct {
	mu    sync.RWMutex
	prefs map[string]*model.UserPreferences
}

func newPreferenceRepository() *preferenceRepository {
	return &preferenceRepository{prefs: make(map[string]*model.UserPreferences)}
}

func (r *preferenceRepository) Put(ctx context.Context, prefs *model.UserPreferences) error {
	if prefs.UserID == "" {
		return goerr.Wrap(model.ErrInvalidArgument, "preferences user ID is required")
	}
	prefs.UpdatedAt = time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *prefs
	r.prefs[prefs.UserID] = &copied
	return nil
}

func (r *preferenceRepository) Get(ctx context.Context, userID string) (*model.UserPreferences, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.prefs[userID]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "preferences not found", goerr.V("userID", userID))
	}
	copied := *p
	return &copied, nil
}

// preferences are keyed by user ID
func (r *preferenceRepository) listIDs(field, value string) []string {
	if field == types.FieldUserID && r.exists(value) {
		return []string{value}
	}
	return nil
}

func (r *preferenceRepository) exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.prefs[id]
	return ok
}

func (r *preferenceRepository) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prefs[id]; !ok {
		return false
	}
	delete(r.prefs, id)
	return true
}

func (r *preferenceRepository) nullify(id, field string) bool {
	return r.exists(id)
}
