package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mnemo-chat/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
)

func runConversationRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Put and Get keeps incognito settings", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		conv := &model.Conversation{
			ID:           model.NewConversationID(),
			UserID:       uniqueUserID("u"),
			Title:        "Trip planning",
			Mode:         types.ConversationModeDocument,
			Instructions: "Answer in French",
			Incognito:    &model.IncognitoSettings{ApplyCustomInstructions: true},
		}
		gt.NoError(t, repo.Conversation().Put(ctx, conv)).Required()

		got, err := repo.Conversation().Get(ctx, conv.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal("Trip planning")
		gt.Value(t, got.Mode).Equal(types.ConversationModeDocument)
		gt.Bool(t, got.IsIncognito()).True()
		gt.Bool(t, got.IsBlankSlate()).False()
	})

	t.Run("Get missing conversation", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Conversation().Get(context.Background(), model.NewConversationID())
		gt.Bool(t, errors.Is(err, model.ErrNotFound)).True()
	})

	t.Run("SaveBudgetSnapshot", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		conv := &model.Conversation{ID: model.NewConversationID(), UserID: uniqueUserID("u")}
		gt.NoError(t, repo.Conversation().Put(ctx, conv)).Required()

		state := &model.BudgetState{
			SystemTokens:   100,
			MessagesTokens: 700,
			TotalTokens:    800,
			ContextLimit:   1000,
			SearchHistory:  []model.SearchRecord{{Query: "q", TopScore: 0.4}},
		}
		gt.NoError(t, repo.Conversation().SaveBudgetSnapshot(ctx, conv.ID, state)).Required()

		got, err := repo.Conversation().Get(ctx, conv.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.BudgetSnapshot).NotNil()
		gt.Value(t, got.BudgetSnapshot.TotalTokens).Equal(800)
		gt.Array(t, got.BudgetSnapshot.SearchHistory).Length(1)

		err = repo.Conversation().SaveBudgetSnapshot(ctx, model.NewConversationID(), state)
		gt.Bool(t, errors.Is(err, model.ErrNotFound)).True()
	})

	t.Run("Project and preferences", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := uniqueUserID("u")

		project := &model.Project{ID: model.NewRecordID(), UserID: userID, Name: "Thesis", SystemPrompt: "Be rigorous"}
		gt.NoError(t, repo.Project().Put(ctx, project)).Required()

		gotProject, err := repo.Project().Get(ctx, project.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, gotProject.SystemPrompt).Equal("Be rigorous")

		prefs := &model.UserPreferences{
			UserID:          userID,
			ExtractionLevel: types.ExtractionLevelActive,
			CustomInstructions: model.CustomInstructions{
				Enabled:   true,
				AboutUser: "Data engineer",
			},
		}
		gt.NoError(t, repo.Preference().Put(ctx, prefs)).Required()

		gotPrefs, err := repo.Preference().Get(ctx, userID)
		gt.NoError(t, err).Required()
		gt.Value(t, gotPrefs.ExtractionLevel).Equal(types.ExtractionLevelActive)
		gt.Bool(t, gotPrefs.CustomInstructions.Enabled).True()

		_, err = repo.Preference().Get(ctx, uniqueUserID("nobody"))
		gt.Bool(t, errors.Is(err, model.ErrNotFound)).True()
	})
}

func TestMemoryConversationRepository(t *testing.T) {
	runConversationRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreConversationRepository(t *testing.T) {
	runConversationRepositoryTest(t, newFirestoreRepository)
}
