package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mnemo-chat/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
)

func runTagRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create and Get", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := uniqueUserID("tag-user")

		created, err := repo.Tag().Create(ctx, model.NewTag(userID, "Machine Learning"))
		gt.NoError(t, err).Required()
		gt.String(t, string(created.ID)).NotEqual("")
		gt.Bool(t, created.CreatedAt.IsZero()).False()

		got, err := repo.Tag().Get(ctx, userID, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Slug).Equal("machine-learning")
		gt.Value(t, got.DisplayName).Equal("Machine Learning")
		gt.Bool(t, got.HasEmbedding()).False()
	})

	t.Run("Get of another user's tag is not found", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Tag().Create(ctx, model.NewTag(uniqueUserID("owner"), "private"))
		gt.NoError(t, err).Required()

		_, err = repo.Tag().Get(ctx, uniqueUserID("intruder"), created.ID)
		gt.Bool(t, errors.Is(err, model.ErrNotFound)).True()
	})

	t.Run("GetBySlug", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := uniqueUserID("slug-user")

		_, err := repo.Tag().Create(ctx, model.NewTag(userID, "Cooking"))
		gt.NoError(t, err).Required()

		got, err := repo.Tag().GetBySlug(ctx, userID, "cooking")
		gt.NoError(t, err).Required()
		gt.Value(t, got.DisplayName).Equal("Cooking")

		_, err = repo.Tag().GetBySlug(ctx, userID, "baking")
		gt.Bool(t, errors.Is(err, model.ErrNotFound)).True()
	})

	t.Run("List returns tags of the user only", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := uniqueUserID("list-user")

		for _, name := range []string{"alpha", "beta", "gamma"} {
			_, err := repo.Tag().Create(ctx, model.NewTag(userID, name))
			gt.NoError(t, err).Required()
		}
		_, err := repo.Tag().Create(ctx, model.NewTag(uniqueUserID("other"), "delta"))
		gt.NoError(t, err).Required()

		tags, err := repo.Tag().List(ctx, userID)
		gt.NoError(t, err).Required()
		gt.Array(t, tags).Length(3)
	})

	t.Run("SetEmbedding then Rename drops embedding", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := uniqueUserID("embed-user")

		created, err := repo.Tag().Create(ctx, model.NewTag(userID, "golang"))
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Tag().SetEmbedding(ctx, userID, created.ID, []float32{0.1, 0.2, 0.3})).Required()

		got, err := repo.Tag().Get(ctx, userID, created.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, got.Embedding).Length(3)
		gt.Value(t, got.Embedding[1]).Equal(float32(0.2))

		renamed, err := repo.Tag().Rename(ctx, userID, created.ID, "Go Language", "go-language")
		gt.NoError(t, err).Required()
		gt.Value(t, renamed.Slug).Equal("go-language")
		gt.Bool(t, renamed.HasEmbedding()).False()
	})

	t.Run("SetEmbedding on missing tag fails", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Tag().SetEmbedding(context.Background(), uniqueUserID("u"), model.NewTagID(), []float32{1})
		gt.Bool(t, errors.Is(err, model.ErrNotFound)).True()
	})
}

func TestMemoryTagRepository(t *testing.T) {
	runTagRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreTagRepository(t *testing.T) {
	runTagRepositoryTest(t, newFirestoreRepository)
}
