package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
	"github.com/mnemo-chat/mnemo/pkg/repository/memory"
	"github.com/mnemo-chat/mnemo/pkg/service/embedding"
	"github.com/mnemo-chat/mnemo/pkg/usecase"
)

func TestMatchTag(t *testing.T) {
	ctx := context.Background()
	const userID = "user-1"

	newExisting := func() []*model.Tag {
		ml := model.NewTag(userID, "Machine Learning")
		ml.Embedding = []float32{1, 0, 0}
		return []*model.Tag{ml}
	}

	t.Run("exact match after slug normalization", func(t *testing.T) {
		uc, _ := newUseCases(t, memory.New(), nil)
		existing := newExisting()

		result := uc.Tag.MatchTag(ctx, "Machine Learning", userID, existing, embedding.NewCache())
		gt.Value(t, result.MatchType).Equal(types.MatchTypeExact)
		gt.Value(t, result.Confidence).Equal(1.0)
		gt.Value(t, result.Existing).Equal(existing[0])
	})

	t.Run("fuzzy match within two edits", func(t *testing.T) {
		uc, _ := newUseCases(t, memory.New(), nil)

		result := uc.Tag.MatchTag(ctx, "machne-learning", userID, newExisting(), embedding.NewCache())
		gt.Value(t, result.MatchType).Equal(types.MatchTypeFuzzy)
		gt.Value(t, result.Confidence).Equal(0.9)
	})

	t.Run("semantic match uses similarity as confidence", func(t *testing.T) {
		uc, _ := newUseCases(t, memory.New(), map[string][]float64{
			"ML": unitVec(0.9),
		})

		result := uc.Tag.MatchTag(ctx, "ML", userID, newExisting(), embedding.NewCache())
		gt.Value(t, result.MatchType).Equal(types.MatchTypeSemantic)
		gt.Bool(t, approx(result.Confidence, 0.9)).True()
	})

	t.Run("no match for unrelated label", func(t *testing.T) {
		uc, _ := newUseCases(t, memory.New(), map[string][]float64{
			"cooking": {0, 0, 1},
		})

		result := uc.Tag.MatchTag(ctx, "cooking", userID, newExisting(), embedding.NewCache())
		gt.Value(t, result.MatchType).Equal(types.MatchTypeNone)
		gt.Value(t, result.Confidence).Equal(0.0)
		gt.Value(t, result.Existing).Nil()
	})

	t.Run("first semantic tag above threshold wins over a better later one", func(t *testing.T) {
		uc, _ := newUseCases(t, memory.New(), map[string][]float64{
			"AI": {1, 0, 0},
		})

		good := model.NewTag(userID, "neural networks")
		good.Embedding = unitVec32(0.87)
		best := model.NewTag(userID, "artificial intelligence")
		best.Embedding = unitVec32(0.99)

		result := uc.Tag.MatchTag(ctx, "AI", userID, []*model.Tag{good, best}, embedding.NewCache())
		gt.Value(t, result.MatchType).Equal(types.MatchTypeSemantic)
		gt.Value(t, result.Existing.ID).Equal(good.ID)
	})

	t.Run("tag whose embedding fails is skipped", func(t *testing.T) {
		uc, _ := newUseCases(t, memory.New(), map[string][]float64{
			"ML": unitVec(0.9),
		})

		broken := model.NewTag(userID, "unembeddable")
		ml := newExisting()[0]

		result := uc.Tag.MatchTag(ctx, "ML", userID, []*model.Tag{broken, ml}, embedding.NewCache())
		gt.Value(t, result.MatchType).Equal(types.MatchTypeSemantic)
		gt.Value(t, result.Existing.ID).Equal(ml.ID)
	})

	t.Run("tag with a different dimension is skipped", func(t *testing.T) {
		uc, _ := newUseCases(t, memory.New(), map[string][]float64{
			"ML": unitVec(0.9),
		})

		odd := model.NewTag(userID, "old model")
		odd.Embedding = []float32{1, 0}

		result := uc.Tag.MatchTag(ctx, "ML", userID, []*model.Tag{odd}, embedding.NewCache())
		gt.Value(t, result.MatchType).Equal(types.MatchTypeNone)
	})

	t.Run("candidate embedding failure means no match", func(t *testing.T) {
		uc, _ := newUseCases(t, memory.New(), nil)

		result := uc.Tag.MatchTag(ctx, "quantum", userID, newExisting(), embedding.NewCache())
		gt.Value(t, result.MatchType).Equal(types.MatchTypeNone)
	})

	t.Run("tags of other users are ignored", func(t *testing.T) {
		uc, _ := newUseCases(t, memory.New(), nil)

		foreign := model.NewTag("user-2", "Machine Learning")
		result := uc.Tag.MatchTag(ctx, "Machine Learning", userID, []*model.Tag{foreign}, embedding.NewCache())
		gt.Value(t, result.MatchType).Equal(types.MatchTypeNone)
	})

	t.Run("without embedder semantic tier is skipped", func(t *testing.T) {
		uc := usecase.New(memory.New())

		result := uc.Tag.MatchTag(ctx, "ML", userID, newExisting(), embedding.NewCache())
		gt.Value(t, result.MatchType).Equal(types.MatchTypeNone)
	})

	t.Run("empty label never matches", func(t *testing.T) {
		uc, _ := newUseCases(t, memory.New(), nil)

		result := uc.Tag.MatchTag(ctx, " / ", userID, newExisting(), embedding.NewCache())
		gt.Bool(t, result.IsMatch()).False()
	})

	t.Run("cache avoids repeated generation within a batch", func(t *testing.T) {
		repo := memory.New()
		uc, client := newUseCases(t, repo, map[string][]float64{
			"ML":             unitVec(0.5),
			"gardening":      {0, 0, 1},
			"Deep Learning!": {0, 1, 0},
		})

		dl, err := repo.Tag().Create(ctx, model.NewTag(userID, "Deep Learning!"))
		gt.NoError(t, err).Required()

		cache := embedding.NewCache()
		uc.Tag.MatchTag(ctx, "ML", userID, []*model.Tag{dl}, cache)
		uc.Tag.MatchTag(ctx, "gardening", userID, []*model.Tag{dl}, cache)
		gt.Value(t, client.callCount("Deep Learning!")).Equal(1)
	})
}

func TestResolveTags(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc, _ := newUseCases(t, repo, map[string][]float64{
		"Machine Learning": {1, 0, 0},
		"Cooking":          {0, 1, 0},
	})

	results, err := uc.Tag.ResolveTags(ctx, "user-1", []string{
		"Machine Learning",
		"machine_learning",
		"Cooking",
		"cookng",
		"   ",
	})
	gt.NoError(t, err).Required()
	gt.Array(t, results).Length(4)

	gt.Bool(t, results[0].Created).True()
	gt.Value(t, results[1].MatchType).Equal(types.MatchTypeExact)
	gt.Value(t, results[1].Tag.ID).Equal(results[0].Tag.ID)
	gt.Bool(t, results[2].Created).True()
	gt.Value(t, results[3].MatchType).Equal(types.MatchTypeFuzzy)
	gt.Value(t, results[3].Tag.ID).Equal(results[2].Tag.ID)

	tags, err := repo.Tag().List(ctx, "user-1")
	gt.NoError(t, err).Required()
	gt.Array(t, tags).Length(2)

	// the candidate vector computed while matching is kept on the new tag
	cooking, err := repo.Tag().GetBySlug(ctx, "user-1", "cooking")
	gt.NoError(t, err).Required()
	gt.Bool(t, cooking.HasEmbedding()).True()

	_, err = uc.Tag.ResolveTags(ctx, "", []string{"x"})
	gt.Bool(t, errors.Is(err, model.ErrInvalidArgument)).True()
}

func TestRenameTag(t *testing.T) {
	ctx := context.Background()
	const userID = "user-1"

	t.Run("renames and invalidates embedding", func(t *testing.T) {
		repo := memory.New()
		uc, _ := newUseCases(t, repo, nil)

		tag, err := repo.Tag().Create(ctx, model.NewTag(userID, "golang"))
		gt.NoError(t, err).Required()
		gt.NoError(t, repo.Tag().SetEmbedding(ctx, userID, tag.ID, []float32{1, 0, 0})).Required()

		renamed, err := uc.Tag.RenameTag(ctx, userID, tag.ID, "  Go Language ")
		gt.NoError(t, err).Required()
		gt.Value(t, renamed.DisplayName).Equal("Go Language")
		gt.Value(t, renamed.Slug).Equal("go-language")
		gt.Bool(t, renamed.HasEmbedding()).False()
	})

	t.Run("slug taken by another tag", func(t *testing.T) {
		repo := memory.New()
		uc, _ := newUseCases(t, repo, nil)

		_, err := repo.Tag().Create(ctx, model.NewTag(userID, "travel"))
		gt.NoError(t, err).Required()
		other, err := repo.Tag().Create(ctx, model.NewTag(userID, "trips"))
		gt.NoError(t, err).Required()

		_, err = uc.Tag.RenameTag(ctx, userID, other.ID, "Travel")
		gt.Bool(t, errors.Is(err, usecase.ErrSlugConflict)).True()
	})

	t.Run("case-only rename keeps slug", func(t *testing.T) {
		repo := memory.New()
		uc, _ := newUseCases(t, repo, nil)

		tag, err := repo.Tag().Create(ctx, model.NewTag(userID, "travel"))
		gt.NoError(t, err).Required()

		renamed, err := uc.Tag.RenameTag(ctx, userID, tag.ID, "Travel")
		gt.NoError(t, err).Required()
		gt.Value(t, renamed.Slug).Equal("travel")
	})

	t.Run("unusable name", func(t *testing.T) {
		uc, _ := newUseCases(t, memory.New(), nil)
		_, err := uc.Tag.RenameTag(ctx, userID, model.NewTagID(), "///")
		gt.Bool(t, errors.Is(err, model.ErrInvalidArgument)).True()
	})

	t.Run("missing tag", func(t *testing.T) {
		uc, _ := newUseCases(t, memory.New(), nil)
		_, err := uc.Tag.RenameTag(ctx, userID, model.NewTagID(), "anything")
		gt.Bool(t, errors.Is(err, model.ErrNotFound)).True()
	})
}
