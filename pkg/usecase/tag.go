package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-chat/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/model/config"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
	"github.com/mnemo-chat/mnemo/pkg/service/embedding"
	"github.com/mnemo-chat/mnemo/pkg/similarity"
	"github.com/mnemo-chat/mnemo/pkg/utils/logging"
)

// TagUseCase deduplicates free-form labels against a user's existing tags
type TagUseCase struct {
	repo     interfaces.Repository
	embedder *embedding.Embedder
	cfg      config.Matching
}

func NewTagUseCase(repo interfaces.Repository, embedder *embedding.Embedder, cfg config.Matching) *TagUseCase {
	return &TagUseCase{
		repo:     repo,
		embedder: embedder,
		cfg:      cfg,
	}
}

// MatchTag finds the existing tag candidate refers to. Tiers are tried in
// order exact, fuzzy, semantic and the first hit wins; within a tier the
// first qualifying tag in input order wins. Tags owned by another user are
// ignored. Embedding failures never surface: they degrade to a skipped tag or
// to no match.
func (uc *TagUseCase) MatchTag(ctx context.Context, candidate, userID string, existing []*model.Tag, cache *embedding.Cache) model.MatchResult {
	slug := model.Slugify(candidate)
	if slug == "" {
		return model.NoMatch()
	}

	owned := make([]*model.Tag, 0, len(existing))
	for _, tag := range existing {
		if tag == nil || (tag.UserID != "" && tag.UserID != userID) {
			continue
		}
		owned = append(owned, tag)
	}

	for _, tag := range owned {
		if tag.Slug == slug {
			return model.MatchResult{Existing: tag, MatchType: types.MatchTypeExact, Confidence: 1.0}
		}
	}

	for _, tag := range owned {
		if similarity.Levenshtein(slug, tag.Slug) <= uc.cfg.FuzzyMaxDistance {
			return model.MatchResult{Existing: tag, MatchType: types.MatchTypeFuzzy, Confidence: uc.cfg.FuzzyConfidence}
		}
	}

	if uc.embedder == nil || len(owned) == 0 {
		return model.NoMatch()
	}
	return uc.matchSemantic(ctx, candidate, userID, owned, cache)
}

func (uc *TagUseCase) matchSemantic(ctx context.Context, candidate, userID string, owned []*model.Tag, cache *embedding.Cache) model.MatchResult {
	logger := logging.From(ctx)
	resolver := embedding.NewResolver(uc.embedder, uc.repo.Tag(), cache)

	candidateVec, err := resolver.ForText(ctx, userID, candidate)
	if err != nil {
		logger.Warn("candidate embedding failed, treating as no match",
			slog.String("candidate", candidate),
			slog.Any("error", err),
		)
		return model.NoMatch()
	}

	for _, tag := range owned {
		tagVec, err := resolver.ForTag(ctx, tag)
		if err != nil {
			logger.Warn("skipping tag without embedding",
				slog.String("tagID", string(tag.ID)),
				slog.Any("error", err),
			)
			continue
		}

		score, err := similarity.Cosine(candidateVec, tagVec)
		if err != nil {
			logger.Warn("skipping tag with incompatible embedding",
				slog.String("tagID", string(tag.ID)),
				slog.Any("error", err),
			)
			continue
		}

		if score >= uc.cfg.SemanticThreshold {
			return model.MatchResult{Existing: tag, MatchType: types.MatchTypeSemantic, Confidence: score}
		}
	}

	return model.NoMatch()
}

// MatchUserTag matches candidate against every tag the user owns, with a
// cache scoped to this call
func (uc *TagUseCase) MatchUserTag(ctx context.Context, userID, candidate string) (model.MatchResult, error) {
	existing, err := uc.repo.Tag().List(ctx, userID)
	if err != nil {
		return model.NoMatch(), goerr.Wrap(err, "failed to list tags", goerr.V("userID", userID))
	}
	return uc.MatchTag(ctx, candidate, userID, existing, embedding.NewCache()), nil
}

// ResolvedTag is the outcome of one label of a tagging batch
type ResolvedTag struct {
	Label      string
	Tag        *model.Tag
	MatchType  types.MatchType
	Confidence float64
	Created    bool
}

// ResolveTags maps labels onto the user's tags, creating a tag for every label
// without a match. One embedding cache serves the whole batch and tags created
// for earlier labels are matchable by later ones. Labels with an empty slug
// are dropped.
func (uc *TagUseCase) ResolveTags(ctx context.Context, userID string, labels []string) ([]*ResolvedTag, error) {
	if userID == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "user ID is required")
	}

	existing, err := uc.repo.Tag().List(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tags", goerr.V("userID", userID))
	}

	cache := embedding.NewCache()
	results := make([]*ResolvedTag, 0, len(labels))

	for _, label := range labels {
		if model.Slugify(label) == "" {
			continue
		}

		match := uc.MatchTag(ctx, label, userID, existing, cache)
		if match.IsMatch() {
			results = append(results, &ResolvedTag{
				Label:      label,
				Tag:        match.Existing,
				MatchType:  match.MatchType,
				Confidence: match.Confidence,
			})
			continue
		}

		created, err := uc.repo.Tag().Create(ctx, model.NewTag(userID, label))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create tag", goerr.V("label", label))
		}

		// reuse the candidate embedding computed during matching
		if vec, ok := cache.Get(embedding.TextKey(label)); ok {
			created.Embedding = vec
			if err := uc.repo.Tag().SetEmbedding(ctx, userID, created.ID, vec); err != nil {
				logging.From(ctx).Warn("failed to persist new tag embedding",
					slog.String("tagID", string(created.ID)),
					slog.Any("error", err),
				)
			}
		}

		existing = append(existing, created)
		results = append(results, &ResolvedTag{
			Label:     label,
			Tag:       created,
			MatchType: types.MatchTypeNone,
			Created:   true,
		})
	}

	return results, nil
}

// RenameTag changes the display name and slug of a tag. The persisted
// embedding describes the old name, so it is dropped and regenerated on the
// next semantic comparison.
func (uc *TagUseCase) RenameTag(ctx context.Context, userID string, tagID model.TagID, displayName string) (*model.Tag, error) {
	displayName = strings.TrimSpace(displayName)
	slug := model.Slugify(displayName)
	if slug == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "tag name has no usable characters",
			goerr.V("displayName", displayName))
	}

	current, err := uc.repo.Tag().Get(ctx, userID, tagID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get tag", goerr.V("tagID", tagID))
	}

	if slug != current.Slug {
		other, err := uc.repo.Tag().GetBySlug(ctx, userID, slug)
		switch {
		case err == nil && other.ID != tagID:
			return nil, goerr.Wrap(ErrSlugConflict, "failed to rename tag",
				goerr.V("slug", slug),
				goerr.V("conflictingTagID", other.ID),
			)
		case err != nil && !errors.Is(err, model.ErrNotFound):
			return nil, goerr.Wrap(err, "failed to look up slug", goerr.V("slug", slug))
		}
	}

	renamed, err := uc.repo.Tag().Rename(ctx, userID, tagID, displayName, slug)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to rename tag", goerr.V("tagID", tagID))
	}
	return renamed, nil
}
