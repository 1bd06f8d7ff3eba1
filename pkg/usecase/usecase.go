package usecase

import (
	"github.com/mnemo-chat/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-chat/mnemo/pkg/domain/model/config"
	"github.com/mnemo-chat/mnemo/pkg/service/embedding"
)

type UseCases struct {
	repo     interfaces.Repository
	tuning   *config.Tuning
	embedder *embedding.Embedder
	Tag      *TagUseCase
	Memory   *MemoryUseCase
	Prompt   *PromptUseCase
	Cascade  *CascadeUseCase
}

type Option func(*UseCases)

func WithTuning(tuning *config.Tuning) Option {
	return func(uc *UseCases) {
		uc.tuning = tuning
	}
}

// WithEmbedder enables the semantic tier of tag matching, memory saving and
// contextual memory search
func WithEmbedder(embedder *embedding.Embedder) Option {
	return func(uc *UseCases) {
		uc.embedder = embedder
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.tuning == nil {
		uc.tuning = config.DefaultTuning()
	}

	uc.Tag = NewTagUseCase(repo, uc.embedder, uc.tuning.Matching)
	uc.Memory = NewMemoryUseCase(repo, uc.embedder, uc.tuning.Memory)
	uc.Prompt = NewPromptUseCase(repo, uc.embedder, uc.tuning.Prompt)
	uc.Cascade = NewCascadeUseCase(repo, uc.tuning.Cascade)

	return uc
}
