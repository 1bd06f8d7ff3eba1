package usecase

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-chat/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/model/config"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
	"github.com/mnemo-chat/mnemo/pkg/service/embedding"
	"github.com/mnemo-chat/mnemo/pkg/utils/async"
	"github.com/mnemo-chat/mnemo/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

//go:embed prompt/*.md
var promptFS embed.FS

var promptTemplates = template.Must(template.ParseFS(promptFS, "prompt/*.md"))

// Prompt sections in emission order. Later sections weigh more with the
// model, so user custom instructions must stay last.
const (
	SectionBaseIdentity             = "base_identity"
	SectionIdentityMemories         = "identity_memories"
	SectionContextualMemories       = "contextual_memories"
	SectionProjectContext           = "project_context"
	SectionKnowledgeBank            = "knowledge_bank"
	SectionBudgetStatus             = "budget_status"
	SectionAskUser                  = "ask_user"
	SectionDocumentMode             = "document_mode"
	SectionConversationInstructions = "conversation_instructions"
	SectionCustomInstructions       = "custom_instructions"
)

// PromptUseCase assembles the system prompt of a chat turn
type PromptUseCase struct {
	repo     interfaces.Repository
	embedder *embedding.Embedder
	cfg      config.Prompt
	now      func() time.Time
}

func NewPromptUseCase(repo interfaces.Repository, embedder *embedding.Embedder, cfg config.Prompt) *PromptUseCase {
	return &PromptUseCase{
		repo:     repo,
		embedder: embedder,
		cfg:      cfg,
		now:      time.Now,
	}
}

// BuildPromptInput carries everything the caller knows about the turn.
// PrefetchedMemories replaces the contextual vector search when non-nil.
// MemoryExtractionLevel overrides the user's preference when set.
type BuildPromptInput struct {
	UserID                string
	ConversationID        string
	UserMessage           string
	Model                 model.ModelConfig
	HasFunctionCalling    bool
	PrefetchedMemories    []*model.Memory
	MemoryExtractionLevel types.ExtractionLevel
	BudgetState           *model.BudgetState
}

// BuildPromptOutput is the ordered system blocks plus the rendered memory
// text, which callers count as memory tokens in the next budget
type BuildPromptOutput struct {
	Messages      []model.PromptBlock
	Sections      []string
	MemoryContent string
}

// promptSources holds what was fetched for one turn. A nil value with a
// non-nil error makes the dependent section fail on its own.
type promptSources struct {
	conversation    *model.Conversation
	conversationErr error

	preferences    *model.UserPreferences
	preferencesErr error

	project    *model.Project
	projectErr error

	identity    []*model.Memory
	identityErr error

	contextual    []*model.Memory
	contextualErr error

	knowledgeCount int
	knowledgeErr   error

	level types.ExtractionLevel
}

// BuildSystemPrompt renders every available section in fixed order. A
// failing section is logged and left out; only invalid input is an error.
func (uc *PromptUseCase) BuildSystemPrompt(ctx context.Context, input BuildPromptInput) (*BuildPromptOutput, error) {
	if input.UserID == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "user ID is required")
	}

	logger := logging.From(ctx).With(
		slog.String("userID", input.UserID),
		slog.String("conversationID", input.ConversationID),
	)
	ctx = logging.With(ctx, logger)

	src := uc.fetchSources(ctx, input)

	conv := src.conversation
	prefs := src.preferences
	if prefs == nil {
		prefs = &model.UserPreferences{UserID: input.UserID}
	}

	level := src.level

	sections := []struct {
		name   string
		render func() (string, error)
	}{
		{SectionBaseIdentity, func() (string, error) {
			return renderPrompt(SectionBaseIdentity, map[string]any{
				"ModelName": input.Model.Name,
				"Date":      uc.now().Format("2006-01-02"),
			})
		}},
		{SectionIdentityMemories, func() (string, error) {
			if src.conversationErr != nil {
				return "", src.conversationErr
			}
			if !uc.memoriesAllowed(conv, level) {
				return "", nil
			}
			return uc.renderIdentityMemories(src, input.Model)
		}},
		{SectionContextualMemories, func() (string, error) {
			if src.conversationErr != nil {
				return "", src.conversationErr
			}
			if !uc.memoriesAllowed(conv, level) {
				return "", nil
			}
			return renderMemories(SectionContextualMemories, src.contextual, src.contextualErr)
		}},
		{SectionProjectContext, func() (string, error) {
			if src.projectErr != nil {
				return "", src.projectErr
			}
			if src.project == nil {
				return "", nil
			}
			return renderPrompt(SectionProjectContext, src.project)
		}},
		{SectionKnowledgeBank, func() (string, error) {
			if src.knowledgeErr != nil {
				return "", src.knowledgeErr
			}
			if src.knowledgeCount == 0 {
				return "", nil
			}
			return renderPrompt(SectionKnowledgeBank, map[string]any{"Count": src.knowledgeCount})
		}},
		{SectionBudgetStatus, func() (string, error) {
			state := input.BudgetState
			if !state.IsContextFull(uc.cfg.ContextFullRatio) {
				return "", nil
			}
			return renderPrompt(SectionBudgetStatus, map[string]any{
				"UsedPercent":     int(state.UsageRatio() * 100),
				"RemainingTokens": state.RemainingTokens(),
			})
		}},
		{SectionAskUser, func() (string, error) {
			if !input.HasFunctionCalling ||
				!input.BudgetState.HasLowQualitySearchStreak(uc.cfg.LowQualitySearchStreak, uc.cfg.LowQualitySearchScore) {
				return "", nil
			}
			return renderPrompt(SectionAskUser, map[string]any{"Streak": uc.cfg.LowQualitySearchStreak})
		}},
		{SectionDocumentMode, func() (string, error) {
			if conv == nil || conv.Mode.Normalize() != types.ConversationModeDocument {
				return "", nil
			}
			return renderPrompt(SectionDocumentMode, nil)
		}},
		{SectionConversationInstructions, func() (string, error) {
			if conv == nil || strings.TrimSpace(conv.Instructions) == "" {
				return "", nil
			}
			return renderPrompt(SectionConversationInstructions, conv)
		}},
		{SectionCustomInstructions, func() (string, error) {
			if err := errors.Join(src.conversationErr, src.preferencesErr); err != nil {
				return "", err
			}
			ci := prefs.CustomInstructions
			if conv.IsBlankSlate() || !ci.Enabled || ci.IsEmpty() {
				return "", nil
			}
			return renderPrompt(SectionCustomInstructions, ci)
		}},
	}

	output := &BuildPromptOutput{}
	var memoryParts []string

	for _, s := range sections {
		content := renderSection(ctx, s.name, s.render)
		if content == "" {
			continue
		}

		output.Messages = append(output.Messages, model.PromptBlock{
			Role:    model.PromptRoleSystem,
			Content: content,
		})
		output.Sections = append(output.Sections, s.name)

		if s.name == SectionIdentityMemories || s.name == SectionContextualMemories {
			memoryParts = append(memoryParts, content)
		}
	}
	output.MemoryContent = strings.Join(memoryParts, "\n\n")

	if input.BudgetState != nil && conv != nil {
		state := *input.BudgetState
		async.Dispatch(ctx, "save-budget-snapshot", func(ctx context.Context) error {
			return uc.repo.Conversation().SaveBudgetSnapshot(ctx, conv.ID, &state)
		})
	}

	return output, nil
}

// memoriesAllowed: incognito conversations never see memories, even when
// they keep custom instructions
func (uc *PromptUseCase) memoriesAllowed(conv *model.Conversation, level types.ExtractionLevel) bool {
	return !conv.IsIncognito() && level.MemoriesEnabled()
}

// renderSection runs one section in isolation. Errors and panics are logged
// and yield an empty section.
func renderSection(ctx context.Context, name string, render func() (string, error)) (content string) {
	logger := logging.From(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("prompt section panicked", slog.String("section", name), slog.Any("panic", r))
			content = ""
		}
	}()

	out, err := render()
	if err != nil {
		logger.Warn("prompt section skipped", slog.String("section", name), slog.Any("error", err))
		return ""
	}
	return strings.TrimSpace(out)
}

func renderPrompt(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplates.ExecuteTemplate(&buf, name+".md", data); err != nil {
		return "", goerr.Wrap(err, "failed to render prompt section", goerr.V("section", name))
	}
	return buf.String(), nil
}

func renderMemories(section string, memories []*model.Memory, fetchErr error) (string, error) {
	if fetchErr != nil {
		return "", fetchErr
	}
	if len(memories) == 0 {
		return "", nil
	}
	return renderPrompt(section, map[string]any{"Memories": memories})
}

func (uc *PromptUseCase) renderIdentityMemories(src *promptSources, mc model.ModelConfig) (string, error) {
	if src.identityErr != nil {
		return "", src.identityErr
	}

	window := mc.ContextWindow
	if window <= 0 {
		window = uc.cfg.DefaultContextWindow
	}
	budget := int(float64(window) * uc.cfg.IdentityMemoryRatio)

	return renderMemories(SectionIdentityMemories, selectIdentityMemories(src.identity, budget), nil)
}

// selectIdentityMemories keeps the most important, then most recent, memories
// whose combined token estimate fits budget. Memories are never cut: selection
// stops at the first one that does not fit so a lower priority memory never
// displaces a higher one.
func selectIdentityMemories(memories []*model.Memory, budget int) []*model.Memory {
	sorted := make([]*model.Memory, len(memories))
	copy(sorted, memories)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Metadata.Importance != b.Metadata.Importance {
			return a.Metadata.Importance > b.Metadata.Importance
		}
		return a.LastTouched().After(b.LastTouched())
	})

	used := 0
	kept := make([]*model.Memory, 0, len(sorted))
	for _, m := range sorted {
		cost := model.EstimateTokens(fmt.Sprintf("- %s\n", m.Content))
		if used+cost > budget {
			break
		}
		used += cost
		kept = append(kept, m)
	}
	return kept
}

// fetchSources loads conversation, preferences and knowledge bank size, then
// everything that depends on them. Each fetch records its own error; none of
// them cancels the others.
func (uc *PromptUseCase) fetchSources(ctx context.Context, input BuildPromptInput) *promptSources {
	src := &promptSources{}

	var first errgroup.Group
	if input.ConversationID != "" {
		first.Go(guardFetch("conversation", &src.conversationErr, func() error {
			conv, err := uc.repo.Conversation().Get(ctx, input.ConversationID)
			switch {
			case errors.Is(err, model.ErrNotFound):
				logging.From(ctx).Debug("conversation not found, assembling without it")
				return nil
			case err != nil:
				return err
			case conv.UserID != input.UserID:
				return goerr.Wrap(model.ErrUnauthorized, "conversation belongs to another user")
			}
			src.conversation = conv
			return nil
		}))
	}
	first.Go(guardFetch("preferences", &src.preferencesErr, func() error {
		prefs, err := uc.repo.Preference().Get(ctx, input.UserID)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return err
		}
		src.preferences = prefs
		return nil
	}))
	if input.HasFunctionCalling {
		first.Go(guardFetch("knowledge_bank", &src.knowledgeErr, func() error {
			ids, err := uc.repo.Record().ListIDs(ctx, types.TableFiles, types.FieldUserID, input.UserID)
			src.knowledgeCount = len(ids)
			return err
		}))
	}
	_ = first.Wait()

	if src.conversationErr != nil {
		logging.From(ctx).Warn("failed to load conversation", slog.Any("error", src.conversationErr))
	}
	conv := src.conversation

	src.level = input.MemoryExtractionLevel
	if src.level == "" && src.preferences != nil {
		src.level = src.preferences.ExtractionLevel
	}
	src.level = src.level.Normalize()

	var second errgroup.Group
	if conv != nil && conv.ProjectID != "" {
		second.Go(guardFetch("project", &src.projectErr, func() error {
			project, err := uc.repo.Project().Get(ctx, conv.ProjectID)
			src.project = project
			return err
		}))
	}
	// an unreadable conversation may be incognito, so personalization is not loaded
	if src.conversationErr == nil && !conv.IsIncognito() && src.level.MemoriesEnabled() {
		second.Go(guardFetch("identity_memories", &src.identityErr, func() error {
			memories, err := uc.repo.Memory().ListByCategory(ctx, input.UserID, types.IdentityMemoryCategories()...)
			src.identity = memories
			return err
		}))
		second.Go(guardFetch("contextual_memories", &src.contextualErr, func() error {
			memories, err := uc.contextualMemories(ctx, input)
			src.contextual = memories
			return err
		}))
	}
	_ = second.Wait()

	return src
}

// guardFetch stores the outcome of fetch in errp, converting a panic into an
// error so that only the dependent section is lost
func guardFetch(name string, errp *error, fetch func() error) func() error {
	return func() error {
		defer func() {
			if r := recover(); r != nil {
				*errp = goerr.New("panic while loading prompt source",
					goerr.V("source", name),
					goerr.V("panic", r),
				)
			}
		}()
		*errp = fetch()
		return nil
	}
}

func (uc *PromptUseCase) contextualMemories(ctx context.Context, input BuildPromptInput) ([]*model.Memory, error) {
	candidates := input.PrefetchedMemories
	if candidates == nil {
		if strings.TrimSpace(input.UserMessage) == "" || uc.embedder == nil {
			return nil, nil
		}

		vec, err := uc.embedder.Embed(ctx, input.UserID, input.UserMessage)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to embed user message")
		}

		candidates, err = uc.repo.Memory().FindByEmbedding(ctx, input.UserID, vec, uc.cfg.ContextualMemoryLimit)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to search memories")
		}
	}

	result := make([]*model.Memory, 0, len(candidates))
	for _, m := range candidates {
		if m == nil || m.Metadata.Category.IsIdentity() {
			continue
		}
		result = append(result, m)
	}
	return result, nil
}
