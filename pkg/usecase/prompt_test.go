package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/mnemo-chat/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
	"github.com/mnemo-chat/mnemo/pkg/repository/memory"
	"github.com/mnemo-chat/mnemo/pkg/usecase"
)

const promptUserID = "user-1"

type promptFixture struct {
	repo   *memory.Memory
	uc     *usecase.UseCases
	llm    *mockLLMClient
	convID string
}

// newPromptFixture seeds a user with every personalization source: identity
// and contextual memories, custom instructions, a project and a file
func newPromptFixture(t *testing.T, conv *model.Conversation) *promptFixture {
	t.Helper()
	ctx := context.Background()
	repo := memory.New()

	uc, llm := newUseCases(t, repo, map[string][]float64{
		"what should I cook tonight?": {0, 1, 0},
	})
	usecase.SetPromptClock(uc.Prompt, func() time.Time {
		return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	})

	seedMemory(t, repo, promptUserID, "Name is Ana", []float32{1, 0, 0}, types.MemoryCategoryIdentity)
	seedMemory(t, repo, promptUserID, "Is vegetarian", []float32{0, 0.99, 0.1}, types.MemoryCategoryContext)

	gt.NoError(t, repo.Preference().Put(ctx, &model.UserPreferences{
		UserID: promptUserID,
		CustomInstructions: model.CustomInstructions{
			Enabled:       true,
			ResponseStyle: "Use bullet points",
		},
	})).Required()

	if conv != nil {
		if conv.ID == "" {
			conv.ID = model.NewConversationID()
		}
		if conv.UserID == "" {
			conv.UserID = promptUserID
		}
		gt.NoError(t, repo.Conversation().Put(ctx, conv)).Required()
		return &promptFixture{repo: repo, uc: uc, llm: llm, convID: conv.ID}
	}
	return &promptFixture{repo: repo, uc: uc, llm: llm}
}

func (f *promptFixture) build(t *testing.T, mutate func(*usecase.BuildPromptInput)) *usecase.BuildPromptOutput {
	t.Helper()
	input := usecase.BuildPromptInput{
		UserID:         promptUserID,
		ConversationID: f.convID,
		UserMessage:    "what should I cook tonight?",
		Model:          model.ModelConfig{ID: "m1", Name: "test-model", ContextWindow: 128000},
	}
	if mutate != nil {
		mutate(&input)
	}
	out, err := f.uc.Prompt.BuildSystemPrompt(context.Background(), input)
	gt.NoError(t, err).Required()
	return out
}

func hasSection(out *usecase.BuildPromptOutput, name string) bool {
	for _, s := range out.Sections {
		if s == name {
			return true
		}
	}
	return false
}

func TestBuildSystemPrompt_Default(t *testing.T) {
	f := newPromptFixture(t, &model.Conversation{})
	out := f.build(t, nil)

	gt.Value(t, out.Sections).Equal([]string{
		usecase.SectionBaseIdentity,
		usecase.SectionIdentityMemories,
		usecase.SectionContextualMemories,
		usecase.SectionCustomInstructions,
	})
	for _, m := range out.Messages {
		gt.Value(t, m.Role).Equal(model.PromptRoleSystem)
	}
	gt.String(t, out.Messages[0].Content).Contains("2026-03-14")
	gt.String(t, out.Messages[0].Content).Contains("test-model")
	gt.String(t, out.MemoryContent).Contains("Name is Ana")
	gt.String(t, out.MemoryContent).Contains("Is vegetarian")
	gt.String(t, out.Messages[len(out.Messages)-1].Content).Contains("Use bullet points")
}

func TestBuildSystemPrompt_IncognitoBlankSlate(t *testing.T) {
	f := newPromptFixture(t, &model.Conversation{
		Incognito: &model.IncognitoSettings{ApplyCustomInstructions: false},
	})
	out := f.build(t, nil)

	gt.Bool(t, hasSection(out, usecase.SectionBaseIdentity)).True()
	gt.Bool(t, hasSection(out, usecase.SectionIdentityMemories)).False()
	gt.Bool(t, hasSection(out, usecase.SectionContextualMemories)).False()
	gt.Bool(t, hasSection(out, usecase.SectionCustomInstructions)).False()
	gt.Value(t, out.MemoryContent).Equal("")
}

func TestBuildSystemPrompt_IncognitoKeepsCustomInstructions(t *testing.T) {
	f := newPromptFixture(t, &model.Conversation{
		Incognito: &model.IncognitoSettings{ApplyCustomInstructions: true},
	})
	out := f.build(t, nil)

	gt.Bool(t, hasSection(out, usecase.SectionIdentityMemories)).False()
	gt.Bool(t, hasSection(out, usecase.SectionCustomInstructions)).True()
}

func TestBuildSystemPrompt_FullOrdering(t *testing.T) {
	ctx := context.Background()
	f := newPromptFixture(t, &model.Conversation{
		Mode:         types.ConversationModeDocument,
		Instructions: "Write in British English",
		ProjectID:    "project-1",
	})
	gt.NoError(t, f.repo.Project().Put(ctx, &model.Project{
		ID: "project-1", UserID: promptUserID, Name: "Cookbook", SystemPrompt: "Keep recipes short",
	})).Required()
	putRecord(t, f.repo, types.TableFiles, map[string]string{types.FieldUserID: promptUserID})

	out := f.build(t, func(in *usecase.BuildPromptInput) {
		in.HasFunctionCalling = true
		in.BudgetState = &model.BudgetState{
			TotalTokens:  900,
			ContextLimit: 1000,
			SearchHistory: []model.SearchRecord{
				{Query: "a", TopScore: 0.9},
				{Query: "b", TopScore: 0.2},
				{Query: "c", TopScore: 0.3},
				{Query: "d", TopScore: 0.1},
			},
		}
	})

	gt.Value(t, out.Sections).Equal([]string{
		usecase.SectionBaseIdentity,
		usecase.SectionIdentityMemories,
		usecase.SectionContextualMemories,
		usecase.SectionProjectContext,
		usecase.SectionKnowledgeBank,
		usecase.SectionBudgetStatus,
		usecase.SectionAskUser,
		usecase.SectionDocumentMode,
		usecase.SectionConversationInstructions,
		usecase.SectionCustomInstructions,
	})
	gt.Array(t, out.Messages).Length(10)
	gt.String(t, out.Messages[3].Content).Contains("Keep recipes short")
	gt.String(t, out.Messages[5].Content).Contains("90%")
	gt.String(t, out.Messages[8].Content).Contains("British English")
	gt.String(t, out.Messages[9].Content).Contains("Use bullet points")
}

func TestBuildSystemPrompt_CustomInstructionsAlwaysLast(t *testing.T) {
	convs := map[string]*model.Conversation{
		"plain":        {},
		"document":     {Mode: types.ConversationModeDocument},
		"instructions": {Instructions: "Be brief"},
		"incognito":    {Incognito: &model.IncognitoSettings{ApplyCustomInstructions: true}},
	}
	budgets := []*model.BudgetState{
		nil,
		{TotalTokens: 80, ContextLimit: 100},
		{TotalTokens: 10, ContextLimit: 100, SearchHistory: []model.SearchRecord{{TopScore: 0.1}, {TopScore: 0.1}, {TopScore: 0.1}}},
	}

	for name, conv := range convs {
		for _, budget := range budgets {
			for _, fc := range []bool{true, false} {
				t.Run(name, func(t *testing.T) {
					c := *conv
					f := newPromptFixture(t, &c)
					out := f.build(t, func(in *usecase.BuildPromptInput) {
						in.BudgetState = budget
						in.HasFunctionCalling = fc
					})
					gt.Value(t, out.Sections[len(out.Sections)-1]).Equal(usecase.SectionCustomInstructions)
				})
			}
		}
	}
}

func TestBuildSystemPrompt_ExtractionLevelNone(t *testing.T) {
	f := newPromptFixture(t, &model.Conversation{})
	out := f.build(t, func(in *usecase.BuildPromptInput) {
		in.MemoryExtractionLevel = types.ExtractionLevelNone
	})

	gt.Bool(t, hasSection(out, usecase.SectionIdentityMemories)).False()
	gt.Bool(t, hasSection(out, usecase.SectionContextualMemories)).False()
	gt.Bool(t, hasSection(out, usecase.SectionCustomInstructions)).True()
	gt.Number(t, f.llm.callCount("what should I cook tonight?")).Equal(0)
	gt.String(t, out.MemoryContent).Equal("")
}

func TestBuildSystemPrompt_ExtractionLevelNoneFromPreferences(t *testing.T) {
	f := newPromptFixture(t, &model.Conversation{})
	gt.NoError(t, f.repo.Preference().Put(context.Background(), &model.UserPreferences{
		UserID:          promptUserID,
		ExtractionLevel: types.ExtractionLevelNone,
	})).Required()

	out := f.build(t, nil)

	gt.Bool(t, hasSection(out, usecase.SectionIdentityMemories)).False()
	gt.Bool(t, hasSection(out, usecase.SectionContextualMemories)).False()
	gt.Number(t, f.llm.callCount("what should I cook tonight?")).Equal(0)
}

func TestBuildSystemPrompt_PrefetchedMemories(t *testing.T) {
	f := newPromptFixture(t, &model.Conversation{})
	out := f.build(t, func(in *usecase.BuildPromptInput) {
		in.PrefetchedMemories = []*model.Memory{
			{ID: "m1", Content: "Training for a marathon", Metadata: model.MemoryMetadata{Category: types.MemoryCategoryGoal}},
			{ID: "m2", Content: "Works at a bakery", Metadata: model.MemoryMetadata{Category: types.MemoryCategoryIdentity}},
		}
	})

	gt.String(t, out.MemoryContent).Contains("Training for a marathon")
	gt.Bool(t, strings.Contains(out.MemoryContent, "Is vegetarian")).False()
	// identity categories only come from the identity section
	gt.Bool(t, strings.Contains(out.MemoryContent, "Works at a bakery")).False()
}

func TestBuildSystemPrompt_Hints(t *testing.T) {
	f := newPromptFixture(t, &model.Conversation{})

	t.Run("budget hint below threshold", func(t *testing.T) {
		out := f.build(t, func(in *usecase.BuildPromptInput) {
			in.BudgetState = &model.BudgetState{TotalTokens: 700, ContextLimit: 1000}
		})
		gt.Bool(t, hasSection(out, usecase.SectionBudgetStatus)).False()
	})

	t.Run("budget hint at threshold", func(t *testing.T) {
		out := f.build(t, func(in *usecase.BuildPromptInput) {
			in.BudgetState = &model.BudgetState{TotalTokens: 750, ContextLimit: 1000}
		})
		gt.Bool(t, hasSection(out, usecase.SectionBudgetStatus)).True()
	})

	weak := &model.BudgetState{
		ContextLimit:  1000,
		SearchHistory: []model.SearchRecord{{TopScore: 0.4}, {TopScore: 0.3}, {TopScore: 0.49}},
	}

	t.Run("ask user after weak searches", func(t *testing.T) {
		out := f.build(t, func(in *usecase.BuildPromptInput) {
			in.HasFunctionCalling = true
			in.BudgetState = weak
		})
		gt.Bool(t, hasSection(out, usecase.SectionAskUser)).True()
	})

	t.Run("no ask user without function calling", func(t *testing.T) {
		out := f.build(t, func(in *usecase.BuildPromptInput) {
			in.BudgetState = weak
		})
		gt.Bool(t, hasSection(out, usecase.SectionAskUser)).False()
	})

	t.Run("no ask user when a recent search was good", func(t *testing.T) {
		out := f.build(t, func(in *usecase.BuildPromptInput) {
			in.HasFunctionCalling = true
			in.BudgetState = &model.BudgetState{
				ContextLimit:  1000,
				SearchHistory: []model.SearchRecord{{TopScore: 0.4}, {TopScore: 0.6}, {TopScore: 0.1}},
			}
		})
		gt.Bool(t, hasSection(out, usecase.SectionAskUser)).False()
	})
}

// brokenProjectRepository panics on project reads and fails preference reads
type brokenProjectRepository struct {
	interfaces.Repository
}

type panickingProjectRepository struct {
	interfaces.ProjectRepository
}

type failingPreferenceRepository struct {
	interfaces.PreferenceRepository
}

func (r *brokenProjectRepository) Project() interfaces.ProjectRepository {
	return &panickingProjectRepository{ProjectRepository: r.Repository.Project()}
}

func (r *brokenProjectRepository) Preference() interfaces.PreferenceRepository {
	return &failingPreferenceRepository{PreferenceRepository: r.Repository.Preference()}
}

func (r *panickingProjectRepository) Get(ctx context.Context, projectID string) (*model.Project, error) {
	panic("project store corrupted")
}

func (r *failingPreferenceRepository) Get(ctx context.Context, userID string) (*model.UserPreferences, error) {
	return nil, errors.New("preferences unavailable")
}

func TestBuildSystemPrompt_SectionIsolation(t *testing.T) {
	ctx := context.Background()
	base := memory.New()
	conv := &model.Conversation{
		ID:           model.NewConversationID(),
		UserID:       promptUserID,
		ProjectID:    "project-1",
		Instructions: "Reply in Portuguese",
	}
	gt.NoError(t, base.Conversation().Put(ctx, conv)).Required()
	seedMemory(t, base, promptUserID, "Name is Ana", []float32{1, 0, 0}, types.MemoryCategoryIdentity)

	uc, _ := newUseCases(t, &brokenProjectRepository{Repository: base}, nil)
	out, err := uc.Prompt.BuildSystemPrompt(ctx, usecase.BuildPromptInput{
		UserID:         promptUserID,
		ConversationID: conv.ID,
		UserMessage:    "unembeddable message",
	})
	gt.NoError(t, err).Required()

	gt.Value(t, out.Sections).Equal([]string{
		usecase.SectionBaseIdentity,
		usecase.SectionIdentityMemories,
		usecase.SectionConversationInstructions,
	})
}

func TestBuildSystemPrompt_ForeignConversation(t *testing.T) {
	f := newPromptFixture(t, &model.Conversation{UserID: "someone-else"})
	out := f.build(t, nil)

	gt.Value(t, out.Sections).Equal([]string{usecase.SectionBaseIdentity})
}

func TestBuildSystemPrompt_RequiresUser(t *testing.T) {
	uc := usecase.New(memory.New())
	_, err := uc.Prompt.BuildSystemPrompt(context.Background(), usecase.BuildPromptInput{})
	gt.Bool(t, errors.Is(err, model.ErrInvalidArgument)).True()
}

func TestBuildSystemPrompt_SavesBudgetSnapshot(t *testing.T) {
	f := newPromptFixture(t, &model.Conversation{})
	f.build(t, func(in *usecase.BuildPromptInput) {
		in.BudgetState = &model.BudgetState{TotalTokens: 321, ContextLimit: 1000}
	})

	deadline := time.Now().Add(3 * time.Second)
	for {
		conv, err := f.repo.Conversation().Get(context.Background(), f.convID)
		gt.NoError(t, err).Required()
		if conv.BudgetSnapshot != nil {
			gt.Value(t, conv.BudgetSnapshot.TotalTokens).Equal(321)
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("budget snapshot was not saved")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSelectIdentityMemories(t *testing.T) {
	now := time.Now()
	mk := func(content string, importance int, age time.Duration) *model.Memory {
		return &model.Memory{
			ID:        model.MemoryID(content),
			Content:   content,
			Metadata:  model.MemoryMetadata{Importance: importance},
			CreatedAt: now.Add(-age),
		}
	}

	// "- " + 10 chars + "\n" is 13 chars, 4 tokens
	older := mk("aaaaaaaaaa", 3, 2*time.Hour)
	newer := mk("bbbbbbbbbb", 3, time.Hour)
	core := mk("cccccccccc", 5, 48*time.Hour)

	t.Run("importance then recency", func(t *testing.T) {
		kept := usecase.SelectIdentityMemories([]*model.Memory{older, newer, core}, 100)
		gt.Array(t, kept).Length(3)
		gt.Value(t, kept[0].ID).Equal(core.ID)
		gt.Value(t, kept[1].ID).Equal(newer.ID)
		gt.Value(t, kept[2].ID).Equal(older.ID)
	})

	t.Run("whole memories only", func(t *testing.T) {
		kept := usecase.SelectIdentityMemories([]*model.Memory{older, newer, core}, 11)
		gt.Array(t, kept).Length(2)
		gt.Value(t, kept[1].ID).Equal(newer.ID)
	})

	t.Run("zero budget", func(t *testing.T) {
		gt.Array(t, usecase.SelectIdentityMemories([]*model.Memory{core}, 0)).Length(0)
	})
}

func TestBuildSystemPrompt_IdentityBudget(t *testing.T) {
	f := newPromptFixture(t, &model.Conversation{})
	_, err := f.repo.Memory().Create(context.Background(), &model.Memory{
		UserID:   promptUserID,
		Content:  strings.Repeat("long biography ", 20),
		Metadata: model.MemoryMetadata{Category: types.MemoryCategoryIdentity, Importance: 1},
	})
	gt.NoError(t, err).Required()

	// 10% of 100 tokens leaves room for the short memory only
	out := f.build(t, func(in *usecase.BuildPromptInput) {
		in.Model.ContextWindow = 100
	})
	gt.String(t, out.MemoryContent).Contains("Name is Ana")
	gt.Bool(t, strings.Contains(out.MemoryContent, "long biography")).False()
}

func TestRenderSection(t *testing.T) {
	ctx := context.Background()

	gt.Value(t, usecase.RenderSection(ctx, "ok", func() (string, error) {
		return "  content \n", nil
	})).Equal("content")

	gt.Value(t, usecase.RenderSection(ctx, "err", func() (string, error) {
		return "partial", errors.New("failed")
	})).Equal("")

	gt.Value(t, usecase.RenderSection(ctx, "panic", func() (string, error) {
		panic("boom")
	})).Equal("")
}
