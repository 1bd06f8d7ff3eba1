package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-chat/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/model/config"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
	"github.com/mnemo-chat/mnemo/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// Conversation-owned tables whose rows are deleted with the conversation
var conversationChildTables = []types.Table{
	types.TableBookmarks,
	types.TableShares,
	types.TableProjectConversations,
	types.TableConversationParticipants,
	types.TableConversationTokenUsage,
	types.TableAttachments,
	types.TableToolCalls,
	types.TableSources,
}

// Tables whose rows outlive the conversation; only the reference is cleared
var conversationDetachedTables = []types.Table{
	types.TableFiles,
	types.TableMemories,
}

// userPhases lists user-owned tables per phase. Phases run in order so that
// no row is deleted before the rows referencing it.
var userPhases = []struct {
	name   string
	tables []types.Table
}{
	{"junctions", []types.Table{
		types.TableProjectConversations,
		types.TableConversationParticipants,
		types.TableTagAssignments,
		types.TableShares,
	}},
	{"children", []types.Table{
		types.TableMessages,
		types.TableAttachments,
		types.TableToolCalls,
		types.TableSources,
		types.TableBookmarks,
		types.TableCanvasHistory,
		types.TableConversationTokenUsage,
		types.TableProjectNotes,
		types.TableProjectFiles,
	}},
	{"parents", []types.Table{
		types.TableCanvasDocuments,
		types.TableConversations,
		types.TableProjects,
	}},
	{"content", []types.Table{
		types.TableMemories,
		types.TableNotes,
		types.TableTasks,
		types.TableFiles,
		types.TableTags,
	}},
	{"config", []types.Table{
		types.TableUserPreferences,
		types.TableUsageRecords,
	}},
}

// CascadeUseCase plans and executes deletion of a conversation or of all data
// of a user. Cascades are not transactional: a failed run leaves completed
// phases applied and is completed by running it again.
type CascadeUseCase struct {
	repo interfaces.Repository
	cfg  config.Cascade
}

func NewCascadeUseCase(repo interfaces.Repository, cfg config.Cascade) *CascadeUseCase {
	return &CascadeUseCase{
		repo: repo,
		cfg:  cfg,
	}
}

// CascadeOptions controls a conversation cascade. RequesterID, when set, must
// own the root entity.
type CascadeOptions struct {
	DeleteMessages     bool
	DeleteConversation bool
	RequesterID        string
}

// PlanConversation lists the operations that delete a conversation's
// dependents. A conversation that no longer exists yields an empty plan.
func (uc *CascadeUseCase) PlanConversation(ctx context.Context, conversationID string, opts CascadeOptions) (*model.DeletionPlan, error) {
	plan := &model.DeletionPlan{Root: conversationID}

	conv, err := uc.repo.Conversation().Get(ctx, conversationID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return plan, nil
		}
		return nil, goerr.Wrap(err, "failed to get conversation", goerr.V("conversationID", conversationID))
	}
	if opts.RequesterID != "" && conv.UserID != opts.RequesterID {
		return nil, goerr.Wrap(model.ErrUnauthorized, "conversation belongs to another user",
			goerr.V("conversationID", conversationID),
			goerr.V("requesterID", opts.RequesterID),
		)
	}

	tables := append([]types.Table{}, conversationChildTables...)
	tables = append(tables, conversationDetachedTables...)
	tables = append(tables, types.TableCanvasDocuments, types.TableMessages)

	ids, err := uc.listByField(ctx, tables, types.FieldConversationID, conversationID)
	if err != nil {
		return nil, err
	}

	plan.AddPhase(model.DeletionPhase{
		Name: "children",
		Ops:  deleteOps(conversationChildTables, ids),
	})

	var detach []model.DeletionOp
	for _, table := range conversationDetachedTables {
		for _, id := range ids[table] {
			detach = append(detach, model.DeletionOp{
				Kind:  model.DeletionKindNullify,
				Table: table,
				ID:    id,
				Field: types.FieldConversationID,
			})
		}
	}
	plan.AddPhase(model.DeletionPhase{Name: "detach", Ops: detach})

	// each document waits for its history
	for _, docID := range ids[types.TableCanvasDocuments] {
		history, err := uc.repo.Record().ListIDs(ctx, types.TableCanvasHistory, types.FieldDocumentID, docID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list canvas history", goerr.V("documentID", docID))
		}

		ops := deleteOps([]types.Table{types.TableCanvasHistory}, map[types.Table][]string{types.TableCanvasHistory: history})
		ops = append(ops, model.DeletionOp{Kind: model.DeletionKindDelete, Table: types.TableCanvasDocuments, ID: docID})
		plan.AddPhase(model.DeletionPhase{Name: "canvas:" + docID, Sequential: true, Ops: ops})
	}

	if opts.DeleteMessages {
		plan.AddPhase(model.DeletionPhase{
			Name: "messages",
			Ops:  deleteOps([]types.Table{types.TableMessages}, ids),
		})
	}
	if opts.DeleteConversation {
		plan.AddPhase(model.DeletionPhase{
			Name: "conversation",
			Ops:  []model.DeletionOp{{Kind: model.DeletionKindDelete, Table: types.TableConversations, ID: conversationID}},
		})
	}

	return plan, nil
}

// PlanUser lists the operations that delete every record owned by userID
func (uc *CascadeUseCase) PlanUser(ctx context.Context, userID string, opts CascadeOptions) (*model.DeletionPlan, error) {
	if userID == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "user ID is required")
	}
	if opts.RequesterID != "" && opts.RequesterID != userID {
		return nil, goerr.Wrap(model.ErrUnauthorized, "cannot delete data of another user",
			goerr.V("userID", userID),
			goerr.V("requesterID", opts.RequesterID),
		)
	}

	plan := &model.DeletionPlan{Root: userID}

	for _, phase := range userPhases {
		ids, err := uc.listByField(ctx, phase.tables, types.FieldUserID, userID)
		if err != nil {
			return nil, err
		}
		ops := deleteOps(phase.tables, ids)

		if phase.name == "config" {
			exists, err := uc.repo.Record().Exists(ctx, types.TableUsers, userID)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to check user", goerr.V("userID", userID))
			}
			if exists {
				ops = append(ops, model.DeletionOp{Kind: model.DeletionKindDelete, Table: types.TableUsers, ID: userID})
			}
		}

		plan.AddPhase(model.DeletionPhase{Name: phase.name, Ops: ops})
	}

	return plan, nil
}

// Execute applies plan phase by phase. Operations of a parallel phase run
// concurrently up to the configured limit. Records already gone count as
// done. The first failing phase stops the cascade with ErrPartialCascade.
func (uc *CascadeUseCase) Execute(ctx context.Context, plan *model.DeletionPlan) error {
	logger := logging.From(ctx).With(slog.String("root", plan.Root))

	for i, phase := range plan.Phases {
		var skipped atomic.Int64
		apply := func(ctx context.Context, op model.DeletionOp) error {
			err := uc.apply(ctx, op)
			if errors.Is(err, model.ErrNotFound) {
				skipped.Add(1)
				return nil
			}
			return err
		}

		var err error
		if phase.Sequential {
			for _, op := range phase.Ops {
				if err = apply(ctx, op); err != nil {
					break
				}
			}
		} else {
			eg, egCtx := errgroup.WithContext(ctx)
			if uc.cfg.Concurrency > 0 {
				eg.SetLimit(uc.cfg.Concurrency)
			}
			for _, op := range phase.Ops {
				eg.Go(func() error {
					return apply(egCtx, op)
				})
			}
			err = eg.Wait()
		}

		if err != nil {
			return goerr.Wrap(model.ErrPartialCascade, "cascade phase failed",
				goerr.V("root", plan.Root),
				goerr.V("phase", phase.Name),
				goerr.V("completedPhases", i),
				goerr.V("cause", err.Error()),
			)
		}

		logger.Debug("cascade phase done",
			slog.String("phase", phase.Name),
			slog.Int("ops", len(phase.Ops)),
			slog.Int64("alreadyGone", skipped.Load()),
		)
	}

	return nil
}

func (uc *CascadeUseCase) apply(ctx context.Context, op model.DeletionOp) error {
	switch op.Kind {
	case model.DeletionKindNullify:
		return uc.repo.Record().Nullify(ctx, op.Table, op.ID, op.Field)
	case model.DeletionKindDelete:
		return uc.repo.Record().Delete(ctx, op.Table, op.ID)
	default:
		return goerr.New("unknown deletion kind", goerr.V("op", op.String()))
	}
}

// DeleteConversation plans and executes a conversation cascade
func (uc *CascadeUseCase) DeleteConversation(ctx context.Context, conversationID string, opts CascadeOptions) (*model.DeletionPlan, error) {
	plan, err := uc.PlanConversation(ctx, conversationID, opts)
	if err != nil {
		return nil, err
	}
	if err := uc.Execute(ctx, plan); err != nil {
		return plan, err
	}
	return plan, nil
}

// DeleteUserData plans and executes the full cascade for a user
func (uc *CascadeUseCase) DeleteUserData(ctx context.Context, userID string, opts CascadeOptions) (*model.DeletionPlan, error) {
	plan, err := uc.PlanUser(ctx, userID, opts)
	if err != nil {
		return nil, err
	}
	if err := uc.Execute(ctx, plan); err != nil {
		return plan, err
	}
	return plan, nil
}

// listByField queries tables concurrently for rows whose field equals value
func (uc *CascadeUseCase) listByField(ctx context.Context, tables []types.Table, field, value string) (map[types.Table][]string, error) {
	var mu sync.Mutex
	result := make(map[types.Table][]string, len(tables))

	eg, egCtx := errgroup.WithContext(ctx)
	if uc.cfg.Concurrency > 0 {
		eg.SetLimit(uc.cfg.Concurrency)
	}
	for _, table := range tables {
		eg.Go(func() error {
			ids, err := uc.repo.Record().ListIDs(egCtx, table, field, value)
			if err != nil {
				return goerr.Wrap(err, "failed to list records",
					goerr.V("table", table),
					goerr.V("field", field),
				)
			}
			mu.Lock()
			result[table] = ids
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func deleteOps(tables []types.Table, ids map[types.Table][]string) []model.DeletionOp {
	var ops []model.DeletionOp
	for _, table := range tables {
		for _, id := range ids[table] {
			ops = append(ops, model.DeletionOp{Kind: model.DeletionKindDelete, Table: table, ID: id})
		}
	}
	return ops
}
