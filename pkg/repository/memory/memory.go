package memory

import (
	"github.com/mnemo-chat/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = model.ErrNotFound

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is the in-memory backend used for development and tests
type Memory struct {
	tag          *tagRepository
	memory       *memoryRepository
	conversation *conversationRepository
	project      *projectRepository
	preference   *preferenceRepository
	record       *recordRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	tagRepo := newTagRepository()
	memoryRepo := newMemoryRepository()
	conversationRepo := newConversationRepository()
	projectRepo := newProjectRepository()
	preferenceRepo := newPreferenceRepository()

	// typed repositories own their tables; everything else is generic
	recordRepo := newRecordRepository(map[types.Table]recordTable{
		types.TableTags:            tagRepo,
		types.TableMemories:        memoryRepo,
		types.TableConversations:   conversationRepo,
		types.TableProjects:        projectRepo,
		types.TableUserPreferences: preferenceRepo,
	})

	return &Memory{
		tag:          tagRepo,
		memory:       memoryRepo,
		conversation: conversationRepo,
		project:      projectRepo,
		preference:   preferenceRepo,
		record:       recordRepo,
	}
}

func (m *Memory) Tag() interfaces.TagRepository {
	return m.tag
}

func (m *Memory) Memory() interfaces.MemoryRepository {
	return m.memory
}

func (m *Memory) Conversation() interfaces.ConversationRepository {
	return m.conversation
}

func (m *Memory) Project() interfaces.ProjectRepository {
	return m.project
}

func (m *Memory) Preference() interfaces.PreferenceRepository {
	return m.preference
}

func (m *Memory) Record() interfaces.RecordRepository {
	return m.record
}

func (m *Memory) Close() error {
	return nil
}
