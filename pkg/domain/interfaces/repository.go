package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Tag() TagRepository
	Memory() MemoryRepository
	Conversation() ConversationRepository
	Project() ProjectRepository
	Preference() PreferenceRepository
	Record() RecordRepository

	Close() error
}
