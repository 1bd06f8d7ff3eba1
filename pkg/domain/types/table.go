package types

// Table names a collection in the document store. Names are shared by every
// repository backend so that cascade deletion can address records generically.
type Table string

const (
	TableUsers                    Table = "users"
	TableUserPreferences          Table = "userPreferences"
	TableConversations            Table = "conversations"
	TableMessages                 Table = "messages"
	TableAttachments              Table = "attachments"
	TableToolCalls                Table = "toolCalls"
	TableSources                  Table = "sources"
	TableBookmarks                Table = "bookmarks"
	TableShares                   Table = "shares"
	TableProjects                 Table = "projects"
	TableProjectConversations     Table = "projectConversations"
	TableProjectNotes             Table = "projectNotes"
	TableProjectFiles             Table = "projectFiles"
	TableConversationParticipants Table = "conversationParticipants"
	TableConversationTokenUsage   Table = "conversationTokenUsage"
	TableCanvasDocuments          Table = "canvasDocuments"
	TableCanvasHistory            Table = "canvasHistory"
	TableFiles                    Table = "files"
	TableMemories                 Table = "memories"
	TableNotes                    Table = "notes"
	TableTasks                    Table = "tasks"
	TableTags                     Table = "tags"
	TableTagAssignments           Table = "tagAssignments"
	TableUsageRecords             Table = "usageRecords"
)

// String returns the collection name
func (t Table) String() string {
	return string(t)
}

// Field names used as foreign keys across tables
const (
	FieldUserID         = "UserID"
	FieldConversationID = "ConversationID"
	FieldDocumentID     = "DocumentID"
	FieldProjectID      = "ProjectID"
)
