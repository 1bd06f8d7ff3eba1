package types

// ConversationMode is the UI mode a conversation runs in
type ConversationMode string

const (
	ConversationModeChat     ConversationMode = "chat"
	ConversationModeDocument ConversationMode = "document"
)

// Normalize treats empty as ConversationModeChat
func (m ConversationMode) Normalize() ConversationMode {
	if m == "" {
		return ConversationModeChat
	}
	return m
}
