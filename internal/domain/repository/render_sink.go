package repository

import "github.com/yourusername/health-chat-assistant/internal/domain/entity"

// RenderSink receives ordered turn events and reflects them in the
// transcript view. The core only calls it; rendering itself is outside
// this module.
type RenderSink interface {
	// OnTurnAppended is called after a turn was persisted.
	OnTurnAppended(conversation *entity.Conversation, turn entity.Turn)

	// OnConversationListChanged delivers the regrouped conversation list.
	OnConversationListChanged(groups []entity.ConversationGroup)

	// OnError surfaces a user-visible error. Kind is the error taxonomy
	// bucket ("chat", "transcription", "storage", ...).
	OnError(kind, message string)
}
