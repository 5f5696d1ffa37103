package repository

import (
	"time"

	"github.com/yourusername/health-chat-assistant/internal/domain/entity"
)

// ConversationRepository persists conversations and builds the grouped
// conversation list. All operations are synchronous local storage steps.
type ConversationRepository interface {
	// Create allocates a fresh conversation with a millisecond-resolution
	// id and persists it immediately.
	Create() (*entity.Conversation, error)

	// Get loads one conversation. Corrupt records are an error.
	Get(id string) (*entity.Conversation, error)

	// Append loads the persisted conversation, appends turn and persists
	// the result in one uninterrupted step. A missing record is lazily
	// created, which self-heals a dangling current-conversation pointer.
	Append(id string, turn entity.Turn) (*entity.Conversation, error)

	// AppendExisting is Append without lazy creation: appending to a
	// deleted conversation fails with entity.ErrConversationNotFound.
	// Used for bot replies so a stale reply cannot resurrect a deleted
	// conversation.
	AppendExisting(id string, turn entity.Turn) (*entity.Conversation, error)

	// RemoveLastTurn removes the trailing turn iff its sender matches.
	// Reports whether a turn was removed.
	RemoveLastTurn(id string, sender entity.Sender) (*entity.Conversation, bool, error)

	// Delete removes the record. It never touches the session pointer;
	// clearing a current-conversation pointer is the caller's job.
	Delete(id string) error

	// ListGroupedByRecency buckets all conversations by age relative to
	// now: Today, Yesterday, This Week, This Month, then one group per
	// locale date. Within a bucket conversations are newest first.
	ListGroupedByRecency(now time.Time) ([]entity.ConversationGroup, error)
}
