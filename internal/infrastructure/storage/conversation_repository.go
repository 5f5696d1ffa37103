package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yourusername/health-chat-assistant/internal/domain/entity"
	"github.com/yourusername/health-chat-assistant/internal/domain/repository"
)

const conversationKeyPrefix = "conversation_"

// Fixed bucket order for the conversation list; date-labelled groups
// follow these.
var recencyBuckets = []string{"Today", "Yesterday", "This Week", "This Month"}

type kvConversationRepository struct {
	store repository.KVStore
	now   func() time.Time
}

// NewConversationRepository creates a conversation repository on top of a
// key-value store. Records live under conversation_<id> keys.
func NewConversationRepository(store repository.KVStore) repository.ConversationRepository {
	return &kvConversationRepository{store: store, now: time.Now}
}

// Create allocates a fresh conversation and persists it immediately. Ids
// have millisecond resolution; a same-millisecond collision resolves by
// last-write-wins in the store.
func (r *kvConversationRepository) Create() (*entity.Conversation, error) {
	now := r.now()
	conversation := &entity.Conversation{
		ID:        strconv.FormatInt(now.UnixMilli(), 10),
		Messages:  []entity.Turn{},
		CreatedAt: now,
	}
	if err := r.save(conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

// Get loads one conversation record.
func (r *kvConversationRepository) Get(id string) (*entity.Conversation, error) {
	raw, ok := r.store.Get(conversationKeyPrefix + id)
	if !ok {
		return nil, entity.ErrConversationNotFound
	}
	var conversation entity.Conversation
	if err := json.Unmarshal([]byte(raw), &conversation); err != nil {
		return nil, fmt.Errorf("failed to decode conversation %s: %w", id, err)
	}
	return &conversation, nil
}

// Append loads the persisted conversation, appends turn and persists the
// result. The read-modify-write runs synchronously in one step, so
// overlapping remote calls can never observe a half-applied append.
// A missing record is lazily recreated, which self-heals a dangling
// current-conversation pointer.
func (r *kvConversationRepository) Append(id string, turn entity.Turn) (*entity.Conversation, error) {
	return r.append(id, turn, true)
}

// AppendExisting appends without lazy creation. A stale reply targeting a
// deleted conversation fails with entity.ErrConversationNotFound instead
// of resurrecting the record.
func (r *kvConversationRepository) AppendExisting(id string, turn entity.Turn) (*entity.Conversation, error) {
	return r.append(id, turn, false)
}

func (r *kvConversationRepository) append(id string, turn entity.Turn, createMissing bool) (*entity.Conversation, error) {
	conversation, err := r.Get(id)
	if err != nil {
		if !createMissing {
			return nil, err
		}
		conversation = &entity.Conversation{
			ID:        id,
			Messages:  []entity.Turn{},
			CreatedAt: r.now(),
		}
	}

	conversation.Messages = append(conversation.Messages, turn)
	if err := r.save(conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

// RemoveLastTurn removes the trailing turn iff its sender matches. Edits
// and regeneration are modelled as remove-then-append pairs; turns are
// never rewritten in place.
func (r *kvConversationRepository) RemoveLastTurn(id string, sender entity.Sender) (*entity.Conversation, bool, error) {
	conversation, err := r.Get(id)
	if err != nil {
		return nil, false, err
	}

	n := len(conversation.Messages)
	if n == 0 || conversation.Messages[n-1].Sender != sender {
		return conversation, false, nil
	}

	conversation.Messages = conversation.Messages[:n-1]
	if err := r.save(conversation); err != nil {
		return nil, false, err
	}
	return conversation, true, nil
}

// Delete removes the record. The session pointer is deliberately left
// alone; the caller clears it when the deleted conversation was current.
func (r *kvConversationRepository) Delete(id string) error {
	return r.store.Remove(conversationKeyPrefix + id)
}

// ListGroupedByRecency reads all persisted conversations and groups them
// into recency buckets relative to now. Corrupt records are skipped with
// a warning rather than failing the whole list.
func (r *kvConversationRepository) ListGroupedByRecency(now time.Time) ([]entity.ConversationGroup, error) {
	keys, err := r.store.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list store keys: %w", err)
	}

	grouped := make(map[string][]*entity.Conversation)
	var dateLabels []string
	for _, key := range keys {
		if !strings.HasPrefix(key, conversationKeyPrefix) {
			continue
		}
		conversation, err := r.Get(strings.TrimPrefix(key, conversationKeyPrefix))
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("skipping corrupt conversation record")
			continue
		}
		label := groupLabel(now, conversation.CreatedAt)
		if _, ok := grouped[label]; !ok && !isRecencyBucket(label) {
			dateLabels = append(dateLabels, label)
		}
		grouped[label] = append(grouped[label], conversation)
	}

	// Date-labelled groups follow the fixed buckets, newest label first.
	sort.Slice(dateLabels, func(i, j int) bool {
		return grouped[dateLabels[i]][0].CreatedAt.After(grouped[dateLabels[j]][0].CreatedAt)
	})

	var groups []entity.ConversationGroup
	for _, label := range append(append([]string{}, recencyBuckets...), dateLabels...) {
		conversations, ok := grouped[label]
		if !ok {
			continue
		}
		sort.SliceStable(conversations, func(i, j int) bool {
			return conversations[i].CreatedAt.After(conversations[j].CreatedAt)
		})
		groups = append(groups, entity.ConversationGroup{Label: label, Conversations: conversations})
	}
	return groups, nil
}

func (r *kvConversationRepository) save(conversation *entity.Conversation) error {
	raw, err := json.Marshal(conversation)
	if err != nil {
		return fmt.Errorf("failed to encode conversation %s: %w", conversation.ID, err)
	}
	if err := r.store.Set(conversationKeyPrefix+conversation.ID, string(raw)); err != nil {
		return fmt.Errorf("failed to persist conversation %s: %w", conversation.ID, err)
	}
	return nil
}

func groupLabel(now, createdAt time.Time) string {
	days := int(now.Sub(createdAt).Hours() / 24)
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return "This Week"
	case days < 30:
		return "This Month"
	default:
		return createdAt.Format("1/2/2006")
	}
}

func isRecencyBucket(label string) bool {
	for _, bucket := range recencyBuckets {
		if bucket == label {
			return true
		}
	}
	return false
}
