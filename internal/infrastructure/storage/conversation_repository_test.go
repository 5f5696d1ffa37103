package storage

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/health-chat-assistant/internal/domain/entity"
)

func newTestRepository(now func() time.Time) (*kvConversationRepository, *kvSettingsRepository) {
	store := NewMemoryStore(0)
	repo := &kvConversationRepository{store: store, now: now}
	settings := &kvSettingsRepository{store: store}
	return repo, settings
}

func fixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCreateAllocatesMillisecondID(t *testing.T) {
	createdAt := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	repo, _ := newTestRepository(fixedTime(createdAt))

	conversation, err := repo.Create()
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(createdAt.UnixMilli(), 10), conversation.ID)
	assert.Empty(t, conversation.Messages)

	// Persisted immediately.
	loaded, err := repo.Get(conversation.ID)
	require.NoError(t, err)
	assert.True(t, loaded.CreatedAt.Equal(createdAt))
}

func TestAppendKeepsConversationsIsolated(t *testing.T) {
	repo, _ := newTestRepository(time.Now)

	a, err := repo.Create()
	require.NoError(t, err)
	b := a.ID + "-other"
	_, err = repo.Append(b, entity.Turn{Sender: entity.SenderUser, Text: "b1"})
	require.NoError(t, err)

	// Interleave appends across the two ids.
	_, err = repo.Append(a.ID, entity.Turn{Sender: entity.SenderUser, Text: "a1"})
	require.NoError(t, err)
	_, err = repo.Append(b, entity.Turn{Sender: entity.SenderBot, Text: "b2"})
	require.NoError(t, err)
	_, err = repo.Append(a.ID, entity.Turn{Sender: entity.SenderBot, Text: "a2"})
	require.NoError(t, err)

	loadedA, err := repo.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, turnTexts(loadedA))

	loadedB, err := repo.Get(b)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b2"}, turnTexts(loadedB))
}

func TestAppendLazilyCreatesMissingRecord(t *testing.T) {
	repo, _ := newTestRepository(time.Now)

	conversation, err := repo.Append("dangling", entity.Turn{Sender: entity.SenderUser, Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "dangling", conversation.ID)
	assert.Equal(t, []string{"hi"}, turnTexts(conversation))
}

func TestAppendExistingRefusesMissingRecord(t *testing.T) {
	repo, _ := newTestRepository(time.Now)

	_, err := repo.AppendExisting("deleted", entity.Turn{Sender: entity.SenderBot, Text: "stale"})
	require.ErrorIs(t, err, entity.ErrConversationNotFound)

	// Nothing was resurrected.
	_, err = repo.Get("deleted")
	assert.ErrorIs(t, err, entity.ErrConversationNotFound)
}

func TestRemoveLastTurnMatchesSender(t *testing.T) {
	repo, _ := newTestRepository(time.Now)

	conversation, err := repo.Create()
	require.NoError(t, err)
	_, err = repo.Append(conversation.ID, entity.Turn{Sender: entity.SenderUser, Text: "q"})
	require.NoError(t, err)
	_, err = repo.Append(conversation.ID, entity.Turn{Sender: entity.SenderBot, Text: "a"})
	require.NoError(t, err)

	// Trailing turn is the bot's, so removing a user turn is a no-op.
	updated, removed, err := repo.RemoveLastTurn(conversation.ID, entity.SenderUser)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, []string{"q", "a"}, turnTexts(updated))

	updated, removed, err = repo.RemoveLastTurn(conversation.ID, entity.SenderBot)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []string{"q"}, turnTexts(updated))

	// Removal persisted.
	loaded, err := repo.Get(conversation.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"q"}, turnTexts(loaded))
}

func TestDeleteDoesNotClearLastActivePointer(t *testing.T) {
	repo, settings := newTestRepository(time.Now)

	conversation, err := repo.Create()
	require.NoError(t, err)
	require.NoError(t, settings.SetLastActiveConversation(conversation.ID))

	require.NoError(t, repo.Delete(conversation.ID))

	_, err = repo.Get(conversation.ID)
	assert.ErrorIs(t, err, entity.ErrConversationNotFound)

	// The repository never touches the pointer; the caller owns it.
	pointer, ok := settings.LastActiveConversation()
	assert.True(t, ok)
	assert.Equal(t, conversation.ID, pointer)

	groups, err := repo.ListGroupedByRecency(time.Now())
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestListGroupsByRecencyBuckets(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	repo, _ := newTestRepository(time.Now)

	ages := map[string]time.Duration{
		"today":      2 * time.Hour,
		"yesterday":  26 * time.Hour,
		"this week":  3 * 24 * time.Hour,
		"this month": 8 * 24 * time.Hour,
		"older":      40 * 24 * time.Hour,
	}
	for name, age := range ages {
		repo.now = fixedTime(now.Add(-age))
		conversation, err := repo.Create()
		require.NoError(t, err)
		_, err = repo.Append(conversation.ID, entity.Turn{Sender: entity.SenderUser, Text: name})
		require.NoError(t, err)
	}

	groups, err := repo.ListGroupedByRecency(now)
	require.NoError(t, err)

	labels := make([]string, len(groups))
	for i, group := range groups {
		labels[i] = group.Label
	}
	assert.Equal(t, []string{"Today", "Yesterday", "This Week", "This Month", "7/19/2026"}, labels)

	assert.Equal(t, "today", groups[0].Conversations[0].Title())
	assert.Equal(t, "yesterday", groups[1].Conversations[0].Title())
	assert.Equal(t, "this week", groups[2].Conversations[0].Title())
	assert.Equal(t, "this month", groups[3].Conversations[0].Title())
	assert.Equal(t, "older", groups[4].Conversations[0].Title())
}

func TestListOrdersNewestFirstWithinBucket(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	repo, _ := newTestRepository(time.Now)

	repo.now = fixedTime(now.Add(-3 * time.Hour))
	older, err := repo.Create()
	require.NoError(t, err)
	repo.now = fixedTime(now.Add(-1 * time.Hour))
	newer, err := repo.Create()
	require.NoError(t, err)

	groups, err := repo.ListGroupedByRecency(now)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Conversations, 2)
	assert.Equal(t, newer.ID, groups[0].Conversations[0].ID)
	assert.Equal(t, older.ID, groups[0].Conversations[1].ID)
}

func TestListSkipsCorruptRecords(t *testing.T) {
	repo, _ := newTestRepository(time.Now)

	conversation, err := repo.Create()
	require.NoError(t, err)

	require.NoError(t, repo.store.Set("conversation_bad", "{not json"))
	require.NoError(t, repo.store.Set("conversation_noid", `{"id":"","messages":[],"timestamp":"2026-08-28T10:00:00Z"}`))
	// Keys outside the conversation prefix are ignored entirely.
	require.NoError(t, repo.store.Set("selectedLanguage", "en"))

	groups, err := repo.ListGroupedByRecency(time.Now())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Conversations, 1)
	assert.Equal(t, conversation.ID, groups[0].Conversations[0].ID)
}

func turnTexts(conversation *entity.Conversation) []string {
	texts := make([]string, len(conversation.Messages))
	for i, turn := range conversation.Messages {
		texts[i] = turn.Text
	}
	return texts
}
