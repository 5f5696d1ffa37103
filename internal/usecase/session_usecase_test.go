package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/health-chat-assistant/internal/domain/entity"
	"github.com/yourusername/health-chat-assistant/internal/infrastructure/storage"
)

func TestRestoreReplaysLastActiveConversation(t *testing.T) {
	store := storage.NewMemoryStore(0)

	// Seed the store the way a previous session would have left it.
	seed := storage.NewConversationRepository(store)
	conversation, err := seed.Create()
	require.NoError(t, err)
	_, err = seed.Append(conversation.ID, entity.Turn{Sender: entity.SenderUser, Text: "Hello"})
	require.NoError(t, err)
	_, err = seed.Append(conversation.ID, entity.Turn{Sender: entity.SenderBot, Text: "Hi there"})
	require.NoError(t, err)

	settings := storage.NewSettingsRepository(store)
	require.NoError(t, settings.SetLastActiveConversation(conversation.ID))
	require.NoError(t, settings.SetSelectedLanguage("ak"))

	f := newFixtureWithStore(t, &fakeAssistant{}, store)
	require.NoError(t, f.sessions.Restore())

	assert.Equal(t, conversation.ID, f.session.CurrentConversationID())
	assert.Equal(t, "ak", f.session.Language())

	require.Len(t, f.sink.appended, 2)
	assert.Equal(t, "Hello", f.sink.appended[0].turn.Text)
	assert.Equal(t, "Hi there", f.sink.appended[1].turn.Text)
}

func TestRestoreKeepsDanglingPointer(t *testing.T) {
	store := storage.NewMemoryStore(0)
	settings := storage.NewSettingsRepository(store)
	require.NoError(t, settings.SetLastActiveConversation("1700000000000"))

	f := newFixtureWithStore(t, &fakeAssistant{results: []assistantResult{{reply: "Hi there"}}}, store)
	require.NoError(t, f.sessions.Restore())

	// Nothing to replay, but the pointer survives and the next append
	// recreates the record under the same id.
	assert.Equal(t, "1700000000000", f.session.CurrentConversationID())
	assert.Empty(t, f.sink.appended)

	require.NoError(t, f.chat.Send(context.Background(), "Hello"))
	conversation, err := f.repo.Get("1700000000000")
	require.NoError(t, err)
	assert.Len(t, conversation.Messages, 2)
}

func TestStartNewClearsPointerAndRetryableAction(t *testing.T) {
	assistant := &fakeAssistant{results: []assistantResult{
		{err: &entity.RemoteError{Kind: "chat", Message: "boom"}},
	}}
	f := newFixture(t, assistant)

	_ = f.chat.Send(context.Background(), "Hello")
	require.NotEmpty(t, f.session.CurrentConversationID())

	f.sessions.StartNew()

	assert.Empty(t, f.session.CurrentConversationID())
	require.NoError(t, f.chat.Retry(context.Background()))
	assert.Len(t, assistant.chatCalls(), 1)
}

func TestSelectReplaysTranscript(t *testing.T) {
	f := newFixture(t, &fakeAssistant{})

	conversation, err := f.repo.Create()
	require.NoError(t, err)
	_, err = f.repo.Append(conversation.ID, entity.Turn{Sender: entity.SenderUser, Text: "older question"})
	require.NoError(t, err)

	require.NoError(t, f.sessions.Select(conversation.ID))

	assert.Equal(t, conversation.ID, f.session.CurrentConversationID())
	require.Len(t, f.sink.appended, 1)
	assert.Equal(t, "older question", f.sink.appended[0].turn.Text)
}

func TestSelectUnknownConversation(t *testing.T) {
	f := newFixture(t, &fakeAssistant{})

	err := f.sessions.Select("missing")
	assert.ErrorIs(t, err, entity.ErrConversationNotFound)
	assert.Empty(t, f.session.CurrentConversationID())
}

func TestDeleteClearsPointerOnlyWhenCurrent(t *testing.T) {
	assistant := &fakeAssistant{results: []assistantResult{
		{reply: "first"},
		{reply: "second"},
	}}
	f := newFixture(t, assistant)

	require.NoError(t, f.chat.Send(context.Background(), "question one"))
	first := f.session.CurrentConversationID()

	f.sessions.StartNew()
	// Ids have millisecond resolution; step past the first one.
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, f.chat.Send(context.Background(), "question two"))
	second := f.session.CurrentConversationID()
	require.NotEqual(t, first, second)

	require.NoError(t, f.sessions.Delete(first))
	assert.Equal(t, second, f.session.CurrentConversationID())

	require.NoError(t, f.sessions.Delete(second))
	assert.Empty(t, f.session.CurrentConversationID())

	// Deleting the current conversation drops the persisted pointer too.
	_, ok := f.settings.LastActiveConversation()
	assert.False(t, ok)
}

func TestPersistPointerSkipsEmptyPointer(t *testing.T) {
	f := newFixture(t, &fakeAssistant{})
	require.NoError(t, f.settings.SetLastActiveConversation("1700000000000"))

	require.NoError(t, f.sessions.PersistPointer())

	// The previous pointer is still there for the next startup.
	pointer, ok := f.settings.LastActiveConversation()
	assert.True(t, ok)
	assert.Equal(t, "1700000000000", pointer)
}

func TestSetLanguagePersistsImmediately(t *testing.T) {
	f := newFixture(t, &fakeAssistant{})

	require.NoError(t, f.sessions.SetLanguage("ak"))

	assert.Equal(t, "ak", f.session.Language())
	code, ok := f.settings.SelectedLanguage()
	assert.True(t, ok)
	assert.Equal(t, "ak", code)
}

func TestToggleTheme(t *testing.T) {
	f := newFixture(t, &fakeAssistant{})
	assert.Equal(t, entity.ThemeLight, f.settings.Theme())

	theme, err := f.sessions.ToggleTheme()
	require.NoError(t, err)
	assert.Equal(t, entity.ThemeDark, theme)
	assert.Equal(t, entity.ThemeDark, f.settings.Theme())

	theme, err = f.sessions.ToggleTheme()
	require.NoError(t, err)
	assert.Equal(t, entity.ThemeLight, theme)
}
