package usecase

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/health-chat-assistant/internal/domain/entity"
	"github.com/yourusername/health-chat-assistant/internal/domain/repository"
)

// Session owns the mutable session state shared by the usecases. Every
// state transition runs while holding mu, so storage read-modify-writes
// are single uninterrupted steps; operations can only interleave around
// remote calls, which are made with the lock released.
type Session struct {
	mu    sync.Mutex
	state entity.SessionState
}

// NewSession creates session state with the given UI language.
func NewSession(language string) *Session {
	return &Session{state: entity.SessionState{Language: language}}
}

// Language returns the current UI language.
func (s *Session) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Language
}

// CurrentConversationID returns the current conversation pointer, empty
// when no conversation is current.
func (s *Session) CurrentConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CurrentConversationID
}

// SessionUseCase manages the conversation pointer lifecycle and the
// persisted UI settings.
type SessionUseCase interface {
	// Restore rehydrates the last active conversation and language from
	// the store and replays the transcript into the render sink.
	Restore() error

	// StartNew clears the current conversation pointer and the retryable
	// action; the next submission allocates a fresh conversation.
	StartNew()

	// Select makes a conversation current and replays its turns.
	Select(id string) error

	// Delete removes a conversation. The repository never clears the
	// session pointer itself, so this clears it when the deleted
	// conversation was current.
	Delete(id string) error

	// PersistPointer writes the last-active pointer on teardown.
	PersistPointer() error

	// SetLanguage switches the UI language and persists it immediately.
	SetLanguage(code string) error

	// ToggleTheme flips between light and dark and persists the choice.
	ToggleTheme() (string, error)

	// CurrentConversation loads the current conversation body.
	CurrentConversation() (*entity.Conversation, error)

	// RefreshList pushes the regrouped conversation list to the sink.
	RefreshList() error
}

type sessionUseCase struct {
	conversations repository.ConversationRepository
	settings      repository.SettingsRepository
	sink          repository.RenderSink
	session       *Session
	logger        zerolog.Logger
}

// NewSessionUseCase creates the session lifecycle usecase.
func NewSessionUseCase(
	conversations repository.ConversationRepository,
	settings repository.SettingsRepository,
	sink repository.RenderSink,
	session *Session,
) SessionUseCase {
	return &sessionUseCase{
		conversations: conversations,
		settings:      settings,
		sink:          sink,
		session:       session,
		logger:        log.With().Str("component", "session").Logger(),
	}
}

// Restore reads the last-active pointer and language. A pointer whose
// backing record is gone is kept: the next append lazily recreates it.
func (u *sessionUseCase) Restore() error {
	u.session.mu.Lock()

	if code, ok := u.settings.SelectedLanguage(); ok {
		u.session.state.Language = code
	}

	id, ok := u.settings.LastActiveConversation()
	if ok {
		u.session.state.CurrentConversationID = id
		if conversation, err := u.conversations.Get(id); err != nil {
			u.logger.Warn().Err(err).Str("conversation", id).Msg("last active conversation not restorable")
		} else {
			for _, turn := range conversation.Messages {
				u.sink.OnTurnAppended(conversation, turn)
			}
		}
	}
	u.session.mu.Unlock()

	return u.RefreshList()
}

// StartNew detaches the session from any conversation.
func (u *sessionUseCase) StartNew() {
	u.session.mu.Lock()
	defer u.session.mu.Unlock()

	u.session.state.CurrentConversationID = ""
	u.session.state.LastAction = nil
}

// Select makes id current and replays its transcript into the sink.
func (u *sessionUseCase) Select(id string) error {
	u.session.mu.Lock()
	defer u.session.mu.Unlock()

	conversation, err := u.conversations.Get(id)
	if err != nil {
		return err
	}

	u.session.state.CurrentConversationID = id
	for _, turn := range conversation.Messages {
		u.sink.OnTurnAppended(conversation, turn)
	}
	return nil
}

// Delete removes the record and clears the pointer when it was current.
func (u *sessionUseCase) Delete(id string) error {
	u.session.mu.Lock()
	if err := u.conversations.Delete(id); err != nil {
		u.session.mu.Unlock()
		return err
	}
	if u.session.state.CurrentConversationID == id {
		u.session.state.CurrentConversationID = ""
		u.session.state.LastAction = nil
		// Drop the persisted pointer too, otherwise the next startup
		// would recreate the deleted conversation through lazy append.
		if err := u.settings.ClearLastActiveConversation(); err != nil {
			u.session.mu.Unlock()
			return err
		}
	}
	u.session.mu.Unlock()

	return u.RefreshList()
}

// PersistPointer writes the current pointer for the next startup. An
// empty pointer leaves the previous value in place, matching the
// persist-on-unload behavior this models.
func (u *sessionUseCase) PersistPointer() error {
	u.session.mu.Lock()
	defer u.session.mu.Unlock()

	if u.session.state.CurrentConversationID == "" {
		return nil
	}
	return u.settings.SetLastActiveConversation(u.session.state.CurrentConversationID)
}

// SetLanguage persists the language immediately, not on teardown.
func (u *sessionUseCase) SetLanguage(code string) error {
	u.session.mu.Lock()
	defer u.session.mu.Unlock()

	u.session.state.Language = code
	return u.settings.SetSelectedLanguage(code)
}

// ToggleTheme flips the persisted theme and returns the new value.
func (u *sessionUseCase) ToggleTheme() (string, error) {
	next := entity.ThemeDark
	if u.settings.Theme() == entity.ThemeDark {
		next = entity.ThemeLight
	}
	if err := u.settings.SetTheme(next); err != nil {
		return "", err
	}
	return next, nil
}

// CurrentConversation loads the current conversation body from the store.
func (u *sessionUseCase) CurrentConversation() (*entity.Conversation, error) {
	u.session.mu.Lock()
	id := u.session.state.CurrentConversationID
	u.session.mu.Unlock()

	if id == "" {
		return nil, entity.ErrConversationNotFound
	}
	return u.conversations.Get(id)
}

// RefreshList regroups the stored conversations and notifies the sink.
func (u *sessionUseCase) RefreshList() error {
	groups, err := u.conversations.ListGroupedByRecency(time.Now())
	if err != nil {
		return err
	}
	u.sink.OnConversationListChanged(groups)
	return nil
}
