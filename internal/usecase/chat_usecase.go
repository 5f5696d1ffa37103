package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/health-chat-assistant/internal/domain/entity"
	"github.com/yourusername/health-chat-assistant/internal/domain/repository"
)

// regeneratePrefix derives the prompt used when the user asks for a
// different response.
const regeneratePrefix = "I want a different response to: "

// ChatUseCase drives one user-initiated turn through the
// Idle -> Sending -> Succeeded/Failed machine.
type ChatUseCase interface {
	// Send validates and submits a text message to the assistant.
	Send(ctx context.Context, text string) error

	// SendAudio transcribes recorded audio, then routes the transcript
	// through the same path as Send.
	SendAudio(ctx context.Context, audio []byte) error

	// Edit replaces the trailing user turn with newText and resubmits.
	Edit(ctx context.Context, newText string) error

	// Regenerate drops the trailing bot turn and asks for a new response.
	Regenerate(ctx context.Context) error

	// Retry replays the last failed submission without re-appending the
	// user turn.
	Retry(ctx context.Context) error
}

type chatUseCase struct {
	assistant     repository.AssistantRepository
	conversations repository.ConversationRepository
	settings      repository.SettingsRepository
	sink          repository.RenderSink
	session       *Session
	logger        zerolog.Logger
}

// NewChatUseCase creates the turn controller.
func NewChatUseCase(
	assistant repository.AssistantRepository,
	conversations repository.ConversationRepository,
	settings repository.SettingsRepository,
	sink repository.RenderSink,
	session *Session,
) ChatUseCase {
	return &chatUseCase{
		assistant:     assistant,
		conversations: conversations,
		settings:      settings,
		sink:          sink,
		session:       session,
		logger:        log.With().Str("component", "chat").Logger(),
	}
}

// Send submits a text message. Empty input after trimming is rejected
// locally: no network call, no error banner.
func (u *chatUseCase) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return entity.ErrEmptyMessage
	}
	return u.submit(ctx, entity.Turn{Sender: entity.SenderUser, Text: text})
}

// SendAudio runs the transcription call first; a transcription failure is
// surfaced without ever issuing the chat call.
func (u *chatUseCase) SendAudio(ctx context.Context, audio []byte) error {
	transcript, err := u.assistant.Transcribe(ctx, audio, u.session.Language())
	if err != nil {
		u.surface("transcription", err)
		return err
	}

	return u.submit(ctx, entity.Turn{
		Sender:        entity.SenderUser,
		Text:          transcript,
		IsAudio:       true,
		AttachmentRef: uuid.New().String(),
	})
}

// submit appends the user turn, records the retryable action and enters
// Sending with the conversation id captured now.
func (u *chatUseCase) submit(ctx context.Context, turn entity.Turn) error {
	convID, action, err := u.beginTurn(turn)
	if err != nil {
		u.surface("storage", err)
		return err
	}
	return u.dispatch(ctx, convID, action)
}

// beginTurn is the synchronous entry step. Everything here runs under the
// session lock as one uninterrupted read-modify-write, so an overlapping
// operation can never observe a half-applied append.
func (u *chatUseCase) beginTurn(turn entity.Turn) (string, *entity.LastAction, error) {
	u.session.mu.Lock()
	defer u.session.mu.Unlock()

	convID := u.session.state.CurrentConversationID
	if convID == "" {
		conversation, err := u.conversations.Create()
		if err != nil {
			return "", nil, err
		}
		convID = conversation.ID
		u.session.state.CurrentConversationID = convID
		if err := u.settings.SetLastActiveConversation(convID); err != nil {
			return "", nil, err
		}
	}

	conversation, err := u.conversations.Append(convID, turn)
	if err != nil {
		return "", nil, err
	}

	action := &entity.LastAction{Message: turn.Text, Language: u.session.state.Language}
	u.session.state.LastAction = action

	u.sink.OnTurnAppended(conversation, turn)
	u.notifyList()
	return convID, action, nil
}

// dispatch is the Sending phase. The remote call runs without the lock,
// so other user actions interleave freely until it completes; the reply
// is then routed to the conversation id captured at submission, not to
// whatever conversation is current by the time it arrives.
func (u *chatUseCase) dispatch(ctx context.Context, convID string, action *entity.LastAction) error {
	reply, err := u.assistant.GenerateReply(ctx, action.Message, action.Language)
	if err != nil {
		u.surface("chat", err)
		return err
	}
	return u.completeTurn(convID, reply, action)
}

// completeTurn appends the bot reply to the originating conversation. A
// reply whose conversation was deleted while the call was in flight is
// discarded rather than allowed to resurrect the record.
func (u *chatUseCase) completeTurn(convID, reply string, action *entity.LastAction) error {
	u.session.mu.Lock()

	turn := entity.Turn{Sender: entity.SenderBot, Text: reply}
	conversation, err := u.conversations.AppendExisting(convID, turn)
	if err != nil {
		u.session.mu.Unlock()
		if errors.Is(err, entity.ErrConversationNotFound) {
			u.logger.Warn().Str("conversation", convID).Msg("discarding reply for deleted conversation")
			return nil
		}
		u.surface("storage", err)
		return err
	}

	// The action stays retryable only while it is the most recent one.
	if u.session.state.LastAction == action {
		u.session.state.LastAction = nil
	}

	u.sink.OnTurnAppended(conversation, turn)
	u.notifyList()
	u.session.mu.Unlock()
	return nil
}

// Edit models delete-and-recreate edit semantics: the trailing bot turn
// is removed, the edited user turn is removed and re-appended with the
// new text, and a fresh chat request is issued. Text equal to the current
// trailing user turn is a no-op with no mutation and no request.
func (u *chatUseCase) Edit(ctx context.Context, newText string) error {
	newText = strings.TrimSpace(newText)
	if newText == "" {
		return entity.ErrEmptyMessage
	}

	u.session.mu.Lock()
	convID := u.session.state.CurrentConversationID
	if convID == "" {
		u.session.mu.Unlock()
		return entity.ErrConversationNotFound
	}

	conversation, err := u.conversations.Get(convID)
	if err != nil {
		u.session.mu.Unlock()
		return err
	}
	if last := lastTurnBy(conversation, entity.SenderUser); last != nil && last.Text == newText {
		u.session.mu.Unlock()
		return nil
	}

	if _, _, err := u.conversations.RemoveLastTurn(convID, entity.SenderBot); err != nil {
		u.session.mu.Unlock()
		return err
	}
	if _, _, err := u.conversations.RemoveLastTurn(convID, entity.SenderUser); err != nil {
		u.session.mu.Unlock()
		return err
	}

	turn := entity.Turn{Sender: entity.SenderUser, Text: newText}
	conversation, err = u.conversations.Append(convID, turn)
	if err != nil {
		u.session.mu.Unlock()
		u.surface("storage", err)
		return err
	}

	action := &entity.LastAction{Message: newText, Language: u.session.state.Language}
	u.session.state.LastAction = action
	u.sink.OnTurnAppended(conversation, turn)
	u.notifyList()
	u.session.mu.Unlock()

	return u.dispatch(ctx, convID, action)
}

// Regenerate removes the most recent bot turn and resubmits a derived
// prompt. The corresponding user turn stays, and the derived prompt is
// not appended as a new user turn.
func (u *chatUseCase) Regenerate(ctx context.Context) error {
	u.session.mu.Lock()
	convID := u.session.state.CurrentConversationID
	if convID == "" {
		u.session.mu.Unlock()
		return entity.ErrConversationNotFound
	}

	conversation, err := u.conversations.Get(convID)
	if err != nil {
		u.session.mu.Unlock()
		return err
	}
	last := lastTurnBy(conversation, entity.SenderBot)
	if last == nil || conversation.Messages[len(conversation.Messages)-1].Sender != entity.SenderBot {
		u.session.mu.Unlock()
		return nil
	}
	original := last.Text

	if _, _, err := u.conversations.RemoveLastTurn(convID, entity.SenderBot); err != nil {
		u.session.mu.Unlock()
		return err
	}

	// The derived prompt quotes the discarded response, matching the
	// regenerate affordance on a bot message.
	action := &entity.LastAction{
		Message:  regeneratePrefix + original,
		Language: u.session.state.Language,
	}
	u.session.state.LastAction = action
	u.notifyList()
	u.session.mu.Unlock()

	return u.dispatch(ctx, convID, action)
}

// Retry replays the last failed {message, language} pair. The user turn
// already exists, so only the remote call is repeated.
func (u *chatUseCase) Retry(ctx context.Context) error {
	u.session.mu.Lock()
	action := u.session.state.LastAction
	convID := u.session.state.CurrentConversationID
	u.session.mu.Unlock()

	if action == nil || convID == "" {
		return nil
	}
	return u.dispatch(ctx, convID, action)
}

// notifyList pushes the regrouped conversation list to the sink. Callers
// hold the session lock.
func (u *chatUseCase) notifyList() {
	groups, err := u.conversations.ListGroupedByRecency(time.Now())
	if err != nil {
		u.logger.Warn().Err(err).Msg("failed to rebuild conversation list")
		return
	}
	u.sink.OnConversationListChanged(groups)
}

func (u *chatUseCase) surface(kind string, err error) {
	var remote *entity.RemoteError
	if errors.As(err, &remote) {
		kind = remote.Kind
	}
	u.logger.Error().Err(err).Str("kind", kind).Msg("turn failed")
	u.sink.OnError(kind, err.Error())
}

func lastTurnBy(conversation *entity.Conversation, sender entity.Sender) *entity.Turn {
	for i := len(conversation.Messages) - 1; i >= 0; i-- {
		if conversation.Messages[i].Sender == sender {
			return &conversation.Messages[i]
		}
	}
	return nil
}
