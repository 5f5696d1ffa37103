package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/health-chat-assistant/internal/domain/entity"
	"github.com/yourusername/health-chat-assistant/internal/domain/repository"
	"github.com/yourusername/health-chat-assistant/internal/usecase"
)

// Handler reads user input line by line and dispatches to the usecases.
// Plain lines are chat submissions; lines starting with / are commands.
type Handler struct {
	chat      usecase.ChatUseCase
	session   usecase.SessionUseCase
	state     *usecase.Session
	translate usecase.TranslateUseCase
	exporter  repository.TranscriptExporter
	renderer  *Renderer
	in        io.Reader
	out       io.Writer
	logger    zerolog.Logger

	// pending tracks in-flight submissions so Run can drain them before
	// persisting the pointer on shutdown.
	pending sync.WaitGroup
}

// NewHandler creates the input loop.
func NewHandler(
	chat usecase.ChatUseCase,
	session usecase.SessionUseCase,
	state *usecase.Session,
	translate usecase.TranslateUseCase,
	exporter repository.TranscriptExporter,
	renderer *Renderer,
	in io.Reader,
	out io.Writer,
) *Handler {
	return &Handler{
		chat:      chat,
		session:   session,
		state:     state,
		translate: translate,
		exporter:  exporter,
		renderer:  renderer,
		in:        in,
		out:       out,
		logger:    log.With().Str("component", "cli").Logger(),
	}
}

// Run restores the previous session, then processes input until /quit or
// EOF. The last-active pointer is persisted on the way out.
func (h *Handler) Run(ctx context.Context) error {
	if err := h.session.Restore(); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	h.welcome()

	scanner := bufio.NewScanner(h.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			break
		}
		if strings.HasPrefix(line, "/") {
			h.handleCommand(ctx, line)
			continue
		}

		// Submissions run like the browser's async fetch: the loop stays
		// responsive while the reply is in flight, and failures surface
		// through the render sink.
		h.pending.Add(1)
		go func(text string) {
			defer h.pending.Done()
			_ = h.chat.Send(ctx, text)
		}(line)
	}

	h.pending.Wait()
	if err := h.session.PersistPointer(); err != nil {
		return fmt.Errorf("failed to persist session pointer: %w", err)
	}
	return scanner.Err()
}

func (h *Handler) handleCommand(ctx context.Context, line string) {
	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case "/new":
		h.session.StartNew()
		h.welcome()
	case "/list":
		if err := h.session.RefreshList(); err != nil {
			h.renderer.OnError("storage", err.Error())
		}
	case "/select":
		if err := h.session.Select(arg); err != nil {
			h.renderer.OnError("storage", err.Error())
		}
	case "/delete":
		if err := h.session.Delete(arg); err != nil {
			h.renderer.OnError("storage", err.Error())
		}
	case "/edit":
		h.pending.Add(1)
		go func() {
			defer h.pending.Done()
			_ = h.chat.Edit(ctx, arg)
		}()
	case "/regen":
		h.pending.Add(1)
		go func() {
			defer h.pending.Done()
			_ = h.chat.Regenerate(ctx)
		}()
	case "/retry":
		h.pending.Add(1)
		go func() {
			defer h.pending.Done()
			_ = h.chat.Retry(ctx)
		}()
	case "/audio":
		audio, err := os.ReadFile(arg)
		if err != nil {
			h.renderer.OnError("transcription", fmt.Sprintf("failed to read audio file: %v", err))
			return
		}
		h.pending.Add(1)
		go func() {
			defer h.pending.Done()
			_ = h.chat.SendAudio(ctx, audio)
		}()
	case "/lang":
		if err := h.session.SetLanguage(arg); err != nil {
			h.renderer.OnError("storage", err.Error())
			return
		}
		h.welcome()
	case "/theme":
		theme, err := h.session.ToggleTheme()
		if err != nil {
			h.renderer.OnError("storage", err.Error())
			return
		}
		fmt.Fprintf(h.out, "theme: %s\n", theme)
	case "/translate":
		h.translateLastReply(ctx, arg)
	case "/export":
		h.export(arg)
	default:
		fmt.Fprintf(h.out, "unknown command %s\n", command)
	}
}

// translateLastReply translates the trailing bot turn into destLang and
// prints the result without touching the stored transcript.
func (h *Handler) translateLastReply(ctx context.Context, destLang string) {
	conversation, err := h.session.CurrentConversation()
	if err != nil {
		h.renderer.OnError("translate", "no conversation to translate")
		return
	}
	for i := len(conversation.Messages) - 1; i >= 0; i-- {
		if conversation.Messages[i].Sender == entity.SenderBot {
			translated := h.translate.Translate(ctx, conversation.Messages[i].Text, "auto", destLang)
			fmt.Fprintf(h.out, "[bot, %s] %s\n", destLang, translated)
			return
		}
	}
	h.renderer.OnError("translate", "no bot reply to translate")
}

func (h *Handler) export(path string) {
	if path == "" {
		path = "transcript.xlsx"
	}
	conversation, err := h.session.CurrentConversation()
	if err != nil {
		h.renderer.OnError("storage", "no conversation to export")
		return
	}
	count, err := h.exporter.ExportTranscript(conversation, path)
	if err != nil {
		h.renderer.OnError("storage", err.Error())
		return
	}
	fmt.Fprintf(h.out, "exported %d turns to %s\n", count, path)
}

// welcome prints the greeting in the current UI language. It is shown
// only, never persisted as a turn.
func (h *Handler) welcome() {
	message := "Welcome! How may I assist you?"
	if h.state.Language() != "en" {
		message = "Akwaaba! Mɛyɛ dɛn aboa wo?"
	}
	fmt.Fprintf(h.out, "[bot] %s\n", message)
}
