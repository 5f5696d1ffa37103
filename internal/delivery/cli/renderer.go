package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/yourusername/health-chat-assistant/internal/domain/entity"
	"github.com/yourusername/health-chat-assistant/internal/domain/repository"
)

// Renderer is the terminal render sink: it prints appended turns, the
// grouped conversation list and error banners.
type Renderer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

var _ repository.RenderSink = (*Renderer)(nil)

// OnTurnAppended prints one transcript line.
func (r *Renderer) OnTurnAppended(conversation *entity.Conversation, turn entity.Turn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	label := "you"
	if turn.Sender == entity.SenderBot {
		label = "bot"
	}
	if turn.IsAudio {
		fmt.Fprintf(r.out, "[%s] (audio) %s\n", label, turn.Text)
		return
	}
	fmt.Fprintf(r.out, "[%s] %s\n", label, turn.Text)
}

// OnConversationListChanged prints the grouped sidebar list.
func (r *Renderer) OnConversationListChanged(groups []entity.ConversationGroup) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, group := range groups {
		fmt.Fprintf(r.out, "-- %s\n", group.Label)
		for _, conversation := range group.Conversations {
			fmt.Fprintf(r.out, "   %s  %s\n", conversation.ID, conversation.Title())
		}
	}
}

// OnError prints an error banner with the retry hint.
func (r *Renderer) OnError(kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "!! %s error: %s (use /retry)\n", kind, message)
}
