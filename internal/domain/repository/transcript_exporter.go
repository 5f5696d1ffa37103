package repository

import "github.com/yourusername/health-chat-assistant/internal/domain/entity"

// TranscriptExporter writes a conversation transcript to a file.
type TranscriptExporter interface {
	// ExportTranscript writes the conversation's turns to path and
	// returns the number of exported turns.
	ExportTranscript(conversation *entity.Conversation, path string) (int, error)
}
