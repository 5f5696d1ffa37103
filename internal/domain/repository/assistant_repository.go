package repository

import "context"

// AssistantRepository is the remote assistant service boundary.
type AssistantRepository interface {
	// GenerateReply sends {message, language} to the chat endpoint and
	// returns the reply text. An error payload, a non-ok status or an
	// empty reply all yield a *entity.RemoteError.
	GenerateReply(ctx context.Context, message, language string) (string, error)

	// Translate sends text to the translate endpoint.
	Translate(ctx context.Context, text, srcLang, destLang string) (string, error)

	// Transcribe uploads recorded audio and returns the transcript.
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}
