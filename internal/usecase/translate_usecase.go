package usecase

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/health-chat-assistant/internal/domain/repository"
)

// TranslateUseCase translates displayed text between UI languages.
type TranslateUseCase interface {
	// Translate returns text translated from srcLang to destLang. A
	// translation failure falls back to the original text rather than
	// blocking the UI; it is logged, never surfaced as an error.
	Translate(ctx context.Context, text, srcLang, destLang string) string
}

type translateUseCase struct {
	assistant repository.AssistantRepository
	logger    zerolog.Logger
}

// NewTranslateUseCase creates the translation usecase.
func NewTranslateUseCase(assistant repository.AssistantRepository) TranslateUseCase {
	return &translateUseCase{
		assistant: assistant,
		logger:    log.With().Str("component", "translate").Logger(),
	}
}

// Translate translates text, falling back to the original on failure.
func (u *translateUseCase) Translate(ctx context.Context, text, srcLang, destLang string) string {
	translated, err := u.assistant.Translate(ctx, text, srcLang, destLang)
	if err != nil {
		u.logger.Warn().Err(err).Msg("translation failed, showing original text")
		return text
	}
	return translated
}
