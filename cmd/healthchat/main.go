package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/health-chat-assistant/config"
	"github.com/yourusername/health-chat-assistant/internal/delivery/cli"
	"github.com/yourusername/health-chat-assistant/internal/domain/repository"
	"github.com/yourusername/health-chat-assistant/internal/infrastructure/assistant"
	"github.com/yourusername/health-chat-assistant/internal/infrastructure/exporter"
	"github.com/yourusername/health-chat-assistant/internal/infrastructure/storage"
	"github.com/yourusername/health-chat-assistant/internal/usecase"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer store.Close()

	conversations := storage.NewConversationRepository(store)
	settings := storage.NewSettingsRepository(store)
	client := assistant.NewClient(cfg.AssistantBaseURL, cfg.RequestTimeout)

	renderer := cli.NewRenderer(os.Stdout)
	session := usecase.NewSession(cfg.DefaultLanguage)

	chatUC := usecase.NewChatUseCase(client, conversations, settings, renderer, session)
	sessionUC := usecase.NewSessionUseCase(conversations, settings, renderer, session)
	translateUC := usecase.NewTranslateUseCase(client)

	handler := cli.NewHandler(chatUC, sessionUC, session, translateUC, exporter.NewExcelExporter(), renderer, os.Stdin, os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		cancel()
	}()

	if err := handler.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("session ended with error")
	}
}

func openStore(cfg *config.Config) (repository.KVStore, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return storage.NewMemoryStore(cfg.StoreQuotaBytes), nil
	case config.BackendBolt:
		return storage.NewBoltStore(cfg.ChatDBPath)
	default:
		return storage.NewSQLiteStore(cfg.ChatDBPath)
	}
}
