package storage

import (
	"github.com/yourusername/health-chat-assistant/internal/domain/entity"
	"github.com/yourusername/health-chat-assistant/internal/domain/repository"
)

// Storage keys shared with the conversation records. The names are part
// of the persisted-layout contract.
const (
	lastActiveKey = "lastActiveConversation"
	languageKey   = "selectedLanguage"
	themeKey      = "theme"
)

type kvSettingsRepository struct {
	store repository.KVStore
}

// NewSettingsRepository creates a settings repository on the shared store.
func NewSettingsRepository(store repository.KVStore) repository.SettingsRepository {
	return &kvSettingsRepository{store: store}
}

// LastActiveConversation returns the last-active conversation pointer.
func (s *kvSettingsRepository) LastActiveConversation() (string, bool) {
	return s.store.Get(lastActiveKey)
}

// SetLastActiveConversation persists the pointer.
func (s *kvSettingsRepository) SetLastActiveConversation(id string) error {
	return s.store.Set(lastActiveKey, id)
}

// ClearLastActiveConversation removes the pointer.
func (s *kvSettingsRepository) ClearLastActiveConversation() error {
	return s.store.Remove(lastActiveKey)
}

// SelectedLanguage returns the persisted UI language.
func (s *kvSettingsRepository) SelectedLanguage() (string, bool) {
	return s.store.Get(languageKey)
}

// SetSelectedLanguage persists the UI language.
func (s *kvSettingsRepository) SetSelectedLanguage(code string) error {
	return s.store.Set(languageKey, code)
}

// Theme returns the persisted theme, defaulting to light.
func (s *kvSettingsRepository) Theme() string {
	theme, ok := s.store.Get(themeKey)
	if !ok {
		return entity.ThemeLight
	}
	return theme
}

// SetTheme persists the theme.
func (s *kvSettingsRepository) SetTheme(theme string) error {
	return s.store.Set(themeKey, theme)
}
