package repository

// SettingsRepository persists the small UI settings that live next to the
// conversation records: the last-active conversation pointer, the
// selected language and the theme.
type SettingsRepository interface {
	LastActiveConversation() (string, bool)
	SetLastActiveConversation(id string) error
	ClearLastActiveConversation() error

	SelectedLanguage() (string, bool)
	SetSelectedLanguage(code string) error

	Theme() string
	SetTheme(theme string) error
}
