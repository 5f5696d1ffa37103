package entity

// LastAction is the most recent retryable user submission.
type LastAction struct {
	Message  string
	Language string
}

// SessionState tracks which conversation is current, the last failed
// action, and the UI language. It holds the current conversation id only,
// never the conversation body; bodies are always re-read from the store
// before mutation.
type SessionState struct {
	CurrentConversationID string
	LastAction            *LastAction
	Language              string
}

// Theme values persisted under the "theme" key.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)
