package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyMessage rejects a submission that is empty after trimming.
	// Local validation only, no network call is made.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrStorageFull signals that the persistent store quota is exceeded.
	// Propagated to the caller, never retried automatically.
	ErrStorageFull = errors.New("storage quota exceeded")

	// ErrConversationNotFound signals a missing backing record where lazy
	// creation is not allowed.
	ErrConversationNotFound = errors.New("conversation not found")
)

// RemoteError is a failed remote service call: non-ok status, an error
// payload, or an empty reply.
type RemoteError struct {
	Kind    string // "chat", "translate", "transcription"
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s request failed: %s", e.Kind, e.Message)
}
