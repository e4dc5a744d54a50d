package notification

import "errors"

// Notification domain errors
var (
	ErrNoRecipients    = errors.New("notification has no recipients")
	ErrUnknownTemplate = errors.New("unknown notification template")
	ErrStopped         = errors.New("notification service stopped")
)
