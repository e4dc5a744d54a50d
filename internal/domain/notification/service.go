package notification

import (
	"context"
)

// Dispatcher accepts messages for asynchronous delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, organizationID string, msg Message, actingUserID, requestID string) error
}

// Channel delivers a single message to a single recipient (email, in-app push).
type Channel interface {
	Name() string
	Deliver(ctx context.Context, d Delivery) error
}

// Service defines the notification service interface
type Service interface {
	Dispatcher

	// Subscribe streams in-app deliveries for a user until cancel is called.
	Subscribe(userID string) (<-chan Delivery, func())

	// Lifecycle
	Stop()
}
