package notification

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/leave-engine/internal/domain/notification"
	"github.com/cmlabs-hris/leave-engine/internal/domain/user"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/email"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/sse"
)

// EmailChannel mails a delivery to the address the user directory holds for its recipient.
type EmailChannel struct {
	users  user.Directory
	mailer email.EmailService
}

func NewEmailChannel(users user.Directory, mailer email.EmailService) *EmailChannel {
	return &EmailChannel{users: users, mailer: mailer}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Deliver(ctx context.Context, d notification.Delivery) error {
	recipient, err := c.users.GetByID(ctx, d.RecipientID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient %s: %w", d.RecipientID, err)
	}
	if recipient.Email == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.mailer.SendNotification(recipient.Email, recipient.FullName, d.Template, d.Payload)
}

// InAppChannel pushes a delivery to the recipient's open notification streams.
type InAppChannel struct {
	hub *sse.Hub
}

func NewInAppChannel(hub *sse.Hub) *InAppChannel {
	return &InAppChannel{hub: hub}
}

func (c *InAppChannel) Name() string { return "in_app" }

// Deliver never fails; recipients without an open stream simply miss the push.
func (c *InAppChannel) Deliver(_ context.Context, d notification.Delivery) error {
	c.hub.Publish(d)
	return nil
}
