package notification

import (
	"time"
)

// Template names a message layout known to every delivery channel.
type Template string

const (
	TemplateLeaveRequested Template = "leave_requested"
	TemplateLeaveApproved  Template = "leave_approved"
	TemplateLeaveRejected  Template = "leave_rejected"
)

// CategoryLeave groups every leave-related message.
const CategoryLeave = "leave"

// Message is what callers hand to the dispatcher.
type Message struct {
	TemplateName Template
	Category     string
	Recipients   []string // user IDs
	Payload      map[string]any
}

// Delivery is one message addressed to one recipient, as handed to a channel.
type Delivery struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id"`
	RecipientID    string         `json:"recipient_id"`
	SenderID       string         `json:"sender_id,omitempty"`
	RequestID      string         `json:"request_id,omitempty"`
	Template       Template       `json:"template"`
	Category       string         `json:"category"`
	Payload        map[string]any `json:"payload,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
