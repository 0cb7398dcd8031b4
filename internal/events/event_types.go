package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/herobudget/notification-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSubmissionAccepted    EventType = "submission_accepted"
	EventSubmissionRejected    EventType = "submission_rejected"
	EventNotificationDelivered EventType = "notification_delivered"
	EventNotificationFailed    EventType = "notification_failed"
)

// Event represents one step of a submission's life, emitted by the notification service.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Kind      domain.Kind `json:"kind"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps an event with a fresh id.
func NewEvent(eventType EventType, kind domain.Kind, at time.Time, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Kind:      kind,
		Timestamp: at,
		Payload:   payload,
	}
}

// SubmissionAcceptedPayload payload.
type SubmissionAcceptedPayload struct {
	SubmitterEmail string `json:"submitter_email"`
	Reference      string `json:"reference,omitempty"`
	Documents      int    `json:"documents"`
}

// SubmissionRejectedPayload payload.
type SubmissionRejectedPayload struct {
	Reason string `json:"reason"`
	Field  string `json:"field,omitempty"`
}

// NotificationPayload is shared by delivered and failed notifications.
type NotificationPayload struct {
	Audience  string `json:"audience"`
	Recipient string `json:"recipient"`
	MessageID string `json:"message_id"`
	Attempts  int    `json:"attempts"`
	Error     string `json:"error,omitempty"`
}
