// Package worker subscribes background handlers to submission events.
package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/herobudget/notification-service/internal/events"
	"github.com/herobudget/notification-service/internal/observability"
	apperrors "github.com/herobudget/notification-service/pkg/util/errorutil"
)

// Submission outcomes reported to metrics.
const (
	OutcomeAccepted    = "accepted"
	OutcomeRejected    = "rejected"
	OutcomeUnavailable = "unavailable"
)

// auditor writes the audit trail of every submission and keeps the counters.
type auditor struct {
	logger  *zap.Logger
	metrics *observability.Metrics
}

// StartNotificationWorker registers the audit handlers on dispatcher.
func StartNotificationWorker(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) {
	if dispatcher == nil {
		return
	}
	a := &auditor{logger: logger.Named("audit"), metrics: metrics}
	dispatcher.Subscribe(events.EventSubmissionAccepted, a.handleAccepted)
	dispatcher.Subscribe(events.EventSubmissionRejected, a.handleRejected)
	dispatcher.Subscribe(events.EventNotificationDelivered, a.handleNotification)
	dispatcher.Subscribe(events.EventNotificationFailed, a.handleNotification)
}

func (a *auditor) handleAccepted(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.SubmissionAcceptedPayload)
	a.metrics.RecordSubmission(string(event.Kind), OutcomeAccepted)
	a.logger.Info("submission accepted",
		zap.String("event_id", event.ID),
		zap.String("kind", string(event.Kind)),
		zap.String("reference", payload.Reference),
		zap.Int("documents", payload.Documents))
	return nil
}

func (a *auditor) handleRejected(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.SubmissionRejectedPayload)
	outcome := OutcomeRejected
	if payload.Reason == apperrors.CodeMailUnavailable {
		outcome = OutcomeUnavailable
	}
	a.metrics.RecordSubmission(string(event.Kind), outcome)
	a.logger.Warn("submission refused",
		zap.String("event_id", event.ID),
		zap.String("kind", string(event.Kind)),
		zap.String("reason", payload.Reason),
		zap.String("field", payload.Field))
	return nil
}

func (a *auditor) handleNotification(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.NotificationPayload)
	delivered := event.Type == events.EventNotificationDelivered
	a.metrics.RecordDelivery(string(event.Kind), payload.Audience, delivered, payload.Attempts)

	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("kind", string(event.Kind)),
		zap.String("audience", payload.Audience),
		zap.String("message_id", payload.MessageID),
		zap.Int("attempts", payload.Attempts),
	}
	if delivered {
		a.logger.Info("notification delivered", fields...)
		return nil
	}
	a.logger.Error("notification failed", append(fields, zap.String("error", payload.Error))...)
	return nil
}
