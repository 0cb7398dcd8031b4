// Package service runs a submission through validation, rendering and mail delivery.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/herobudget/notification-service/internal/config"
	"github.com/herobudget/notification-service/internal/domain"
	"github.com/herobudget/notification-service/internal/events"
	"github.com/herobudget/notification-service/internal/mailer"
	"github.com/herobudget/notification-service/internal/render"
	"github.com/herobudget/notification-service/internal/validation"
	apperrors "github.com/herobudget/notification-service/pkg/util/errorutil"
)

// Sender delivers one envelope and reports the outcome instead of failing.
type Sender interface {
	Send(ctx context.Context, env mailer.Envelope) mailer.Outcome
}

// DocumentRenderer turns a normalized submission into its notification documents.
type DocumentRenderer interface {
	RenderAll(sub domain.Submission, meta render.Meta) ([]render.NotificationDocument, error)
}

// NotificationDependencies bundles collaborators for the service.
type NotificationDependencies struct {
	// Sender is nil when the relay could not be configured; SenderErr says why.
	Sender    Sender
	SenderErr error
	Renderer  DocumentRenderer
	Events    events.Dispatcher
	Logger    *zap.Logger
}

// SubmissionReceipt describes an accepted and fully delivered submission.
type SubmissionReceipt struct {
	Kind       domain.Kind
	Reference  domain.TicketReference
	MessageIDs []string
}

// MessageID is the id of the operator notification.
func (r *SubmissionReceipt) MessageID() string {
	if r == nil || len(r.MessageIDs) == 0 {
		return ""
	}
	return r.MessageIDs[0]
}

// NotificationService orchestrates one submission per call. It keeps no state between calls.
type NotificationService struct {
	sender      Sender
	renderer    DocumentRenderer
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	adminEmail  string
	unavailable error
	now         func() time.Time
}

// NewNotificationService creates the service. A missing sender or admin address
// does not fail construction: the service comes up degraded and every Submit
// reports the configuration problem without touching the network.
func NewNotificationService(deps NotificationDependencies, cfg config.NotificationConfig) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Events
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher(logger)
	}

	var problems []error
	if deps.Sender == nil {
		if deps.SenderErr != nil {
			problems = append(problems, deps.SenderErr)
		} else {
			problems = append(problems, mailer.ErrNotConfigured)
		}
	}
	if strings.TrimSpace(cfg.AdminEmail) == "" {
		problems = append(problems, errors.New("operator recipient address not configured"))
	}
	unavailable := errors.Join(problems...)
	if unavailable != nil {
		logger.Error("notification service degraded, submissions will be refused", zap.Error(unavailable))
	}

	return &NotificationService{
		sender:      deps.Sender,
		renderer:    deps.Renderer,
		dispatcher:  dispatcher,
		logger:      logger,
		adminEmail:  strings.TrimSpace(cfg.AdminEmail),
		unavailable: unavailable,
		now:         time.Now,
	}
}

// Configured reports whether submissions can be delivered at all.
func (s *NotificationService) Configured() bool {
	return s.unavailable == nil
}

// Submit validates body as a submission of kind, renders its documents and sends
// them concurrently. Any failed send fails the whole submission; documents already
// delivered are not recalled.
func (s *NotificationService) Submit(ctx context.Context, kind domain.Kind, body []byte) (receipt *SubmissionReceipt, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("submission panicked",
				zap.String("kind", string(kind)),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			receipt, err = nil, apperrors.NewInternalError(fmt.Errorf("panic: %v", r))
		}
	}()

	now := s.now()
	if s.unavailable != nil {
		s.publish(ctx, events.NewEvent(events.EventSubmissionRejected, kind, now,
			events.SubmissionRejectedPayload{Reason: apperrors.CodeMailUnavailable}))
		return nil, apperrors.NewMailUnavailable(s.unavailable)
	}

	sub, err := validation.Validate(kind, body)
	if err != nil {
		var verr *validation.Error
		if !errors.As(err, &verr) {
			return nil, apperrors.NewNotFound("submission kind", map[string]any{"kind": string(kind)})
		}
		s.publish(ctx, events.NewEvent(events.EventSubmissionRejected, kind, now,
			events.SubmissionRejectedPayload{Reason: string(verr.Reason), Field: verr.Field}))
		return nil, apperrors.NewValidationError("invalid submission", verr, map[string]any{
			"reason": string(verr.Reason),
		})
	}
	sub = domain.Sanitize(sub)

	meta := render.Meta{Now: now}
	if kind == domain.KindTicket {
		meta.Reference = domain.NewTicketReference(now)
	}
	docs, err := s.renderer.RenderAll(sub, meta)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("render %s documents: %w", kind, err))
	}

	s.publish(ctx, events.NewEvent(events.EventSubmissionAccepted, kind, now, events.SubmissionAcceptedPayload{
		SubmitterEmail: sub.SubmitterEmail(),
		Reference:      meta.Reference.String(),
		Documents:      len(docs),
	}))

	outcomes := s.deliver(ctx, sub, docs)

	receipt = &SubmissionReceipt{Kind: kind, Reference: meta.Reference, MessageIDs: make([]string, len(outcomes))}
	var failed []string
	var errs []error
	for i, out := range outcomes {
		receipt.MessageIDs[i] = out.MessageID
		if !out.Delivered {
			failed = append(failed, string(docs[i].Audience))
			errs = append(errs, fmt.Errorf("%s document: %w", docs[i].Audience, out.Err))
		}
	}
	if len(failed) > 0 {
		return nil, apperrors.NewDeliveryFailed(map[string]any{"failed": failed}, errors.Join(errs...))
	}
	return receipt, nil
}

// deliver sends every document at once and waits for all of them.
func (s *NotificationService) deliver(ctx context.Context, sub domain.Submission, docs []render.NotificationDocument) []mailer.Outcome {
	outcomes := make([]mailer.Outcome, len(docs))

	var g errgroup.Group
	for i, doc := range docs {
		i, doc := i, doc
		env := s.envelope(sub, doc)
		g.Go(func() error {
			out := s.send(ctx, env)
			outcomes[i] = out

			eventType := events.EventNotificationDelivered
			errText := ""
			if !out.Delivered {
				eventType = events.EventNotificationFailed
				if out.Err != nil {
					errText = out.Err.Error()
				}
			}
			s.publish(ctx, events.NewEvent(eventType, sub.Kind(), s.now(), events.NotificationPayload{
				Audience:  string(doc.Audience),
				Recipient: env.To,
				MessageID: out.MessageID,
				Attempts:  out.Attempts,
				Error:     errText,
			}))
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (s *NotificationService) send(ctx context.Context, env mailer.Envelope) (out mailer.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sender panicked", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			out = mailer.Outcome{Err: fmt.Errorf("sender panic: %v", r)}
		}
	}()
	return s.sender.Send(ctx, env)
}

func (s *NotificationService) envelope(sub domain.Submission, doc render.NotificationDocument) mailer.Envelope {
	env := mailer.Envelope{Subject: doc.Subject, HTML: doc.HTML, Text: doc.Text}
	if doc.Audience == render.AudienceOperator {
		env.To = s.adminEmail
		env.ReplyTo = sub.SubmitterEmail()
	} else {
		env.To = sub.SubmitterEmail()
	}
	return env
}

func (s *NotificationService) publish(ctx context.Context, event events.Event) {
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
