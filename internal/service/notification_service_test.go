package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/herobudget/notification-service/internal/config"
	"github.com/herobudget/notification-service/internal/domain"
	"github.com/herobudget/notification-service/internal/events"
	"github.com/herobudget/notification-service/internal/mailer"
	"github.com/herobudget/notification-service/internal/render"
	"github.com/herobudget/notification-service/internal/validation"
	apperrors "github.com/herobudget/notification-service/pkg/util/errorutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []mailer.Envelope
	failFor map[string]bool
	panicTo string
}

func (f *fakeSender) Send(_ context.Context, env mailer.Envelope) mailer.Outcome {
	f.mu.Lock()
	f.sent = append(f.sent, env)
	f.mu.Unlock()
	if env.To == f.panicTo {
		panic("relay exploded")
	}
	if f.failFor[env.To] {
		return mailer.Outcome{MessageID: "<fail@x>", Attempts: 1, Err: errors.New("relay unreachable")}
	}
	return mailer.Outcome{Delivered: true, MessageID: "<" + env.To + ">", Attempts: 1}
}

func (f *fakeSender) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, e := range f.sent {
		out = append(out, e.To)
	}
	return out
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

var fixedNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, sender Sender, admin string) (*NotificationService, *recorder) {
	t.Helper()
	renderer, err := render.NewRenderer(render.Options{DisplayName: "Hero Budget", PublicURL: "https://herobudget.com", SupportURL: "https://herobudget.com/soporte"})
	require.NoError(t, err)

	rec := &recorder{}
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	for _, et := range []events.EventType{events.EventSubmissionAccepted, events.EventSubmissionRejected, events.EventNotificationDelivered, events.EventNotificationFailed} {
		dispatcher.Subscribe(et, rec.handle)
	}

	svc := NewNotificationService(NotificationDependencies{
		Sender:   sender,
		Renderer: renderer,
		Events:   dispatcher,
		Logger:   zap.NewNop(),
	}, config.NotificationConfig{AdminEmail: admin})
	svc.now = func() time.Time { return fixedNow }
	return svc, rec
}

const contactBody = `{"name":"  Ana ","email":"ANA@Example.com","subject":"Hola","message":"Test"}`

func TestSubmitContactDeliversBothDocuments(t *testing.T) {
	sender := &fakeSender{}
	svc, rec := newTestService(t, sender, "ops@herobudget.com")

	receipt, err := svc.Submit(context.Background(), domain.KindContact, []byte(contactBody))
	require.NoError(t, err)

	assert.Equal(t, domain.KindContact, receipt.Kind)
	assert.Equal(t, []string{"<ops@herobudget.com>", "<ana@example.com>"}, receipt.MessageIDs)
	assert.Equal(t, "<ops@herobudget.com>", receipt.MessageID())
	assert.ElementsMatch(t, []string{"ops@herobudget.com", "ana@example.com"}, sender.recipients())

	for _, env := range sender.sent {
		if env.To == "ops@herobudget.com" {
			assert.Equal(t, "ana@example.com", env.ReplyTo)
			assert.Equal(t, "[Hero Budget] Nuevo mensaje de contacto: Hola", env.Subject)
		} else {
			assert.Empty(t, env.ReplyTo)
			assert.NotEmpty(t, env.Text)
		}
	}

	assert.Equal(t, events.EventSubmissionAccepted, rec.types()[0])
	assert.ElementsMatch(t, []events.EventType{events.EventNotificationDelivered, events.EventNotificationDelivered}, rec.types()[1:])
}

func TestSubmitTicketCarriesReference(t *testing.T) {
	sender := &fakeSender{}
	svc, rec := newTestService(t, sender, "ops@herobudget.com")

	body := `{"name":"Luis","email":"luis@mail.es","priority":"Alta","category":"App","subject":"Falla","description":"No abre","device":"  ","steps":null}`
	receipt, err := svc.Submit(context.Background(), domain.KindTicket, []byte(body))
	require.NoError(t, err)

	assert.Equal(t, domain.NewTicketReference(fixedNow), receipt.Reference)
	require.Len(t, sender.sent, 2)
	for _, env := range sender.sent {
		assert.Contains(t, env.Text, receipt.Reference.String())
	}
	payload := rec.events[0].Payload.(events.SubmissionAcceptedPayload)
	assert.Equal(t, receipt.Reference.String(), payload.Reference)
	assert.Equal(t, 2, payload.Documents)
}

func TestSubmitPrivacySendsOperatorOnly(t *testing.T) {
	sender := &fakeSender{}
	svc, _ := newTestService(t, sender, "ops@herobudget.com")

	body := `{"name":"Eva","email":"eva@x.io","topic":"Borrado","message":"Borrad mis datos","priority":"high"}`
	receipt, err := svc.Submit(context.Background(), domain.KindPrivacy, []byte(body))
	require.NoError(t, err)

	assert.Equal(t, []string{"ops@herobudget.com"}, sender.recipients())
	assert.Equal(t, "<ops@herobudget.com>", receipt.MessageID())
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	sender := &fakeSender{}
	svc, rec := newTestService(t, sender, "ops@herobudget.com")

	_, err := svc.Submit(context.Background(), domain.KindContact, []byte(`{"name":"","email":"ana@example.com","subject":"Hola","message":"Test"}`))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validation.ReasonEmptyField, verr.Reason)

	_, err = svc.Submit(context.Background(), domain.KindTicket, []byte(`{"name":"Luis","email":"luis@mail.es","priority":"Crítica","category":"App","subject":"s","description":"d"}`))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validation.ReasonInvalidPriority, verr.Reason)

	assert.Empty(t, sender.recipients(), "nothing is sent for invalid input")
	assert.Equal(t, []events.EventType{events.EventSubmissionRejected, events.EventSubmissionRejected}, rec.types())
}

func TestSubmitUnknownKind(t *testing.T) {
	svc, _ := newTestService(t, &fakeSender{}, "ops@herobudget.com")
	_, err := svc.Submit(context.Background(), domain.Kind("newsletter"), []byte(`{}`))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestSubmitFailsWhenAnySendFails(t *testing.T) {
	sender := &fakeSender{failFor: map[string]bool{"ana@example.com": true}}
	svc, rec := newTestService(t, sender, "ops@herobudget.com")

	receipt, err := svc.Submit(context.Background(), domain.KindContact, []byte(contactBody))
	assert.Nil(t, receipt)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDeliveryFailed))
	assert.Equal(t, []string{"submitter"}, apperrors.ToDomainError(err).Details["failed"])
	assert.Len(t, sender.recipients(), 2, "both sends are attempted")
	assert.Contains(t, rec.types(), events.EventNotificationFailed)
	assert.Contains(t, rec.types(), events.EventNotificationDelivered)
}

func TestSubmitRecoversSenderPanic(t *testing.T) {
	svc, _ := newTestService(t, &fakeSender{panicTo: "ops@herobudget.com"}, "ops@herobudget.com")

	_, err := svc.Submit(context.Background(), domain.KindContact, []byte(contactBody))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDeliveryFailed))
	assert.True(t, strings.Contains(err.Error(), "relay exploded"))
}

func TestMisconfiguredServiceMakesNoNetworkCalls(t *testing.T) {
	svc, rec := newTestService(t, nil, "ops@herobudget.com")
	assert.False(t, svc.Configured())

	_, err := svc.Submit(context.Background(), domain.KindPrivacy, []byte(`{}`))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMailUnavailable))
	assert.ErrorIs(t, err, mailer.ErrNotConfigured)
	assert.Equal(t, []events.EventType{events.EventSubmissionRejected}, rec.types())

	sender := &fakeSender{}
	svc, _ = newTestService(t, sender, "")
	assert.False(t, svc.Configured())
	_, err = svc.Submit(context.Background(), domain.KindContact, []byte(contactBody))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMailUnavailable))
	assert.Empty(t, sender.recipients())
}
