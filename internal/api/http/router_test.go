package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/mail"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/herobudget/notification-service/internal/api/http/handlers"
	"github.com/herobudget/notification-service/internal/config"
	"github.com/herobudget/notification-service/internal/events"
	"github.com/herobudget/notification-service/internal/mailer"
	"github.com/herobudget/notification-service/internal/observability"
	"github.com/herobudget/notification-service/internal/ratelimit"
	"github.com/herobudget/notification-service/internal/render"
	"github.com/herobudget/notification-service/internal/service"
	"github.com/herobudget/notification-service/internal/worker"
)

// relay records what reaches the transport and can be made unreachable.
type relay struct {
	mu   sync.Mutex
	down bool
	msgs []mailer.Message
}

func (r *relay) Deliver(_ context.Context, msg mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return errors.New("dial tcp 127.0.0.1:587: connect: connection refused")
	}
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *relay) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

type harness struct {
	app   *fiber.App
	relay *relay
}

type harnessOpts struct {
	unconfigured bool
	limiter      ratelimit.Limiter
	app          config.AppConfig
}

func newHarness(t *testing.T, opts harnessOpts) *harness {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartNotificationWorker(dispatcher, logger, metrics)

	renderer, err := render.NewRenderer(render.Options{DisplayName: "Hero Budget", PublicURL: "https://herobudget.com", SupportURL: "https://herobudget.com/soporte"})
	require.NoError(t, err)

	rl := &relay{}
	deps := service.NotificationDependencies{Renderer: renderer, Events: dispatcher, Logger: logger}
	if opts.unconfigured {
		deps.SenderErr = mailer.ErrNotConfigured
	} else {
		deps.Sender = mailer.New(rl, mailer.Options{From: mail.Address{Name: "Hero Budget", Address: "relay@herobudget.com"}}, logger)
	}
	svc := service.NewNotificationService(deps, config.NotificationConfig{AdminEmail: "ops@herobudget.com"})

	app := NewApp(opts.app)
	RegisterMiddlewares(app, logger, metrics, 0)

	cfg := RouteConfig{
		Health:      handlers.NewHealthHandler("herobudget-notifier", "test", nil, svc),
		Submissions: handlers.NewSubmissionsHandler(svc, logger, metrics),
		Metrics:     metrics,
	}
	if opts.limiter != nil {
		cfg.RateLimit = RateLimit(opts.limiter, logger)
	}
	RegisterRoutes(app, cfg)
	return &harness{app: app, relay: rl}
}

func (h *harness) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	return h.doFrom(t, "", method, path, body)
}

// doFrom sends the request as if relayed by a proxy for client; empty client sends it directly.
func (h *harness) doFrom(t *testing.T, client, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if client != "" {
		req.Header.Set(fiber.HeaderXForwardedFor, client+", 10.1.2.3")
	}
	resp, err := h.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

const validTicket = `{"name":"Luis","email":"luis@mail.es","priority":"Alta","category":"App","subject":"Falla","description":"No abre"}`

func TestContactDelivered(t *testing.T) {
	h := newHarness(t, harnessOpts{})

	status, body := h.do(t, fiber.MethodPost, PathContact, `{"name":"Ana","email":"ana@example.com","subject":"Hola","message":"Test"}`)

	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, map[string]any{"success": true, "message": handlers.MsgContactAccepted}, body)
	assert.Equal(t, 2, h.relay.count())
}

func TestContactBlankNameRejected(t *testing.T) {
	h := newHarness(t, harnessOpts{})

	status, body := h.do(t, fiber.MethodPost, PathContact, `{"name":"","email":"ana@example.com","subject":"Hola","message":"Test"}`)

	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, map[string]any{"success": false, "error": handlers.MsgContactInvalid}, body)
	assert.Zero(t, h.relay.count())
}

func TestTicketUnknownPriorityRejected(t *testing.T) {
	h := newHarness(t, harnessOpts{})

	status, _ := h.do(t, fiber.MethodPost, PathTicket, strings.Replace(validTicket, `"Alta"`, `"Crítica"`, 1))

	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Zero(t, h.relay.count())
}

func TestPrivacyWithoutRelayConfig(t *testing.T) {
	h := newHarness(t, harnessOpts{unconfigured: true})

	status, body := h.do(t, fiber.MethodPost, PathPrivacy, `{"name":"Eva","email":"eva@x.io","topic":"t","message":"m","priority":"high"}`)

	assert.Equal(t, nethttp.StatusInternalServerError, status)
	assert.Equal(t, map[string]any{"error": handlers.MsgPrivacyUnavailable}, body)
	assert.Zero(t, h.relay.count())
}

func TestTicketRelayUnreachable(t *testing.T) {
	h := newHarness(t, harnessOpts{})
	h.relay.down = true

	status, body := h.do(t, fiber.MethodPost, PathTicket, validTicket)

	assert.Equal(t, nethttp.StatusInternalServerError, status)
	assert.Equal(t, map[string]any{"success": false, "error": handlers.MsgServerError}, body)
}

func TestNonPostMethodsNotAllowed(t *testing.T) {
	h := newHarness(t, harnessOpts{})

	for _, path := range []string{PathContact, PathTicket, PathPrivacy} {
		for _, method := range []string{fiber.MethodGet, fiber.MethodPut, fiber.MethodDelete} {
			status, body := h.do(t, method, path, "")
			assert.Equal(t, nethttp.StatusMethodNotAllowed, status, method+" "+path)
			assert.Equal(t, map[string]any{"error": handlers.MsgMethodNotAllowed}, body)
		}
	}
}

func TestPrivacyDeliveredWithMessageID(t *testing.T) {
	h := newHarness(t, harnessOpts{})

	status, body := h.do(t, fiber.MethodPost, PathPrivacy, `{"name":"Eva","email":"eva@x.io","topic":"Borrado","message":"m","priority":"medium"}`)

	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, handlers.MsgPrivacyAccepted, body["message"])
	require.Equal(t, 1, h.relay.count())
	assert.Equal(t, h.relay.msgs[0].MessageID, body["messageId"])
	assert.Equal(t, "eva@x.io", h.relay.msgs[0].ReplyTo)
}

func TestRateLimitedSubmissions(t *testing.T) {
	h := newHarness(t, harnessOpts{limiter: ratelimit.NewMemoryLimiter(1, 1)})
	body := `{"name":"Ana","email":"ana@example.com","subject":"Hola","message":"Test"}`

	status, _ := h.do(t, fiber.MethodPost, PathContact, body)
	require.Equal(t, nethttp.StatusOK, status)

	status, resp := h.do(t, fiber.MethodPost, PathContact, body)
	assert.Equal(t, nethttp.StatusTooManyRequests, status)
	assert.Equal(t, MsgRateLimited, resp["error"])
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, 2, h.relay.count(), "the refused request sent nothing")
}

func TestRateLimitKeysOnForwardedClient(t *testing.T) {
	h := newHarness(t, harnessOpts{
		limiter: ratelimit.NewMemoryLimiter(1, 1),
		app:     config.AppConfig{ProxyHeader: fiber.HeaderXForwardedFor, TrustedProxies: []string{"0.0.0.0/0"}},
	})
	body := `{"name":"Ana","email":"ana@example.com","subject":"Hola","message":"Test"}`

	for _, client := range []string{"203.0.113.7", "198.51.100.20"} {
		status, _ := h.doFrom(t, client, fiber.MethodPost, PathContact, body)
		assert.Equal(t, nethttp.StatusOK, status, client)
	}
	status, _ := h.doFrom(t, "203.0.113.7", fiber.MethodPost, PathContact, body)
	assert.Equal(t, nethttp.StatusTooManyRequests, status)
}

func TestRateLimitIgnoresHeaderFromUntrustedPeer(t *testing.T) {
	h := newHarness(t, harnessOpts{
		limiter: ratelimit.NewMemoryLimiter(1, 1),
		app:     config.AppConfig{ProxyHeader: fiber.HeaderXForwardedFor, TrustedProxies: []string{"10.0.0.1"}},
	})
	body := `{"name":"Ana","email":"ana@example.com","subject":"Hola","message":"Test"}`

	status, _ := h.doFrom(t, "203.0.113.7", fiber.MethodPost, PathContact, body)
	require.Equal(t, nethttp.StatusOK, status)
	status, _ = h.doFrom(t, "198.51.100.20", fiber.MethodPost, PathContact, body)
	assert.Equal(t, nethttp.StatusTooManyRequests, status)
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	h := newHarness(t, harnessOpts{})

	status, body := h.do(t, fiber.MethodGet, "/api/unknown", "")

	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, harnessOpts{})
	_, _ = h.do(t, fiber.MethodPost, PathContact, `{"name":"Ana","email":"ana@example.com","subject":"Hola","message":"Test"}`)

	resp, err := h.app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `herobudget_notifier_submissions_total{kind="contact",outcome="accepted"} 1`)
	assert.Contains(t, string(raw), `herobudget_notifier_mail_deliveries_total{audience="operator",kind="contact",result="delivered"} 1`)
}
