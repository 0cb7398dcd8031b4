package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herobudget/notification-service/internal/domain"
)

var fixedNow = time.Date(2026, time.October, 19, 12, 5, 9, 0, time.UTC)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(Options{
		DisplayName: "Hero Budget",
		PublicURL:   "https://herobudget.com",
		SupportURL:  "https://herobudget.com/soporte",
		Location:    time.UTC,
	})
	require.NoError(t, err)
	return r
}

func TestTimestampUsesSpanishLayout(t *testing.T) {
	r := newTestRenderer(t)
	assert.Equal(t, "19/10/2026, 12:05:09", r.Timestamp(fixedNow))

	madrid := time.FixedZone("CEST", 2*60*60)
	r.opts.Location = madrid
	assert.Equal(t, "19/10/2026, 14:05:09", r.Timestamp(fixedNow))
}

func TestContactDocuments(t *testing.T) {
	r := newTestRenderer(t)
	sub := domain.ContactSubmission{Name: "Ana", Email: "ana@example.com", Subject: "Hola", Message: "Test"}

	docs, err := r.RenderAll(sub, Meta{Now: fixedNow})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	op, ack := docs[0], docs[1]
	assert.Equal(t, AudienceOperator, op.Audience)
	assert.Equal(t, "[Hero Budget] Nuevo mensaje de contacto: Hola", op.Subject)
	assert.Contains(t, op.HTML, "Nuevo Mensaje de Contacto")
	assert.Contains(t, op.HTML, "19/10/2026, 12:05:09")
	assert.Contains(t, op.Text, "- Email: ana@example.com")

	assert.Equal(t, AudienceSubmitter, ack.Audience)
	assert.Equal(t, "✅ Hemos recibido tu mensaje - Hero Budget", ack.Subject)
	assert.Contains(t, ack.HTML, "Hola <strong>Ana</strong>, hemos recibido tu mensaje correctamente.")
	assert.Contains(t, ack.HTML, `href="https://herobudget.com/soporte"`)
	assert.Contains(t, ack.Text, "Hola Ana, hemos recibido tu mensaje correctamente.")
}

func TestUserTextIsEscapedInMarkup(t *testing.T) {
	r := newTestRenderer(t)
	sub := domain.ContactSubmission{
		Name:    `<img src=x onerror="alert(1)">`,
		Email:   "eve@example.com",
		Subject: "<b>hi</b>",
		Message: "<script>alert('x')</script>",
	}

	docs, err := r.RenderAll(sub, Meta{Now: fixedNow})
	require.NoError(t, err)

	for _, doc := range docs {
		assert.NotContains(t, doc.HTML, "<script>")
		assert.NotContains(t, doc.HTML, "<img")
		assert.NotContains(t, doc.HTML, "<b>hi</b>")
	}
	assert.Contains(t, docs[0].HTML, "&lt;script&gt;")
	assert.Contains(t, docs[0].Text, "<script>alert('x')</script>")
}

func ticketFixture() domain.TicketSubmission {
	return domain.TicketSubmission{
		Name:        "Luis",
		Email:       "luis@mail.es",
		Priority:    domain.TicketPriorityUrgent,
		Category:    "Sincronización",
		Subject:     "No sincroniza",
		Description: "La app no sincroniza mis cuentas",
	}
}

func TestTicketOperatorDocument(t *testing.T) {
	r := newTestRenderer(t)
	meta := Meta{Now: fixedNow, Reference: domain.TicketReference("HB-123456")}

	docs, err := r.Build(ticketFixture(), meta)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	op := docs[0]
	assert.Equal(t, "[Hero Budget] 🚨 URGENTE - Nuevo ticket: No sincroniza", op.Subject)
	assert.Equal(t, &Badge{Label: "Prioridad Urgente", Tone: ToneHigh}, op.Badge)
	assert.Contains(t, op.Facts, Fact{Icon: "📱", Label: "Dispositivo", Value: "No especificado"})
	assert.Contains(t, op.Facts, Fact{Icon: "📋", Label: "Versión", Value: "No especificada"})
	assert.Len(t, op.Blocks, 2, "steps block must be omitted when absent")

	withSteps := ticketFixture()
	withSteps.Steps = "1. Abrir la app\n2. Pulsar sincronizar"
	withSteps.Device = "Pixel 8"
	docs, err = r.Build(withSteps, meta)
	require.NoError(t, err)
	require.Len(t, docs[0].Blocks, 3)
	assert.Equal(t, "🔧 Pasos para Reproducir:", docs[0].Blocks[2].Heading)
	assert.Contains(t, docs[0].Facts, Fact{Icon: "📱", Label: "Dispositivo", Value: "Pixel 8"})

	rendered, err := r.Render(docs[0])
	require.NoError(t, err)
	assert.Contains(t, rendered.HTML, "Pasos para Reproducir")
	assert.Contains(t, rendered.HTML, "badge tone-high")
}

func TestTicketSubmitterDocument(t *testing.T) {
	r := newTestRenderer(t)
	sub := ticketFixture()
	sub.Priority = domain.TicketPriorityMedium
	meta := Meta{Now: fixedNow, Reference: domain.NewTicketReference(fixedNow)}

	docs, err := r.RenderAll(sub, meta)
	require.NoError(t, err)
	ack := docs[1]

	assert.Equal(t, "🎫 Ticket creado correctamente - Hero Budget Support", ack.Subject)
	assert.Contains(t, ack.HTML, "#"+meta.Reference.String())
	assert.Contains(t, ack.HTML, "6-24 horas")
	assert.Contains(t, ack.HTML, "text-medium")
	assert.Contains(t, ack.Text, "Tu número de ticket es: #"+meta.Reference.String())
	assert.Contains(t, ack.Text, "* Ticket recibido - 19/10/2026, 12:05:09")
}

func TestPrivacyRendersOperatorOnly(t *testing.T) {
	r := newTestRenderer(t)
	sub := domain.PrivacySubmission{
		Name:     "Eva",
		Email:    "eva@x.io",
		Topic:    "Borrado de datos",
		Message:  "Quiero borrar mi cuenta",
		Priority: domain.PrivacyPriorityHigh,
	}

	docs, err := r.RenderAll(sub, Meta{Now: fixedNow})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	op := docs[0]
	assert.Equal(t, AudienceOperator, op.Audience)
	assert.Equal(t, "[PRIVACIDAD 🔴] Borrado de datos - Eva", op.Subject)
	assert.Contains(t, op.HTML, "🔴 Alta")
	assert.Contains(t, op.Text, "Alta: 24h, Media: 48h, Baja: 72h")
	assert.Contains(t, op.Text, "Este email fue generado automáticamente desde https://herobudget.com")
}

func TestBuildRejectsUnknownSubmission(t *testing.T) {
	r := newTestRenderer(t)
	_, err := r.Build(nil, Meta{Now: fixedNow})
	assert.Error(t, err)
}

func TestPlainTextSections(t *testing.T) {
	doc := Document{
		Brand:   "B",
		Tagline: "T",
		Title:   "Title",
		Facts:   []Fact{{Label: "K", Value: "V"}},
		Blocks:  []Block{{Heading: "H", Body: "line1\nline2"}},
		Footer:  []string{"f1"},
	}
	text := PlainText(doc)
	assert.True(t, strings.HasPrefix(text, "B - T\n\nTitle\n"))
	assert.Contains(t, text, "- K: V\n")
	assert.Contains(t, text, "H\nline1\nline2\n")
	assert.True(t, strings.HasSuffix(text, "---\nf1\n"))
}
