package render

import (
	"fmt"

	"github.com/herobudget/notification-service/internal/domain"
)

func (r *Renderer) privacyOperator(s domain.PrivacySubmission, meta Meta) Document {
	name := r.opts.DisplayName
	origin := r.opts.PublicURL
	if origin == "" {
		origin = name
	}

	return Document{
		Audience: AudienceOperator,
		Subject:  fmt.Sprintf("[PRIVACIDAD %s] %s - %s", s.Priority.Emoji(), s.Topic, s.Name),
		Theme:    themePrivacy,
		Brand:    "🦸 " + name,
		Tagline:  "Sistema de Gestión de Privacidad",
		Title:    name + " - Consulta de Privacidad",
		Badge:    &Badge{Label: "Prioridad " + s.Priority.Label(), Tone: Tone(s.Priority.Severity())},

		FactsHeading: "Información del Contacto",
		Facts: []Fact{
			{Label: "Nombre", Value: s.Name},
			{Label: "Email", Value: s.Email},
			{Label: "Tema", Value: s.Topic},
			{Label: "Prioridad", Value: s.Priority.Emoji() + " " + s.Priority.Label()},
			{Label: "Fecha", Value: r.Timestamp(meta.Now)},
		},
		Blocks: []Block{{Heading: "Mensaje:", Body: s.Message}},
		Callouts: []Callout{{
			Title: "Recordatorio:",
			Body:  "Esta es una consulta de privacidad y debe ser respondida dentro del tiempo establecido según la prioridad (Alta: 24h, Media: 48h, Baja: 72h).",
			Tone:  ToneWarning,
		}},
		Footer: []string{
			name + " - Sistema de Gestión de Privacidad",
			"Este email fue generado automáticamente desde " + origin,
		},
	}
}
