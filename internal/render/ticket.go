package render

import (
	"fmt"

	"github.com/herobudget/notification-service/internal/domain"
)

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func (r *Renderer) ticketOperator(s domain.TicketSubmission, meta Meta) Document {
	name := r.opts.DisplayName
	tone := Tone(s.Priority.Severity())

	blocks := []Block{
		{Heading: "📝 Asunto:", Body: s.Subject, Tone: ToneInfo},
		{Heading: "📄 Descripción del Problema:", Body: s.Description},
	}
	if s.Steps != "" {
		blocks = append(blocks, Block{Heading: "🔧 Pasos para Reproducir:", Body: s.Steps})
	}

	return Document{
		Audience: AudienceOperator,
		Subject:  fmt.Sprintf("[%s] %s - Nuevo ticket: %s", name, s.Priority.SubjectPrefix(), s.Subject),
		Theme:    themeTicket,
		Brand:    "🎫 " + name + " Support",
		Tagline:  "Sistema de Tickets de Soporte",
		Title:    "🚨 Nuevo Ticket de Soporte",
		Badge:    &Badge{Label: "Prioridad " + string(s.Priority), Tone: tone},
		Facts: []Fact{
			{Icon: "🎫", Label: "Referencia", Value: "#" + meta.Reference.String()},
			{Icon: "👤", Label: "Nombre", Value: s.Name},
			{Icon: "✉️", Label: "Email", Value: s.Email},
			{Icon: "📂", Label: "Categoría", Value: s.Category},
			{Icon: "⚡", Label: "Prioridad", Value: string(s.Priority)},
			{Icon: "📱", Label: "Dispositivo", Value: orDefault(s.Device, "No especificado")},
			{Icon: "📋", Label: "Versión", Value: orDefault(s.Version, "No especificada")},
			{Icon: "📅", Label: "Fecha", Value: r.Timestamp(meta.Now)},
		},
		Blocks: blocks,
		Closing: []Span{
			{Text: "Acción requerida:", Strong: true},
			{Text: " Revisar y responder al ticket con prioridad " + string(s.Priority)},
		},
		Footer: []string{"🎫 Sistema de Tickets - " + name + " Support"},
	}
}

func (r *Renderer) ticketSubmitter(s domain.TicketSubmission, meta Meta) Document {
	name := r.opts.DisplayName
	stamp := r.Timestamp(meta.Now)

	return Document{
		Audience: AudienceSubmitter,
		Subject:  "🎫 Ticket creado correctamente - " + name + " Support",
		Theme:    themeTicketAck,
		Brand:    "🎫 " + name,
		Tagline:  "Sistema de Soporte Técnico",
		Title:    "✅ Ticket Creado Exitosamente",
		Intro: []Span{
			{Text: "Hola "},
			{Text: s.Name, Strong: true},
			{Text: ", hemos recibido tu solicitud de soporte técnico."},
		},
		Highlight: &Highlight{
			Caption: "Tu número de ticket es:",
			Value:   "#" + meta.Reference.String(),
			Note:    "Guarda este número para futuras consultas",
		},
		FactsHeading: "📋 Resumen de tu ticket:",
		Facts: []Fact{
			{Label: "Asunto", Value: s.Subject},
			{Label: "Categoría", Value: s.Category},
			{Label: "Prioridad", Value: string(s.Priority), Tone: Tone(s.Priority.Severity())},
			{Label: "Fecha de creación", Value: stamp},
			{Label: "Email de contacto", Value: s.Email},
		},
		TimelineHead: "📍 Estado del Ticket",
		Timeline: []Step{
			{Icon: "✓", Title: "Ticket recibido", Detail: stamp, Tone: ToneSuccess},
			{Icon: "⏳", Title: "En revisión", Detail: "Nuestro equipo está analizando tu solicitud", Tone: ToneWarning},
			{Icon: "📧", Title: "Respuesta pendiente", Detail: "Te contactaremos pronto", Tone: ToneNeutral},
		},
		Closing: []Span{
			{Text: "Recibirás actualizaciones sobre tu ticket en "},
			{Text: s.Email, Strong: true},
		},
		Action: &Action{Label: "📚 Consultar FAQ Mientras Tanto", URL: r.opts.SupportURL},
		Callouts: []Callout{{
			Title: "⏰ Tiempo de Respuesta Estimado:",
			Body:  s.Priority.ResponseTime(),
			Tone:  ToneSuccess,
		}},
		Footer: []string{"🎫 " + name + " Support - Siempre aquí para ayudarte"},
	}
}
