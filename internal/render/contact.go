package render

import (
	"fmt"

	"github.com/herobudget/notification-service/internal/domain"
)

const tagline = "Tu Héroe Financiero Personal"

func (r *Renderer) contactOperator(s domain.ContactSubmission, meta Meta) Document {
	name := r.opts.DisplayName
	return Document{
		Audience: AudienceOperator,
		Subject:  fmt.Sprintf("[%s] Nuevo mensaje de contacto: %s", name, s.Subject),
		Theme:    themeContact,
		Brand:    "🦸 " + name,
		Tagline:  tagline,
		Title:    "📧 Nuevo Mensaje de Contacto",
		Intro:    []Span{{Text: "Has recibido un nuevo mensaje desde el formulario de contacto del sitio web."}},
		Facts: []Fact{
			{Icon: "👤", Label: "Nombre", Value: s.Name},
			{Icon: "✉️", Label: "Email", Value: s.Email},
			{Icon: "📋", Label: "Asunto", Value: s.Subject},
			{Icon: "📅", Label: "Fecha", Value: r.Timestamp(meta.Now)},
		},
		Blocks: []Block{{Heading: "💬 Mensaje:", Body: s.Message}},
		Closing: []Span{
			{Text: "Acción requerida:", Strong: true},
			{Text: " Responde a este mensaje contactando directamente a " + s.Email},
		},
		Footer: []string{
			"Este email fue generado automáticamente desde el sistema de contacto de " + name + ".",
			"🦸 " + name + " - Gestiona tus finanzas como un héroe",
		},
	}
}

func (r *Renderer) contactSubmitter(s domain.ContactSubmission, meta Meta) Document {
	name := r.opts.DisplayName
	return Document{
		Audience: AudienceSubmitter,
		Subject:  "✅ Hemos recibido tu mensaje - " + name,
		Theme:    themeConfirmation,
		Brand:    "🦸 " + name,
		Tagline:  tagline,
		Icon:     "✅",
		Title:    "¡Mensaje Recibido!",
		Intro: []Span{
			{Text: "Hola "},
			{Text: s.Name, Strong: true},
			{Text: ", hemos recibido tu mensaje correctamente."},
		},
		FactsHeading: "📋 Resumen de tu consulta:",
		Facts: []Fact{
			{Label: "Asunto", Value: s.Subject},
			{Label: "Fecha", Value: r.Timestamp(meta.Now)},
			{Label: "Email de contacto", Value: s.Email},
		},
		Closing: []Span{{Text: "Nuestro equipo de soporte revisará tu mensaje y te responderemos en un plazo máximo de 24 horas."}},
		Action:  &Action{Label: "🎯 Visitar Centro de Ayuda", URL: r.opts.SupportURL},
		Callouts: []Callout{{
			Title: "💡 Tip:",
			Body:  "Mientras esperas nuestra respuesta, puedes consultar nuestras FAQ donde resolvemos las dudas más comunes.",
			Tone:  ToneWarning,
		}},
		Footer: []string{
			"Gracias por confiar en " + name + " para gestionar tus finanzas.",
			"🦸 " + name + " - Tu compañero financiero de confianza",
		},
	}
}
