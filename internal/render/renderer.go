package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/herobudget/notification-service/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// TimestampLayout mirrors how a Spanish locale prints date and time.
const TimestampLayout = "2/1/2006, 15:04:05"

// Options configures brand text and links shared by every document.
type Options struct {
	DisplayName string
	PublicURL   string
	SupportURL  string
	Location    *time.Location
}

// Meta carries the values computed once per submission at render time.
type Meta struct {
	Now       time.Time
	Reference domain.TicketReference
}

// Renderer builds and renders the documents of every submission kind.
type Renderer struct {
	opts Options
	html *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer(opts Options) (*Renderer, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DisplayName == "" {
		opts.DisplayName = "Hero Budget"
	}
	tmpl, err := template.ParseFS(templateFS, "templates/document.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse document template: %w", err)
	}
	return &Renderer{opts: opts, html: tmpl}, nil
}

// Timestamp formats t in the configured zone.
func (r *Renderer) Timestamp(t time.Time) string {
	return t.In(r.opts.Location).Format(TimestampLayout)
}

// Build maps a normalized submission to its document models, operator first.
// Contact and ticket produce an acknowledgment for the submitter; privacy does not.
func (r *Renderer) Build(sub domain.Submission, meta Meta) ([]Document, error) {
	switch s := sub.(type) {
	case domain.ContactSubmission:
		return []Document{r.contactOperator(s, meta), r.contactSubmitter(s, meta)}, nil
	case domain.TicketSubmission:
		return []Document{r.ticketOperator(s, meta), r.ticketSubmitter(s, meta)}, nil
	case domain.PrivacySubmission:
		return []Document{r.privacyOperator(s, meta)}, nil
	default:
		return nil, fmt.Errorf("no documents for submission type %T", sub)
	}
}

// Render writes one document model out as HTML and plain text.
func (r *Renderer) Render(doc Document) (NotificationDocument, error) {
	var buf bytes.Buffer
	if err := r.html.ExecuteTemplate(&buf, "document.html.tmpl", doc); err != nil {
		return NotificationDocument{}, fmt.Errorf("render %s document: %w", doc.Audience, err)
	}
	return NotificationDocument{
		Audience: doc.Audience,
		Subject:  doc.Subject,
		HTML:     buf.String(),
		Text:     PlainText(doc),
	}, nil
}

// RenderAll builds and renders every document of a submission.
func (r *Renderer) RenderAll(sub domain.Submission, meta Meta) ([]NotificationDocument, error) {
	docs, err := r.Build(sub, meta)
	if err != nil {
		return nil, err
	}
	out := make([]NotificationDocument, 0, len(docs))
	for _, doc := range docs {
		rendered, err := r.Render(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rendered)
	}
	return out, nil
}

// PlainText is the text/plain alternative of a document.
func PlainText(doc Document) string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	header := doc.Brand
	if doc.Tagline != "" {
		header += " - " + doc.Tagline
	}
	line(header)
	line("")
	line(doc.Title)
	if intro := doc.PlainIntro(); intro != "" {
		line("")
		line(intro)
	}
	if doc.Badge != nil {
		line(doc.Badge.Label)
	}
	if h := doc.Highlight; h != nil {
		line("")
		line(h.Caption + " " + h.Value)
		if h.Note != "" {
			line(h.Note)
		}
	}
	if len(doc.Facts) > 0 {
		line("")
		if doc.FactsHeading != "" {
			line(doc.FactsHeading)
		}
		for _, f := range doc.Facts {
			line("- " + f.Label + ": " + f.Value)
		}
	}
	for _, blk := range doc.Blocks {
		line("")
		line(blk.Heading)
		line(blk.Body)
	}
	if len(doc.Timeline) > 0 {
		line("")
		if doc.TimelineHead != "" {
			line(doc.TimelineHead)
		}
		for _, st := range doc.Timeline {
			entry := "* " + st.Title
			if st.Detail != "" {
				entry += " - " + st.Detail
			}
			line(entry)
		}
	}
	if closing := doc.PlainClosing(); closing != "" {
		line("")
		line(closing)
	}
	if doc.Action != nil {
		line("")
		line(doc.Action.Label + ": " + doc.Action.URL)
	}
	for _, c := range doc.Callouts {
		line("")
		if c.Title != "" {
			line(c.Title + " " + c.Body)
		} else {
			line(c.Body)
		}
	}
	if len(doc.Footer) > 0 {
		line("")
		line("---")
		for _, f := range doc.Footer {
			line(f)
		}
	}
	return b.String()
}
