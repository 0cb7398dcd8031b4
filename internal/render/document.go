// Package render turns normalized submissions into notification documents.
//
// Rendering happens in two steps. Builders map a submission to a Document,
// a markup-free model that tests can inspect field by field. The Renderer
// then writes a Document out as HTML (html/template, so every user value is
// escaped for its context) and as plain text.
package render

import "html/template"

// Audience says who a document is addressed to.
type Audience string

const (
	AudienceOperator  Audience = "operator"
	AudienceSubmitter Audience = "submitter"
)

// Tone selects the color scheme of a badge, block or callout.
type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneHigh    Tone = "high"
	ToneMedium  Tone = "medium"
	ToneLow     Tone = "low"
)

// Theme is the header gradient and accent of a document. Values are trusted constants.
type Theme struct {
	From   template.CSS
	To     template.CSS
	Accent template.CSS
}

var (
	themeContact      = Theme{From: "#e91e63", To: "#4caf50", Accent: "#e91e63"}
	themeConfirmation = Theme{From: "#4caf50", To: "#e91e63", Accent: "#4caf50"}
	themeTicket       = Theme{From: "#f44336", To: "#e91e63", Accent: "#f44336"}
	themeTicketAck    = Theme{From: "#2196f3", To: "#4caf50", Accent: "#2196f3"}
	themePrivacy      = Theme{From: "#8b5cf6", To: "#3b82f6", Accent: "#8b5cf6"}
)

// Span is a run of text, optionally emphasized.
type Span struct {
	Text   string
	Strong bool
}

// Fact is one labeled value in the summary card.
type Fact struct {
	Icon  string
	Label string
	Value string
	Tone  Tone
}

// Block is a headed box of free text such as the user's message.
type Block struct {
	Heading string
	Body    string
	Tone    Tone
}

// Callout is a highlighted note.
type Callout struct {
	Title string
	Body  string
	Tone  Tone
}

// Step is one entry of a status timeline.
type Step struct {
	Icon   string
	Title  string
	Detail string
	Tone   Tone
}

// Highlight is a large centered value, used for the ticket number.
type Highlight struct {
	Caption string
	Value   string
	Note    string
}

// Badge is a pill shown under the title.
type Badge struct {
	Label string
	Tone  Tone
}

// Action is the call-to-action button.
type Action struct {
	Label string
	URL   string
}

// Document is the markup-free model of one notification.
type Document struct {
	Audience Audience
	Subject  string
	Theme    Theme
	Brand    string
	Tagline  string
	Icon     string
	Title    string
	Intro    []Span
	Badge    *Badge

	Highlight    *Highlight
	FactsHeading string
	Facts        []Fact
	Blocks       []Block
	TimelineHead string
	Timeline     []Step
	Callouts     []Callout
	Closing      []Span
	Action       *Action
	Footer       []string
}

// NotificationDocument is a rendered subject and body pair ready for dispatch.
type NotificationDocument struct {
	Audience Audience
	Subject  string
	HTML     string
	Text     string
}

// PlainIntro flattens the intro spans.
func (d Document) PlainIntro() string {
	return joinSpans(d.Intro)
}

// PlainClosing flattens the closing spans.
func (d Document) PlainClosing() string {
	return joinSpans(d.Closing)
}

func joinSpans(spans []Span) string {
	out := ""
	for _, s := range spans {
		out += s.Text
	}
	return out
}
