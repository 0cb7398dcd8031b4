package domain

import "strings"

// Kind discriminates the submission variants accepted by the site.
type Kind string

const (
	KindContact Kind = "contact"
	KindTicket  Kind = "ticket"
	KindPrivacy Kind = "privacy"
)

// Kinds lists every supported submission variant.
func Kinds() []Kind {
	return []Kind{KindContact, KindTicket, KindPrivacy}
}

// Submission is one user-originated form payload. It lives for a single request.
type Submission interface {
	Kind() Kind
	SubmitterName() string
	SubmitterEmail() string
	// Normalize returns a copy with text trimmed and the email lowercased.
	Normalize() Submission
}

// ContactSubmission is the general contact form.
type ContactSubmission struct {
	Name    string
	Email   string
	Subject string
	Message string
}

func (c ContactSubmission) Kind() Kind             { return KindContact }
func (c ContactSubmission) SubmitterName() string  { return c.Name }
func (c ContactSubmission) SubmitterEmail() string { return c.Email }

// Normalize implements Submission.
func (c ContactSubmission) Normalize() Submission {
	return ContactSubmission{
		Name:    strings.TrimSpace(c.Name),
		Email:   NormalizeEmail(c.Email),
		Subject: strings.TrimSpace(c.Subject),
		Message: strings.TrimSpace(c.Message),
	}
}

// PrivacySubmission is a data-protection inquiry.
type PrivacySubmission struct {
	Name     string
	Email    string
	Topic    string
	Message  string
	Priority PrivacyPriority
}

func (p PrivacySubmission) Kind() Kind             { return KindPrivacy }
func (p PrivacySubmission) SubmitterName() string  { return p.Name }
func (p PrivacySubmission) SubmitterEmail() string { return p.Email }

// Normalize implements Submission.
func (p PrivacySubmission) Normalize() Submission {
	return PrivacySubmission{
		Name:     strings.TrimSpace(p.Name),
		Email:    NormalizeEmail(p.Email),
		Topic:    strings.TrimSpace(p.Topic),
		Message:  strings.TrimSpace(p.Message),
		Priority: p.Priority,
	}
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Sanitize normalizes an already validated submission. It cannot fail.
func Sanitize(s Submission) Submission {
	if s == nil {
		return nil
	}
	return s.Normalize()
}
