package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// TicketPriority enumerates the urgency a user picks on the support form.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Baja"
	TicketPriorityMedium TicketPriority = "Media"
	TicketPriorityHigh   TicketPriority = "Alta"
	TicketPriorityUrgent TicketPriority = "Urgente"
)

// TicketPriorities lists the accepted literals.
func TicketPriorities() []TicketPriority {
	return []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent}
}

// Valid reports whether p is one of the accepted literals. Matching is exact.
func (p TicketPriority) Valid() bool {
	return slices.Contains(TicketPriorities(), p)
}

// SubjectPrefix is the tag put in front of the operator subject line.
func (p TicketPriority) SubjectPrefix() string {
	switch p {
	case TicketPriorityUrgent:
		return "🚨 URGENTE"
	case TicketPriorityHigh:
		return "🔴 ALTA"
	case TicketPriorityMedium:
		return "🟡 MEDIA"
	default:
		return "🟢 BAJA"
	}
}

// Severity collapses the priority into three display levels.
func (p TicketPriority) Severity() Severity {
	switch p {
	case TicketPriorityUrgent, TicketPriorityHigh:
		return SeverityHigh
	case TicketPriorityMedium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// ResponseTime is the estimate promised to the submitter.
func (p TicketPriority) ResponseTime() string {
	switch p {
	case TicketPriorityUrgent:
		return "Menos de 2 horas"
	case TicketPriorityHigh:
		return "2-6 horas"
	case TicketPriorityMedium:
		return "6-24 horas"
	default:
		return "24-48 horas"
	}
}

// TicketSubmission is a support ticket. Device, Version and Steps are optional;
// the empty string means the user did not provide them.
type TicketSubmission struct {
	Name        string
	Email       string
	Priority    TicketPriority
	Category    string
	Subject     string
	Description string
	Device      string
	Version     string
	Steps       string
}

func (t TicketSubmission) Kind() Kind             { return KindTicket }
func (t TicketSubmission) SubmitterName() string  { return t.Name }
func (t TicketSubmission) SubmitterEmail() string { return t.Email }

// Normalize implements Submission. Priority is kept verbatim since it was matched exactly.
func (t TicketSubmission) Normalize() Submission {
	return TicketSubmission{
		Name:        strings.TrimSpace(t.Name),
		Email:       NormalizeEmail(t.Email),
		Priority:    t.Priority,
		Category:    strings.TrimSpace(t.Category),
		Subject:     strings.TrimSpace(t.Subject),
		Description: strings.TrimSpace(t.Description),
		Device:      strings.TrimSpace(t.Device),
		Version:     strings.TrimSpace(t.Version),
		Steps:       strings.TrimSpace(t.Steps),
	}
}

// TicketReference is the short id shown to the user. It is derived from the
// clock and never stored, so two tickets in the same millisecond window share it.
type TicketReference string

// NewTicketReference builds "HB-" plus the last six digits of the Unix millisecond clock.
func NewTicketReference(now time.Time) TicketReference {
	return TicketReference(fmt.Sprintf("HB-%06d", now.UnixMilli()%1_000_000))
}

func (r TicketReference) String() string { return string(r) }
