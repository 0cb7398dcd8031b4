package domain

import "slices"

// Severity is the three-level scale used to color documents.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// PrivacyPriority enumerates the urgency of a privacy inquiry.
type PrivacyPriority string

const (
	PrivacyPriorityLow    PrivacyPriority = "low"
	PrivacyPriorityMedium PrivacyPriority = "medium"
	PrivacyPriorityHigh   PrivacyPriority = "high"
)

// PrivacyPriorities lists the accepted literals.
func PrivacyPriorities() []PrivacyPriority {
	return []PrivacyPriority{PrivacyPriorityLow, PrivacyPriorityMedium, PrivacyPriorityHigh}
}

func (p PrivacyPriority) Valid() bool {
	return slices.Contains(PrivacyPriorities(), p)
}

func (p PrivacyPriority) Emoji() string {
	switch p {
	case PrivacyPriorityHigh:
		return "🔴"
	case PrivacyPriorityMedium:
		return "🟡"
	default:
		return "🟢"
	}
}

// Label is the Spanish display name.
func (p PrivacyPriority) Label() string {
	switch p {
	case PrivacyPriorityHigh:
		return "Alta"
	case PrivacyPriorityMedium:
		return "Media"
	default:
		return "Baja"
	}
}

func (p PrivacyPriority) Severity() Severity {
	return Severity(p)
}
