// Package validation checks raw form bodies and turns them into typed submissions.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/herobudget/notification-service/internal/domain"
)

// Reason tells why a body was rejected. Clients only ever see a generic message.
type Reason string

const (
	ReasonMalformedBody   Reason = "malformed_body"
	ReasonMissingField    Reason = "missing_field"
	ReasonEmptyField      Reason = "empty_field"
	ReasonInvalidEmail    Reason = "invalid_email"
	ReasonInvalidPriority Reason = "invalid_priority"
	ReasonInvalidType     Reason = "invalid_type"
)

// emailPart is one run of characters that are neither whitespace nor '@'.
// Whitespace spans the Unicode space separators, not only ASCII.
const emailPart = `[^\t\n\v\f\r \x{a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}@]+`

// EmailPattern is a syntactic check only; it says nothing about deliverability.
var EmailPattern = regexp.MustCompile(`^` + emailPart + `@` + emailPart + `\.` + emailPart + `$`)

// Error is the rejection of one submission body.
type Error struct {
	Kind   domain.Kind
	Reason Reason
	Field  string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s submission: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("invalid %s submission: %s (%s)", e.Kind, e.Reason, e.Field)
}

type schema struct {
	required  []string
	optional  []string
	priority  func(string) bool
	construct func(fields map[string]string) domain.Submission
}

var schemas = map[domain.Kind]schema{
	domain.KindContact: {
		required: []string{"name", "email", "subject", "message"},
		construct: func(f map[string]string) domain.Submission {
			return domain.ContactSubmission{
				Name:    f["name"],
				Email:   f["email"],
				Subject: f["subject"],
				Message: f["message"],
			}
		},
	},
	domain.KindTicket: {
		required: []string{"name", "email", "priority", "category", "subject", "description"},
		optional: []string{"device", "version", "steps"},
		priority: func(v string) bool { return domain.TicketPriority(v).Valid() },
		construct: func(f map[string]string) domain.Submission {
			return domain.TicketSubmission{
				Name:        f["name"],
				Email:       f["email"],
				Priority:    domain.TicketPriority(f["priority"]),
				Category:    f["category"],
				Subject:     f["subject"],
				Description: f["description"],
				Device:      f["device"],
				Version:     f["version"],
				Steps:       f["steps"],
			}
		},
	},
	domain.KindPrivacy: {
		required: []string{"name", "email", "topic", "message", "priority"},
		priority: func(v string) bool { return domain.PrivacyPriority(v).Valid() },
		construct: func(f map[string]string) domain.Submission {
			return domain.PrivacySubmission{
				Name:     f["name"],
				Email:    f["email"],
				Topic:    f["topic"],
				Message:  f["message"],
				Priority: domain.PrivacyPriority(f["priority"]),
			}
		},
	},
}

// Validate checks a JSON body against the schema of kind and stops at the first failure.
// Checks run in order: shape, presence and type, non-blank, email, priority, optional types.
// The returned submission is not normalized.
func Validate(kind domain.Kind, body []byte) (domain.Submission, error) {
	sc, ok := schemas[kind]
	if !ok {
		return nil, fmt.Errorf("unknown submission kind %q", kind)
	}

	if !gjson.ValidBytes(body) {
		return nil, &Error{Kind: kind, Reason: ReasonMalformedBody}
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, &Error{Kind: kind, Reason: ReasonMalformedBody}
	}
	members := topLevel(root)

	fields := make(map[string]string, len(sc.required)+len(sc.optional))
	for _, name := range sc.required {
		val := members[name]
		if val.Type != gjson.String {
			return nil, &Error{Kind: kind, Reason: ReasonMissingField, Field: name}
		}
		fields[name] = val.Str
	}

	for _, name := range sc.required {
		if strings.TrimSpace(fields[name]) == "" {
			return nil, &Error{Kind: kind, Reason: ReasonEmptyField, Field: name}
		}
	}

	if !EmailPattern.MatchString(fields["email"]) {
		return nil, &Error{Kind: kind, Reason: ReasonInvalidEmail, Field: "email"}
	}

	if sc.priority != nil && !sc.priority(fields["priority"]) {
		return nil, &Error{Kind: kind, Reason: ReasonInvalidPriority, Field: "priority"}
	}

	for _, name := range sc.optional {
		val := members[name]
		if !val.Exists() || val.Type == gjson.Null {
			continue
		}
		if val.Type != gjson.String {
			return nil, &Error{Kind: kind, Reason: ReasonInvalidType, Field: name}
		}
		fields[name] = val.Str
	}

	return sc.construct(fields), nil
}

// topLevel indexes the members of obj by key. A repeated key keeps its last value.
func topLevel(obj gjson.Result) map[string]gjson.Result {
	members := make(map[string]gjson.Result)
	obj.ForEach(func(key, value gjson.Result) bool {
		members[key.Str] = value
		return true
	})
	return members
}
