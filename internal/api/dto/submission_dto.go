package dto

// ContactRequest documents the body of POST /api/contact. Bodies are validated
// as untyped JSON, so this type is never decoded into.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// TicketRequest documents the body of POST /api/ticket.
type TicketRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Priority    string  `json:"priority"`
	Category    string  `json:"category"`
	Subject     string  `json:"subject"`
	Description string  `json:"description"`
	Device      *string `json:"device,omitempty"`
	Version     *string `json:"version,omitempty"`
	Steps       *string `json:"steps,omitempty"`
}

// PrivacyRequest documents the body of POST /api/send-privacy-email.
type PrivacyRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Topic    string `json:"topic"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
}

// SubmissionResponse is the body of an accepted submission.
type SubmissionResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"messageId,omitempty"`
}

// FailureResponse is the body of a refused submission. Success is omitted on the
// privacy endpoint, which only ever answered with an error field.
type FailureResponse struct {
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error"`
}

// ErrorResponse is what the error middleware renders for errors no handler answered.
type ErrorResponse struct {
	Success bool           `json:"success"`
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthResponse reports liveness or readiness.
type HealthResponse struct {
	Status       string            `json:"status"`
	Service      string            `json:"service,omitempty"`
	Version      string            `json:"version,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}
