package models

import "time"

// Alert statuses as the backend reports them.
const (
	AlertStatusPending  = "Pending"
	AlertStatusApproved = "Approved"
	AlertStatusRejected = "Rejected"
	AlertStatusClosed   = "Closed"
)

// AlertPayload is the creation payload derived from a matched event row.
// It is never stored client-side beyond the pending POST.
type AlertPayload struct {
	Company        string            `json:"company"`
	EventName      string            `json:"eventName"`
	RawSource      map[string]string `json:"rawSource,omitempty"`
	MatchedRule    *RuleRecord       `json:"matchedRule,omitempty"`
	Severity       string            `json:"severity,omitempty"`
	TurnaroundDays string            `json:"turnaroundDays,omitempty"`
	Status         string            `json:"status"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// Alert is a persisted alert as returned by the backend.
type Alert struct {
	ID             string      `json:"id"`
	Company        string      `json:"company"`
	EventName      string      `json:"eventName"`
	MatchedRule    *RuleRecord `json:"matchedRule,omitempty"`
	Severity       string      `json:"severity,omitempty"`
	TurnaroundDays string      `json:"turnaroundDays,omitempty"`
	Status         string      `json:"status"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      *time.Time  `json:"updatedAt,omitempty"`
}

// AlertAction is the PATCH body for reviewer decisions on an alert.
type AlertAction struct {
	Action  string `json:"action"`
	Comment string `json:"comment,omitempty"`
}

// Notification is an operator notification from the backend.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
