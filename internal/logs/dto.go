package logs

import "time"

// CreateInput carries the caller-supplied interaction fields.
type CreateInput struct {
	Type        string   `json:"type" validate:"required"`
	CustomerID  string   `json:"customer_id" validate:"required"`
	Title       string   `json:"title"`
	Subject     string   `json:"subject"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	ThreadID    string   `json:"thread_id"`
	Attachments []string `json:"attachments"`
	Tags        []string `json:"tags"`
	Duration    int      `json:"duration"`
}

type ListParams struct {
	CustomerID string
	Type       string
	From       time.Time
	To         time.Time
	OrderBy    string
	Descending bool
	Page       int
	Limit      int
	Search     string
}
