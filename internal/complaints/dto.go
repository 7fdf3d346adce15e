package complaints

// CreateInput carries the caller-supplied complaint fields.
type CreateInput struct {
	CustomerID  string   `json:"customer_id" validate:"required"`
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Severity    string   `json:"severity"`
	Priority    int      `json:"priority"`
	AssignedTo  string   `json:"assigned_to"`
	Attachments []string `json:"attachments"`
}

// StatusInput drives one state-machine transition. Resolution fields are only
// read when the target status is resolved.
type StatusInput struct {
	Status               string `json:"status" validate:"required"`
	ResolutionNotes      string `json:"resolution_notes"`
	CustomerSatisfaction string `json:"customer_satisfaction"`
}

type ListParams struct {
	CustomerID string
	Status     string
	AssignedTo string
	Search     string
	Page       int
	Limit      int
}
