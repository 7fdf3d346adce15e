package customers

// CreateInput carries the caller-supplied customer fields. Ownership and
// tenancy are stamped by the access layer, never taken from here.
type CreateInput struct {
	Name           string   `json:"name" validate:"required"`
	Email          string   `json:"email" validate:"omitempty,email"`
	Phone          string   `json:"phone"`
	Company        string   `json:"company"`
	Address        string   `json:"address"`
	City           string   `json:"city"`
	State          string   `json:"state"`
	Country        string   `json:"country"`
	PostalCode     string   `json:"postal_code"`
	Industry       string   `json:"industry"`
	Type           string   `json:"type"`
	Status         string   `json:"status"`
	Tags           []string `json:"tags"`
	SecondaryPhone string   `json:"secondary_phone"`
	SecondaryEmail string   `json:"secondary_email"`
	Website        string   `json:"website"`
	Notes          string   `json:"notes"`
}

// ListParams are the store-level filters plus the post-filter search term.
type ListParams struct {
	Status string
	Type   string
	Search string
	Page   int
	Limit  int
}
