package model

import "time"

// ComplianceCustomerData is customer identity sent for compliance check
type ComplianceCustomerData struct {
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	NationalID  string    `json:"nationalId"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	Country     string    `json:"country"`
}

// ComplianceDocument is document reference sent for compliance check
type ComplianceDocument struct {
	Type     DocumentType `json:"type"`
	Filename string       `json:"filename"`
}

// ComplianceRequest is payload of compliance check
type ComplianceRequest struct {
	CustomerID   string                 `json:"customerId"`
	CustomerData ComplianceCustomerData `json:"customerData"`
	Documents    []ComplianceDocument   `json:"documents"`
}

// NewComplianceRequest builds compliance check payload for customer
func NewComplianceRequest(c *Customer) *ComplianceRequest {
	docs := make([]ComplianceDocument, 0, len(c.Documents))
	for _, d := range c.Documents {
		docs = append(docs, ComplianceDocument{Type: d.Type, Filename: d.Filename})
	}

	return &ComplianceRequest{
		CustomerID: c.ID,
		CustomerData: ComplianceCustomerData{
			FirstName:   c.FirstName,
			LastName:    c.LastName,
			Email:       c.Email,
			NationalID:  c.NationalID,
			DateOfBirth: c.DateOfBirth,
			Country:     c.Address.Country,
		},
		Documents: docs,
	}
}

// ComplianceResult is compliance service verdict
type ComplianceResult struct {
	CustomerID string           `json:"customerId"`
	Status     ComplianceStatus `json:"status"`
	RiskScore  float64          `json:"riskScore"`
	Notes      *string          `json:"notes,omitempty"`
	CheckedAt  time.Time        `json:"checkedAt"`
}

// Outcome converts verdict into data stored on customer
func (r *ComplianceResult) Outcome() ComplianceOutcome {
	score := r.RiskScore
	checkedAt := r.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now().UTC()
	}

	return ComplianceOutcome{
		Status:    r.Status,
		Notes:     r.Notes,
		RiskScore: &score,
		CheckedAt: checkedAt,
	}
}
