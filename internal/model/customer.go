package model

import (
	"encoding/json"
	"time"
)

// CustomerStatus is customer lifecycle status
type CustomerStatus string

const (
	// StatusActive means customer is verified and active
	StatusActive CustomerStatus = "active"
	// StatusInactive means customer was deactivated (soft deleted)
	StatusInactive CustomerStatus = "inactive"
	// StatusSuspended means customer is suspended
	StatusSuspended CustomerStatus = "suspended"
	// StatusPendingVerification is initial status of every registered customer
	StatusPendingVerification CustomerStatus = "pending_verification"
)

// ComplianceStatus is result of the latest compliance check
type ComplianceStatus string

const (
	// CompliancePending means no compliance check has completed yet
	CompliancePending ComplianceStatus = "pending"
	// ComplianceApproved means customer passed compliance check
	ComplianceApproved ComplianceStatus = "approved"
	// ComplianceRejected means customer failed compliance check
	ComplianceRejected ComplianceStatus = "rejected"
	// ComplianceUnderReview means compliance check requires manual review
	ComplianceUnderReview ComplianceStatus = "under_review"
)

// Known reports whether status is one of defined compliance statuses
func (s ComplianceStatus) Known() bool {
	switch s {
	case CompliancePending, ComplianceApproved, ComplianceRejected, ComplianceUnderReview:
		return true
	default:
		return false
	}
}

// DefaultCountry is applied to address when country is omitted
const DefaultCountry = "Colombia"

// Address is customer postal address
type Address struct {
	Street     string `json:"street" bson:"street"`
	City       string `json:"city" bson:"city"`
	State      string `json:"state" bson:"state"`
	PostalCode string `json:"postalCode" bson:"postalCode"`
	Country    string `json:"country" bson:"country"`
}

// Customer is customer model entity
type Customer struct {
	ID                  string           `json:"id" bson:"_id"`
	FirstName           string           `json:"firstName" bson:"firstName"`
	LastName            string           `json:"lastName" bson:"lastName"`
	Email               string           `json:"email" bson:"email"`
	Phone               string           `json:"phone" bson:"phone"`
	DateOfBirth         time.Time        `json:"dateOfBirth" bson:"dateOfBirth"`
	NationalID          string           `json:"nationalId" bson:"nationalId"`
	PassportNumber      *string          `json:"passportNumber,omitempty" bson:"passportNumber,omitempty"`
	Address             Address          `json:"address" bson:"address"`
	Documents           []Document       `json:"documents" bson:"documents"`
	EmailVerified       bool             `json:"emailVerified" bson:"emailVerified"`
	PhoneVerified       bool             `json:"phoneVerified" bson:"phoneVerified"`
	IdentityVerified    bool             `json:"identityVerified" bson:"identityVerified"`
	Preferences         Preferences      `json:"preferences" bson:"preferences"`
	Status              CustomerStatus   `json:"status" bson:"status"`
	ComplianceStatus    ComplianceStatus `json:"complianceStatus" bson:"complianceStatus"`
	ComplianceNotes     *string          `json:"complianceNotes,omitempty" bson:"complianceNotes,omitempty"`
	RiskScore           *float64         `json:"riskScore,omitempty" bson:"riskScore,omitempty"`
	LastComplianceCheck *time.Time       `json:"lastComplianceCheck,omitempty" bson:"lastComplianceCheck,omitempty"`
	Version             int64            `json:"-" bson:"version"`
	CreatedAt           time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt" bson:"updatedAt"`
}

// MarshalJSON renders absent documents as empty list
func (c Customer) MarshalJSON() ([]byte, error) {
	type customer Customer
	out := customer(c)
	if out.Documents == nil {
		out.Documents = make([]Document, 0)
	}
	return json.Marshal(out)
}

// ListItem returns customer representation used in search results, documents are left out
func (c *Customer) ListItem() *CustomerListItem {
	return &CustomerListItem{
		ID:                  c.ID,
		FirstName:           c.FirstName,
		LastName:            c.LastName,
		Email:               c.Email,
		Phone:               c.Phone,
		DateOfBirth:         c.DateOfBirth,
		NationalID:          c.NationalID,
		PassportNumber:      c.PassportNumber,
		Address:             c.Address,
		EmailVerified:       c.EmailVerified,
		PhoneVerified:       c.PhoneVerified,
		IdentityVerified:    c.IdentityVerified,
		Preferences:         c.Preferences,
		Status:              c.Status,
		ComplianceStatus:    c.ComplianceStatus,
		ComplianceNotes:     c.ComplianceNotes,
		RiskScore:           c.RiskScore,
		LastComplianceCheck: c.LastComplianceCheck,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

// CustomerListItem is customer without documents
type CustomerListItem struct {
	ID                  string           `json:"id"`
	FirstName           string           `json:"firstName"`
	LastName            string           `json:"lastName"`
	Email               string           `json:"email"`
	Phone               string           `json:"phone"`
	DateOfBirth         time.Time        `json:"dateOfBirth"`
	NationalID          string           `json:"nationalId"`
	PassportNumber      *string          `json:"passportNumber,omitempty"`
	Address             Address          `json:"address"`
	EmailVerified       bool             `json:"emailVerified"`
	PhoneVerified       bool             `json:"phoneVerified"`
	IdentityVerified    bool             `json:"identityVerified"`
	Preferences         Preferences      `json:"preferences"`
	Status              CustomerStatus   `json:"status"`
	ComplianceStatus    ComplianceStatus `json:"complianceStatus"`
	ComplianceNotes     *string          `json:"complianceNotes,omitempty"`
	RiskScore           *float64         `json:"riskScore,omitempty"`
	LastComplianceCheck *time.Time       `json:"lastComplianceCheck,omitempty"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

// FullName returns first and last name joined
func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Summary returns short customer representation
func (c *Customer) Summary() CustomerSummary {
	return CustomerSummary{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Status:    c.Status,
	}
}

// CustomerSummary is short customer representation returned along with accounts
type CustomerSummary struct {
	ID        string         `json:"id"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	Email     string         `json:"email"`
	Status    CustomerStatus `json:"status"`
}

// NewCustomer contains normalized data required for customer registration
type NewCustomer struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	DateOfBirth    time.Time
	NationalID     string
	PassportNumber *string
	Address        Address
	Documents      []NewDocument
	Preferences    *PreferencesPatch
}

// Build creates customer entity with all derived defaults applied
func (nc *NewCustomer) Build(id string, now time.Time) *Customer {
	addr := nc.Address
	if addr.Country == "" {
		addr.Country = DefaultCountry
	}

	docs := make([]Document, 0, len(nc.Documents))
	for _, d := range nc.Documents {
		docs = append(docs, d.Stamp(now))
	}

	return &Customer{
		ID:               id,
		FirstName:        nc.FirstName,
		LastName:         nc.LastName,
		Email:            nc.Email,
		Phone:            nc.Phone,
		DateOfBirth:      nc.DateOfBirth,
		NationalID:       nc.NationalID,
		PassportNumber:   nc.PassportNumber,
		Address:          addr,
		Documents:        docs,
		Preferences:      DefaultPreferences().Overlay(nc.Preferences),
		Status:           StatusPendingVerification,
		ComplianceStatus: CompliancePending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// AddressPatch holds address fields which must be changed
type AddressPatch struct {
	Street     *string
	City       *string
	State      *string
	PostalCode *string
	Country    *string
}

// CustomerPatch holds profile fields which must be changed. Identity anchors, documents,
// verification flags and statuses are intentionally absent, they change through dedicated paths only.
type CustomerPatch struct {
	FirstName      *string
	LastName       *string
	Email          *string
	Phone          *string
	PassportNumber *string
	Address        *AddressPatch
	Preferences    *PreferencesPatch
}

// IsEmpty reports whether patch changes nothing
func (p *CustomerPatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Phone == nil &&
		p.PassportNumber == nil && p.Address == nil && p.Preferences == nil
}

// Apply merges patch into customer
func (p *CustomerPatch) Apply(c *Customer) {
	if p.FirstName != nil {
		c.FirstName = *p.FirstName
	}

	if p.LastName != nil {
		c.LastName = *p.LastName
	}

	if p.Email != nil {
		c.Email = *p.Email
	}

	if p.Phone != nil {
		c.Phone = *p.Phone
	}

	if p.PassportNumber != nil {
		s := *p.PassportNumber
		c.PassportNumber = &s
	}

	if a := p.Address; a != nil {
		if a.Street != nil {
			c.Address.Street = *a.Street
		}
		if a.City != nil {
			c.Address.City = *a.City
		}
		if a.State != nil {
			c.Address.State = *a.State
		}
		if a.PostalCode != nil {
			c.Address.PostalCode = *a.PostalCode
		}
		if a.Country != nil {
			c.Address.Country = *a.Country
		}
	}

	if p.Preferences != nil {
		c.Preferences = c.Preferences.Overlay(p.Preferences)
	}
}

// ComplianceOutcome is compliance check result which must be stored on customer
type ComplianceOutcome struct {
	Status    ComplianceStatus
	Notes     *string
	RiskScore *float64
	CheckedAt time.Time
}
