package validation

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/umalmyha/customers-kyc/internal/model"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

const atLeastOneTag = "atleastone"

// Identifier is customer id taken from path
type Identifier struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (i *Identifier) Normalize() {
	i.ID = strings.TrimSpace(i.ID)
}

// NationalIdentifier is customer national id taken from path
type NationalIdentifier struct {
	NationalID string `param:"nationalId" validate:"required,max=20"`
}

func (i *NationalIdentifier) Normalize() {
	i.NationalID = strings.TrimSpace(i.NationalID)
}

type Address struct {
	Street     string `json:"street" validate:"required,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"required,max=100"`
	PostalCode string `json:"postalCode" validate:"required,max=20"`
	Country    string `json:"country" validate:"omitempty,max=100"`
}

type AddressPatch struct {
	Street     *string `json:"street" validate:"omitempty,max=200"`
	City       *string `json:"city" validate:"omitempty,max=100"`
	State      *string `json:"state" validate:"omitempty,max=100"`
	PostalCode *string `json:"postalCode" validate:"omitempty,max=20"`
	Country    *string `json:"country" validate:"omitempty,max=100"`
}

type Notifications struct {
	Email *bool `json:"email"`
	SMS   *bool `json:"sms"`
	Push  *bool `json:"push"`
}

type Preferences struct {
	Language         *string        `json:"language" validate:"omitempty,oneof=es en"`
	Currency         *string        `json:"currency" validate:"omitempty,oneof=COP USD EUR"`
	Notifications    *Notifications `json:"notifications"`
	MarketingConsent *bool          `json:"marketingConsent"`
}

type Document struct {
	Type     string `json:"type" validate:"required,oneof=national_id passport driving_license address_proof income_proof other"`
	Filename string `json:"filename" validate:"required,max=255"`
}

// CreateCustomer is registration schema
type CreateCustomer struct {
	FirstName      string       `json:"firstName" validate:"required,min=2,max=50"`
	LastName       string       `json:"lastName" validate:"required,min=2,max=50"`
	Email          string       `json:"email" validate:"required,email"`
	Phone          string       `json:"phone" validate:"required,phone"`
	DateOfBirth    string       `json:"dateOfBirth" validate:"required,pastdate,adult"`
	NationalID     string       `json:"nationalId" validate:"required,min=8,max=20"`
	PassportNumber *string      `json:"passportNumber" validate:"omitempty,min=6,max=15"`
	Address        *Address     `json:"address" validate:"required"`
	Documents      []Document   `json:"documents" validate:"omitempty,dive"`
	Preferences    *Preferences `json:"preferences"`
}

func (r *CreateCustomer) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = normalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.DateOfBirth = strings.TrimSpace(r.DateOfBirth)
	r.NationalID = strings.TrimSpace(r.NationalID)
	r.PassportNumber = trimOptional(r.PassportNumber)

	if r.Address != nil {
		r.Address.Street = strings.TrimSpace(r.Address.Street)
		r.Address.City = strings.TrimSpace(r.Address.City)
		r.Address.State = strings.TrimSpace(r.Address.State)
		r.Address.PostalCode = strings.TrimSpace(r.Address.PostalCode)
		r.Address.Country = strings.TrimSpace(r.Address.Country)
	}

	for i := range r.Documents {
		r.Documents[i].Filename = strings.TrimSpace(r.Documents[i].Filename)
	}
	normalizePreferences(r.Preferences)
}

// NewCustomer converts validated schema into registration data
func (r *CreateCustomer) NewCustomer() (*model.NewCustomer, error) {
	dob, err := ParseDate(r.DateOfBirth)
	if err != nil {
		return nil, err
	}

	nc := &model.NewCustomer{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		Phone:          r.Phone,
		DateOfBirth:    dob,
		NationalID:     r.NationalID,
		PassportNumber: r.PassportNumber,
		Preferences:    r.Preferences.patch(),
	}

	if r.Address != nil {
		nc.Address = model.Address{
			Street:     r.Address.Street,
			City:       r.Address.City,
			State:      r.Address.State,
			PostalCode: r.Address.PostalCode,
			Country:    r.Address.Country,
		}
	}

	for _, d := range r.Documents {
		nc.Documents = append(nc.Documents, model.NewDocument{Type: model.DocumentType(d.Type), Filename: d.Filename})
	}
	return nc, nil
}

// UpdateCustomer is profile update schema. Identity anchors, documents, verification
// flags and statuses are declared only to reject them when present in payload.
type UpdateCustomer struct {
	ID               string          `param:"id" json:"-" validate:"required,uuid"`
	FirstName        *string         `json:"firstName" validate:"omitempty,min=2,max=50"`
	LastName         *string         `json:"lastName" validate:"omitempty,min=2,max=50"`
	Email            *string         `json:"email" validate:"omitempty,email"`
	Phone            *string         `json:"phone" validate:"omitempty,phone"`
	PassportNumber   *string         `json:"passportNumber" validate:"omitempty,min=6,max=15"`
	Address          *AddressPatch   `json:"address"`
	Preferences      *Preferences    `json:"preferences"`
	NationalID       json.RawMessage `json:"nationalId" validate:"immutable"`
	DateOfBirth      json.RawMessage `json:"dateOfBirth" validate:"immutable"`
	Documents        json.RawMessage `json:"documents" validate:"immutable"`
	EmailVerified    json.RawMessage `json:"emailVerified" validate:"immutable"`
	PhoneVerified    json.RawMessage `json:"phoneVerified" validate:"immutable"`
	IdentityVerified json.RawMessage `json:"identityVerified" validate:"immutable"`
	Status           json.RawMessage `json:"status" validate:"immutable"`
	ComplianceStatus json.RawMessage `json:"complianceStatus" validate:"immutable"`
}

func (r *UpdateCustomer) Normalize() {
	r.ID = strings.TrimSpace(r.ID)
	r.FirstName = trimOptional(r.FirstName)
	r.LastName = trimOptional(r.LastName)
	if r.Email != nil {
		e := normalizeEmail(*r.Email)
		r.Email = &e
	}
	r.Phone = trimOptional(r.Phone)
	r.PassportNumber = trimOptional(r.PassportNumber)

	if a := r.Address; a != nil {
		a.Street = trimOptional(a.Street)
		a.City = trimOptional(a.City)
		a.State = trimOptional(a.State)
		a.PostalCode = trimOptional(a.PostalCode)
		a.Country = trimOptional(a.Country)
	}
	normalizePreferences(r.Preferences)
}

// Patch converts validated schema into profile patch
func (r *UpdateCustomer) Patch() *model.CustomerPatch {
	p := &model.CustomerPatch{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		Phone:          r.Phone,
		PassportNumber: r.PassportNumber,
		Preferences:    r.Preferences.patch(),
	}

	if a := r.Address; a != nil {
		p.Address = &model.AddressPatch{
			Street:     a.Street,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			Country:    a.Country,
		}
	}
	return p
}

func (a *AddressPatch) hasChanges() bool {
	return a != nil && (a.Street != nil || a.City != nil || a.State != nil || a.PostalCode != nil || a.Country != nil)
}

func (n *Notifications) hasChanges() bool {
	return n != nil && (n.Email != nil || n.SMS != nil || n.Push != nil)
}

func (p *Preferences) hasChanges() bool {
	return p != nil && (p.Language != nil || p.Currency != nil || p.MarketingConsent != nil || p.Notifications.hasChanges())
}

// nested objects count only when at least one of their leaves is set
func (r *UpdateCustomer) hasChanges() bool {
	return r.FirstName != nil || r.LastName != nil || r.Email != nil || r.Phone != nil ||
		r.PassportNumber != nil || r.Address.hasChanges() || r.Preferences.hasChanges()
}

func atLeastOneField(sl validator.StructLevel) {
	u, ok := sl.Current().Interface().(UpdateCustomer)
	if !ok {
		return
	}

	if !u.hasChanges() {
		sl.ReportError(nil, "body", "body", atLeastOneTag, "")
	}
}

// SearchQuery is customers search schema
type SearchQuery struct {
	Query            string `query:"q" validate:"omitempty,min=3,max=100"`
	Status           string `query:"status" validate:"omitempty,oneof=active inactive suspended pending_verification"`
	ComplianceStatus string `query:"complianceStatus" validate:"omitempty,oneof=pending approved rejected under_review"`
	Country          string `query:"country" validate:"omitempty,max=100"`
	Page             int    `query:"page" validate:"min=1"`
	Limit            int    `query:"limit" validate:"min=1,max=100"`
}

// NewSearchQuery returns search schema with paging defaults, binding overrides only provided params
func NewSearchQuery() *SearchQuery {
	return &SearchQuery{Page: DefaultPage, Limit: DefaultLimit}
}

func (q *SearchQuery) Normalize() {
	q.Query = strings.TrimSpace(q.Query)
	q.Status = strings.TrimSpace(q.Status)
	q.ComplianceStatus = strings.TrimSpace(q.ComplianceStatus)
	q.Country = strings.TrimSpace(q.Country)

	if q.Limit < 1 {
		q.Limit = 1
	}

	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
}

// Filter converts validated schema into store filter
func (q *SearchQuery) Filter() model.SearchFilter {
	return model.SearchFilter{
		Query:            q.Query,
		Status:           model.CustomerStatus(q.Status),
		ComplianceStatus: model.ComplianceStatus(q.ComplianceStatus),
		Country:          q.Country,
		Page:             q.Page,
		Limit:            q.Limit,
	}
}

// AddDocument is document attachment schema
type AddDocument struct {
	ID       string `param:"id" json:"-" validate:"required,uuid"`
	Type     string `json:"type" validate:"required,oneof=national_id passport driving_license address_proof income_proof other"`
	Filename string `json:"filename" validate:"required,max=255"`
}

func (d *AddDocument) Normalize() {
	d.ID = strings.TrimSpace(d.ID)
	d.Type = strings.TrimSpace(d.Type)
	d.Filename = strings.TrimSpace(d.Filename)
}

// Document converts validated schema into new document
func (d *AddDocument) Document() model.NewDocument {
	return model.NewDocument{Type: model.DocumentType(d.Type), Filename: d.Filename}
}

func (p *Preferences) patch() *model.PreferencesPatch {
	if p == nil {
		return nil
	}

	patch := &model.PreferencesPatch{MarketingConsent: p.MarketingConsent}
	if p.Language != nil {
		l := model.Language(*p.Language)
		patch.Language = &l
	}

	if p.Currency != nil {
		c := model.Currency(*p.Currency)
		patch.Currency = &c
	}

	if n := p.Notifications; n != nil {
		patch.Notifications = &model.NotificationsPatch{Email: n.Email, SMS: n.SMS, Push: n.Push}
	}
	return patch
}

func normalizePreferences(p *Preferences) {
	if p == nil {
		return
	}

	p.Language = dropBlank(trimOptional(p.Language))
	if c := dropBlank(trimOptional(p.Currency)); c != nil {
		upper := strings.ToUpper(*c)
		p.Currency = &upper
	} else {
		p.Currency = nil
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}

func dropBlank(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
