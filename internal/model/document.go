package model

import "time"

// DocumentType is kind of KYC document
type DocumentType string

const (
	DocumentNationalID     DocumentType = "national_id"
	DocumentPassport       DocumentType = "passport"
	DocumentDrivingLicense DocumentType = "driving_license"
	DocumentAddressProof   DocumentType = "address_proof"
	DocumentIncomeProof    DocumentType = "income_proof"
	DocumentOther          DocumentType = "other"
)

// IsIdentity reports whether document proves customer identity
func (t DocumentType) IsIdentity() bool {
	switch t {
	case DocumentNationalID, DocumentPassport, DocumentDrivingLicense:
		return true
	default:
		return false
	}
}

// Document is KYC document reference attached to customer
type Document struct {
	Type       DocumentType `json:"type" bson:"type"`
	Filename   string       `json:"filename" bson:"filename"`
	UploadDate time.Time    `json:"uploadDate" bson:"uploadDate"`
	Verified   bool         `json:"verified" bson:"verified"`
	VerifiedBy *string      `json:"verifiedBy,omitempty" bson:"verifiedBy,omitempty"`
	VerifiedAt *time.Time   `json:"verifiedAt,omitempty" bson:"verifiedAt,omitempty"`
}

// NewDocument is client supplied part of the document
type NewDocument struct {
	Type     DocumentType
	Filename string
}

// Stamp builds unverified document uploaded at provided time
func (d NewDocument) Stamp(at time.Time) Document {
	return Document{
		Type:       d.Type,
		Filename:   d.Filename,
		UploadDate: at,
		Verified:   false,
	}
}
