package repository

import (
	"context"
	"fmt"

	"github.com/umalmyha/customers-kyc/internal/model"
)

const (
	FieldEmail      = "email"
	FieldNationalID = "nationalId"
)

const (
	emailUniqueIndex      = "customers_email_uidx"
	nationalIDUniqueIndex = "customers_national_id_uidx"
	createdAtIndex        = "customers_created_at_idx"
)

// DuplicateKeyErr is raised when write violates email or national id uniqueness
type DuplicateKeyErr struct {
	Field string
	cause error
}

func (e *DuplicateKeyErr) Error() string {
	return fmt.Sprintf("duplicate value for unique field %s - %v", e.Field, e.cause)
}

func (e *DuplicateKeyErr) Unwrap() error {
	return e.cause
}

// CustomerRepository is persistent customers collection. Lookups return nil customer without error when nothing is found.
type CustomerRepository interface {
	Create(context.Context, *model.Customer) error
	FindByID(context.Context, string) (*model.Customer, error)
	FindByNationalID(context.Context, string) (*model.Customer, error)
	FindByEmailOrNationalID(ctx context.Context, email string, nationalID string) ([]*model.Customer, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Update(context.Context, string, *model.CustomerPatch) (*model.Customer, error)
	AppendDocument(context.Context, string, model.Document) (*model.Customer, error)
	Deactivate(context.Context, string) (bool, error)
	UpdateCompliance(context.Context, string, model.ComplianceOutcome) error
	Search(context.Context, model.SearchFilter) ([]*model.Customer, int64, error)
	EnsureSchema(context.Context) error
	Ping(context.Context) error
}

// duplicateField resolves conflicting field by violated index name, email wins when both are mentioned
func duplicateField(index string) string {
	switch index {
	case nationalIDUniqueIndex:
		return FieldNationalID
	default:
		return FieldEmail
	}
}
