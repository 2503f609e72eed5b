package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/umalmyha/customers-kyc/internal/model"
	"github.com/umalmyha/customers-kyc/pkg/db/transactor"
)

const pgUniqueViolationCode = "23505"

const postgresSchema = `
CREATE TABLE IF NOT EXISTS customers (
    id                    UUID PRIMARY KEY,
    first_name            VARCHAR(50)  NOT NULL,
    last_name             VARCHAR(50)  NOT NULL,
    email                 VARCHAR(254) NOT NULL,
    phone                 VARCHAR(32)  NOT NULL,
    date_of_birth         DATE         NOT NULL,
    national_id           VARCHAR(20)  NOT NULL,
    passport_number       VARCHAR(15),
    address               JSONB        NOT NULL,
    documents             JSONB        NOT NULL DEFAULT '[]'::jsonb,
    email_verified        BOOLEAN      NOT NULL DEFAULT FALSE,
    phone_verified        BOOLEAN      NOT NULL DEFAULT FALSE,
    identity_verified     BOOLEAN      NOT NULL DEFAULT FALSE,
    preferences           JSONB        NOT NULL,
    status                VARCHAR(32)  NOT NULL,
    compliance_status     VARCHAR(32)  NOT NULL,
    compliance_notes      TEXT,
    risk_score            DOUBLE PRECISION,
    last_compliance_check TIMESTAMPTZ,
    version               BIGINT       NOT NULL DEFAULT 0,
    created_at            TIMESTAMPTZ  NOT NULL,
    updated_at            TIMESTAMPTZ  NOT NULL,
    CONSTRAINT customers_email_uidx UNIQUE (email),
    CONSTRAINT customers_national_id_uidx UNIQUE (national_id)
);
CREATE INDEX IF NOT EXISTS customers_created_at_idx ON customers (created_at DESC);
`

const customerColumns = `id, first_name, last_name, email, phone, date_of_birth, national_id, passport_number,
	address, documents, email_verified, phone_verified, identity_verified, preferences, status, compliance_status,
	compliance_notes, risk_score, last_compliance_check, version, created_at, updated_at`

// documents are excluded from search result
const customerSearchColumns = `id, first_name, last_name, email, phone, date_of_birth, national_id, passport_number,
	address, NULL::jsonb AS documents, email_verified, phone_verified, identity_verified, preferences, status, compliance_status,
	compliance_notes, risk_score, last_compliance_check, version, created_at, updated_at`

type postgresCustomerRepository struct {
	trx      transactor.PgxTransactor
	executor transactor.PgxWithinTransactionExecutor
}

func NewPostgresCustomerRepository(trx transactor.PgxTransactor, executor transactor.PgxWithinTransactionExecutor) CustomerRepository {
	return &postgresCustomerRepository{trx: trx, executor: executor}
}

func (r *postgresCustomerRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.executor.Executor(ctx).Exec(ctx, postgresSchema)
	return err
}

func (r *postgresCustomerRepository) Ping(ctx context.Context) error {
	return r.executor.Ping(ctx)
}

func (r *postgresCustomerRepository) Create(ctx context.Context, c *model.Customer) error {
	if c.Documents == nil {
		c.Documents = make([]model.Document, 0)
	}

	q := `INSERT INTO customers(` + customerColumns + `)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`

	_, err := r.executor.Executor(ctx).Exec(ctx, q,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.DateOfBirth, c.NationalID, c.PassportNumber,
		c.Address, c.Documents, c.EmailVerified, c.PhoneVerified, c.IdentityVerified, c.Preferences, c.Status,
		c.ComplianceStatus, c.ComplianceNotes, c.RiskScore, c.LastComplianceCheck, c.Version, c.CreatedAt, c.UpdatedAt,
	)
	return r.translate(err)
}

func (r *postgresCustomerRepository) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return r.findOne(ctx, q, id)
}

func (r *postgresCustomerRepository) FindByNationalID(ctx context.Context, nationalID string) (*model.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers WHERE national_id = $1`
	return r.findOne(ctx, q, nationalID)
}

func (r *postgresCustomerRepository) FindByEmailOrNationalID(ctx context.Context, email string, nationalID string) ([]*model.Customer, error) {
	q := `SELECT ` + customerSearchColumns + ` FROM customers WHERE email = $1 OR national_id = $2 LIMIT 2`
	return r.findMany(ctx, q, email, nationalID)
}

func (r *postgresCustomerRepository) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	var exists bool
	q := `SELECT EXISTS(SELECT 1 FROM customers WHERE email = $1 AND id::text <> $2)`
	if err := r.executor.Executor(ctx).QueryRow(ctx, q, email, excludeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *postgresCustomerRepository) Update(ctx context.Context, id string, patch *model.CustomerPatch) (*model.Customer, error) {
	var updated *model.Customer

	err := r.trx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := r.findOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1 FOR UPDATE`, id)
		if err != nil || c == nil {
			return err
		}

		patch.Apply(c)
		c.UpdatedAt = now()
		c.Version++

		q := `UPDATE customers SET first_name = $2, last_name = $3, email = $4, phone = $5, passport_number = $6,
			address = $7, preferences = $8, version = $9, updated_at = $10 WHERE id = $1`

		_, err = r.executor.Executor(ctx).Exec(ctx, q,
			c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.PassportNumber,
			c.Address, c.Preferences, c.Version, c.UpdatedAt,
		)
		if err != nil {
			return r.translate(err)
		}

		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *postgresCustomerRepository) AppendDocument(ctx context.Context, id string, doc model.Document) (*model.Customer, error) {
	q := `UPDATE customers SET documents = documents || $2::jsonb, updated_at = $3, version = version + 1
		WHERE id = $1 RETURNING ` + customerColumns
	return r.findOne(ctx, q, id, []model.Document{doc}, now())
}

func (r *postgresCustomerRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	q := `UPDATE customers SET status = $2, updated_at = $3, version = version + 1 WHERE id = $1`

	tag, err := r.executor.Executor(ctx).Exec(ctx, q, id, model.StatusInactive, now())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *postgresCustomerRepository) UpdateCompliance(ctx context.Context, id string, outcome model.ComplianceOutcome) error {
	q := `UPDATE customers SET compliance_status = $2, compliance_notes = COALESCE($3, compliance_notes),
		risk_score = COALESCE($4, risk_score), last_compliance_check = $5, updated_at = $6, version = version + 1
		WHERE id = $1`

	_, err := r.executor.Executor(ctx).Exec(ctx, q, id, outcome.Status, outcome.Notes, outcome.RiskScore, outcome.CheckedAt, now())
	return err
}

func (r *postgresCustomerRepository) Search(ctx context.Context, f model.SearchFilter) ([]*model.Customer, int64, error) {
	where, args := searchClause(f)

	var total int64
	if err := r.executor.Executor(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM customers`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Skip())
	q := fmt.Sprintf(`SELECT %s FROM customers%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		customerSearchColumns, where, len(args)-1, len(args))

	customers, err := r.findMany(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

func (r *postgresCustomerRepository) findOne(ctx context.Context, q string, args ...any) (*model.Customer, error) {
	c, err := scanCustomer(r.executor.Executor(ctx).QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresCustomerRepository) findMany(ctx context.Context, q string, args ...any) ([]*model.Customer, error) {
	rows, err := r.executor.Executor(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]*model.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *postgresCustomerRepository) translate(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
		return &DuplicateKeyErr{Field: duplicateField(pgErr.ConstraintName), cause: err}
	}
	return err
}

func scanCustomer(row pgx.Row) (*model.Customer, error) {
	var c model.Customer
	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.DateOfBirth, &c.NationalID, &c.PassportNumber,
		&c.Address, &c.Documents, &c.EmailVerified, &c.PhoneVerified, &c.IdentityVerified, &c.Preferences, &c.Status,
		&c.ComplianceStatus, &c.ComplianceNotes, &c.RiskScore, &c.LastComplianceCheck, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.DateOfBirth = c.DateOfBirth.UTC()
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

func searchClause(f model.SearchFilter) (string, []any) {
	conds := make([]string, 0)
	args := make([]any, 0)

	if f.Query != "" {
		args = append(args, "%"+escapeLike(f.Query)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(first_name ILIKE $%[1]d OR last_name ILIKE $%[1]d OR email ILIKE $%[1]d OR national_id ILIKE $%[1]d)", n))
	}

	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	if f.ComplianceStatus != "" {
		args = append(args, f.ComplianceStatus)
		conds = append(conds, fmt.Sprintf("compliance_status = $%d", len(args)))
	}

	if f.Country != "" {
		args = append(args, "%"+escapeLike(f.Country)+"%")
		conds = append(conds, fmt.Sprintf("address->>'country' ILIKE $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
