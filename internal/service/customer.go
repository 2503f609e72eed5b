package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/umalmyha/customers-kyc/internal/cache"
	apperrors "github.com/umalmyha/customers-kyc/internal/errors"
	"github.com/umalmyha/customers-kyc/internal/gateway"
	"github.com/umalmyha/customers-kyc/internal/metrics"
	"github.com/umalmyha/customers-kyc/internal/model"
	"github.com/umalmyha/customers-kyc/internal/repository"
)

const (
	msgCustomerNotFound  = "Customer not found"
	msgEmailTaken        = "Customer with this email already exists"
	msgNationalIDTaken   = "Customer with this national ID already exists"
	msgEmailTakenByOther = "Email already in use by another customer"
)

// CustomerService orchestrates customer lifecycle
type CustomerService interface {
	Register(context.Context, *model.NewCustomer) (*model.Customer, error)
	FindByID(context.Context, string) (*model.Customer, error)
	FindByNationalID(context.Context, string) (*model.Customer, error)
	Update(context.Context, string, *model.CustomerPatch) (*model.Customer, error)
	Search(context.Context, model.SearchFilter) (*model.CustomerPage, error)
	AddDocument(context.Context, string, model.NewDocument) (*model.Customer, error)
	Deactivate(context.Context, string) error
	FindAccounts(context.Context, string) (*model.CustomerAccounts, error)
}

type customerService struct {
	customerRps   repository.CustomerRepository
	customerCache cache.CustomerCache
	gateway       gateway.Gateway
	compliance    ComplianceTrigger
	metrics       *metrics.Metrics
}

func NewCustomerService(
	customerRps repository.CustomerRepository,
	customerCache cache.CustomerCache,
	gw gateway.Gateway,
	compliance ComplianceTrigger,
	m *metrics.Metrics,
) CustomerService {
	return &customerService{
		customerRps:   customerRps,
		customerCache: customerCache,
		gateway:       gw,
		compliance:    compliance,
		metrics:       m,
	}
}

func (s *customerService) Register(ctx context.Context, nc *model.NewCustomer) (*model.Customer, error) {
	existing, err := s.customerRps.FindByEmailOrNationalID(ctx, nc.Email, nc.NationalID)
	if err != nil {
		return nil, err
	}

	if err := registrationConflict(existing, nc.Email); err != nil {
		return nil, err
	}

	c := nc.Build(uuid.NewString(), now())
	if err := s.customerRps.Create(ctx, c); err != nil {
		return nil, conflictFromStore(err)
	}

	s.metrics.IncrementRegistered()
	s.compliance.Trigger(c)

	return c, nil
}

func (s *customerService) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	c, err := s.customerCache.FindByID(ctx, id)
	if err != nil {
		logrus.WithField("customerId", id).Warnf("failed to read customer from cache - %v", err)
	}

	if c != nil {
		return c, nil
	}

	// generation must be taken before store read, otherwise eviction in between goes unnoticed
	gen, genErr := s.customerCache.Generation(ctx, id)
	if genErr != nil {
		logrus.WithField("customerId", id).Warnf("failed to read customer cache generation - %v", genErr)
	}

	c, err = s.customerRps.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if c == nil {
		return nil, apperrors.NewEntryNotFoundErr(msgCustomerNotFound)
	}

	if genErr == nil {
		if err := s.customerCache.Cache(ctx, c, gen); err != nil {
			logrus.WithField("customerId", id).Warnf("failed to cache customer - %v", err)
		}
	}
	return c, nil
}

func (s *customerService) FindByNationalID(ctx context.Context, nationalID string) (*model.Customer, error) {
	c, err := s.customerRps.FindByNationalID(ctx, nationalID)
	if err != nil {
		return nil, err
	}

	if c == nil {
		return nil, apperrors.NewEntryNotFoundErr(msgCustomerNotFound)
	}
	return c, nil
}

func (s *customerService) Update(ctx context.Context, id string, patch *model.CustomerPatch) (*model.Customer, error) {
	if patch.Email != nil {
		taken, err := s.customerRps.ExistsByEmail(ctx, *patch.Email, id)
		if err != nil {
			return nil, err
		}

		if taken {
			return nil, apperrors.NewConflictErr(repository.FieldEmail, msgEmailTakenByOther)
		}
	}

	c, err := s.customerRps.Update(ctx, id, patch)
	if err != nil {
		return nil, conflictFromStore(err)
	}

	if c == nil {
		return nil, apperrors.NewEntryNotFoundErr(msgCustomerNotFound)
	}

	s.evict(ctx, id)
	return c, nil
}

func (s *customerService) Search(ctx context.Context, f model.SearchFilter) (*model.CustomerPage, error) {
	customers, total, err := s.customerRps.Search(ctx, f)
	if err != nil {
		return nil, err
	}

	items := make([]*model.CustomerListItem, 0, len(customers))
	for _, c := range customers {
		items = append(items, c.ListItem())
	}

	return &model.CustomerPage{
		Items:      items,
		Pagination: model.NewPagination(total, f.Page, f.Limit),
	}, nil
}

func (s *customerService) AddDocument(ctx context.Context, id string, nd model.NewDocument) (*model.Customer, error) {
	c, err := s.customerRps.AppendDocument(ctx, id, nd.Stamp(now()))
	if err != nil {
		return nil, err
	}

	if c == nil {
		return nil, apperrors.NewEntryNotFoundErr(msgCustomerNotFound)
	}

	s.evict(ctx, id)

	if nd.Type.IsIdentity() {
		s.compliance.Trigger(c)
	}
	return c, nil
}

func (s *customerService) Deactivate(ctx context.Context, id string) error {
	found, err := s.customerRps.Deactivate(ctx, id)
	if err != nil {
		return err
	}

	if !found {
		return apperrors.NewEntryNotFoundErr(msgCustomerNotFound)
	}

	s.evict(ctx, id)
	return nil
}

func (s *customerService) FindAccounts(ctx context.Context, id string) (*model.CustomerAccounts, error) {
	c, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	accounts, err := s.gateway.FindAccounts(ctx, id)
	if err != nil {
		return nil, err
	}

	return &model.CustomerAccounts{
		Customer: c.Summary(),
		Accounts: accounts,
	}, nil
}

func (s *customerService) evict(ctx context.Context, id string) {
	if err := s.customerCache.EvictByID(ctx, id); err != nil {
		logrus.WithField("customerId", id).Errorf("failed to evict customer from cache - %v", err)
	}
}

// registrationConflict reports email collision first when both keys are taken
func registrationConflict(existing []*model.Customer, email string) error {
	if len(existing) == 0 {
		return nil
	}

	for _, c := range existing {
		if c.Email == email {
			return apperrors.NewConflictErr(repository.FieldEmail, msgEmailTaken)
		}
	}
	return apperrors.NewConflictErr(repository.FieldNationalID, msgNationalIDTaken)
}

func conflictFromStore(err error) error {
	var dupErr *repository.DuplicateKeyErr
	if !errors.As(err, &dupErr) {
		return err
	}

	if dupErr.Field == repository.FieldNationalID {
		return apperrors.NewConflictErr(repository.FieldNationalID, msgNationalIDTaken)
	}
	return apperrors.NewConflictErr(repository.FieldEmail, msgEmailTaken)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
