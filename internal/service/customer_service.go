package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/sunbase/customer-service/internal/auth"
	"github.com/sunbase/customer-service/internal/domain"
	"github.com/sunbase/customer-service/internal/events"
	"github.com/sunbase/customer-service/internal/repository"
	apperrors "github.com/sunbase/customer-service/pkg/util"
)

const importSource = "vendor"

// RemoteCustomerSource supplies the customer list for bulk import.
type RemoteCustomerSource interface {
	FetchCustomers(ctx context.Context) ([]domain.Customer, error)
}

// ImportLock serialises imports across instances. Acquire returns "" when the lock is held elsewhere.
type ImportLock interface {
	Acquire(ctx context.Context) (string, error)
	Release(ctx context.Context, token string) error
}

// ImportRecorder receives one observation per import attempt.
type ImportRecorder interface {
	RecordImport(result string, records int)
}

// CustomerDependencies groups collaborators of CustomerService.
type CustomerDependencies struct {
	Customers  repository.CustomerRepository
	Remote     RemoteCustomerSource
	Lock       ImportLock
	Dispatcher events.Dispatcher
	Recorder   ImportRecorder
	Logger     *zap.Logger
}

// CustomerService implements customer CRUD, listing, search and vendor import.
type CustomerService struct {
	customers  repository.CustomerRepository
	remote     RemoteCustomerSource
	lock       ImportLock
	dispatcher events.Dispatcher
	recorder   ImportRecorder
	logger     *zap.Logger
}

// NewCustomerService creates the service.
func NewCustomerService(deps CustomerDependencies) *CustomerService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{
		customers:  deps.Customers,
		remote:     deps.Remote,
		lock:       deps.Lock,
		dispatcher: deps.Dispatcher,
		recorder:   deps.Recorder,
		logger:     logger,
	}
}

// AddCustomer persists candidate with a store-assigned id.
func (s *CustomerService) AddCustomer(ctx context.Context, candidate domain.Customer) (*domain.Customer, error) {
	candidate.ID = 0
	if err := s.customers.Create(ctx, &candidate); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	s.publish(ctx, events.EventCustomerCreated, candidate.ID, nil)
	return &candidate, nil
}

// GetCustomerByID returns the customer or a NOT_FOUND error.
func (s *CustomerService) GetCustomerByID(ctx context.Context, id int64) (*domain.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", map[string]any{"id": id})
		}
		return nil, fmt.Errorf("get customer %d: %w", id, err)
	}
	return customer, nil
}

// DeleteCustomerByID removes the customer. Any store failure during the delete reports INVALID_ID.
func (s *CustomerService) DeleteCustomerByID(ctx context.Context, id int64) error {
	if _, err := s.GetCustomerByID(ctx, id); err != nil {
		return err
	}
	if err := s.customers.Delete(ctx, id); err != nil {
		return apperrors.NewInvalidID(id, err)
	}
	s.publish(ctx, events.EventCustomerDeleted, id, nil)
	return nil
}

// UpdateCustomerDetails overwrites the customer's fields with patch.
func (s *CustomerService) UpdateCustomerDetails(ctx context.Context, id int64, patch domain.Customer) (*domain.Customer, error) {
	customer, err := s.GetCustomerByID(ctx, id)
	if err != nil {
		return nil, err
	}
	customer.ApplyDetails(patch)
	if err := s.customers.Update(ctx, customer); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", map[string]any{"id": id})
		}
		return nil, apperrors.NewPersistenceError(err)
	}
	s.publish(ctx, events.EventCustomerUpdated, id, nil)
	return customer, nil
}

// GetAllCustomers returns one page of customers.
func (s *CustomerService) GetAllCustomers(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Customer], error) {
	req = req.Normalize()
	items, total, err := s.customers.List(ctx, req)
	if err != nil {
		return domain.Page[domain.Customer]{}, fmt.Errorf("list customers: %w", err)
	}
	return domain.NewPage(items, req, total), nil
}

// SearchCustomers matches term against every text field, case-insensitively.
func (s *CustomerService) SearchCustomers(ctx context.Context, term string) ([]domain.Customer, error) {
	customers, err := s.customers.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	return customers, nil
}

// ImportFromRemote fetches the vendor list and saves every record, returning what was saved.
func (s *CustomerService) ImportFromRemote(ctx context.Context) ([]domain.Customer, error) {
	release, err := s.acquireImportLock(ctx)
	if err != nil {
		s.recordImport("conflict", 0)
		return nil, err
	}
	defer release()

	if s.remote == nil {
		s.recordImport("failed", 0)
		return nil, apperrors.NewInternalError(errors.New("remote customer source not configured"))
	}
	fetched, err := s.remote.FetchCustomers(ctx)
	if err != nil {
		s.recordImport("failed", 0)
		return nil, err
	}

	explicitIDs := false
	for i := range fetched {
		if fetched[i].ID > 0 {
			explicitIDs = true
		}
		if err := s.customers.Save(ctx, &fetched[i]); err != nil {
			s.recordImport("failed", i)
			return nil, apperrors.NewPersistenceError(fmt.Errorf("save imported record %d: %w", i, err))
		}
	}
	if explicitIDs {
		if err := s.customers.SyncIDSequence(ctx); err != nil {
			s.logger.Warn("id sequence sync failed", zap.Error(err))
		}
	}

	s.recordImport("success", len(fetched))
	s.publish(ctx, events.EventCustomersImported, 0, events.CustomersImportedPayload{
		Source: importSource,
		Count:  len(fetched),
	})
	s.logger.Info("customers imported", zap.Int("count", len(fetched)))
	return fetched, nil
}

// acquireImportLock returns a release func. An unreachable lock store lets the import proceed.
func (s *CustomerService) acquireImportLock(ctx context.Context) (func(), error) {
	noop := func() {}
	if s.lock == nil {
		return noop, nil
	}
	token, err := s.lock.Acquire(ctx)
	if err != nil {
		s.logger.Warn("import lock unavailable, continuing without it", zap.Error(err))
		return noop, nil
	}
	if token == "" {
		return nil, apperrors.NewConflict("customer import already in progress", nil)
	}
	return func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), token); err != nil {
			s.logger.Warn("import lock release failed", zap.Error(err))
		}
	}, nil
}

func (s *CustomerService) recordImport(result string, records int) {
	if s.recorder != nil {
		s.recorder.RecordImport(result, records)
	}
}

func (s *CustomerService) publish(ctx context.Context, eventType events.EventType, customerID int64, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	actor := ""
	if identity, ok := auth.IdentityFromContext(ctx); ok {
		actor = identity.Subject
	}
	if err := s.dispatcher.Publish(ctx, events.NewEvent(eventType, customerID, actor, payload)); err != nil {
		s.logger.Warn("event publish failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}
