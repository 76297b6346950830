package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sunbase/customer-service/internal/api/dto"
	"github.com/sunbase/customer-service/internal/domain"
	apperrors "github.com/sunbase/customer-service/pkg/util"
)

// CustomerService is the slice of the customer service the handler needs.
type CustomerService interface {
	AddCustomer(ctx context.Context, candidate domain.Customer) (*domain.Customer, error)
	GetCustomerByID(ctx context.Context, id int64) (*domain.Customer, error)
	DeleteCustomerByID(ctx context.Context, id int64) error
	UpdateCustomerDetails(ctx context.Context, id int64, patch domain.Customer) (*domain.Customer, error)
	GetAllCustomers(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Customer], error)
	SearchCustomers(ctx context.Context, term string) ([]domain.Customer, error)
	ImportFromRemote(ctx context.Context) ([]domain.Customer, error)
}

// CustomersHandler manages customer endpoints.
type CustomersHandler struct {
	service CustomerService
}

// NewCustomersHandler constructs handler.
func NewCustomersHandler(customerService CustomerService) *CustomersHandler {
	return &CustomersHandler{service: customerService}
}

// Create POST /customers.
func (h *CustomersHandler) Create(c *fiber.Ctx) error {
	candidate, err := parseCustomerBody(c)
	if err != nil {
		return err
	}
	customer, err := h.service.AddCustomer(c.UserContext(), candidate)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": customer})
}

// List GET /customers.
func (h *CustomersHandler) List(c *fiber.Ctx) error {
	page, err := h.service.GetAllCustomers(c.UserContext(), parsePageRequest(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": page})
}

// Search GET /customers/search.
func (h *CustomersHandler) Search(c *fiber.Ctx) error {
	term := strings.TrimSpace(c.Query("term"))
	if term == "" {
		return apperrors.NewValidationError("term required", nil)
	}
	customers, err := h.service.SearchCustomers(c.UserContext(), term)
	if err != nil {
		return err
	}
	if customers == nil {
		customers = []domain.Customer{}
	}
	return c.JSON(fiber.Map{"data": customers})
}

// Get GET /customers/:id.
func (h *CustomersHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	customer, err := h.service.GetCustomerByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": customer})
}

// Update PUT /customers/:id.
func (h *CustomersHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	patch, err := parseCustomerBody(c)
	if err != nil {
		return err
	}
	customer, err := h.service.UpdateCustomerDetails(c.UserContext(), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": customer})
}

// Delete DELETE /customers/:id.
func (h *CustomersHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteCustomerByID(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Sync POST /customers/sync.
func (h *CustomersHandler) Sync(c *fiber.Ctx) error {
	customers, err := h.service.ImportFromRemote(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ImportResponse{Imported: len(customers), Customers: customers}})
}

func parseCustomerBody(c *fiber.Ctx) (domain.Customer, error) {
	var req dto.CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.Customer{}, apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return domain.Customer{}, err
	}
	return req.ToDomain(), nil
}

func parseID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("id must be a positive integer", map[string]any{"id": raw})
	}
	return id, nil
}

// parsePageRequest reads page, size and sort=field[,asc|desc]. Out-of-range values are clamped later.
func parsePageRequest(c *fiber.Ctx) domain.PageRequest {
	req := domain.PageRequest{
		Page: c.QueryInt("page", 0),
		Size: c.QueryInt("size", domain.DefaultPageSize),
	}
	if sort := strings.TrimSpace(c.Query("sort")); sort != "" {
		field, dir, _ := strings.Cut(sort, ",")
		req.SortField = strings.TrimSpace(field)
		if strings.EqualFold(strings.TrimSpace(dir), "desc") {
			req.SortDir = domain.SortDesc
		}
	}
	return req
}
