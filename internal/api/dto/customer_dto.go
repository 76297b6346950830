package dto

import "github.com/sunbase/customer-service/internal/domain"

// CustomerRequest is the body of create and update calls. Any id on the wire is ignored.
type CustomerRequest struct {
	FirstName string `json:"first_name" validate:"max=255"`
	LastName  string `json:"last_name" validate:"max=255"`
	Email     string `json:"email" validate:"omitempty,email,max=255"`
	Phone     string `json:"phone" validate:"max=64"`
	Street    string `json:"street" validate:"max=255"`
	City      string `json:"city" validate:"max=255"`
	State     string `json:"state" validate:"max=255"`
	Address   string `json:"address" validate:"max=255"`
}

// ToDomain converts the request into a customer without an id.
func (r CustomerRequest) ToDomain() domain.Customer {
	return domain.Customer{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Street:    r.Street,
		City:      r.City,
		State:     r.State,
		Address:   r.Address,
	}
}

// ImportResponse summarises a remote import.
type ImportResponse struct {
	Imported  int               `json:"imported"`
	Customers []domain.Customer `json:"customers"`
}
