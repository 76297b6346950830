package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/sunbase/customer-service/internal/domain"
)

const customerColumns = `id, first_name, last_name, email, phone, street, city, state, address`

// sortableColumns maps accepted sort keys onto customer columns.
var sortableColumns = map[string]string{
	"id":         "id",
	"first_name": "first_name",
	"last_name":  "last_name",
	"email":      "email",
	"phone":      "phone",
	"street":     "street",
	"city":       "city",
	"state":      "state",
	"address":    "address",
}

// CustomerRepository encapsulates customer persistence.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	Save(ctx context.Context, customer *domain.Customer) error
	Update(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, page domain.PageRequest) ([]domain.Customer, int64, error)
	Search(ctx context.Context, term string) ([]domain.Customer, error)
	SyncIDSequence(ctx context.Context) error
}

type customerRepository struct {
	db DBTX
}

// NewCustomerRepository instantiates repository.
func NewCustomerRepository(db DBTX) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	const query = `
        INSERT INTO customers (first_name, last_name, email, phone, street, city, state, address)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		customer.FirstName,
		customer.LastName,
		customer.Email,
		customer.Phone,
		customer.Street,
		customer.City,
		customer.State,
		customer.Address,
	).Scan(&customer.ID)
}

// Save inserts customers without an id and overwrites by id otherwise.
func (r *customerRepository) Save(ctx context.Context, customer *domain.Customer) error {
	if customer.ID <= 0 {
		return r.Create(ctx, customer)
	}
	const query = `
        INSERT INTO customers (id, first_name, last_name, email, phone, street, city, state, address)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (id) DO UPDATE SET
            first_name=EXCLUDED.first_name, last_name=EXCLUDED.last_name, email=EXCLUDED.email,
            phone=EXCLUDED.phone, street=EXCLUDED.street, city=EXCLUDED.city,
            state=EXCLUDED.state, address=EXCLUDED.address, updated_at=NOW()`
	_, err := r.db.Exec(ctx, query,
		customer.ID,
		customer.FirstName,
		customer.LastName,
		customer.Email,
		customer.Phone,
		customer.Street,
		customer.City,
		customer.State,
		customer.Address,
	)
	return err
}

func (r *customerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	const query = `
        UPDATE customers SET first_name=$1, last_name=$2, email=$3, phone=$4, street=$5,
            city=$6, state=$7, address=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.db.Exec(ctx, query,
		customer.FirstName,
		customer.LastName,
		customer.Email,
		customer.Phone,
		customer.Street,
		customer.City,
		customer.State,
		customer.Address,
		customer.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id=$1`
	var customer domain.Customer
	if err := scanCustomer(r.db.QueryRow(ctx, query, id), &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *customerRepository) List(ctx context.Context, page domain.PageRequest) ([]domain.Customer, int64, error) {
	page = page.Normalize()

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&total); err != nil {
		return nil, 0, err
	}

	column, ok := sortableColumns[page.SortField]
	if !ok {
		column = "id"
	}
	query := fmt.Sprintf(`SELECT %s FROM customers ORDER BY %s %s, id ASC LIMIT %d OFFSET %d`,
		customerColumns, column, page.SortDir, page.Size, page.Offset())

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	customers, err := scanCustomers(rows)
	if err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

// Search matches term case-insensitively against every text column.
func (r *customerRepository) Search(ctx context.Context, term string) ([]domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers
        WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1
           OR street ILIKE $1 OR city ILIKE $1 OR state ILIKE $1 OR address ILIKE $1
        ORDER BY id`

	rows, err := r.db.Query(ctx, query, likePattern(term))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCustomers(rows)
}

// SyncIDSequence moves the id sequence past ids written explicitly by Save.
func (r *customerRepository) SyncIDSequence(ctx context.Context) error {
	const query = `
        SELECT setval(pg_get_serial_sequence('customers', 'id'), COALESCE(MAX(id), 0) + 1, false)
        FROM customers`
	_, err := r.db.Exec(ctx, query)
	return err
}

func likePattern(term string) string {
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + escaper.Replace(strings.TrimSpace(term)) + "%"
}

func scanCustomer(row pgx.Row, customer *domain.Customer) error {
	return row.Scan(
		&customer.ID,
		&customer.FirstName,
		&customer.LastName,
		&customer.Email,
		&customer.Phone,
		&customer.Street,
		&customer.City,
		&customer.State,
		&customer.Address,
	)
}

func scanCustomers(rows pgx.Rows) ([]domain.Customer, error) {
	result := []domain.Customer{}
	for rows.Next() {
		var customer domain.Customer
		if err := scanCustomer(rows, &customer); err != nil {
			return nil, err
		}
		result = append(result, customer)
	}
	return result, rows.Err()
}
