package domain

// Customer is the persisted customer record.
type Customer struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Address   string `json:"address"`
}

// ApplyDetails overwrites the updatable fields from patch. ID is left untouched.
func (c *Customer) ApplyDetails(patch Customer) {
	c.FirstName = patch.FirstName
	c.LastName = patch.LastName
	c.City = patch.City
	c.Email = patch.Email
	c.Address = patch.Address
	c.State = patch.State
	c.Street = patch.Street
	c.Phone = patch.Phone
}
