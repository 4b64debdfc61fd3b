package customers

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a tenant-scoped buyer or demo recipient.
type Customer struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PhoneValue returns the phone or an empty string.
func (c Customer) PhoneValue() string {
	if c.Phone == nil {
		return ""
	}
	return *c.Phone
}

// Input is the contact payload of a sale or demo event. ExistingID is set
// when the operator picked a suggestion.
type Input struct {
	ExistingID *uuid.UUID
	Name       string
	Phone      string
	Email      string
	Address    string
}
