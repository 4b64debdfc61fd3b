package customers

import "github.com/google/uuid"

// Payload is the JSON contact block accepted by resolve and transition endpoints.
type Payload struct {
	ID      *uuid.UUID `json:"id,omitempty"`
	Name    string     `json:"name" validate:"required,max=200"`
	Phone   string     `json:"phone,omitempty" validate:"omitempty,max=50"`
	Email   string     `json:"email,omitempty" validate:"omitempty,email,max=200"`
	Address string     `json:"address,omitempty" validate:"omitempty,max=500"`
}

// Input converts the payload into the resolver input.
func (p Payload) Input() Input {
	return Input{ExistingID: p.ID, Name: p.Name, Phone: p.Phone, Email: p.Email, Address: p.Address}
}
