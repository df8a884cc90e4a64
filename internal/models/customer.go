package models

import "time"

// Customer is a rental or hall-booking customer. Phone is required;
// everything else is optional and no uniqueness is enforced.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address,omitempty"`
	Email     string    `json:"email,omitempty"`
	IDProof   string    `json:"id_proof,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
