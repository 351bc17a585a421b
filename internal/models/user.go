package models

import "github.com/google/uuid"

// User is the authenticated caller as established from the identity
// provider's token. Profiles themselves live with the identity service.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}
