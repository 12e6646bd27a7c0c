package models

import "github.com/google/uuid"

// Principal is the request-scoped identity derived from a verified access
// token. It is constructed only by the token verifier, never by handlers.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}
