package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken as persisted. Absence from the store is the only terminal
// state: redemption, logout and expiry cleanup all delete the row.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by TokenManager on register, login and refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
