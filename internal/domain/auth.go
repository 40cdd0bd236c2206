package domain

import "time"

// SubjectType differentiates citizen/admin tokens from provider tokens.
type SubjectType string

const (
	SubjectTypeUser     SubjectType = "USER"
	SubjectTypeProvider SubjectType = "PROVIDER"
)

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Subject   SubjectType
	Role      *UserRole
	ExpiresAt time.Time
	IssuedAt  time.Time
}
