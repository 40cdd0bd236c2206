package domain

import "time"

// Provider is a department-scoped field worker. A provider may hold at most
// one complaint in {ACCEPTED, WORKING_ON} at a time.
type Provider struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Department   Department
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProviderLoad pairs a provider with their current active complaint count.
type ProviderLoad struct {
	Provider Provider
	Load     int
}
