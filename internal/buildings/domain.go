// Package buildings serves the building catalog.
package buildings

import "github.com/google/uuid"

// Building is a site containing bookable rooms.
type Building struct {
	ID           uuid.UUID
	Name         string
	AddressLine1 string
	AddressLine2 *string
	City         string
	Province     string
	Country      string
	PostalCode   string
}

// Filter narrows the building listing. Nil fields are ignored; set fields
// must match exactly.
type Filter struct {
	Name         *string
	AddressLine1 *string
	AddressLine2 *string
	City         *string
	Province     *string
	Country      *string
	PostalCode   *string
}
