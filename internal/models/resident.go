package models

import (
	"time"

	"github.com/google/uuid"
)

// Resident is the person who can run the pass wizard for their unit.
// The directory row is the source of the unit/facility references that
// every pass carries.
type Resident struct {
	ID         uuid.UUID `json:"id"`
	UnitID     uuid.UUID `json:"unit_id"`
	FacilityID uuid.UUID `json:"facility_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
}
