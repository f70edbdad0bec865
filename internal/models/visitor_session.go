package models

import (
	"time"

	"github.com/google/uuid"
)

// VisitorSession is the reduced-capability interaction scope granted after a
// successful redemption. It lives only in memory for the duration of the
// conversation and carries no ability to create or list passes.
type VisitorSession struct {
	VisitorName string    `json:"visitor_name"`
	PassCode    string    `json:"pass_code"`
	UnitID      uuid.UUID `json:"unit_id"`
	FacilityID  uuid.UUID `json:"facility_id"`
	ValidUntil  time.Time `json:"valid_until"`
	StartedAt   time.Time `json:"started_at"`
}
