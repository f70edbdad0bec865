package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PassStatus string

const (
	PassStatusActive    PassStatus = "active"
	PassStatusUsed      PassStatus = "used"
	PassStatusExpired   PassStatus = "expired"
	PassStatusCancelled PassStatus = "cancelled"
	PassStatusRevoked   PassStatus = "revoked"
)

// IsTerminal reports whether no further status transition is allowed.
func (s PassStatus) IsTerminal() bool {
	switch s {
	case PassStatusUsed, PassStatusExpired, PassStatusCancelled, PassStatusRevoked:
		return true
	}
	return false
}

func ParsePassStatus(s string) (PassStatus, error) {
	switch PassStatus(strings.ToLower(s)) {
	case PassStatusActive:
		return PassStatusActive, nil
	case PassStatusUsed:
		return PassStatusUsed, nil
	case PassStatusExpired:
		return PassStatusExpired, nil
	case PassStatusCancelled:
		return PassStatusCancelled, nil
	case PassStatusRevoked:
		return PassStatusRevoked, nil
	default:
		return "", fmt.Errorf("invalid pass status: %q", s)
	}
}

type VisitorType string

const (
	VisitorTypeGuest      VisitorType = "guest"
	VisitorTypeDelivery   VisitorType = "delivery"
	VisitorTypeContractor VisitorType = "contractor"
	VisitorTypeService    VisitorType = "service"
	VisitorTypeOther      VisitorType = "other"
)

func ParseVisitorType(s string) (VisitorType, error) {
	switch VisitorType(strings.ToLower(s)) {
	case VisitorTypeGuest:
		return VisitorTypeGuest, nil
	case VisitorTypeDelivery:
		return VisitorTypeDelivery, nil
	case VisitorTypeContractor:
		return VisitorTypeContractor, nil
	case VisitorTypeService:
		return VisitorTypeService, nil
	case VisitorTypeOther:
		return VisitorTypeOther, nil
	default:
		return "", fmt.Errorf("invalid visitor type: %q", s)
	}
}

// Pass is a time-bound authorization record granting a named visitor entry
// tied to one unit of one facility. Terminal records are never deleted.
type Pass struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`

	VisitorName  string      `json:"visitor_name"`
	VisitorPhone *string     `json:"visitor_phone,omitempty"`
	VisitorType  VisitorType `json:"visitor_type"`
	Purpose      string      `json:"purpose,omitempty"`

	CreatedByResidentID uuid.UUID `json:"created_by_resident_id"`
	UnitID              uuid.UUID `json:"unit_id"`
	FacilityID          uuid.UUID `json:"facility_id"`

	ValidFrom  time.Time `json:"valid_from"`
	ValidUntil time.Time `json:"valid_until"`

	SingleUse bool       `json:"single_use"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	UsedCount int        `json:"used_count"`

	Status PassStatus `json:"status"`

	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy  *string    `json:"reviewed_by,omitempty"`
	ReviewNotes *string    `json:"review_notes,omitempty"`

	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
	RevokedBy    *string    `json:"revoked_by,omitempty"`
	RevokeReason *string    `json:"revoke_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WithinWindow reports whether now falls inside [ValidFrom, ValidUntil).
func (p *Pass) WithinWindow(now time.Time) bool {
	return !now.Before(p.ValidFrom) && now.Before(p.ValidUntil)
}
