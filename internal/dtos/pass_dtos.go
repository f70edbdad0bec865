package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/lumenave/visitor-pass-service/internal/models"
	"github.com/lumenave/visitor-pass-service/internal/utils"
)

type RedeemRequest struct {
	Code string `json:"code" validate:"required,min=6,max=12"`
}

// RedeemResponse is the snapshot handed to the gate on success.
type RedeemResponse struct {
	PassID      uuid.UUID          `json:"pass_id"`
	VisitorName string             `json:"visitor_name"`
	VisitorType models.VisitorType `json:"visitor_type"`
	Purpose     string             `json:"purpose,omitempty"`
	UnitID      uuid.UUID          `json:"unit_id"`
	FacilityID  uuid.UUID          `json:"facility_id"`
	SingleUse   bool               `json:"single_use"`
	ValidFrom   time.Time          `json:"valid_from"`
	ValidUntil  time.Time          `json:"valid_until"`
	UsedCount   int                `json:"used_count"`
}

func NewRedeemResponse(p *models.Pass) RedeemResponse {
	return RedeemResponse{
		PassID:      p.ID,
		VisitorName: p.VisitorName,
		VisitorType: p.VisitorType,
		Purpose:     p.Purpose,
		UnitID:      p.UnitID,
		FacilityID:  p.FacilityID,
		SingleUse:   p.SingleUse,
		ValidFrom:   p.ValidFrom,
		ValidUntil:  p.ValidUntil,
		UsedCount:   p.UsedCount,
	}
}

// PassResponse is the oversight view of a pass, with the validity window
// also rendered in facility civil time for human readers.
type PassResponse struct {
	*models.Pass

	ValidFromLocal  string `json:"valid_from_local"`
	ValidUntilLocal string `json:"valid_until_local"`
}

func NewPassResponse(p *models.Pass, clock *utils.CivilClock) PassResponse {
	return PassResponse{
		Pass:            p,
		ValidFromLocal:  clock.ToCivilDisplay(p.ValidFrom),
		ValidUntilLocal: clock.ToCivilDisplay(p.ValidUntil),
	}
}

func NewPassResponses(passes []*models.Pass, clock *utils.CivilClock) []PassResponse {
	out := make([]PassResponse, 0, len(passes))
	for _, p := range passes {
		out = append(out, NewPassResponse(p, clock))
	}
	return out
}
