package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lumenave/visitor-pass-service/internal/models"
	"github.com/lumenave/visitor-pass-service/internal/repositories"
	"github.com/lumenave/visitor-pass-service/internal/utils"
)

// maxCodeAttempts bounds the collision-retry loop; after that creation
// fails closed with ErrDuplicateCodeExhausted.
const maxCodeAttempts = 5

type PassService struct {
	passes repositories.PassRepository
	now    func() time.Time
}

func NewPassService(passes repositories.PassRepository) *PassService {
	return &PassService{passes: passes, now: time.Now}
}

type CreatePassInput struct {
	Resident     *models.Resident
	VisitorName  string
	VisitorPhone *string
	VisitorType  models.VisitorType
	Purpose      string
	ValidFrom    time.Time // zero value defaults to now
	ValidUntil   time.Time
	SingleUse    bool
}

// CreatePass generates a unique code and inserts the pass. Codes are never
// recycled: a collision means a fresh candidate, never a takeover of a
// retired code's row.
func (s *PassService) CreatePass(ctx context.Context, in CreatePassInput) (*models.Pass, error) {
	validFrom := in.ValidFrom
	if validFrom.IsZero() {
		validFrom = s.now()
	}
	if !validFrom.Before(in.ValidUntil) {
		return nil, utils.ErrInvalidWindow
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		p := &models.Pass{
			ID:                  uuid.New(),
			Code:                utils.RandomPassCode(),
			VisitorName:         in.VisitorName,
			VisitorPhone:        in.VisitorPhone,
			VisitorType:         in.VisitorType,
			Purpose:             in.Purpose,
			CreatedByResidentID: in.Resident.ID,
			UnitID:              in.Resident.UnitID,
			FacilityID:          in.Resident.FacilityID,
			ValidFrom:           validFrom,
			ValidUntil:          in.ValidUntil,
			SingleUse:           in.SingleUse,
			Status:              models.PassStatusActive,
		}
		err := s.passes.Create(ctx, p)
		if err == nil {
			return p, nil
		}
		if errors.Is(err, utils.ErrDuplicateCode) {
			continue
		}
		return nil, err
	}
	return nil, utils.ErrDuplicateCodeExhausted
}

func (s *PassService) ListForResident(ctx context.Context, residentID uuid.UUID) ([]*models.Pass, error) {
	return s.passes.ListByResident(ctx, residentID)
}
