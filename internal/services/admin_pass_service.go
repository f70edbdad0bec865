package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lumenave/visitor-pass-service/internal/models"
	"github.com/lumenave/visitor-pass-service/internal/repositories"
	"github.com/lumenave/visitor-pass-service/internal/utils"
)

/*
   AdminPassService is the oversight surface: read-only facility listings
   plus the two mutating actions, mark-reviewed and revoke. Both go through
   the same per-code lock as redemption, so oversight never races a visitor
   at the gate. A used pass is immutable to both actions.
*/
type AdminPassService struct {
	passes repositories.PassRepository
	now    func() time.Time
}

func NewAdminPassService(passes repositories.PassRepository) *AdminPassService {
	return &AdminPassService{passes: passes, now: time.Now}
}

func (s *AdminPassService) ListFacilityPasses(
	ctx context.Context,
	facilityID uuid.UUID,
	f repositories.PassFilters,
) ([]*models.Pass, error) {
	return s.passes.ListByFacility(ctx, facilityID, f)
}

func (s *AdminPassService) MarkReviewed(ctx context.Context, passID uuid.UUID, actor, notes string) (*models.Pass, error) {
	return s.mutate(ctx, passID, func(p *models.Pass) (bool, error) {
		if p.Status == models.PassStatusUsed {
			return false, utils.ErrPassImmutable
		}
		reviewedAt := s.now()
		p.ReviewedAt = &reviewedAt
		p.ReviewedBy = &actor
		if notes != "" {
			p.ReviewNotes = &notes
		}
		return true, nil
	})
}

func (s *AdminPassService) Revoke(ctx context.Context, passID uuid.UUID, actor, reason string) (*models.Pass, error) {
	return s.mutate(ctx, passID, func(p *models.Pass) (bool, error) {
		if p.Status == models.PassStatusUsed {
			return false, utils.ErrPassImmutable
		}
		if p.Status.IsTerminal() {
			return false, utils.NewPassNotActiveError(p.Status)
		}
		revokedAt := s.now()
		p.Status = models.PassStatusRevoked
		p.RevokedAt = &revokedAt
		p.RevokedBy = &actor
		p.RevokeReason = &reason
		return true, nil
	})
}

// mutate resolves the pass id to its code and applies decide under the
// per-code lock (the pass code is immutable, so the indirection is safe).
func (s *AdminPassService) mutate(ctx context.Context, passID uuid.UUID, decide repositories.PassDecision) (*models.Pass, error) {
	p, err := s.passes.GetByID(ctx, passID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, utils.ErrInvalidCode
	}
	return s.passes.WithPassLock(ctx, p.Code, decide)
}
