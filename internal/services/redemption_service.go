package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/lumenave/visitor-pass-service/internal/models"
	"github.com/lumenave/visitor-pass-service/internal/repositories"
	"github.com/lumenave/visitor-pass-service/internal/transport"
	"github.com/lumenave/visitor-pass-service/internal/utils"
)

/*
   RedemptionService owns the pass status state machine. Every validity
   decision runs inside the repository's per-code row lock, so two
   concurrent attempts against the same code are totally ordered: the first
   to acquire the lock while the pass is active and inside its window wins,
   and every other attempt observes the already-consumed state.
*/
type RedemptionService struct {
	passes    repositories.PassRepository
	residents repositories.ResidentRepository
	messenger transport.Messenger
	clock     *utils.CivilClock
	now       func() time.Time
}

func NewRedemptionService(
	passes repositories.PassRepository,
	residents repositories.ResidentRepository,
	messenger transport.Messenger,
	clock *utils.CivilClock,
) *RedemptionService {
	return &RedemptionService{
		passes:    passes,
		residents: residents,
		messenger: messenger,
		clock:     clock,
		now:       time.Now,
	}
}

// Redeem validates and consumes the pass behind rawCode. On a business
// rejection the returned pass (when the code matched a record) carries the
// snapshot the caller needs to render the outcome, e.g. ValidFrom for a
// not-yet-valid pass. Transient store failures are retried once.
func (s *RedemptionService) Redeem(ctx context.Context, rawCode string) (*models.Pass, error) {
	code := utils.NormalizePassCode(rawCode)
	if !utils.IsPassCodeShaped(code) {
		return nil, utils.ErrInvalidCode
	}

	p, err := s.redeemOnce(ctx, code)
	if errors.Is(err, utils.ErrTransientStore) {
		p, err = s.redeemOnce(ctx, code)
	}
	if err == nil {
		s.notifyResident(ctx, p)
	}
	return p, err
}

func (s *RedemptionService) redeemOnce(ctx context.Context, code string) (*models.Pass, error) {
	now := s.now()

	p, err := s.passes.WithPassLock(ctx, code, func(p *models.Pass) (bool, error) {
		if p.Status != models.PassStatusActive {
			return false, utils.NewPassNotActiveError(p.Status)
		}
		if !now.Before(p.ValidUntil) {
			// Lazy expiry: the first observer persists the transition.
			p.Status = models.PassStatusExpired
			return true, utils.ErrExpired
		}
		if now.Before(p.ValidFrom) {
			// The pass may still become valid later; leave it untouched.
			return false, utils.ErrNotYetValid
		}

		if p.UsedAt == nil {
			usedAt := now
			p.UsedAt = &usedAt
		}
		p.UsedCount++
		if p.SingleUse {
			p.Status = models.PassStatusUsed
		}
		return true, nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, utils.ErrInvalidCode
	}
	return p, err
}

// notifyResident sends a courtesy check-in text to the pass creator.
// Best-effort: a transport failure never fails the redemption.
func (s *RedemptionService) notifyResident(ctx context.Context, p *models.Pass) {
	if s.messenger == nil || s.residents == nil {
		return
	}
	res, err := s.residents.GetByID(ctx, p.CreatedByResidentID)
	if err != nil || res == nil {
		utils.Logger.WithError(err).Warnf("Could not resolve resident %s for check-in notice", p.CreatedByResidentID)
		return
	}
	body := fmt.Sprintf("Your visitor %s checked in at %s using pass %s.",
		p.VisitorName, s.clock.ToCivilDisplay(s.now()), p.Code)
	if err := s.messenger.SendText(ctx, res.Phone, body); err != nil {
		utils.Logger.WithError(err).Warnf("Failed to send check-in notice to resident %s", res.ID)
	}
}
