package services

import (
	"context"
	"time"

	"github.com/lumenave/visitor-pass-service/internal/repositories"
	"github.com/lumenave/visitor-pass-service/internal/utils"
)

/*
   SweepService proactively marks obviously expired rows. It is idempotent
   and purely best-effort: redemption computes expiry lazily under the lock,
   so correctness never depends on the sweep having run.
*/
type SweepService struct {
	passes repositories.PassRepository
	now    func() time.Time
}

func NewSweepService(passes repositories.PassRepository) *SweepService {
	return &SweepService{passes: passes, now: time.Now}
}

func (s *SweepService) SweepExpired(ctx context.Context) {
	n, err := s.passes.MarkExpiredBefore(ctx, s.now())
	if err != nil {
		utils.Logger.WithError(err).Warn("Expiry sweep failed; will retry on next tick")
		return
	}
	if n > 0 {
		utils.Logger.Infof("Expiry sweep marked %d passes expired", n)
	}
}
