package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenave/visitor-pass-service/internal/models"
)

func TestSweep_MarksClosedWindowsExpired(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, testClock.Location())
	repo := newMemPassRepo()
	res := testResident()

	stale := activeRouterPass(res, "SWP222", now.Add(-4*time.Hour), now.Add(-time.Hour))
	live := activeRouterPass(res, "SWP333", now.Add(-time.Hour), now.Add(time.Hour))
	used := activeRouterPass(res, "SWP444", now.Add(-4*time.Hour), now.Add(-time.Hour))
	used.Status = models.PassStatusUsed
	for _, p := range []*models.Pass{stale, live, used} {
		require.NoError(t, repo.Create(context.Background(), p))
	}

	sweep := NewSweepService(repo)
	sweep.now = func() time.Time { return now }
	sweep.SweepExpired(context.Background())

	get := func(code string) *models.Pass {
		p, err := repo.GetByCode(context.Background(), code)
		require.NoError(t, err)
		return p
	}
	assert.Equal(t, models.PassStatusExpired, get("SWP222").Status)
	assert.Equal(t, models.PassStatusActive, get("SWP333").Status)
	assert.Equal(t, models.PassStatusUsed, get("SWP444").Status, "terminal states are untouched")

	// Idempotent on a second tick.
	sweep.SweepExpired(context.Background())
	assert.Equal(t, models.PassStatusExpired, get("SWP222").Status)
}
