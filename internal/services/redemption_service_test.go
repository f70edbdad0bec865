package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenave/visitor-pass-service/internal/models"
	"github.com/lumenave/visitor-pass-service/internal/utils"
)

func newRedemptionFixture(t *testing.T) (*memPassRepo, *RedemptionService) {
	t.Helper()
	repo := newMemPassRepo()
	svc := NewRedemptionService(repo, nil, nil, testClock)
	return repo, svc
}

func seedPass(t *testing.T, repo *memPassRepo, res *models.Resident, from, until time.Time, singleUse bool) *models.Pass {
	t.Helper()
	svc := NewPassService(repo)
	p, err := svc.CreatePass(context.Background(), CreatePassInput{
		Resident:    res,
		VisitorName: "J. Smith",
		VisitorType: models.VisitorTypeGuest,
		ValidFrom:   from,
		ValidUntil:  until,
		SingleUse:   singleUse,
	})
	require.NoError(t, err)
	return p
}

func TestRedeem_AtMostOnceForSingleUse(t *testing.T) {
	repo, svc := newRedemptionFixture(t)
	res := testResident()
	now := time.Now()
	p := seedPass(t, repo, res, now.Add(-time.Minute), now.Add(time.Hour), true)

	const attempts = 25
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Redeem(context.Background(), p.Code)
		}(i)
	}
	wg.Wait()

	var successes, alreadyUsed int
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		var notActive *utils.PassNotActiveError
		require.ErrorAs(t, err, &notActive)
		assert.Equal(t, models.PassStatusUsed, notActive.Status)
		alreadyUsed++
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, alreadyUsed)

	stored, err := repo.GetByCode(context.Background(), p.Code)
	require.NoError(t, err)
	assert.Equal(t, models.PassStatusUsed, stored.Status)
	assert.Equal(t, 1, stored.UsedCount)
	require.NotNil(t, stored.UsedAt)
}

func TestRedeem_WindowBoundaries(t *testing.T) {
	repo, svc := newRedemptionFixture(t)
	res := testResident()
	from := time.Now().Add(time.Hour)
	until := from.Add(4 * time.Hour)
	p := seedPass(t, repo, res, from, until, true)

	// One second before the window opens.
	svc.now = func() time.Time { return from.Add(-time.Second) }
	got, err := svc.Redeem(context.Background(), p.Code)
	assert.ErrorIs(t, err, utils.ErrNotYetValid)
	require.NotNil(t, got)
	assert.True(t, got.ValidFrom.Equal(from))

	// A not-yet-valid attempt must not mutate anything.
	stored, _ := repo.GetByCode(context.Background(), p.Code)
	assert.Equal(t, models.PassStatusActive, stored.Status)
	assert.Equal(t, 0, stored.UsedCount)

	// Exactly at valid_until the window has closed.
	svc.now = func() time.Time { return until }
	_, err = svc.Redeem(context.Background(), p.Code)
	assert.ErrorIs(t, err, utils.ErrExpired)

	stored, _ = repo.GetByCode(context.Background(), p.Code)
	assert.Equal(t, models.PassStatusExpired, stored.Status)
}

func TestRedeem_StrictlyInsideWindowSucceeds(t *testing.T) {
	repo, svc := newRedemptionFixture(t)
	res := testResident()
	from := time.Now()
	p := seedPass(t, repo, res, from, from.Add(time.Hour), true)

	svc.now = func() time.Time { return from.Add(time.Minute) }
	got, err := svc.Redeem(context.Background(), p.Code)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsedCount)
	assert.Equal(t, models.PassStatusUsed, got.Status)
}

func TestRedeem_LazyExpiryConvergesAndStaysExpired(t *testing.T) {
	repo, svc := newRedemptionFixture(t)
	res := testResident()
	from := time.Now().Add(-2 * time.Hour)
	p := seedPass(t, repo, res, from, from.Add(time.Hour), false)

	// First observer performs and persists the transition.
	_, err := svc.Redeem(context.Background(), p.Code)
	assert.ErrorIs(t, err, utils.ErrExpired)
	stored, _ := repo.GetByCode(context.Background(), p.Code)
	assert.Equal(t, models.PassStatusExpired, stored.Status)

	// Every later observer sees the terminal state, still rendered as
	// "expired" to the visitor.
	_, err = svc.Redeem(context.Background(), p.Code)
	var notActive *utils.PassNotActiveError
	require.ErrorAs(t, err, &notActive)
	assert.Equal(t, models.PassStatusExpired, notActive.Status)
}

func TestRedeem_MultiUseAccumulates(t *testing.T) {
	repo, svc := newRedemptionFixture(t)
	res := testResident()
	from := time.Now().Add(-time.Minute)
	until := from.Add(2 * time.Hour)
	p := seedPass(t, repo, res, from, until, false)

	for i := 1; i <= 3; i++ {
		got, err := svc.Redeem(context.Background(), p.Code)
		require.NoError(t, err)
		assert.Equal(t, i, got.UsedCount)
		assert.Equal(t, models.PassStatusActive, got.Status)
	}

	stored, _ := repo.GetByCode(context.Background(), p.Code)
	require.NotNil(t, stored.UsedAt)
	assert.Equal(t, 3, stored.UsedCount)

	// The window closing ends the accumulation.
	svc.now = func() time.Time { return until.Add(time.Second) }
	_, err := svc.Redeem(context.Background(), p.Code)
	assert.ErrorIs(t, err, utils.ErrExpired)
}

func TestRedeem_UnknownAndMalformedCodes(t *testing.T) {
	_, svc := newRedemptionFixture(t)

	_, err := svc.Redeem(context.Background(), "ZZZZZZ")
	assert.ErrorIs(t, err, utils.ErrInvalidCode)

	_, err = svc.Redeem(context.Background(), "not a code")
	assert.ErrorIs(t, err, utils.ErrInvalidCode)
}

func TestRedeem_RetriesOnceOnTransientFailure(t *testing.T) {
	repo, svc := newRedemptionFixture(t)
	res := testResident()
	now := time.Now()
	p := seedPass(t, repo, res, now.Add(-time.Minute), now.Add(time.Hour), true)

	repo.scriptLockErr(utils.ErrTransientStore)
	got, err := svc.Redeem(context.Background(), p.Code)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsedCount)

	// Two transient failures in a row surface to the caller.
	p2 := seedPass(t, repo, res, now.Add(-time.Minute), now.Add(time.Hour), true)
	repo.scriptLockErr(utils.ErrTransientStore, utils.ErrTransientStore)
	_, err = svc.Redeem(context.Background(), p2.Code)
	assert.ErrorIs(t, err, utils.ErrTransientStore)
}

func TestRedeem_NotifiesCreatingResident(t *testing.T) {
	repo := newMemPassRepo()
	res := testResident()
	residents := newMemResidentRepo(res)
	msgr := &recorderMessenger{}
	svc := NewRedemptionService(repo, residents, msgr, testClock)

	now := time.Now()
	p := seedPass(t, repo, res, now.Add(-time.Minute), now.Add(time.Hour), true)

	_, err := svc.Redeem(context.Background(), p.Code)
	require.NoError(t, err)

	require.Equal(t, 1, msgr.count())
	assert.Equal(t, res.Phone, msgr.last().To)
	assert.Contains(t, msgr.last().Body, "J. Smith")
	assert.Contains(t, msgr.last().Body, p.Code)
}

func TestScenarioA_DeliverySingleUse(t *testing.T) {
	repo, svc := newRedemptionFixture(t)
	res := testResident()

	now := time.Now()
	passSvc := NewPassService(repo)
	p, err := passSvc.CreatePass(context.Background(), CreatePassInput{
		Resident:    res,
		VisitorName: "Courier",
		VisitorType: models.VisitorTypeDelivery,
		ValidUntil:  now.Add(30 * time.Minute),
		SingleUse:   true,
	})
	require.NoError(t, err)

	got, err := svc.Redeem(context.Background(), p.Code)
	require.NoError(t, err)
	assert.Equal(t, models.VisitorTypeDelivery, got.VisitorType)

	_, err = svc.Redeem(context.Background(), p.Code)
	var notActive *utils.PassNotActiveError
	require.ErrorAs(t, err, &notActive)
	assert.Equal(t, models.PassStatusUsed, notActive.Status)
}

func TestScenarioB_EarlyAndLateAttempts(t *testing.T) {
	repo, svc := newRedemptionFixture(t)
	res := testResident()

	base := time.Now()
	p := seedPass(t, repo, res, base.Add(time.Hour), base.Add(5*time.Hour), true)

	svc.now = func() time.Time { return base.Add(10 * time.Minute) }
	_, err := svc.Redeem(context.Background(), p.Code)
	assert.ErrorIs(t, err, utils.ErrNotYetValid)

	svc.now = func() time.Time { return base.Add(6 * time.Hour) }
	_, err = svc.Redeem(context.Background(), p.Code)
	assert.ErrorIs(t, err, utils.ErrExpired)
}
