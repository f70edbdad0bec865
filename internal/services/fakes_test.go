package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/lumenave/visitor-pass-service/internal/models"
	"github.com/lumenave/visitor-pass-service/internal/repositories"
	"github.com/lumenave/visitor-pass-service/internal/transport"
	"github.com/lumenave/visitor-pass-service/internal/utils"
)

/*
   memPassRepo implements PassRepository over a map with a real per-code
   mutex, so the redemption tests exercise the same exclusivity contract the
   pgx repository provides with SELECT ... FOR UPDATE.
*/
type memPassRepo struct {
	mu     sync.Mutex
	byCode map[string]*models.Pass
	locks  map[string]*sync.Mutex

	// Scripted failures, popped one per call.
	createErrs []error
	lockErrs   []error
}

func newMemPassRepo() *memPassRepo {
	return &memPassRepo{
		byCode: map[string]*models.Pass{},
		locks:  map[string]*sync.Mutex{},
	}
}

func copyPass(p *models.Pass) *models.Pass {
	cp := *p
	return &cp
}

func (r *memPassRepo) scriptCreateErr(errs ...error) { r.createErrs = append(r.createErrs, errs...) }
func (r *memPassRepo) scriptLockErr(errs ...error)   { r.lockErrs = append(r.lockErrs, errs...) }

func (r *memPassRepo) Create(ctx context.Context, p *models.Pass) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, exists := r.byCode[p.Code]; exists {
		return utils.ErrDuplicateCode
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.byCode[p.Code] = copyPass(p)
	return nil
}

func (r *memPassRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Pass, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byCode {
		if p.ID == id {
			return copyPass(p), nil
		}
	}
	return nil, nil
}

func (r *memPassRepo) GetByCode(ctx context.Context, code string) (*models.Pass, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.byCode[code]; ok {
		return copyPass(p), nil
	}
	return nil, nil
}

func (r *memPassRepo) ListByResident(ctx context.Context, residentID uuid.UUID) ([]*models.Pass, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Pass
	for _, p := range r.byCode {
		if p.CreatedByResidentID == residentID {
			out = append(out, copyPass(p))
		}
	}
	return out, nil
}

func (r *memPassRepo) ListByFacility(ctx context.Context, facilityID uuid.UUID, f repositories.PassFilters) ([]*models.Pass, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Pass
	for _, p := range r.byCode {
		if p.FacilityID != facilityID {
			continue
		}
		if f.Status != nil && p.Status != *f.Status {
			continue
		}
		if f.VisitorType != nil && p.VisitorType != *f.VisitorType {
			continue
		}
		if f.From != nil && p.ValidFrom.Before(*f.From) {
			continue
		}
		if f.To != nil && !p.ValidFrom.Before(*f.To) {
			continue
		}
		out = append(out, copyPass(p))
	}
	return out, nil
}

func (r *memPassRepo) WithPassLock(ctx context.Context, code string, decide repositories.PassDecision) (*models.Pass, error) {
	r.mu.Lock()
	if len(r.lockErrs) > 0 {
		err := r.lockErrs[0]
		r.lockErrs = r.lockErrs[1:]
		r.mu.Unlock()
		if err != nil {
			return nil, err
		}
	} else {
		r.mu.Unlock()
	}

	rowLock := r.lockFor(code)
	rowLock.Lock()
	defer rowLock.Unlock()

	r.mu.Lock()
	stored, ok := r.byCode[code]
	var snapshot *models.Pass
	if ok {
		snapshot = copyPass(stored)
	}
	r.mu.Unlock()

	if !ok {
		return nil, pgx.ErrNoRows
	}

	mutated, decideErr := decide(snapshot)
	if mutated {
		snapshot.UpdatedAt = time.Now()
		r.mu.Lock()
		r.byCode[code] = copyPass(snapshot)
		r.mu.Unlock()
	}
	return snapshot, decideErr
}

func (r *memPassRepo) MarkExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.byCode {
		if p.Status == models.PassStatusActive && !cutoff.Before(p.ValidUntil) {
			p.Status = models.PassStatusExpired
			p.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

func (r *memPassRepo) Stats(ctx context.Context, facilityID uuid.UUID, since time.Time) (*repositories.FacilityDailyStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s repositories.FacilityDailyStats
	for _, p := range r.byCode {
		if p.FacilityID != facilityID {
			continue
		}
		if !p.CreatedAt.Before(since) {
			s.Created++
		}
		if p.UsedAt != nil && !p.UsedAt.Before(since) {
			s.Redeemed++
		}
		if p.Status == models.PassStatusExpired && !p.UpdatedAt.Before(since) {
			s.Expired++
		}
	}
	return &s, nil
}

func (r *memPassRepo) lockFor(code string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.locks[code]; ok {
		return l
	}
	l := &sync.Mutex{}
	r.locks[code] = l
	return l
}

/* ---------- resident directory fake ---------- */

type memResidentRepo struct {
	mu      sync.Mutex
	byPhone map[string]*models.Resident
}

func newMemResidentRepo(residents ...*models.Resident) *memResidentRepo {
	r := &memResidentRepo{byPhone: map[string]*models.Resident{}}
	for _, res := range residents {
		r.byPhone[res.Phone] = res
	}
	return r
}

func (r *memResidentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Resident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.byPhone {
		if res.ID == id {
			cp := *res
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memResidentRepo) FindByPhone(ctx context.Context, phone string) (*models.Resident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.byPhone[phone]; ok {
		cp := *res
		return &cp, nil
	}
	return nil, nil
}

/* ---------- messenger fake ---------- */

type sentMessage struct {
	To      string
	Body    string
	Choices []transport.Choice
}

type recorderMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (m *recorderMessenger) SendText(ctx context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{To: to, Body: body})
	return nil
}

func (m *recorderMessenger) SendChoices(ctx context.Context, to, body string, choices []transport.Choice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{To: to, Body: body, Choices: choices})
	return nil
}

func (m *recorderMessenger) last() sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMessage{}
	}
	return m.sent[len(m.sent)-1]
}

func (m *recorderMessenger) lastBodyContains(sub string) bool {
	return strings.Contains(m.last().Body, sub)
}

func (m *recorderMessenger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

/* ---------- common fixtures ---------- */

var testClock = mustClock()

func mustClock() *utils.CivilClock {
	clock, err := utils.NewCivilClock("+03:00")
	if err != nil {
		panic(err)
	}
	return clock
}

func testResident() *models.Resident {
	return &models.Resident{
		ID:         uuid.New(),
		UnitID:     uuid.New(),
		FacilityID: uuid.New(),
		Name:       "Amina",
		Phone:      "+254700000001",
	}
}
