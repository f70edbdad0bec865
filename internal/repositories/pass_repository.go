package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/lumenave/visitor-pass-service/internal/models"
	"github.com/lumenave/visitor-pass-service/internal/utils"
)

/* ───────────── public interface ───────────── */

// PassFilters narrows facility listings for the oversight surface.
type PassFilters struct {
	Status      *models.PassStatus
	VisitorType *models.VisitorType
	From        *time.Time // valid_from >= From
	To          *time.Time // valid_from < To
}

// PassDecision inspects a locked pass and decides what to do with it.
// Returning mutated=true persists the (possibly partial) mutation even when
// a business error is also returned - lazy expiry relies on that.
type PassDecision func(p *models.Pass) (mutated bool, err error)

// FacilityDailyStats aggregates one facility's pass activity since a cutoff.
type FacilityDailyStats struct {
	Created  int64
	Redeemed int64
	Expired  int64
}

type PassRepository interface {
	// Create inserts the pass. A pass-code uniqueness violation surfaces as
	// utils.ErrDuplicateCode so the caller can retry with a fresh candidate.
	Create(ctx context.Context, p *models.Pass) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Pass, error)
	GetByCode(ctx context.Context, code string) (*models.Pass, error)

	ListByResident(ctx context.Context, residentID uuid.UUID) ([]*models.Pass, error)
	ListByFacility(ctx context.Context, facilityID uuid.UUID, f PassFilters) ([]*models.Pass, error)

	// WithPassLock runs decide against the single matching row under an
	// exclusive row lock; only other callers locking the *same* code block.
	// It is the sole mutation path besides Create. Absent code -> pgx.ErrNoRows.
	WithPassLock(ctx context.Context, code string, decide PassDecision) (*models.Pass, error)

	// MarkExpiredBefore is the best-effort sweep; correctness never depends
	// on it because expiry is also computed lazily under the lock.
	MarkExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)

	Stats(ctx context.Context, facilityID uuid.UUID, since time.Time) (*FacilityDailyStats, error)
}

/* ───────────── implementation ───────────── */

type passRepo struct {
	db DB
}

func NewPassRepository(db DB) PassRepository {
	return &passRepo{db: db}
}

func baseSelectPass() string {
	return `
        SELECT
            id, code,
            visitor_name, visitor_phone, visitor_type, purpose,
            created_by_resident_id, unit_id, facility_id,
            valid_from, valid_until,
            single_use, used_at, used_count, status,
            reviewed_at, reviewed_by, review_notes,
            revoked_at, revoked_by, revoke_reason,
            created_at, updated_at
        FROM passes
    `
}

func scanPass(row pgx.Row) (*models.Pass, error) {
	var p models.Pass
	err := row.Scan(
		&p.ID, &p.Code,
		&p.VisitorName, &p.VisitorPhone, &p.VisitorType, &p.Purpose,
		&p.CreatedByResidentID, &p.UnitID, &p.FacilityID,
		&p.ValidFrom, &p.ValidUntil,
		&p.SingleUse, &p.UsedAt, &p.UsedCount, &p.Status,
		&p.ReviewedAt, &p.ReviewedBy, &p.ReviewNotes,
		&p.RevokedAt, &p.RevokedBy, &p.RevokeReason,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

/* ---------- create ---------- */

func (r *passRepo) Create(ctx context.Context, p *models.Pass) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO passes (
            id, code,
            visitor_name, visitor_phone, visitor_type, purpose,
            created_by_resident_id, unit_id, facility_id,
            valid_from, valid_until,
            single_use, used_count, status,
            created_at, updated_at
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,0,$13,NOW(),NOW()
        )
    `,
		p.ID, p.Code,
		p.VisitorName, p.VisitorPhone, p.VisitorType, p.Purpose,
		p.CreatedByResidentID, p.UnitID, p.FacilityID,
		p.ValidFrom, p.ValidUntil,
		p.SingleUse, p.Status,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return utils.ErrDuplicateCode
		}
		return fmt.Errorf("%w: %v", utils.ErrTransientStore, err)
	}
	return nil
}

/* ---------- reads ---------- */

func (r *passRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Pass, error) {
	row := r.db.QueryRow(ctx, baseSelectPass()+" WHERE id=$1", id)
	p, err := scanPass(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *passRepo) GetByCode(ctx context.Context, code string) (*models.Pass, error) {
	row := r.db.QueryRow(ctx, baseSelectPass()+" WHERE code=$1", code)
	p, err := scanPass(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *passRepo) ListByResident(ctx context.Context, residentID uuid.UUID) ([]*models.Pass, error) {
	rows, err := r.db.Query(ctx,
		baseSelectPass()+" WHERE created_by_resident_id=$1 ORDER BY created_at DESC",
		residentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPasses(rows)
}

func (r *passRepo) ListByFacility(ctx context.Context, facilityID uuid.UUID, f PassFilters) ([]*models.Pass, error) {
	sql := baseSelectPass() + " WHERE facility_id=$1"
	args := []interface{}{facilityID}

	if f.Status != nil {
		args = append(args, *f.Status)
		sql += " AND status=$" + strconv.Itoa(len(args))
	}
	if f.VisitorType != nil {
		args = append(args, *f.VisitorType)
		sql += " AND visitor_type=$" + strconv.Itoa(len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		sql += " AND valid_from>=$" + strconv.Itoa(len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		sql += " AND valid_from<$" + strconv.Itoa(len(args))
	}
	sql += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPasses(rows)
}

/* ---------- locked read-modify-write ---------- */

func (r *passRepo) WithPassLock(ctx context.Context, code string, decide PassDecision) (*models.Pass, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrTransientStore, err)
	}

	row := tx.QueryRow(ctx, baseSelectPass()+" WHERE code=$1 FOR UPDATE", code)
	p, err := scanPass(row)
	if err != nil {
		_ = tx.Rollback(ctx)
		if err == pgx.ErrNoRows {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("%w: %v", utils.ErrTransientStore, err)
	}

	mutated, decideErr := decide(p)
	if mutated {
		if _, err := tx.Exec(ctx, `
            UPDATE passes
            SET status=$1, used_at=$2, used_count=$3,
                reviewed_at=$4, reviewed_by=$5, review_notes=$6,
                revoked_at=$7, revoked_by=$8, revoke_reason=$9,
                updated_at=NOW()
            WHERE id=$10
        `,
			p.Status, p.UsedAt, p.UsedCount,
			p.ReviewedAt, p.ReviewedBy, p.ReviewNotes,
			p.RevokedAt, p.RevokedBy, p.RevokeReason,
			p.ID,
		); err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("%w: %v", utils.ErrTransientStore, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrTransientStore, err)
	}
	return p, decideErr
}

/* ---------- sweep / stats ---------- */

func (r *passRepo) MarkExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE passes
        SET status=$1, updated_at=NOW()
        WHERE status=$2 AND valid_until<=$3
    `, models.PassStatusExpired, models.PassStatusActive, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *passRepo) Stats(ctx context.Context, facilityID uuid.UUID, since time.Time) (*FacilityDailyStats, error) {
	row := r.db.QueryRow(ctx, `
        SELECT
            COUNT(*) FILTER (WHERE created_at >= $2),
            COUNT(*) FILTER (WHERE used_at >= $2),
            COUNT(*) FILTER (WHERE status = $3 AND updated_at >= $2)
        FROM passes
        WHERE facility_id = $1
    `, facilityID, since, models.PassStatusExpired)

	var s FacilityDailyStats
	if err := row.Scan(&s.Created, &s.Redeemed, &s.Expired); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanPasses(rows pgx.Rows) ([]*models.Pass, error) {
	var out []*models.Pass
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
