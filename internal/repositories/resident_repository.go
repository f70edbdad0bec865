package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/lumenave/visitor-pass-service/internal/models"
)

type ResidentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Resident, error)
	// FindByPhone resolves an inbound sender to a resident; nil when the
	// number is not in the directory.
	FindByPhone(ctx context.Context, phone string) (*models.Resident, error)
}

type residentRepo struct {
	db DB
}

func NewResidentRepository(db DB) ResidentRepository {
	return &residentRepo{db: db}
}

func baseSelectResident() string {
	return `
        SELECT id, unit_id, facility_id, name, phone, created_at
        FROM residents
    `
}

func scanResident(row pgx.Row) (*models.Resident, error) {
	var res models.Resident
	err := row.Scan(
		&res.ID, &res.UnitID, &res.FacilityID,
		&res.Name, &res.Phone, &res.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

func (r *residentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Resident, error) {
	row := r.db.QueryRow(ctx, baseSelectResident()+" WHERE id=$1", id)
	return scanResident(row)
}

func (r *residentRepo) FindByPhone(ctx context.Context, phone string) (*models.Resident, error) {
	row := r.db.QueryRow(ctx, baseSelectResident()+" WHERE phone=$1 LIMIT 1", phone)
	return scanResident(row)
}
