package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	intconfig "ridedesk/internal/config"
	intdb "ridedesk/internal/db"
	"ridedesk/internal/domain"
	"ridedesk/internal/domain/models"
)

type LocationRepository struct {
	DB *sql.DB
}

func (r LocationRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const locationColumns = `id, location_code, location_name, city_id`

func (r LocationRepository) List(ctx context.Context) ([]models.Location, error) {
	return r.query(ctx, `SELECT `+locationColumns+` FROM locations ORDER BY city_id ASC, id ASC`)
}

// ListByCity returns a city's locations in creation order. The cost matrix is
// built from this order, so it must be stable.
func (r LocationRepository) ListByCity(ctx context.Context, cityID int64) ([]models.Location, error) {
	return r.query(ctx, `SELECT `+locationColumns+` FROM locations WHERE city_id=? ORDER BY id ASC`, cityID)
}

func (r LocationRepository) query(ctx context.Context, q string, args ...any) ([]models.Location, error) {
	rows, err := r.db().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	out := []models.Location{}
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.LocationID, &l.LocationName, &l.CityID); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r LocationRepository) GetByID(ctx context.Context, id int64) (models.Location, error) {
	var l models.Location
	err := r.db().QueryRowContext(ctx, `SELECT `+locationColumns+` FROM locations WHERE id=? LIMIT 1`, id).
		Scan(&l.ID, &l.LocationID, &l.LocationName, &l.CityID)
	if errors.Is(err, sql.ErrNoRows) {
		return l, domain.NotFoundError{Resource: "location", Err: err}
	}
	if err != nil {
		return l, fmt.Errorf("get location: %w", err)
	}
	return l, nil
}

func (r LocationRepository) Create(ctx context.Context, l models.Location) (models.Location, error) {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO locations (location_code, location_name, city_id) VALUES (?, ?, ?)
	`, strings.TrimSpace(l.LocationID), strings.TrimSpace(l.LocationName), l.CityID)
	if err != nil {
		return l, mapLocationWriteErr(err, "create")
	}
	l.ID, _ = res.LastInsertId()
	return l, nil
}

func (r LocationRepository) Update(ctx context.Context, l models.Location) error {
	res, err := r.db().ExecContext(ctx, `
		UPDATE locations SET location_code=?, location_name=?, city_id=? WHERE id=?
	`, strings.TrimSpace(l.LocationID), strings.TrimSpace(l.LocationName), l.CityID, l.ID)
	if err != nil {
		return mapLocationWriteErr(err, "update")
	}
	return requireAffected(res, "location")
}

func (r LocationRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db().ExecContext(ctx, `DELETE FROM locations WHERE id=?`, id)
	if err != nil {
		return mapLocationWriteErr(err, "delete")
	}
	return requireAffected(res, "location")
}

func mapLocationWriteErr(err error, op string) error {
	switch {
	case intdb.IsDuplicateKey(err):
		return domain.ConflictError{Resource: "location", Msg: "location id or name already exists in this city", Err: err}
	case intdb.IsForeignKeyViolation(err):
		return domain.ValidationError{Field: "cityId", Msg: "city does not exist or location is in use", Err: err}
	default:
		return fmt.Errorf("%s location: %w", op, err)
	}
}
