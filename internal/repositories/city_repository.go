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

type CityRepository struct {
	DB *sql.DB
}

func (r CityRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// List returns cities ordered by name, each with its locations.
func (r CityRepository) List(ctx context.Context) ([]models.City, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT id, city_code, city_name
		FROM cities
		ORDER BY city_name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	defer rows.Close()

	out := []models.City{}
	index := map[int64]int{}
	for rows.Next() {
		var c models.City
		if err := rows.Scan(&c.ID, &c.CityID, &c.CityName); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		c.Locations = []models.Location{}
		index[c.ID] = len(out)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	locs, err := LocationRepository{DB: r.db()}.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range locs {
		if i, ok := index[l.CityID]; ok {
			out[i].Locations = append(out[i].Locations, l)
		}
	}
	return out, nil
}

// GetByID returns the city with a freshly queried location list.
func (r CityRepository) GetByID(ctx context.Context, id int64) (models.City, error) {
	var c models.City
	err := r.db().QueryRowContext(ctx, `
		SELECT id, city_code, city_name FROM cities WHERE id=? LIMIT 1
	`, id).Scan(&c.ID, &c.CityID, &c.CityName)
	if errors.Is(err, sql.ErrNoRows) {
		return c, domain.NotFoundError{Resource: "city", Err: err}
	}
	if err != nil {
		return c, fmt.Errorf("get city: %w", err)
	}

	c.Locations, err = LocationRepository{DB: r.db()}.ListByCity(ctx, id)
	if err != nil {
		return c, err
	}
	return c, nil
}

func (r CityRepository) Create(ctx context.Context, c models.City) (models.City, error) {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO cities (city_code, city_name) VALUES (?, ?)
	`, strings.TrimSpace(c.CityID), strings.TrimSpace(c.CityName))
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return c, domain.ConflictError{Resource: "city", Msg: "city id or name already exists", Err: err}
		}
		return c, fmt.Errorf("create city: %w", err)
	}
	c.ID, _ = res.LastInsertId()
	c.Locations = []models.Location{}
	return c, nil
}

func (r CityRepository) Update(ctx context.Context, c models.City) error {
	res, err := r.db().ExecContext(ctx, `
		UPDATE cities SET city_code=?, city_name=? WHERE id=?
	`, strings.TrimSpace(c.CityID), strings.TrimSpace(c.CityName), c.ID)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ConflictError{Resource: "city", Msg: "city id or name already exists", Err: err}
		}
		return fmt.Errorf("update city: %w", err)
	}
	return requireAffected(res, "city")
}

// Delete removes the city; locations and their costs cascade in the schema.
func (r CityRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db().ExecContext(ctx, `DELETE FROM cities WHERE id=?`, id)
	if err != nil {
		if intdb.IsForeignKeyViolation(err) {
			return domain.ConflictError{Resource: "city", Msg: "city is still referenced", Err: err}
		}
		return fmt.Errorf("delete city: %w", err)
	}
	return requireAffected(res, "city")
}

// requireAffected maps zero affected rows to NotFoundError. The DSN sets
// clientFoundRows, so an UPDATE that changes nothing still counts its row.
func requireAffected(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError{Resource: resource}
	}
	return nil
}
