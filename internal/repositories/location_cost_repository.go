package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intconfig "ridedesk/internal/config"
	intdb "ridedesk/internal/db"
	"ridedesk/internal/domain/models"
)

type LocationCostRepository struct {
	DB *sql.DB
}

func (r LocationCostRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r LocationCostRepository) ListByCity(ctx context.Context, cityID int64) ([]models.LocationCost, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT id, city_id, pickup_location_id, drop_location_id, cost
		FROM location_costs
		WHERE city_id=?
		ORDER BY pickup_location_id ASC, drop_location_id ASC
	`, cityID)
	if err != nil {
		return nil, fmt.Errorf("list location costs: %w", err)
	}
	defer rows.Close()

	out := []models.LocationCost{}
	for rows.Next() {
		var c models.LocationCost
		var cost sql.NullFloat64
		if err := rows.Scan(&c.ID, &c.CityID, &c.PickupLocationID, &c.DropLocationID, &cost); err != nil {
			return nil, fmt.Errorf("scan location cost: %w", err)
		}
		c.Cost = intdb.FloatPtr(cost)
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveMatrix writes priced entries and removes entries submitted blank, all
// in one transaction.
func (r LocationCostRepository) SaveMatrix(ctx context.Context, cityID int64, entries []models.CostMatrixEntry) (saved, cleared int, err error) {
	err = intdb.WithTx(ctx, r.db(), func(tx *sql.Tx) error {
		for _, e := range entries {
			if e.Cost == nil {
				res, err := tx.ExecContext(ctx, `
					DELETE FROM location_costs
					WHERE city_id=? AND pickup_location_id=? AND drop_location_id=?
				`, cityID, e.PickupLocationID, e.DropLocationID)
				if err != nil {
					return fmt.Errorf("clear location cost: %w", err)
				}
				if n, _ := res.RowsAffected(); n > 0 {
					cleared++
				}
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO location_costs (city_id, pickup_location_id, drop_location_id, cost)
				VALUES (?, ?, ?, ?)
				ON DUPLICATE KEY UPDATE cost=VALUES(cost), city_id=VALUES(city_id)
			`, cityID, e.PickupLocationID, e.DropLocationID, *e.Cost); err != nil {
				return fmt.Errorf("save location cost: %w", err)
			}
			saved++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return saved, cleared, nil
}

// DeleteByLocation removes every cost entry touching the location.
func (r LocationCostRepository) DeleteByLocation(ctx context.Context, locationID int64) (int64, error) {
	res, err := r.db().ExecContext(ctx, `
		DELETE FROM location_costs WHERE pickup_location_id=? OR drop_location_id=?
	`, locationID, locationID)
	if err != nil {
		return 0, fmt.Errorf("delete location costs: %w", err)
	}
	return res.RowsAffected()
}

// DeleteByCity invalidates the whole matrix of a city.
func (r LocationCostRepository) DeleteByCity(ctx context.Context, cityID int64) (int64, error) {
	res, err := r.db().ExecContext(ctx, `DELETE FROM location_costs WHERE city_id=?`, cityID)
	if err != nil {
		return 0, fmt.Errorf("delete city costs: %w", err)
	}
	return res.RowsAffected()
}

// CostFor looks up the saved price of one directed pair; nil when unpriced.
func (r LocationCostRepository) CostFor(ctx context.Context, pickupID, dropID int64) (*float64, error) {
	var cost sql.NullFloat64
	err := r.db().QueryRowContext(ctx, `
		SELECT cost FROM location_costs WHERE pickup_location_id=? AND drop_location_id=? LIMIT 1
	`, pickupID, dropID).Scan(&cost)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get location cost: %w", err)
	}
	return intdb.FloatPtr(cost), nil
}
