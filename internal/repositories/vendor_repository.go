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

type VendorRepository struct {
	DB *sql.DB
}

func (r VendorRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const vendorSelect = `
	SELECT v.id, v.vendor_name, COALESCE(v.city_id, 0), COALESCE(c.city_code, ''), COALESCE(c.city_name, '')
	FROM vendors v
	LEFT JOIN cities c ON c.id = v.city_id
`

func (r VendorRepository) List(ctx context.Context) ([]models.Vendor, error) {
	rows, err := r.db().QueryContext(ctx, vendorSelect+` ORDER BY v.vendor_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	out := []models.Vendor{}
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r VendorRepository) GetByID(ctx context.Context, id int64) (models.Vendor, error) {
	v, err := scanVendor(r.db().QueryRowContext(ctx, vendorSelect+` WHERE v.id=? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return v, domain.NotFoundError{Resource: "vendor", Err: err}
	}
	return v, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVendor(s rowScanner) (models.Vendor, error) {
	var v models.Vendor
	var code, name string
	if err := s.Scan(&v.ID, &v.VendorName, &v.CityID, &code, &name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return v, err
		}
		return v, fmt.Errorf("scan vendor: %w", err)
	}
	if v.CityID > 0 {
		v.City = &models.City{ID: v.CityID, CityID: code, CityName: name}
	}
	return v, nil
}

func (r VendorRepository) Create(ctx context.Context, v models.Vendor) (models.Vendor, error) {
	cityID := v.CityID
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO vendors (vendor_name, city_id) VALUES (?, ?)
	`, strings.TrimSpace(v.VendorName), intdb.NullID(&cityID))
	if err != nil {
		return v, mapVendorWriteErr(err, "create")
	}
	v.ID, _ = res.LastInsertId()
	return v, nil
}

func (r VendorRepository) Update(ctx context.Context, v models.Vendor) error {
	cityID := v.CityID
	res, err := r.db().ExecContext(ctx, `
		UPDATE vendors SET vendor_name=?, city_id=? WHERE id=?
	`, strings.TrimSpace(v.VendorName), intdb.NullID(&cityID), v.ID)
	if err != nil {
		return mapVendorWriteErr(err, "update")
	}
	return requireAffected(res, "vendor")
}

func (r VendorRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db().ExecContext(ctx, `DELETE FROM vendors WHERE id=?`, id)
	if err != nil {
		return mapVendorWriteErr(err, "delete")
	}
	return requireAffected(res, "vendor")
}

func mapVendorWriteErr(err error, op string) error {
	if intdb.IsForeignKeyViolation(err) {
		if op == "delete" {
			return domain.ConflictError{Resource: "vendor", Msg: "vendor still owns transports", Err: err}
		}
		return domain.ValidationError{Field: "cityId", Msg: "city does not exist", Err: err}
	}
	return fmt.Errorf("%s vendor: %w", op, err)
}
