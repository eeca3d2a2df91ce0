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

type TransportRepository struct {
	DB *sql.DB
}

func (r TransportRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const transportSelect = `
	SELECT t.id, t.transport_code, t.vehicle_no, t.vendor_id, t.type, v.vendor_name, COALESCE(v.city_id, 0)
	FROM transports t
	JOIN vendors v ON v.id = t.vendor_id
`

// TransportQuery narrows List; zero fields are ignored.
type TransportQuery struct {
	VendorID int64
	CityID   int64
}

func (r TransportRepository) List(ctx context.Context, q TransportQuery) ([]models.Transport, error) {
	where := []string{}
	args := []any{}
	if q.VendorID > 0 {
		where = append(where, "t.vendor_id=?")
		args = append(args, q.VendorID)
	}
	if q.CityID > 0 {
		where = append(where, "v.city_id=?")
		args = append(args, q.CityID)
	}
	query := transportSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY t.transport_code ASC"

	rows, err := r.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transports: %w", err)
	}
	defer rows.Close()

	out := []models.Transport{}
	for rows.Next() {
		t, err := scanTransport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r TransportRepository) GetByID(ctx context.Context, id int64) (models.Transport, error) {
	t, err := scanTransport(r.db().QueryRowContext(ctx, transportSelect+` WHERE t.id=? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return t, domain.NotFoundError{Resource: "transport", Err: err}
	}
	return t, err
}

func scanTransport(s rowScanner) (models.Transport, error) {
	var t models.Transport
	var vendorName string
	var cityID int64
	if err := s.Scan(&t.ID, &t.TransportID, &t.VehicleNo, &t.VendorID, &t.Type, &vendorName, &cityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("scan transport: %w", err)
	}
	t.Vendor = &models.Vendor{ID: t.VendorID, VendorName: vendorName, CityID: cityID}
	return t, nil
}

func (r TransportRepository) Create(ctx context.Context, t models.Transport) (models.Transport, error) {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO transports (transport_code, vehicle_no, vendor_id, type) VALUES (?, ?, ?, ?)
	`, strings.TrimSpace(t.TransportID), strings.ToUpper(strings.TrimSpace(t.VehicleNo)), t.VendorID, strings.TrimSpace(t.Type))
	if err != nil {
		return t, mapTransportWriteErr(err, "create")
	}
	t.ID, _ = res.LastInsertId()
	return t, nil
}

func (r TransportRepository) Update(ctx context.Context, t models.Transport) error {
	res, err := r.db().ExecContext(ctx, `
		UPDATE transports SET transport_code=?, vehicle_no=?, vendor_id=?, type=? WHERE id=?
	`, strings.TrimSpace(t.TransportID), strings.ToUpper(strings.TrimSpace(t.VehicleNo)), t.VendorID, strings.TrimSpace(t.Type), t.ID)
	if err != nil {
		return mapTransportWriteErr(err, "update")
	}
	return requireAffected(res, "transport")
}

func (r TransportRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db().ExecContext(ctx, `DELETE FROM transports WHERE id=?`, id)
	if err != nil {
		return mapTransportWriteErr(err, "delete")
	}
	return requireAffected(res, "transport")
}

func mapTransportWriteErr(err error, op string) error {
	switch {
	case intdb.IsDuplicateKey(err):
		return domain.ConflictError{Resource: "transport", Msg: "transport id or vehicle number already registered", Err: err}
	case intdb.IsForeignKeyViolation(err):
		return domain.ValidationError{Field: "vendorId", Msg: "vendor does not exist", Err: err}
	default:
		return fmt.Errorf("%s transport: %w", op, err)
	}
}
