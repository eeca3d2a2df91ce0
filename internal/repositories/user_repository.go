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
)

// User is a staff or rider account able to sign in to the dashboard. The
// profile fields (city, pickup location, transport) seed the rider's tickets.
type User struct {
	ID                 int64       `json:"id"`
	UserCode           string      `json:"userId"`
	Name               string      `json:"username"`
	Email              string      `json:"email"`
	PasswordHash       string      `json:"-"`
	Role               domain.Role `json:"role"`
	Status             string      `json:"status"`
	Address            string      `json:"address"`
	MobileNo           string      `json:"mobileNo"`
	CityID             *int64      `json:"cityId"`
	CityName           string      `json:"cityName,omitempty"`
	PickupLocationID   *int64      `json:"pickupLocation"`
	PickupLocationName string      `json:"pickupLocationName,omitempty"`
	TransportID        *int64      `json:"transport"`
	VehicleNo          string      `json:"vehicleNo,omitempty"`
	Persons            int         `json:"noOfPerson"`
}

type UserRepository struct {
	DB *sql.DB
}

func (r UserRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	var u User
	var role string
	err := r.db().QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, status
		FROM users
		WHERE email=?
		LIMIT 1
	`, strings.ToLower(strings.TrimSpace(email))).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return u, domain.NotFoundError{Resource: "user", Err: err}
	}
	if err != nil {
		return u, fmt.Errorf("get user: %w", err)
	}
	u.Role = domain.NormalizeRole(role)
	return u, nil
}

const userSelect = `
	SELECT u.id, COALESCE(u.user_code, ''), u.name, u.email, u.role, u.status, u.address, u.mobile_no,
		u.city_id, COALESCE(c.city_name, ''),
		u.pickup_location_id, COALESCE(l.location_name, ''),
		u.transport_id, COALESCE(tr.vehicle_no, ''),
		u.persons
	FROM users u
	LEFT JOIN cities c ON c.id = u.city_id
	LEFT JOIN locations l ON l.id = u.pickup_location_id
	LEFT JOIN transports tr ON tr.id = u.transport_id
`

func scanUser(s rowScanner) (User, error) {
	var (
		u                          User
		role                       string
		cityID, pickupID, transpID sql.NullInt64
	)
	err := s.Scan(&u.ID, &u.UserCode, &u.Name, &u.Email, &role, &u.Status, &u.Address, &u.MobileNo,
		&cityID, &u.CityName, &pickupID, &u.PickupLocationName, &transpID, &u.VehicleNo, &u.Persons)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return u, err
		}
		return u, fmt.Errorf("scan user: %w", err)
	}
	u.Role = domain.NormalizeRole(role)
	u.CityID = idPtr(cityID)
	u.PickupLocationID = idPtr(pickupID)
	u.TransportID = idPtr(transpID)
	return u, nil
}

func idPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func (r UserRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db().QueryContext(ctx, userSelect+` ORDER BY u.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r UserRepository) GetByID(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.db().QueryRowContext(ctx, userSelect+` WHERE u.id=? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return u, domain.NotFoundError{Resource: "user", Err: err}
	}
	return u, err
}

func (r UserRepository) Create(ctx context.Context, u User) (User, error) {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO users (
			user_code, name, email, password_hash, role, status,
			address, mobile_no, city_id, pickup_location_id, transport_id, persons
		) VALUES (?, ?, ?, ?, ?, 'active', ?, ?, ?, ?, ?, ?)
	`,
		intdb.NullString(u.UserCode), strings.TrimSpace(u.Name), strings.ToLower(strings.TrimSpace(u.Email)),
		u.PasswordHash, string(u.Role),
		strings.TrimSpace(u.Address), strings.TrimSpace(u.MobileNo),
		intdb.NullID(u.CityID), intdb.NullID(u.PickupLocationID), intdb.NullID(u.TransportID), u.Persons,
	)
	if err != nil {
		return u, mapUserWriteErr(err, "create")
	}
	u.ID, _ = res.LastInsertId()
	u.Status = "active"
	return u, nil
}

// Update saves the profile of u. The password is replaced only when
// PasswordHash is set.
func (r UserRepository) Update(ctx context.Context, u User) error {
	sets := []string{
		"name=?", "email=?", "role=?", "address=?", "mobile_no=?",
		"city_id=?", "pickup_location_id=?", "transport_id=?", "persons=?",
	}
	args := []any{
		strings.TrimSpace(u.Name), strings.ToLower(strings.TrimSpace(u.Email)), string(u.Role),
		strings.TrimSpace(u.Address), strings.TrimSpace(u.MobileNo),
		intdb.NullID(u.CityID), intdb.NullID(u.PickupLocationID), intdb.NullID(u.TransportID), u.Persons,
	}
	if u.PasswordHash != "" {
		sets = append(sets, "password_hash=?")
		args = append(args, u.PasswordHash)
	}
	args = append(args, u.ID)

	res, err := r.db().ExecContext(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id=?`, args...)
	if err != nil {
		return mapUserWriteErr(err, "update")
	}
	return requireAffected(res, "user")
}

func (r UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db().ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return mapUserWriteErr(err, "delete")
	}
	return requireAffected(res, "user")
}

func mapUserWriteErr(err error, op string) error {
	switch {
	case intdb.IsDuplicateKey(err):
		return domain.ConflictError{Resource: "user", Msg: "email or user id already registered", Err: err}
	case intdb.IsForeignKeyViolation(err):
		return domain.ValidationError{Msg: "user references an unknown city, location or transport", Err: err}
	default:
		return fmt.Errorf("%s user: %w", op, err)
	}
}
