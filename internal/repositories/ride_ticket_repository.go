package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	intconfig "ridedesk/internal/config"
	intdb "ridedesk/internal/db"
	"ridedesk/internal/domain"
	"ridedesk/internal/domain/models"
)

type RideTicketRepository struct {
	DB *sql.DB
}

func (r RideTicketRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// ticketSelect joins every reference a ticket row renders with.
const ticketSelect = `
	SELECT
		t.id, t.user_code, t.user_name, t.mobile_no,
		t.city_id, COALESCE(c.city_code, ''), COALESCE(c.city_name, ''),
		t.pickup_location_id, COALESCE(pl.location_code, ''), COALESCE(pl.location_name, ''),
		t.drop_location_id, COALESCE(dl.location_code, ''), COALESCE(dl.location_name, ''),
		t.transport_id, COALESCE(tr.transport_code, ''), COALESCE(tr.vehicle_no, ''), COALESCE(tr.type, ''),
		COALESCE(t.vendor_id, tr.vendor_id), COALESCE(v.vendor_name, ''),
		t.pickup_date, t.ride_start_time, t.ride_end_time,
		t.cost, t.status, t.remarks, t.created_by_role, COALESCE(t.created_by_user_id, 0), t.confirmed, t.created_at
	FROM ride_tickets t
	LEFT JOIN cities c ON c.id = t.city_id
	LEFT JOIN locations pl ON pl.id = t.pickup_location_id
	LEFT JOIN locations dl ON dl.id = t.drop_location_id
	LEFT JOIN transports tr ON tr.id = t.transport_id
	LEFT JOIN vendors v ON v.id = COALESCE(t.vendor_id, tr.vendor_id)
`

// TicketQuery narrows List; zero fields are ignored. CreatedByUserID and
// UserCode together select tickets a user raised or that were raised for them.
type TicketQuery struct {
	Search          string
	CreatedByUserID int64
	UserCode        string
	CityID          int64
	VendorID        int64
	From            *time.Time
	To              *time.Time
}

func (r RideTicketRepository) List(ctx context.Context, q TicketQuery) ([]models.RideTicket, error) {
	where := []string{}
	args := []any{}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + s + "%"
		where = append(where, "(t.user_code LIKE ? OR t.user_name LIKE ? OR t.mobile_no LIKE ? OR pl.location_name LIKE ?)")
		args = append(args, like, like, like, like)
	}
	switch code := strings.TrimSpace(q.UserCode); {
	case q.CreatedByUserID > 0 && code != "":
		where = append(where, "(t.created_by_user_id=? OR t.user_code=?)")
		args = append(args, q.CreatedByUserID, code)
	case q.CreatedByUserID > 0:
		where = append(where, "t.created_by_user_id=?")
		args = append(args, q.CreatedByUserID)
	case code != "":
		where = append(where, "t.user_code=?")
		args = append(args, code)
	}
	if q.CityID > 0 {
		where = append(where, "t.city_id=?")
		args = append(args, q.CityID)
	}
	if q.VendorID > 0 {
		where = append(where, "COALESCE(t.vendor_id, tr.vendor_id)=?")
		args = append(args, q.VendorID)
	}
	if q.From != nil {
		where = append(where, "t.pickup_date>=?")
		args = append(args, q.From.UTC())
	}
	if q.To != nil {
		where = append(where, "t.pickup_date<=?")
		args = append(args, q.To.UTC())
	}

	query := ticketSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY t.id DESC"

	rows, err := r.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ride tickets: %w", err)
	}
	defer rows.Close()

	out := []models.RideTicket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r RideTicketRepository) GetByID(ctx context.Context, id int64) (models.RideTicket, error) {
	t, err := scanTicket(r.db().QueryRowContext(ctx, ticketSelect+` WHERE t.id=? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return t, domain.NotFoundError{Resource: "ride ticket", Err: err}
	}
	return t, err
}

func scanTicket(s rowScanner) (models.RideTicket, error) {
	var (
		t                                  models.RideTicket
		cityID, pickupID, dropID, transpID sql.NullInt64
		vendorID                           sql.NullInt64
		cityCode, cityName                 string
		pickupCode, pickupName             string
		dropCode, dropName                 string
		transpCode, vehicleNo, transpType  string
		vendorName                         string
		pickupDate, startAt, endAt         sql.NullTime
		createdAt                          sql.NullTime
		cost                               sql.NullFloat64
		status                             string
	)
	err := s.Scan(
		&t.ID, &t.UserID, &t.UserName, &t.MobileNo,
		&cityID, &cityCode, &cityName,
		&pickupID, &pickupCode, &pickupName,
		&dropID, &dropCode, &dropName,
		&transpID, &transpCode, &vehicleNo, &transpType,
		&vendorID, &vendorName,
		&pickupDate, &startAt, &endAt,
		&cost, &status, &t.Remarks, &t.CreatedByRole, &t.CreatedByID, &t.Confirmed, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("scan ride ticket: %w", err)
	}

	if cityID.Valid {
		t.City = &models.City{ID: cityID.Int64, CityID: cityCode, CityName: cityName}
	}
	if pickupID.Valid {
		t.PickupLocation = &models.Location{ID: pickupID.Int64, LocationID: pickupCode, LocationName: pickupName, CityID: cityID.Int64}
	}
	if dropID.Valid {
		t.DropLocation = &models.Location{ID: dropID.Int64, LocationID: dropCode, LocationName: dropName, CityID: cityID.Int64}
	}
	if vendorID.Valid {
		t.Vendor = &models.Vendor{ID: vendorID.Int64, VendorName: vendorName, CityID: cityID.Int64}
	}
	if transpID.Valid {
		t.Transport = &models.Transport{ID: transpID.Int64, TransportID: transpCode, VehicleNo: vehicleNo, Type: transpType, VendorID: vendorID.Int64, Vendor: t.Vendor}
	}
	t.PickupDate = intdb.TimePtr(pickupDate)
	t.RideStartTime = intdb.TimePtr(startAt)
	t.RideEndTime = intdb.TimePtr(endAt)
	t.CreatedAt = intdb.TimePtr(createdAt)
	t.Cost = intdb.FloatPtr(cost)
	t.Status = models.NormalizeStatus(status)
	return t, nil
}

// NewTicket is the write model of a ride ticket.
type NewTicket struct {
	UserID           string
	UserName         string
	MobileNo         string
	CityID           int64
	PickupLocationID int64
	DropLocationID   *int64
	TransportID      *int64
	VendorID         *int64
	PickupDate       *time.Time
	Cost             *float64
	Status           models.TicketStatus
	Remarks          string
	CreatedByUserID  int64
	CreatedByRole    string
}

func (r RideTicketRepository) Create(ctx context.Context, n NewTicket) (int64, error) {
	status := n.Status
	if status == "" {
		status = models.StatusPending
	}
	createdBy := n.CreatedByUserID
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO ride_tickets (
			user_code, user_name, mobile_no, city_id, pickup_location_id, drop_location_id,
			transport_id, vendor_id, pickup_date, cost, status, remarks, created_by_user_id, created_by_role
		) VALUES (`+intdb.Placeholders(14)+`)
	`,
		strings.TrimSpace(n.UserID), strings.TrimSpace(n.UserName), strings.TrimSpace(n.MobileNo),
		n.CityID, n.PickupLocationID, intdb.NullID(n.DropLocationID),
		intdb.NullID(n.TransportID), intdb.NullID(n.VendorID), intdb.NullTime(n.PickupDate),
		intdb.NullFloat(n.Cost), string(status), strings.TrimSpace(n.Remarks),
		intdb.NullID(&createdBy), strings.TrimSpace(n.CreatedByRole),
	)
	if err != nil {
		if intdb.IsForeignKeyViolation(err) {
			return 0, domain.ValidationError{Msg: "ticket references an unknown city, location or transport", Err: err}
		}
		return 0, fmt.Errorf("create ride ticket: %w", err)
	}
	return res.LastInsertId()
}

// UpdateRemarks changes remarks and, when dropLocationID is set, the drop
// location together with its priced cost.
func (r RideTicketRepository) UpdateRemarks(ctx context.Context, id int64, remarks string, dropLocationID *int64, cost *float64) error {
	sets := []string{"remarks=?"}
	args := []any{strings.TrimSpace(remarks)}
	if dropLocationID != nil {
		sets = append(sets, "drop_location_id=?", "cost=COALESCE(?, cost)")
		args = append(args, *dropLocationID, intdb.NullFloat(cost))
	}
	args = append(args, id)

	res, err := r.db().ExecContext(ctx, `UPDATE ride_tickets SET `+strings.Join(sets, ", ")+` WHERE id=?`, args...)
	if err != nil {
		return fmt.Errorf("update remarks: %w", err)
	}
	return requireAffected(res, "ride ticket")
}

// Assign sets the transport, vendor and cost an admin chose; nil keeps the
// current value.
func (r RideTicketRepository) Assign(ctx context.Context, id int64, transportID, vendorID *int64, cost *float64) error {
	res, err := r.db().ExecContext(ctx, `
		UPDATE ride_tickets
		SET transport_id=COALESCE(?, transport_id),
			vendor_id=COALESCE(?, vendor_id),
			cost=COALESCE(?, cost)
		WHERE id=?
	`, intdb.NullID(transportID), intdb.NullID(vendorID), intdb.NullFloat(cost), id)
	if err != nil {
		if intdb.IsForeignKeyViolation(err) {
			return domain.ValidationError{Msg: "unknown transport or vendor", Err: err}
		}
		return fmt.Errorf("assign ride ticket: %w", err)
	}
	return requireAffected(res, "ride ticket")
}

// UpdateStatus records a status change along with ride start/end times.
func (r RideTicketRepository) UpdateStatus(ctx context.Context, id int64, status models.TicketStatus, at time.Time) error {
	sets := []string{"status=?"}
	args := []any{string(status)}
	switch status {
	case models.StatusRideStarted:
		sets = append(sets, "ride_start_time=COALESCE(ride_start_time, ?)")
		args = append(args, at.UTC())
	case models.StatusCompleted:
		sets = append(sets, "ride_end_time=COALESCE(ride_end_time, ?)")
		args = append(args, at.UTC())
	}
	args = append(args, id)

	res, err := r.db().ExecContext(ctx, `UPDATE ride_tickets SET `+strings.Join(sets, ", ")+` WHERE id=?`, args...)
	if err != nil {
		return fmt.Errorf("update ticket status: %w", err)
	}
	return requireAffected(res, "ride ticket")
}

// SetOTP stores a fresh code hash and resets the failed attempt counter.
func (r RideTicketRepository) SetOTP(ctx context.Context, id int64, hash string, expiresAt time.Time) error {
	res, err := r.db().ExecContext(ctx, `
		UPDATE ride_tickets SET otp_hash=?, otp_expires_at=?, otp_attempts=0 WHERE id=?
	`, hash, expiresAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return requireAffected(res, "ride ticket")
}

// OTPState is the stored confirmation code of a ticket. An empty Hash means
// no code is outstanding.
type OTPState struct {
	Hash      string
	ExpiresAt *time.Time
	Attempts  int
}

func (r RideTicketRepository) GetOTP(ctx context.Context, id int64) (OTPState, error) {
	var (
		st      OTPState
		hash    sql.NullString
		expires sql.NullTime
	)
	err := r.db().QueryRowContext(ctx, `
		SELECT otp_hash, otp_expires_at, otp_attempts FROM ride_tickets WHERE id=? LIMIT 1
	`, id).Scan(&hash, &expires, &st.Attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return st, domain.NotFoundError{Resource: "ride ticket", Err: err}
	}
	if err != nil {
		return st, fmt.Errorf("get otp: %w", err)
	}
	st.Hash = hash.String
	st.ExpiresAt = intdb.TimePtr(expires)
	return st, nil
}

// RecordOTPFailure counts a wrong code. Once the counter reaches maxAttempts
// the outstanding code is discarded. MySQL applies the SET list left to
// right, so the IF() checks see the incremented counter.
func (r RideTicketRepository) RecordOTPFailure(ctx context.Context, id int64, maxAttempts int) error {
	res, err := r.db().ExecContext(ctx, `
		UPDATE ride_tickets
		SET otp_attempts=otp_attempts+1,
			otp_hash=IF(otp_attempts>=?, NULL, otp_hash),
			otp_expires_at=IF(otp_attempts>=?, NULL, otp_expires_at)
		WHERE id=?
	`, maxAttempts, maxAttempts, id)
	if err != nil {
		return fmt.Errorf("record otp failure: %w", err)
	}
	return requireAffected(res, "ride ticket")
}

// MarkConfirmed flips the one-shot confirmation flag and clears the OTP.
func (r RideTicketRepository) MarkConfirmed(ctx context.Context, id int64) error {
	res, err := r.db().ExecContext(ctx, `
		UPDATE ride_tickets SET confirmed=1, otp_hash=NULL, otp_expires_at=NULL, otp_attempts=0 WHERE id=? AND confirmed=0
	`, id)
	if err != nil {
		return fmt.Errorf("confirm ticket: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ConflictError{Resource: "ride ticket", Msg: "ticket already confirmed"}
	}
	return nil
}

func (r RideTicketRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db().ExecContext(ctx, `DELETE FROM ride_tickets WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete ride ticket: %w", err)
	}
	return requireAffected(res, "ride ticket")
}
