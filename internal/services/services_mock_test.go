package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"ridedesk/internal/domain"
	"ridedesk/internal/events"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type recordingPublisher struct {
	envs []events.Envelope
}

func (p *recordingPublisher) Publish(_ context.Context, env events.Envelope) error {
	p.envs = append(p.envs, env)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	out := make([]string, 0, len(p.envs))
	for _, e := range p.envs {
		out = append(out, e.Type)
	}
	return out
}

// captureArg matches any value and remembers it.
type captureArg struct {
	value driver.Value
}

func (c *captureArg) Match(v driver.Value) bool {
	c.value = v
	return true
}

func locationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "location_code", "location_name", "city_id"})
}

var ticketColumns = []string{
	"id", "user_code", "user_name", "mobile_no",
	"city_id", "city_code", "city_name",
	"pickup_location_id", "pickup_code", "pickup_name",
	"drop_location_id", "drop_code", "drop_name",
	"transport_id", "transport_code", "vehicle_no", "type",
	"vendor_id", "vendor_name",
	"pickup_date", "ride_start_time", "ride_end_time",
	"cost", "status", "remarks", "created_by_role", "created_by_user_id", "confirmed", "created_at",
}

// otpColumns is the shape of RideTicketRepository.GetOTP.
var otpColumns = []string{"otp_hash", "otp_expires_at", "otp_attempts"}

// Fixture tickets belong to ravi: user_code is his email.
var (
	ravi     = domain.RequestContext{UserID: 11, Name: "Ravi", Email: "ravi@corp.test", Role: domain.RolePlant}
	stranger = domain.RequestContext{UserID: 12, Name: "Mala", Email: "mala@corp.test", Role: domain.RolePlant}
	admin    = domain.RequestContext{UserID: 1, Name: "Admin", Email: "admin@corp.test", Role: domain.RoleAdmin}
)

type ticketRow struct {
	id        int64
	dropID    any
	status    string
	role      string
	confirmed bool
	remarks   string
	owner     int64
}

func ticketRows(rows ...ticketRow) *sqlmock.Rows {
	out := sqlmock.NewRows(ticketColumns)
	pickup := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for _, r := range rows {
		dropName := ""
		if r.dropID != nil {
			dropName = "T Nagar"
		}
		out.AddRow(r.id, "ravi@corp.test", "Ravi", "98400", 7, "CHN", "Chennai",
			1, "L001", "Anna Nagar", r.dropID, "", dropName,
			nil, "", "", "", nil, "",
			pickup, nil, nil,
			nil, r.status, r.remarks, r.role, r.owner, r.confirmed, pickup)
	}
	return out
}
