package services

import (
	"context"
	"testing"
	"time"

	"ridedesk/internal/domain"
	"ridedesk/internal/domain/models"
	"ridedesk/internal/events"
	"ridedesk/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTicketService(t *testing.T) (TicketService, sqlmock.Sqlmock, *recordingPublisher) {
	db, mock := newMock(t)
	pub := &recordingPublisher{}
	return TicketService{
		Tickets:   repositories.RideTicketRepository{DB: db},
		Locations: repositories.LocationRepository{DB: db},
		Costs:     repositories.LocationCostRepository{DB: db},
		Events:    pub,
		Now:       fixedNow,
	}, mock, pub
}

func TestSendAndVerifyOTP(t *testing.T) {
	svc, mock, pub := newTicketService(t)
	hash := &captureArg{}

	mock.ExpectQuery("FROM ride_tickets t").WithArgs(int64(5)).
		WillReturnRows(ticketRows(ticketRow{id: 5, status: "pending", role: "admin"}))
	mock.ExpectQuery("SELECT otp_hash, otp_expires_at, otp_attempts FROM ride_tickets").WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(otpColumns).AddRow(nil, nil, 0))
	mock.ExpectExec("UPDATE ride_tickets SET otp_hash=\\?, otp_expires_at=\\?, otp_attempts=0").
		WithArgs(hash, sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	expires, err := svc.SendOTP(context.Background(), ravi, 5)
	require.NoError(t, err)
	assert.Equal(t, fixedNow().Add(OTPTTL), expires)
	require.Equal(t, []string{events.TicketOTPRequested}, pub.types())

	otp := pub.envs[0].Payload.(events.OTPRequested).OTP
	require.Len(t, otp, 6)
	stored, _ := hash.value.(string)
	require.NotEqual(t, otp, stored)

	mock.ExpectQuery("FROM ride_tickets t").WithArgs(int64(5)).
		WillReturnRows(ticketRows(ticketRow{id: 5, status: "pending", role: "admin"}))
	mock.ExpectQuery("SELECT otp_hash, otp_expires_at, otp_attempts FROM ride_tickets").WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(otpColumns).AddRow(stored, expires, 0))
	mock.ExpectExec("UPDATE ride_tickets SET confirmed=1").WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.VerifyOTP(context.Background(), ravi, 5, otp))
	assert.Equal(t, []string{events.TicketOTPRequested, events.TicketConfirmed}, pub.types())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendOTPBlockedOnceRideStarted(t *testing.T) {
	svc, mock, pub := newTicketService(t)
	mock.ExpectQuery("FROM ride_tickets t").WithArgs(int64(5)).
		WillReturnRows(ticketRows(ticketRow{id: 5, status: "ride started"}))

	_, err := svc.SendOTP(context.Background(), ravi, 5)
	assert.True(t, domain.IsConflict(err))
	assert.Empty(t, pub.envs)
}

func TestSendOTPResendInterval(t *testing.T) {
	svc, mock, pub := newTicketService(t)
	justSent := fixedNow().Add(OTPTTL - 10*time.Second)
	mock.ExpectQuery("FROM ride_tickets t").WithArgs(int64(5)).
		WillReturnRows(ticketRows(ticketRow{id: 5, status: "pending"}))
	mock.ExpectQuery("SELECT otp_hash").WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(otpColumns).AddRow("$2a$hash", justSent, 0))

	_, err := svc.SendOTP(context.Background(), ravi, 5)
	assert.True(t, domain.IsConflict(err))
	assert.Empty(t, pub.envs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketActionsHiddenFromOtherUsers(t *testing.T) {
	svc, mock, pub := newTicketService(t)
	for i := 0; i < 4; i++ {
		mock.ExpectQuery("FROM ride_tickets t").WithArgs(int64(9)).
			WillReturnRows(ticketRows(ticketRow{id: 9, status: "ride started", role: "admin", owner: 1}))
	}
	ctx := context.Background()

	_, err := svc.UpdateRemarks(ctx, stranger, 9, "hijacked", nil)
	assert.True(t, domain.IsNotFound(err), "update-remarks: %v", err)
	_, err = svc.SendOTP(ctx, stranger, 9)
	assert.True(t, domain.IsNotFound(err), "send-otp: %v", err)
	err = svc.VerifyOTP(ctx, stranger, 9, "123456")
	assert.True(t, domain.IsNotFound(err), "verify-otp: %v", err)
	_, err = svc.EditAccess(ctx, stranger, 9)
	assert.True(t, domain.IsNotFound(err), "access: %v", err)

	assert.Empty(t, pub.envs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCanActOn(t *testing.T) {
	ticket := models.RideTicket{UserID: "Ravi@Corp.test", CreatedByID: 1}
	assert.True(t, CanActOn(ravi, ticket), "raised for the user")
	assert.True(t, CanActOn(admin, ticket))
	assert.False(t, CanActOn(stranger, ticket))
	assert.True(t, CanActOn(stranger, models.RideTicket{CreatedByID: stranger.UserID}), "raised by the user")
	assert.False(t, CanActOn(domain.RequestContext{Role: domain.RolePlant}, models.RideTicket{}))
}

func TestVerifyOTPRejections(t *testing.T) {
	svc, mock, _ := newTicketService(t)

	err := svc.VerifyOTP(context.Background(), ravi, 5, "12ab")
	fe, ok := domain.AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, "otp must be 6 digits", fe["otp"])

	hash, err := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.MinCost)
	require.NoError(t, err)

	expectOTP := func(hash any, expires any, attempts int) {
		mock.ExpectQuery("FROM ride_tickets t").WithArgs(int64(5)).
			WillReturnRows(ticketRows(ticketRow{id: 5, status: "pending"}))
		mock.ExpectQuery("SELECT otp_hash").WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows(otpColumns).AddRow(hash, expires, attempts))
	}

	expectOTP(string(hash), fixedNow().Add(-time.Minute), 0)
	err = svc.VerifyOTP(context.Background(), ravi, 5, "123456")
	fe, _ = domain.AsFieldErrors(err)
	assert.Equal(t, "otp expired", fe["otp"])

	expectOTP(string(hash), fixedNow().Add(time.Minute), 0)
	mock.ExpectExec("SET otp_attempts=otp_attempts\\+1").
		WithArgs(int64(MaxOTPAttempts), int64(MaxOTPAttempts), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	err = svc.VerifyOTP(context.Background(), ravi, 5, "654321")
	fe, _ = domain.AsFieldErrors(err)
	assert.Equal(t, "invalid otp", fe["otp"])

	expectOTP(nil, nil, 0)
	err = svc.VerifyOTP(context.Background(), ravi, 5, "123456")
	assert.True(t, domain.IsValidation(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyOTPLocksAfterTooManyWrongCodes(t *testing.T) {
	svc, mock, pub := newTicketService(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.MinCost)
	require.NoError(t, err)

	// Last allowed attempt is wrong: the code is discarded.
	mock.ExpectQuery("FROM ride_tickets t").WithArgs(int64(5)).
		WillReturnRows(ticketRows(ticketRow{id: 5, status: "pending"}))
	mock.ExpectQuery("SELECT otp_hash").WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(otpColumns).AddRow(string(hash), fixedNow().Add(time.Minute), MaxOTPAttempts-1))
	mock.ExpectExec("SET otp_attempts=otp_attempts\\+1").
		WithArgs(int64(MaxOTPAttempts), int64(MaxOTPAttempts), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = svc.VerifyOTP(context.Background(), ravi, 5, "000000")
	fe, _ := domain.AsFieldErrors(err)
	assert.Equal(t, "too many wrong attempts, request a new otp", fe["otp"])

	// Even the right code is refused afterwards.
	mock.ExpectQuery("FROM ride_tickets t").WithArgs(int64(5)).
		WillReturnRows(ticketRows(ticketRow{id: 5, status: "pending"}))
	mock.ExpectQuery("SELECT otp_hash").WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(otpColumns).AddRow(nil, nil, MaxOTPAttempts))

	err = svc.VerifyOTP(context.Background(), ravi, 5, "123456")
	fe, _ = domain.AsFieldErrors(err)
	assert.Equal(t, "too many wrong attempts, request a new otp", fe["otp"])
	assert.Empty(t, pub.envs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyOTPAfterRideStarted(t *testing.T) {
	svc, mock, pub := newTicketService(t)
	mock.ExpectQuery("FROM ride_tickets t").WithArgs(int64(5)).
		WillReturnRows(ticketRows(ticketRow{id: 5, status: "ride started"}))

	err := svc.VerifyOTP(context.Background(), ravi, 5, "123456")
	assert.True(t, domain.IsConflict(err))
	assert.Empty(t, pub.envs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRemarksViewOnlyTicket(t *testing.T) {
	svc, mock, _ := newTicketService(t)
	mock.ExpectQuery("FROM ride_tickets t").WithArgs(int64(5)).
		WillReturnRows(ticketRows(ticketRow{id: 5, status: "pending"}))

	_, err := svc.UpdateRemarks(context.Background(), ravi, 5, "note", nil)
	assert.True(t, domain.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRemarksSetsDropAndReprices(t *testing.T) {
	svc, mock, pub := newTicketService(t)
	drop := int64(2)

	mock.ExpectQuery("FROM ride_tickets t").WithArgs(int64(5)).
		WillReturnRows(ticketRows(ticketRow{id: 5, status: "ride started"}))
	mock.ExpectQuery("FROM locations WHERE id=\\?").WithArgs(int64(2)).
		WillReturnRows(locationRows().AddRow(2, "L002", "T Nagar", 7))
	mock.ExpectQuery("SELECT cost FROM location_costs").WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"cost"}).AddRow(120.0))
	mock.ExpectExec("UPDATE ride_tickets SET remarks=\\?, drop_location_id=\\?").
		WithArgs("traffic", int64(2), 120.0, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM ride_tickets t").WithArgs(int64(5)).
		WillReturnRows(ticketRows(ticketRow{id: 5, status: "ride started", dropID: 2, remarks: "traffic"}))

	got, err := svc.UpdateRemarks(context.Background(), ravi, 5, "traffic", &drop)
	require.NoError(t, err)
	require.NotNil(t, got.DropLocation)
	assert.Equal(t, int64(2), got.DropLocation.ID)
	assert.Equal(t, []string{events.TicketRemarksEdited}, pub.types())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRemarksLockedDrop(t *testing.T) {
	svc, mock, _ := newTicketService(t)
	drop := int64(3)
	mock.ExpectQuery("FROM ride_tickets t").WithArgs(int64(5)).
		WillReturnRows(ticketRows(ticketRow{id: 5, status: "ride started", dropID: 2}))

	_, err := svc.UpdateRemarks(context.Background(), admin, 5, "x", &drop)
	fe, ok := domain.AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, "drop location is locked", fe["dropLocation"])
}

func TestCreateBlockedAfterConfirmedAdminTicket(t *testing.T) {
	svc, mock, _ := newTicketService(t)
	actor := domain.RequestContext{UserID: 11, Email: "ravi@corp.test", Role: domain.RoleUser}

	mock.ExpectQuery("FROM ride_tickets t").WithArgs(int64(11), "ravi@corp.test").
		WillReturnRows(ticketRows(ticketRow{id: 5, status: "pending", role: "admin", confirmed: true}))

	_, err := svc.Create(context.Background(), actor, CreateTicketInput{UserName: "Ravi", CityID: 7, PickupLocationID: 1})
	assert.True(t, domain.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _, _ := newTicketService(t)
	drop := int64(1)
	_, err := svc.Create(context.Background(), domain.RequestContext{Role: domain.RoleAdmin}, CreateTicketInput{
		PickupLocationID: 1,
		DropLocationID:   &drop,
		PickupDate:       "not-a-date",
	})
	fe, ok := domain.AsFieldErrors(err)
	require.True(t, ok)
	assert.Contains(t, fe, "userName")
	assert.Contains(t, fe, "cityId")
	assert.Contains(t, fe, "dropLocationId")
	assert.Contains(t, fe, "pickupDate")
}

func TestGenerateOTPFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		assert.True(t, isOTP(code), code)
	}
}

func TestAssignRejectsBackwardStatus(t *testing.T) {
	svc, mock, _ := newTicketService(t)
	mock.ExpectQuery("FROM ride_tickets t").WithArgs(int64(5)).
		WillReturnRows(ticketRows(ticketRow{id: 5, status: "completed"}))

	_, err := svc.Assign(context.Background(), 5, TicketAssignment{Status: "pending"})
	assert.True(t, domain.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignStartsRide(t *testing.T) {
	svc, mock, pub := newTicketService(t)
	transport := int64(4)

	mock.ExpectQuery("FROM ride_tickets t").WithArgs(int64(5)).
		WillReturnRows(ticketRows(ticketRow{id: 5, status: "vendor_assigned"}))
	mock.ExpectExec("UPDATE ride_tickets\\s+SET transport_id=COALESCE").
		WithArgs(int64(4), nil, nil, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE ride_tickets SET status=\\?, ride_start_time=COALESCE").
		WithArgs("ride started", fixedNow(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM ride_tickets t").WithArgs(int64(5)).
		WillReturnRows(ticketRows(ticketRow{id: 5, status: "ride started"}))

	got, err := svc.Assign(context.Background(), 5, TicketAssignment{TransportID: &transport, Status: "Ride Started"})
	require.NoError(t, err)
	assert.Equal(t, "ride started", string(got.Status))
	assert.Equal(t, []string{events.TicketStatusChanged}, pub.types())
	assert.NoError(t, mock.ExpectationsWereMet())
}
