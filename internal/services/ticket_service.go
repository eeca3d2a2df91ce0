package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"ridedesk/internal/domain"
	"ridedesk/internal/domain/models"
	"ridedesk/internal/events"
	"ridedesk/internal/repositories"
	"ridedesk/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

const (
	otpDigits = 6
	OTPTTL    = 10 * time.Minute
	// MaxOTPAttempts wrong codes discard the outstanding OTP.
	MaxOTPAttempts = 5
	// OTPResendInterval is the minimum gap between two codes for a ticket.
	OTPResendInterval = time.Minute
)

type TicketService struct {
	Tickets   repositories.RideTicketRepository
	Locations repositories.LocationRepository
	Costs     repositories.LocationCostRepository
	Events    events.Publisher
	Policy    AccessPolicy
	Now       func() time.Time
	RequestID string
}

func (s TicketService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateTicketInput is the body of POST /ride-tickets/create.
type CreateTicketInput struct {
	UserID           string   `json:"userId"`
	UserName         string   `json:"userName"`
	MobileNo         string   `json:"mobileNo"`
	CityID           int64    `json:"cityId"`
	PickupLocationID int64    `json:"pickupLocationId"`
	DropLocationID   *int64   `json:"dropLocationId"`
	TransportID      *int64   `json:"transportId"`
	VendorID         *int64   `json:"vendorId"`
	PickupDate       string   `json:"pickupDate"`
	Cost             *float64 `json:"cost"`
	Remarks          string   `json:"remarks"`
}

func (in CreateTicketInput) validate() (*time.Time, error) {
	errs := domain.FieldErrors{}
	if strings.TrimSpace(in.UserName) == "" && strings.TrimSpace(in.UserID) == "" {
		errs.Add("userName", "user name or user id is required")
	}
	if in.CityID <= 0 {
		errs.Add("cityId", "city is required")
	}
	if in.PickupLocationID <= 0 {
		errs.Add("pickupLocationId", "pickup location is required")
	}
	if in.DropLocationID != nil && *in.DropLocationID == in.PickupLocationID {
		errs.Add("dropLocationId", "drop location must differ from pickup")
	}
	if in.Cost != nil && *in.Cost < 0 {
		errs.Add("cost", "cost must not be negative")
	}
	pickup := utils.ParseTimestamp(in.PickupDate)
	if strings.TrimSpace(in.PickupDate) != "" && pickup == nil {
		errs.Add("pickupDate", "pickup date is not a valid date")
	}
	return pickup, errs.OrNil()
}

// Create raises a ticket. Non-admin users are gated by their booking state.
// The cost defaults to the saved matrix price of the pickup/drop pair.
func (s TicketService) Create(ctx context.Context, actor domain.RequestContext, in CreateTicketInput) (models.RideTicket, error) {
	pickupDate, err := in.validate()
	if err != nil {
		return models.RideTicket{}, err
	}

	if !actor.Role.IsAdmin() {
		access, err := s.BookingState(ctx, actor)
		if err != nil {
			return models.RideTicket{}, err
		}
		if !access.SubmitEnabled {
			return models.RideTicket{}, domain.ConflictError{Resource: "ride ticket", Msg: "booking is closed for this user"}
		}
		if strings.TrimSpace(in.UserID) == "" {
			in.UserID = actor.Email
		}
	}

	if err := s.requireInCity(ctx, in.CityID, "pickupLocationId", in.PickupLocationID); err != nil {
		return models.RideTicket{}, err
	}
	cost := in.Cost
	if in.DropLocationID != nil {
		if err := s.requireInCity(ctx, in.CityID, "dropLocationId", *in.DropLocationID); err != nil {
			return models.RideTicket{}, err
		}
		if cost == nil {
			if cost, err = s.Costs.CostFor(ctx, in.PickupLocationID, *in.DropLocationID); err != nil {
				return models.RideTicket{}, err
			}
		}
	}

	id, err := s.Tickets.Create(ctx, repositories.NewTicket{
		UserID:           in.UserID,
		UserName:         in.UserName,
		MobileNo:         in.MobileNo,
		CityID:           in.CityID,
		PickupLocationID: in.PickupLocationID,
		DropLocationID:   in.DropLocationID,
		TransportID:      in.TransportID,
		VendorID:         in.VendorID,
		PickupDate:       pickupDate,
		Cost:             cost,
		Status:           models.StatusPending,
		Remarks:          in.Remarks,
		CreatedByUserID:  actor.UserID,
		CreatedByRole:    string(actor.Role),
	})
	if err != nil {
		return models.RideTicket{}, err
	}
	utils.LogEvent(s.RequestID, "tickets", "create", fmt.Sprintf("ticket_id=%d by_role=%s", id, actor.Role))
	publishEvent(ctx, s.Events, s.RequestID, events.TicketCreated, events.TicketChanged{TicketID: id, Status: string(models.StatusPending), ActorID: actor.UserID})
	return s.Tickets.GetByID(ctx, id)
}

func (s TicketService) requireInCity(ctx context.Context, cityID int64, field string, locationID int64) error {
	loc, err := s.Locations.GetByID(ctx, locationID)
	if domain.IsNotFound(err) {
		return domain.ValidationError{Field: field, Msg: "location not found", Err: err}
	}
	if err != nil {
		return err
	}
	if loc.CityID != cityID {
		return domain.ValidationError{Field: field, Msg: "location does not belong to this city"}
	}
	return nil
}

// MyTickets lists tickets the actor raised or that were raised for them.
func (s TicketService) MyTickets(ctx context.Context, actor domain.RequestContext, search string) ([]models.RideTicket, error) {
	return s.Tickets.List(ctx, repositories.TicketQuery{
		Search:          search,
		CreatedByUserID: actor.UserID,
		UserCode:        actor.Email,
	})
}

func (s TicketService) BookingState(ctx context.Context, actor domain.RequestContext) (BookingAccess, error) {
	tickets, err := s.MyTickets(ctx, actor, "")
	if err != nil {
		return BookingAccess{}, err
	}
	return EvaluateBookingAccess(tickets), nil
}

// Get loads a ticket the actor may see. Tickets of other users read as not
// found so their existence is not disclosed.
func (s TicketService) Get(ctx context.Context, actor domain.RequestContext, id int64) (models.RideTicket, error) {
	t, err := s.Tickets.GetByID(ctx, id)
	if err != nil {
		return t, err
	}
	if !CanActOn(actor, t) {
		utils.LogEvent(s.RequestID, "tickets", "access_denied", fmt.Sprintf("ticket_id=%d user_id=%d", id, actor.UserID))
		return models.RideTicket{}, domain.NotFoundError{Resource: "ride ticket"}
	}
	return t, nil
}

func (s TicketService) EditAccess(ctx context.Context, actor domain.RequestContext, id int64) (EditAccess, error) {
	t, err := s.Get(ctx, actor, id)
	if err != nil {
		return EditAccess{}, err
	}
	return EvaluateEditAccess(t, s.Policy), nil
}

// SendOTP issues a fresh confirmation code for the ticket and publishes it to
// the notifier. Only the bcrypt hash is stored.
func (s TicketService) SendOTP(ctx context.Context, actor domain.RequestContext, id int64) (time.Time, error) {
	t, err := s.Get(ctx, actor, id)
	if err != nil {
		return time.Time{}, err
	}
	if err := confirmable(t); err != nil {
		return time.Time{}, err
	}
	current, err := s.Tickets.GetOTP(ctx, id)
	if err != nil {
		return time.Time{}, err
	}
	if current.Hash != "" && current.ExpiresAt != nil {
		issued := current.ExpiresAt.Add(-OTPTTL)
		if s.now().Before(issued.Add(OTPResendInterval)) {
			return time.Time{}, domain.ConflictError{Resource: "ride ticket", Msg: "an otp was sent recently, try again shortly"}
		}
	}

	code, err := GenerateOTP()
	if err != nil {
		return time.Time{}, domain.InternalError{Msg: "could not generate otp", Err: err}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return time.Time{}, domain.InternalError{Msg: "could not hash otp", Err: err}
	}
	expires := s.now().Add(OTPTTL)
	if err := s.Tickets.SetOTP(ctx, id, string(hash), expires); err != nil {
		return time.Time{}, err
	}

	utils.LogEvent(s.RequestID, "tickets", "send_otp", fmt.Sprintf("ticket_id=%d", id))
	publishEvent(ctx, s.Events, s.RequestID, events.TicketOTPRequested, events.OTPRequested{
		TicketID:  id,
		MobileNo:  t.MobileNo,
		UserName:  t.UserName,
		OTP:       code,
		ExpiresAt: expires.UTC(),
	})
	return expires, nil
}

// VerifyOTP checks code against the stored hash and confirms the ticket.
// Every wrong code is counted; MaxOTPAttempts of them discard the OTP.
func (s TicketService) VerifyOTP(ctx context.Context, actor domain.RequestContext, id int64, code string) error {
	code = strings.TrimSpace(code)
	if !isOTP(code) {
		return domain.ValidationError{Field: "otp", Msg: "otp must be 6 digits"}
	}
	t, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := confirmable(t); err != nil {
		return err
	}
	otp, err := s.Tickets.GetOTP(ctx, id)
	if err != nil {
		return err
	}
	if otp.Attempts >= MaxOTPAttempts {
		return domain.ValidationError{Field: "otp", Msg: "too many wrong attempts, request a new otp"}
	}
	if otp.Hash == "" {
		return domain.ValidationError{Field: "otp", Msg: "no otp was sent for this ticket"}
	}
	if otp.ExpiresAt == nil || s.now().After(*otp.ExpiresAt) {
		return domain.ValidationError{Field: "otp", Msg: "otp expired"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(otp.Hash), []byte(code)); err != nil {
		if err := s.Tickets.RecordOTPFailure(ctx, id, MaxOTPAttempts); err != nil {
			return err
		}
		utils.LogEvent(s.RequestID, "tickets", "verify_otp", fmt.Sprintf("ticket_id=%d wrong code attempt=%d", id, otp.Attempts+1))
		if otp.Attempts+1 >= MaxOTPAttempts {
			return domain.ValidationError{Field: "otp", Msg: "too many wrong attempts, request a new otp"}
		}
		return domain.ValidationError{Field: "otp", Msg: "invalid otp"}
	}
	if err := s.Tickets.MarkConfirmed(ctx, id); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "tickets", "verify_otp", fmt.Sprintf("ticket_id=%d confirmed", id))
	publishEvent(ctx, s.Events, s.RequestID, events.TicketConfirmed, events.TicketChanged{TicketID: id})
	return nil
}

// confirmable rejects tickets that may no longer be confirmed.
func confirmable(t models.RideTicket) error {
	if t.Confirmed {
		return domain.ConflictError{Resource: "ride ticket", Msg: "ticket already confirmed"}
	}
	if !SubmitAllowed(t.Status) {
		return domain.ConflictError{Resource: "ride ticket", Msg: "ride already started"}
	}
	return nil
}

// UpdateRemarks edits remarks and optionally the drop location, subject to
// the edit gate. A new drop is re-priced from the cost matrix.
func (s TicketService) UpdateRemarks(ctx context.Context, actor domain.RequestContext, id int64, remarks string, dropLocationID *int64) (models.RideTicket, error) {
	t, err := s.Get(ctx, actor, id)
	if err != nil {
		return t, err
	}

	changesDrop := dropLocationID != nil && (t.DropLocation == nil || t.DropLocation.ID != *dropLocationID)
	if err := CanUpdateRemarks(t, s.Policy, changesDrop); err != nil {
		return t, err
	}

	var cost *float64
	if changesDrop {
		if t.City == nil {
			return t, domain.ValidationError{Field: "dropLocation", Msg: "ticket has no city"}
		}
		if err := s.requireInCity(ctx, t.City.ID, "dropLocation", *dropLocationID); err != nil {
			return t, err
		}
		if t.PickupLocation != nil {
			if t.PickupLocation.ID == *dropLocationID {
				return t, domain.ValidationError{Field: "dropLocation", Msg: "drop location must differ from pickup"}
			}
			if cost, err = s.Costs.CostFor(ctx, t.PickupLocation.ID, *dropLocationID); err != nil {
				return t, err
			}
		}
	} else {
		dropLocationID = nil
	}

	if err := s.Tickets.UpdateRemarks(ctx, id, remarks, dropLocationID, cost); err != nil {
		return t, err
	}
	payload := events.TicketChanged{TicketID: id, Remarks: strings.TrimSpace(remarks)}
	if dropLocationID != nil {
		payload.DropID = *dropLocationID
	}
	utils.LogEvent(s.RequestID, "tickets", "update_remarks", fmt.Sprintf("ticket_id=%d drop_changed=%t", id, changesDrop))
	publishEvent(ctx, s.Events, s.RequestID, events.TicketRemarksEdited, payload)
	return s.Tickets.GetByID(ctx, id)
}

// GenerateOTP returns a uniformly random zero-padded 6 digit code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

func isOTP(s string) bool {
	if len(s) != otpDigits {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// TicketAssignment is the admin edit of PUT /ride-tickets/:id.
type TicketAssignment struct {
	TransportID *int64   `json:"transportId"`
	VendorID    *int64   `json:"vendorId"`
	Cost        *float64 `json:"cost"`
	Status      string   `json:"status"`
}

// Assign applies an admin edit. Status moves only forward through
// pending, vendor assigned, ride started and completed.
func (s TicketService) Assign(ctx context.Context, id int64, in TicketAssignment) (models.RideTicket, error) {
	t, err := s.Tickets.GetByID(ctx, id)
	if err != nil {
		return t, err
	}
	if in.Cost != nil && *in.Cost < 0 {
		return t, domain.ValidationError{Field: "cost", Msg: "cost must not be negative"}
	}

	var next models.TicketStatus
	if strings.TrimSpace(in.Status) != "" {
		next = models.NormalizeStatus(in.Status)
		if statusRank(next) < 0 {
			return t, domain.ValidationError{Field: "status", Msg: "unknown status " + in.Status}
		}
		if statusRank(next) < statusRank(t.Status) {
			return t, domain.ConflictError{Resource: "ride ticket", Msg: "status cannot move back to " + string(next)}
		}
	}

	if in.TransportID != nil || in.VendorID != nil || in.Cost != nil {
		if err := s.Tickets.Assign(ctx, id, in.TransportID, in.VendorID, in.Cost); err != nil {
			return t, err
		}
	}
	if next != "" && next != t.Status {
		if err := s.Tickets.UpdateStatus(ctx, id, next, s.now()); err != nil {
			return t, err
		}
		utils.LogEvent(s.RequestID, "tickets", "status", fmt.Sprintf("ticket_id=%d %s -> %s", id, t.Status, next))
		publishEvent(ctx, s.Events, s.RequestID, events.TicketStatusChanged, events.TicketChanged{TicketID: id, Status: string(next)})
	}
	return s.Tickets.GetByID(ctx, id)
}

func statusRank(s models.TicketStatus) int {
	switch models.NormalizeStatus(string(s)) {
	case models.StatusPending:
		return 0
	case models.StatusVendorAssigned:
		return 1
	case models.StatusRideStarted:
		return 2
	case models.StatusCompleted:
		return 3
	default:
		return -1
	}
}
