package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TicketCreated       = "ride_ticket.created"
	TicketOTPRequested  = "ride_ticket.otp_requested"
	TicketConfirmed     = "ride_ticket.confirmed"
	TicketRemarksEdited = "ride_ticket.remarks_updated"
	TicketStatusChanged = "ride_ticket.status_changed"
	CostMatrixSaved     = "location_costs.saved"
	CostMatrixCleared   = "location_costs.invalidated"
)

// Envelope wraps every published payload.
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	RequestID  string    `json:"requestId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

func NewEnvelope(eventType, requestID string, payload any) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		RequestID:  requestID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher delivers envelopes keyed by their Type.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// OTPRequested is consumed by the SMS notifier. The code is only ever carried
// on the bus, never logged.
type OTPRequested struct {
	TicketID  int64     `json:"ticketId"`
	MobileNo  string    `json:"mobileNo"`
	UserName  string    `json:"userName"`
	OTP       string    `json:"otp"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type TicketChanged struct {
	TicketID int64  `json:"ticketId"`
	Status   string `json:"status,omitempty"`
	ActorID  int64  `json:"actorId,omitempty"`
	Remarks  string `json:"remarks,omitempty"`
	DropID   int64  `json:"dropLocationId,omitempty"`
}

type CostMatrixChanged struct {
	CityID  int64 `json:"cityId"`
	Saved   int   `json:"saved"`
	Cleared int   `json:"cleared"`
}

// Noop drops every event. Used when AMQP_URL is unset.
type Noop struct{}

func (Noop) Publish(context.Context, Envelope) error { return nil }
func (Noop) Close() error                            { return nil }
