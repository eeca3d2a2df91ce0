package models

import (
	"strings"
	"time"
)

type TicketStatus string

const (
	StatusPending        TicketStatus = "pending"
	StatusVendorAssigned TicketStatus = "vendor assigned"
	StatusRideStarted    TicketStatus = "ride started"
	StatusCompleted      TicketStatus = "completed"
)

// NormalizeStatus maps raw backend values onto the known statuses.
func NormalizeStatus(raw string) TicketStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	switch s {
	case "", "pending", "open":
		return StatusPending
	case "vendor assigned", "assigned":
		return StatusVendorAssigned
	case "ride started", "started", "in progress":
		return StatusRideStarted
	case "completed", "complete", "done":
		return StatusCompleted
	default:
		return TicketStatus(s)
	}
}

// RideTicket is a single pickup/drop transport request.
// Nested references are optional; renderers fall back to "-" when absent.
type RideTicket struct {
	ID             int64        `json:"id"`
	UserID         string       `json:"userId"`
	UserName       string       `json:"userName"`
	MobileNo       string       `json:"mobileNo"`
	City           *City        `json:"city,omitempty"`
	PickupLocation *Location    `json:"pickupLocation,omitempty"`
	DropLocation   *Location    `json:"dropLocation,omitempty"`
	Transport      *Transport   `json:"transport,omitempty"`
	Vendor         *Vendor      `json:"vendor,omitempty"`
	PickupDate     *time.Time   `json:"pickupDate,omitempty"`
	RideStartTime  *time.Time   `json:"rideStartTime,omitempty"`
	RideEndTime    *time.Time   `json:"rideEndTime,omitempty"`
	Cost           *float64     `json:"cost"`
	Status         TicketStatus `json:"status"`
	Remarks        string       `json:"remarks"`
	CreatedByRole  string       `json:"createdByRole,omitempty"`
	CreatedByID    int64        `json:"createdByUserId,omitempty"`
	Confirmed      bool         `json:"confirmed"`
	CreatedAt      *time.Time   `json:"createdAt,omitempty"`
}

// VendorID resolves the ticket's vendor directly or through its transport.
func (t RideTicket) VendorID() int64 {
	if t.Vendor != nil && t.Vendor.ID > 0 {
		return t.Vendor.ID
	}
	if t.Transport != nil {
		if t.Transport.VendorID > 0 {
			return t.Transport.VendorID
		}
		if t.Transport.Vendor != nil {
			return t.Transport.Vendor.ID
		}
	}
	return 0
}
