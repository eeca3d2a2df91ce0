package services

import (
	"strings"

	"ridedesk/internal/domain"
	"ridedesk/internal/domain/models"
)

// AccessPolicy carries the site-configurable gating rules.
type AccessPolicy struct {
	// CompletedReopensEdit makes a completed ticket editable again for
	// pickup/drop. Otherwise a drop location, once set, is locked.
	CompletedReopensEdit bool
}

// BookingAccess describes the create-ride form for a user given their
// existing tickets.
type BookingAccess struct {
	PickupLocation   *models.Location `json:"pickupLocation,omitempty"`
	PickupPrefilled  bool             `json:"pickupPrefilled"`
	DropEditable     bool             `json:"dropEditable"`
	SubmitEnabled    bool             `json:"submitEnabled"`
	ExistingTicketID int64            `json:"existingTicketId,omitempty"`
}

// EditAccess describes the per-ticket edit form.
type EditAccess struct {
	Status          models.TicketStatus `json:"status"`
	SaveEnabled     bool                `json:"saveEnabled"`
	RemarksEditable bool                `json:"remarksEditable"`
	DropEditable    bool                `json:"dropEditable"`
	PickupEditable  bool                `json:"pickupEditable"`
	ConfirmEnabled  bool                `json:"confirmEnabled"`
	ViewOnly        bool                `json:"viewOnly"`
}

// CanActOn reports whether actor may read or act on t. Admins reach every
// ticket; other users only tickets they raised or that were raised for them.
func CanActOn(actor domain.RequestContext, t models.RideTicket) bool {
	if actor.Role.IsAdmin() {
		return true
	}
	if actor.UserID > 0 && t.CreatedByID == actor.UserID {
		return true
	}
	email := strings.TrimSpace(actor.Email)
	return email != "" && strings.EqualFold(strings.TrimSpace(t.UserID), email)
}

// SubmitAllowed reports whether a ticket in status s may be submitted or
// confirmed. Only a started ride blocks it.
func SubmitAllowed(s models.TicketStatus) bool {
	return models.NormalizeStatus(string(s)) != models.StatusRideStarted
}

// EvaluateBookingAccess gates the create/confirm ride form. When the user has
// exactly one ticket that an admin raised for them and it is not completed,
// its pickup is pre-filled and drop editing is suppressed; after that ticket
// is confirmed the form cannot be submitted again.
func EvaluateBookingAccess(tickets []models.RideTicket) BookingAccess {
	access := BookingAccess{DropEditable: true, SubmitEnabled: true}

	if len(tickets) == 1 {
		t := tickets[0]
		status := models.NormalizeStatus(string(t.Status))
		if domain.NormalizeRole(t.CreatedByRole).IsAdmin() && status != models.StatusCompleted {
			access.ExistingTicketID = t.ID
			access.PickupLocation = t.PickupLocation
			access.PickupPrefilled = t.PickupLocation != nil
			access.DropEditable = false
			if t.Confirmed {
				access.SubmitEnabled = false
			}
		}
		if !SubmitAllowed(status) {
			access.SubmitEnabled = false
		}
	}
	return access
}

// EvaluateEditAccess gates the remarks / drop-location edit form of t.
func EvaluateEditAccess(t models.RideTicket, policy AccessPolicy) EditAccess {
	status := models.NormalizeStatus(string(t.Status))
	access := EditAccess{
		Status:         status,
		ConfirmEnabled: SubmitAllowed(status),
	}

	switch status {
	case models.StatusRideStarted:
		access.SaveEnabled = true
		access.RemarksEditable = true
		access.DropEditable = t.DropLocation == nil || policy.CompletedReopensEdit
	case models.StatusCompleted:
		if policy.CompletedReopensEdit {
			access.SaveEnabled = true
			access.PickupEditable = true
			access.DropEditable = true
			access.RemarksEditable = true
		}
	}
	access.ViewOnly = !access.SaveEnabled
	return access
}

// CanUpdateRemarks checks an update-remarks request against the edit gate.
func CanUpdateRemarks(t models.RideTicket, policy AccessPolicy, changesDrop bool) error {
	access := EvaluateEditAccess(t, policy)
	if !access.SaveEnabled {
		return domain.ConflictError{Resource: "ride ticket", Msg: "ticket is view-only in status " + string(access.Status)}
	}
	if changesDrop && !access.DropEditable {
		return domain.ValidationError{Field: "dropLocation", Msg: "drop location is locked"}
	}
	return nil
}
