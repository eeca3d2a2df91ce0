package services

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"ridedesk/internal/domain"
	"ridedesk/internal/domain/models"
	"ridedesk/internal/utils"
)

// DateRange bounds pickup dates by calendar day, both ends inclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// TicketFilter holds the three independent criteria of the ticket list.
// A nil criterion is inactive.
type TicketFilter struct {
	Vendor    *int64
	City      *string
	DateRange *DateRange
}

// IsEmpty reports whether no criterion is active.
func (f TicketFilter) IsEmpty() bool {
	return f.Vendor == nil && f.City == nil && f.DateRange == nil
}

// FilterTickets returns the rows matching every active criterion, in their
// original order.
func FilterTickets(rows []models.RideTicket, f TicketFilter) []models.RideTicket {
	if f.IsEmpty() {
		return rows
	}

	var from, to time.Time
	if f.DateRange != nil {
		from = utils.StartOfDay(f.DateRange.Start)
		to = utils.EndOfDay(f.DateRange.End)
	}

	out := make([]models.RideTicket, 0, len(rows))
	for _, r := range rows {
		if f.Vendor != nil && r.VendorID() != *f.Vendor {
			continue
		}
		if f.City != nil && !matchesCity(r, *f.City) {
			continue
		}
		if f.DateRange != nil {
			if r.PickupDate == nil {
				continue
			}
			d := r.PickupDate.In(from.Location())
			if d.Before(from) || d.After(to) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func matchesCity(r models.RideTicket, city string) bool {
	if r.City == nil {
		return false
	}
	city = strings.TrimSpace(city)
	if id, err := strconv.ParseInt(city, 10, 64); err == nil && r.City.ID == id {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(r.City.CityName), city) ||
		(r.City.CityID != "" && strings.EqualFold(r.City.CityID, city))
}

// ParseTicketFilter reads vendor, city, from and to (YYYY-MM-DD) query values.
// A date range needs both ends; a single end is a validation error.
func ParseTicketFilter(q url.Values, loc *time.Location) (TicketFilter, error) {
	var f TicketFilter
	errs := domain.FieldErrors{}

	if v := strings.TrimSpace(q.Get("vendor")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			errs.Add("vendor", "vendor must be a positive id")
		} else {
			f.Vendor = &id
		}
	}

	if v := strings.TrimSpace(q.Get("city")); v != "" {
		f.City = &v
	}

	fromRaw := strings.TrimSpace(q.Get("from"))
	toRaw := strings.TrimSpace(q.Get("to"))
	switch {
	case fromRaw == "" && toRaw == "":
	case fromRaw == "" || toRaw == "":
		errs.Add("dateRange", "both from and to are required")
	default:
		start, err1 := utils.ParseDate(fromRaw, loc)
		end, err2 := utils.ParseDate(toRaw, loc)
		if err1 != nil {
			errs.Add("from", "from must be YYYY-MM-DD")
		}
		if err2 != nil {
			errs.Add("to", "to must be YYYY-MM-DD")
		}
		if err1 == nil && err2 == nil {
			if end.Before(start) {
				errs.Add("dateRange", "to must not be before from")
			} else {
				f.DateRange = &DateRange{Start: start, End: end}
			}
		}
	}

	if err := errs.OrNil(); err != nil {
		return TicketFilter{}, err
	}
	return f, nil
}
