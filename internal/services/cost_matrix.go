package services

import (
	"strconv"

	"ridedesk/internal/domain"
	"ridedesk/internal/domain/models"
)

// BuildCostMatrix enumerates every directed pickup -> drop pair of locations in
// row-major order (pickup index outer, drop index inner, self pairs skipped)
// and fills in costs already saved for that pair. Pairs without a saved cost
// keep a nil Cost.
func BuildCostMatrix(locations []models.Location, existing []models.LocationCost) ([]models.CostMatrixEntry, error) {
	if len(locations) < 2 {
		return nil, domain.ValidationError{Err: domain.ErrInsufficientLocations}
	}

	saved := make(map[models.PairKey]*float64, len(existing))
	for _, c := range existing {
		if c.Cost == nil {
			continue
		}
		v := *c.Cost
		saved[c.Key()] = &v
	}

	n := len(locations)
	out := make([]models.CostMatrixEntry, 0, n*(n-1))
	for i, pickup := range locations {
		for j, drop := range locations {
			if i == j {
				continue
			}
			entry := models.CostMatrixEntry{
				PickupLocationID:   pickup.ID,
				PickupLocationName: pickup.LocationName,
				DropLocationID:     drop.ID,
				DropLocationName:   drop.LocationName,
			}
			if c, ok := saved[models.PairKey{Pickup: pickup.ID, Drop: drop.ID}]; ok {
				v := *c
				entry.Cost = &v
			}
			out = append(out, entry)
		}
	}
	return out, nil
}

// ComputeDropOptions lists the locations selectable as drop once pickupID is
// chosen. A zero pickupID returns every location.
func ComputeDropOptions(all []models.Location, pickupID int64) []models.Location {
	out := make([]models.Location, 0, len(all))
	for _, l := range all {
		if pickupID != 0 && l.ID == pickupID {
			continue
		}
		out = append(out, l)
	}
	return out
}

// ValidateCostEntries checks a submitted matrix against the city's current
// locations. Keys of the returned FieldErrors are "entries[i]".
func ValidateCostEntries(locations []models.Location, entries []models.CostMatrixEntry) error {
	if len(locations) < 2 {
		return domain.ValidationError{Err: domain.ErrInsufficientLocations}
	}

	inCity := make(map[int64]bool, len(locations))
	for _, l := range locations {
		inCity[l.ID] = true
	}

	errs := domain.FieldErrors{}
	seen := make(map[models.PairKey]bool, len(entries))
	for i, e := range entries {
		field := entryField(i)
		key := models.PairKey{Pickup: e.PickupLocationID, Drop: e.DropLocationID}
		switch {
		case e.PickupLocationID == e.DropLocationID:
			errs.Add(field, "pickup and drop location must differ")
		case !inCity[e.PickupLocationID] || !inCity[e.DropLocationID]:
			errs.Add(field, "location does not belong to this city")
		case seen[key]:
			errs.Add(field, "duplicate pickup/drop pair")
		case e.Cost != nil && *e.Cost < 0:
			errs.Add(field, "cost must not be negative")
		}
		seen[key] = true
	}
	return errs.OrNil()
}

func entryField(i int) string {
	return "entries[" + strconv.Itoa(i) + "]"
}
