package services

import (
	"context"
	"errors"
	"fmt"

	"ridedesk/internal/domain"
	"ridedesk/internal/domain/models"
	"ridedesk/internal/events"
	"ridedesk/internal/repositories"
	"ridedesk/internal/utils"
)

// CostMatrixService keeps a city's location-cost matrix in step with its
// locations. Every call re-reads locations from the store.
type CostMatrixService struct {
	Locations repositories.LocationRepository
	Costs     repositories.LocationCostRepository
	Events    events.Publisher
	RequestID string
}

type MatrixSaveResult struct {
	Saved   int                      `json:"saved"`
	Cleared int                      `json:"cleared"`
	Matrix  []models.CostMatrixEntry `json:"matrix"`
}

func (s CostMatrixService) Matrix(ctx context.Context, cityID int64) ([]models.CostMatrixEntry, error) {
	locations, err := s.Locations.ListByCity(ctx, cityID)
	if err != nil {
		return nil, err
	}
	if len(locations) < 2 {
		return nil, domain.ValidationError{Err: domain.ErrInsufficientLocations}
	}
	existing, err := s.Costs.ListByCity(ctx, cityID)
	if err != nil {
		return nil, err
	}
	return BuildCostMatrix(locations, existing)
}

// SaveMatrix validates entries against the city's current locations and
// persists them in one transaction. Entries with a nil cost are cleared.
func (s CostMatrixService) SaveMatrix(ctx context.Context, cityID int64, entries []models.CostMatrixEntry) (MatrixSaveResult, error) {
	var out MatrixSaveResult

	locations, err := s.Locations.ListByCity(ctx, cityID)
	if err != nil {
		return out, err
	}
	if err := ValidateCostEntries(locations, entries); err != nil {
		return out, err
	}

	out.Saved, out.Cleared, err = s.Costs.SaveMatrix(ctx, cityID, entries)
	if err != nil {
		return out, err
	}
	utils.LogEvent(s.RequestID, "costs", "save_matrix",
		fmt.Sprintf("city_id=%d saved=%d cleared=%d", cityID, out.Saved, out.Cleared))
	publishEvent(ctx, s.Events, s.RequestID, events.CostMatrixSaved, events.CostMatrixChanged{CityID: cityID, Saved: out.Saved, Cleared: out.Cleared})

	existing, err := s.Costs.ListByCity(ctx, cityID)
	if err != nil {
		return out, err
	}
	out.Matrix, err = BuildCostMatrix(locations, existing)
	return out, err
}

// InvalidateCity drops every saved cost of the city.
func (s CostMatrixService) InvalidateCity(ctx context.Context, cityID int64) (int64, error) {
	n, err := s.Costs.DeleteByCity(ctx, cityID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		utils.LogEvent(s.RequestID, "costs", "invalidate_city", fmt.Sprintf("city_id=%d removed=%d", cityID, n))
		publishEvent(ctx, s.Events, s.RequestID, events.CostMatrixCleared, events.CostMatrixChanged{CityID: cityID, Cleared: int(n)})
	}
	return n, nil
}

// Refresh regenerates the matrix after a location change in cityID. When the
// city no longer has two locations its costs are invalidated and the
// insufficient-locations error is returned with a nil matrix.
func (s CostMatrixService) Refresh(ctx context.Context, cityID int64) ([]models.CostMatrixEntry, error) {
	matrix, err := s.Matrix(ctx, cityID)
	if errors.Is(err, domain.ErrInsufficientLocations) {
		if _, invErr := s.InvalidateCity(ctx, cityID); invErr != nil {
			return nil, invErr
		}
	}
	return matrix, err
}

// LocationMoved removes the location's costs when it changed city, then
// refreshes the city it left.
func (s CostMatrixService) LocationMoved(ctx context.Context, locationID, fromCityID, toCityID int64) error {
	if fromCityID == toCityID {
		return nil
	}
	if _, err := s.Costs.DeleteByLocation(ctx, locationID); err != nil {
		return err
	}
	if _, err := s.Refresh(ctx, fromCityID); err != nil && !errors.Is(err, domain.ErrInsufficientLocations) {
		return err
	}
	return nil
}

// DropOptions lists the city's locations selectable as drop for pickupID.
func (s CostMatrixService) DropOptions(ctx context.Context, cityID, pickupID int64) ([]models.Location, error) {
	locations, err := s.Locations.ListByCity(ctx, cityID)
	if err != nil {
		return nil, err
	}
	return ComputeDropOptions(locations, pickupID), nil
}

// publishEvent is best-effort; a broker failure never fails the request.
func publishEvent(ctx context.Context, pub events.Publisher, requestID, eventType string, payload any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, events.NewEnvelope(eventType, requestID, payload)); err != nil {
		utils.LogEvent(requestID, "events", "publish_failed", eventType+": "+err.Error())
	}
}
