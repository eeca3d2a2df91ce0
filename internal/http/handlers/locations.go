package handlers

import (
	"errors"
	"net/http"
	"strings"

	"ridedesk/internal/domain"
	"ridedesk/internal/domain/models"
	"ridedesk/internal/http/middleware"
	"ridedesk/internal/repositories"
	"ridedesk/internal/utils"

	"github.com/gin-gonic/gin"
)

type locationPayload struct {
	LocationID   string `json:"locationId"`
	LocationName string `json:"locationName"`
	CityID       int64  `json:"cityId"`
}

func (p locationPayload) validate() error {
	errs := domain.FieldErrors{}
	if strings.TrimSpace(p.LocationID) == "" {
		errs.Add("locationId", "Location ID is required")
	}
	if strings.TrimSpace(p.LocationName) == "" {
		errs.Add("locationName", "Location name is required")
	}
	if p.CityID <= 0 {
		errs.Add("cityId", "City is required")
	}
	return errs.OrNil()
}

// locationResponse carries the saved location and the city's regenerated
// cost matrix, or the reason there is none.
type locationResponse struct {
	Location        models.Location          `json:"location"`
	CostMatrix      []models.CostMatrixEntry `json:"costMatrix,omitempty"`
	CostMatrixError string                   `json:"costMatrixError,omitempty"`
}

func (a *API) withMatrix(c *gin.Context, loc models.Location) (locationResponse, error) {
	out := locationResponse{Location: loc}
	matrix, err := a.costMatrix(c).Refresh(c.Request.Context(), loc.CityID)
	switch {
	case errors.Is(err, domain.ErrInsufficientLocations):
		out.CostMatrixError = domain.ErrInsufficientLocations.Error()
	case err != nil:
		return out, err
	default:
		out.CostMatrix = matrix
	}
	return out, nil
}

// GET /api/locations?cityId=
func (a *API) ListLocations(c *gin.Context) {
	cityID, ok := optionalID(c.Query("cityId"))
	if !ok {
		RespondDomainError(c, domain.ValidationError{Field: "cityId", Msg: "cityId must be a positive id"})
		return
	}
	repo := repositories.LocationRepository{DB: a.db()}
	var (
		locs []models.Location
		err  error
	)
	if cityID != nil {
		locs, err = repo.ListByCity(c.Request.Context(), *cityID)
	} else {
		locs, err = repo.List(c.Request.Context())
	}
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, locs)
}

// GET /api/locations/:id
func (a *API) GetLocation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	loc, err := repositories.LocationRepository{DB: a.db()}.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// POST /api/locations
func (a *API) CreateLocation(c *gin.Context) {
	var p locationPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	if err := p.validate(); err != nil {
		RespondDomainError(c, err)
		return
	}
	ctx := c.Request.Context()
	loc, err := repositories.LocationRepository{DB: a.db()}.Create(ctx, models.Location{
		LocationID:   p.LocationID,
		LocationName: utils.NormalizeSpace(p.LocationName),
		CityID:       p.CityID,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "masters", "create_location", "id="+itoa(loc.ID))

	resp, err := a.withMatrix(c, loc)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// PUT /api/locations/:id
func (a *API) UpdateLocation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var p locationPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	if err := p.validate(); err != nil {
		RespondDomainError(c, err)
		return
	}

	ctx := c.Request.Context()
	repo := repositories.LocationRepository{DB: a.db()}
	before, err := repo.GetByID(ctx, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	loc := models.Location{ID: id, LocationID: p.LocationID, LocationName: utils.NormalizeSpace(p.LocationName), CityID: p.CityID}
	if err := repo.Update(ctx, loc); err != nil {
		RespondDomainError(c, err)
		return
	}
	if err := a.costMatrix(c).LocationMoved(ctx, id, before.CityID, loc.CityID); err != nil {
		RespondDomainError(c, err)
		return
	}

	resp, err := a.withMatrix(c, loc)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DELETE /api/locations/:id
func (a *API) DeleteLocation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	repo := repositories.LocationRepository{DB: a.db()}
	loc, err := repo.GetByID(ctx, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	svc := a.costMatrix(c)
	if _, err := svc.Costs.DeleteByLocation(ctx, id); err != nil {
		RespondDomainError(c, err)
		return
	}
	if err := repo.Delete(ctx, id); err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "masters", "delete_location", "id="+itoa(id))

	resp, err := a.withMatrix(c, models.Location{ID: id, CityID: loc.CityID})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "location deleted",
		"costMatrix":      resp.CostMatrix,
		"costMatrixError": resp.CostMatrixError,
	})
}
