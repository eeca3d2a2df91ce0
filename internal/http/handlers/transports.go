package handlers

import (
	"net/http"
	"strings"

	"ridedesk/internal/domain"
	"ridedesk/internal/domain/models"
	"ridedesk/internal/repositories"

	"github.com/gin-gonic/gin"
)

type transportPayload struct {
	TransportID string `json:"transportId"`
	VehicleNo   string `json:"vehicleNo"`
	VendorID    int64  `json:"vendorId"`
	Type        string `json:"type"`
}

func (p transportPayload) validate() error {
	errs := domain.FieldErrors{}
	if strings.TrimSpace(p.TransportID) == "" {
		errs.Add("transportId", "Transport ID is required")
	}
	if strings.TrimSpace(p.VehicleNo) == "" {
		errs.Add("vehicleNo", "Vehicle number is required")
	}
	if p.VendorID <= 0 {
		errs.Add("vendorId", "Vendor is required")
	}
	return errs.OrNil()
}

func (p transportPayload) model(id int64) models.Transport {
	return models.Transport{
		ID:          id,
		TransportID: p.TransportID,
		VehicleNo:   strings.ToUpper(strings.TrimSpace(p.VehicleNo)),
		VendorID:    p.VendorID,
		Type:        p.Type,
	}
}

// GET /api/transports?vendorId=&cityId=
func (a *API) ListTransports(c *gin.Context) {
	vendorID, ok1 := optionalID(c.Query("vendorId"))
	cityID, ok2 := optionalID(c.Query("cityId"))
	if !ok1 || !ok2 {
		errs := domain.FieldErrors{}
		if !ok1 {
			errs.Add("vendorId", "vendorId must be a positive id")
		}
		if !ok2 {
			errs.Add("cityId", "cityId must be a positive id")
		}
		RespondDomainError(c, errs)
		return
	}
	var q repositories.TransportQuery
	if vendorID != nil {
		q.VendorID = *vendorID
	}
	if cityID != nil {
		q.CityID = *cityID
	}
	list, err := repositories.TransportRepository{DB: a.db()}.List(c.Request.Context(), q)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /api/transports/:id
func (a *API) GetTransport(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	t, err := repositories.TransportRepository{DB: a.db()}.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// POST /api/transports
func (a *API) CreateTransport(c *gin.Context) {
	var p transportPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	if err := p.validate(); err != nil {
		RespondDomainError(c, err)
		return
	}
	t, err := repositories.TransportRepository{DB: a.db()}.Create(c.Request.Context(), p.model(0))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// PUT /api/transports/:id
func (a *API) UpdateTransport(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var p transportPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	if err := p.validate(); err != nil {
		RespondDomainError(c, err)
		return
	}
	repo := repositories.TransportRepository{DB: a.db()}
	if err := repo.Update(c.Request.Context(), p.model(id)); err != nil {
		RespondDomainError(c, err)
		return
	}
	t, err := repo.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// DELETE /api/transports/:id
func (a *API) DeleteTransport(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := (repositories.TransportRepository{DB: a.db()}).Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transport deleted"})
}
