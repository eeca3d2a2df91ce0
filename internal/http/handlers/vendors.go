package handlers

import (
	"net/http"
	"strings"

	"ridedesk/internal/domain"
	"ridedesk/internal/domain/models"
	"ridedesk/internal/repositories"
	"ridedesk/internal/utils"

	"github.com/gin-gonic/gin"
)

type vendorPayload struct {
	VendorName string `json:"vendorName"`
	CityID     int64  `json:"cityId"`
}

func (p vendorPayload) validate() error {
	errs := domain.FieldErrors{}
	if strings.TrimSpace(p.VendorName) == "" {
		errs.Add("vendorName", "Vendor name is required")
	}
	if p.CityID <= 0 {
		errs.Add("cityId", "City is required")
	}
	return errs.OrNil()
}

// GET /api/vendors
func (a *API) ListVendors(c *gin.Context) {
	vendors, err := repositories.VendorRepository{DB: a.db()}.List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, vendors)
}

// GET /api/vendors/:id
func (a *API) GetVendor(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	v, err := repositories.VendorRepository{DB: a.db()}.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// POST /api/vendors
func (a *API) CreateVendor(c *gin.Context) {
	var p vendorPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	if err := p.validate(); err != nil {
		RespondDomainError(c, err)
		return
	}
	v, err := repositories.VendorRepository{DB: a.db()}.Create(c.Request.Context(), models.Vendor{VendorName: utils.NormalizeSpace(p.VendorName), CityID: p.CityID})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// PUT /api/vendors/:id
func (a *API) UpdateVendor(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var p vendorPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	if err := p.validate(); err != nil {
		RespondDomainError(c, err)
		return
	}
	repo := repositories.VendorRepository{DB: a.db()}
	if err := repo.Update(c.Request.Context(), models.Vendor{ID: id, VendorName: utils.NormalizeSpace(p.VendorName), CityID: p.CityID}); err != nil {
		RespondDomainError(c, err)
		return
	}
	v, err := repo.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// DELETE /api/vendors/:id
func (a *API) DeleteVendor(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := (repositories.VendorRepository{DB: a.db()}).Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "vendor deleted"})
}
