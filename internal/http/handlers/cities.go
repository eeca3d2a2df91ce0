package handlers

import (
	"net/http"
	"strings"

	"ridedesk/internal/domain"
	"ridedesk/internal/domain/models"
	"ridedesk/internal/http/middleware"
	"ridedesk/internal/repositories"
	"ridedesk/internal/utils"

	"github.com/gin-gonic/gin"
)

type cityPayload struct {
	CityID   string `json:"cityId"`
	CityName string `json:"cityName"`
}

func (p cityPayload) validate() error {
	errs := domain.FieldErrors{}
	if strings.TrimSpace(p.CityID) == "" {
		errs.Add("cityId", "City ID is required")
	}
	if strings.TrimSpace(p.CityName) == "" {
		errs.Add("cityName", "City name is required")
	}
	return errs.OrNil()
}

// GET /api/cities
func (a *API) ListCities(c *gin.Context) {
	cities, err := repositories.CityRepository{DB: a.db()}.List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, cities)
}

// GET /api/cities/:id
func (a *API) GetCity(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	city, err := repositories.CityRepository{DB: a.db()}.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, city)
}

// POST /api/cities
func (a *API) CreateCity(c *gin.Context) {
	var p cityPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	if err := p.validate(); err != nil {
		RespondDomainError(c, err)
		return
	}
	city, err := repositories.CityRepository{DB: a.db()}.Create(c.Request.Context(), models.City{CityID: p.CityID, CityName: utils.NormalizeSpace(p.CityName)})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "masters", "create_city", "id="+itoa(city.ID))
	c.JSON(http.StatusCreated, city)
}

// PUT /api/cities/:id
func (a *API) UpdateCity(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var p cityPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	if err := p.validate(); err != nil {
		RespondDomainError(c, err)
		return
	}
	repo := repositories.CityRepository{DB: a.db()}
	if err := repo.Update(c.Request.Context(), models.City{ID: id, CityID: p.CityID, CityName: utils.NormalizeSpace(p.CityName)}); err != nil {
		RespondDomainError(c, err)
		return
	}
	city, err := repo.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, city)
}

// DELETE /api/cities/:id
func (a *API) DeleteCity(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := (repositories.CityRepository{DB: a.db()}).Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "masters", "delete_city", "id="+itoa(id))
	c.JSON(http.StatusOK, gin.H{"message": "city deleted"})
}
