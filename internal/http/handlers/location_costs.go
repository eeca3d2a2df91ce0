package handlers

import (
	"net/http"

	"ridedesk/internal/domain"
	"ridedesk/internal/domain/models"

	"github.com/gin-gonic/gin"
)

type saveMatrixPayload struct {
	Entries []models.CostMatrixEntry `json:"entries"`
}

// GET /api/cities/:id/location-costs/matrix
func (a *API) CostMatrix(c *gin.Context) {
	cityID, ok := paramID(c, "id")
	if !ok {
		return
	}
	matrix, err := a.costMatrix(c).Matrix(c.Request.Context(), cityID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cityId": cityID, "entries": matrix})
}

// PUT /api/cities/:id/location-costs
func (a *API) SaveCostMatrix(c *gin.Context) {
	cityID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var p saveMatrixPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	res, err := a.costMatrix(c).SaveMatrix(c.Request.Context(), cityID, p.Entries)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "location costs saved",
		"saved":   res.Saved,
		"cleared": res.Cleared,
		"entries": res.Matrix,
	})
}

// GET /api/cities/:id/drop-options?pickup=
func (a *API) DropOptions(c *gin.Context) {
	cityID, ok := paramID(c, "id")
	if !ok {
		return
	}
	pickup, ok := optionalID(c.Query("pickup"))
	if !ok {
		RespondDomainError(c, domain.ValidationError{Field: "pickup", Msg: "pickup must be a positive id"})
		return
	}
	var pickupID int64
	if pickup != nil {
		pickupID = *pickup
	}
	opts, err := a.costMatrix(c).DropOptions(c.Request.Context(), cityID, pickupID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}
