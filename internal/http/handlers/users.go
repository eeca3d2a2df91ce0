package handlers

import (
	"net/http"

	"ridedesk/internal/http/middleware"
	"ridedesk/internal/repositories"
	"ridedesk/internal/services"

	"github.com/gin-gonic/gin"
)

func (a *API) users(c *gin.Context) services.UserService {
	return services.UserService{
		Users:     repositories.UserRepository{DB: a.db()},
		Locations: repositories.LocationRepository{DB: a.db()},
		RequestID: middleware.GetRequestID(c),
	}
}

// GET /api/users
func (a *API) ListUsers(c *gin.Context) {
	users, err := repositories.UserRepository{DB: a.db()}.List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GET /api/users/:id
func (a *API) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	u, err := repositories.UserRepository{DB: a.db()}.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// POST /api/users
func (a *API) CreateUser(c *gin.Context) {
	var in services.UserInput
	if !BindJSONOrError(c, &in) {
		return
	}
	actor, _ := middleware.CurrentUser(c)
	u, err := a.users(c).Create(c.Request.Context(), actor, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// PUT /api/users/:id
func (a *API) UpdateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.UserInput
	if !BindJSONOrError(c, &in) {
		return
	}
	actor, _ := middleware.CurrentUser(c)
	u, err := a.users(c).Update(c.Request.Context(), actor, id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// DELETE /api/users/:id
func (a *API) DeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	actor, _ := middleware.CurrentUser(c)
	if err := a.users(c).Delete(c.Request.Context(), actor, id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
