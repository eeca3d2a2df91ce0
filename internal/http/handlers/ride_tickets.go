package handlers

import (
	"net/http"
	"strings"
	"time"

	"ridedesk/internal/domain"
	"ridedesk/internal/domain/models"
	"ridedesk/internal/http/middleware"
	"ridedesk/internal/repositories"
	"ridedesk/internal/services"

	"github.com/gin-gonic/gin"
)

// filteredTickets loads tickets matching ?search= and applies the vendor,
// city and date filter from the query string.
func (a *API) filteredTickets(c *gin.Context) ([]models.RideTicket, services.TicketFilter, bool) {
	filter, err := services.ParseTicketFilter(c.Request.URL.Query(), time.UTC)
	if err != nil {
		RespondDomainError(c, err)
		return nil, filter, false
	}
	rows, err := repositories.RideTicketRepository{DB: a.db()}.List(c.Request.Context(), repositories.TicketQuery{
		Search: c.Query("search"),
	})
	if err != nil {
		RespondDomainError(c, err)
		return nil, filter, false
	}
	return services.FilterTickets(rows, filter), filter, true
}

// GET /api/ride-tickets?search=&vendor=&city=&from=&to=
func (a *API) ListRideTickets(c *gin.Context) {
	rows, _, ok := a.filteredTickets(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GET /api/ride-tickets/:id
func (a *API) GetRideTicket(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	actor, _ := middleware.CurrentUser(c)
	t, err := a.tickets(c).Get(c.Request.Context(), actor, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// POST /api/ride-tickets and POST /api/ride-tickets/create
func (a *API) CreateRideTicket(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)
	var in services.CreateTicketInput
	if !BindJSONOrError(c, &in) {
		return
	}
	t, err := a.tickets(c).Create(c.Request.Context(), actor, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// PUT /api/ride-tickets/:id
func (a *API) UpdateRideTicket(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.TicketAssignment
	if !BindJSONOrError(c, &in) {
		return
	}
	t, err := a.tickets(c).Assign(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// DELETE /api/ride-tickets/:id
func (a *API) DeleteRideTicket(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := (repositories.RideTicketRepository{DB: a.db()}).Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ride ticket deleted"})
}

// GET /api/ride-tickets/my-tickets?search=
func (a *API) MyTickets(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)
	rows, err := a.tickets(c).MyTickets(c.Request.Context(), actor, c.Query("search"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GET /api/ride-tickets/booking-state
func (a *API) BookingState(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)
	access, err := a.tickets(c).BookingState(c.Request.Context(), actor)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, access)
}

// GET /api/ride-tickets/:id/access
func (a *API) TicketAccess(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	actor, _ := middleware.CurrentUser(c)
	access, err := a.tickets(c).EditAccess(c.Request.Context(), actor, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, access)
}

// GET /api/ride-tickets/send-otp/:id
func (a *API) SendOTP(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	actor, _ := middleware.CurrentUser(c)
	expires, err := a.tickets(c).SendOTP(c.Request.Context(), actor, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "otp sent", "expiresAt": expires.UTC()})
}

// POST /api/ride-tickets/verify-otp/:id?otp=
func (a *API) VerifyOTP(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	actor, _ := middleware.CurrentUser(c)
	if err := a.tickets(c).VerifyOTP(c.Request.Context(), actor, id, c.Query("otp")); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ride confirmed"})
}

// PUT /api/ride-tickets/update-remarks/:id?remarks=&dropLocation=
func (a *API) UpdateRemarks(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	drop, ok := optionalID(c.Query("dropLocation"))
	if !ok {
		RespondDomainError(c, domain.ValidationError{Field: "dropLocation", Msg: "dropLocation must be a positive id"})
		return
	}
	remarks := c.Query("remarks")
	if len(strings.TrimSpace(remarks)) > 500 {
		RespondDomainError(c, domain.ValidationError{Field: "remarks", Msg: "remarks must be at most 500 characters"})
		return
	}
	actor, _ := middleware.CurrentUser(c)
	t, err := a.tickets(c).UpdateRemarks(c.Request.Context(), actor, id, remarks, drop)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}
