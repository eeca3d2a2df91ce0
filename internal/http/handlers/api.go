package handlers

import (
	"database/sql"
	"time"

	intconfig "ridedesk/internal/config"
	"ridedesk/internal/events"
	"ridedesk/internal/http/middleware"
	"ridedesk/internal/repositories"
	"ridedesk/internal/services"
	"ridedesk/internal/session"

	"github.com/gin-gonic/gin"
)

// API holds what handlers share across requests. Services are built per
// request so each carries its request_id.
type API struct {
	DB     *sql.DB
	Env    intconfig.Env
	Events events.Publisher
	Logo   []byte
	Now    func() time.Time
}

func (a *API) db() *sql.DB {
	if a.DB != nil {
		return a.DB
	}
	return intconfig.DB
}

func (a *API) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *API) policy() services.AccessPolicy {
	return services.AccessPolicy{CompletedReopensEdit: a.Env.CompletedReopensEdit}
}

func (a *API) Auth() services.AuthService {
	return services.AuthService{
		Users:  repositories.UserRepository{DB: a.db()},
		Secret: []byte(a.Env.JWTSecret),
		TTL:    a.Env.TokenTTL,
		Now:    a.Now,
	}
}

func (a *API) costMatrix(c *gin.Context) services.CostMatrixService {
	return services.CostMatrixService{
		Locations: repositories.LocationRepository{DB: a.db()},
		Costs:     repositories.LocationCostRepository{DB: a.db()},
		Events:    a.Events,
		RequestID: middleware.GetRequestID(c),
	}
}

func (a *API) tickets(c *gin.Context) services.TicketService {
	return services.TicketService{
		Tickets:   repositories.RideTicketRepository{DB: a.db()},
		Locations: repositories.LocationRepository{DB: a.db()},
		Costs:     repositories.LocationCostRepository{DB: a.db()},
		Events:    a.Events,
		Policy:    a.policy(),
		Now:       a.Now,
		RequestID: middleware.GetRequestID(c),
	}
}

func (a *API) renderer(c *gin.Context) services.InvoiceRenderer {
	return services.InvoiceRenderer{
		Logo:           a.Logo,
		SupportContact: a.Env.SupportContact,
		Now:            a.Now,
		RequestID:      middleware.GetRequestID(c),
	}
}

func (a *API) cookieOptions(expires time.Time) session.Options {
	return session.Options{Secure: a.Env.CookieSecure, Expires: expires}
}
