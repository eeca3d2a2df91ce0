package api

import (
	"log"
	stdhttp "net/http"

	"ridedesk/internal/domain"
	h "ridedesk/internal/http/handlers"
	"ridedesk/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func NewRouter(a *h.API) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.CORS(a.Env.CORSAllowedOrigins),
		middleware.Session(a.Auth()),
		middleware.Logger(),
		gin.Recovery(),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"message": "route not found",
			"path":    c.Request.URL.Path,
			"method":  c.Request.Method,
		})
	})

	masters := middleware.RequireRoles(domain.RoleAdmin, domain.RoleSuperAdmin)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", a.DBCheck)
		api.GET("/routes", h.Routes)

		// Auth
		auth := api.Group("/auth")
		auth.POST("/login", a.Login)
		auth.POST("/logout", a.Logout)
		auth.GET("/session", a.Session)
		auth.GET("/nav", a.Nav)

		secured := api.Group("", middleware.RequireAuth())

		// Cities & location costs
		cities := secured.Group("/cities")
		cities.GET("", a.ListCities)
		cities.GET("/:id", a.GetCity)
		cities.GET("/:id/location-costs/matrix", a.CostMatrix)
		cities.GET("/:id/drop-options", a.DropOptions)
		cities.POST("", masters, a.CreateCity)
		cities.PUT("/:id", masters, a.UpdateCity)
		cities.DELETE("/:id", masters, a.DeleteCity)
		cities.PUT("/:id/location-costs", masters, a.SaveCostMatrix)

		// Locations
		locations := secured.Group("/locations")
		locations.GET("", a.ListLocations)
		locations.GET("/:id", a.GetLocation)
		locations.POST("", masters, a.CreateLocation)
		locations.PUT("/:id", masters, a.UpdateLocation)
		locations.DELETE("/:id", masters, a.DeleteLocation)

		// Vendors
		vendors := secured.Group("/vendors")
		vendors.GET("", a.ListVendors)
		vendors.GET("/:id", a.GetVendor)
		vendors.POST("", masters, a.CreateVendor)
		vendors.PUT("/:id", masters, a.UpdateVendor)
		vendors.DELETE("/:id", masters, a.DeleteVendor)

		// Transports
		transports := secured.Group("/transports")
		transports.GET("", a.ListTransports)
		transports.GET("/:id", a.GetTransport)
		transports.POST("", masters, a.CreateTransport)
		transports.PUT("/:id", masters, a.UpdateTransport)
		transports.DELETE("/:id", masters, a.DeleteTransport)

		// Users
		users := secured.Group("/users", masters)
		users.GET("", a.ListUsers)
		users.GET("/:id", a.GetUser)
		users.POST("", a.CreateUser)
		users.PUT("/:id", a.UpdateUser)
		users.DELETE("/:id", a.DeleteUser)

		// Ride tickets
		tickets := secured.Group("/ride-tickets")
		tickets.GET("", a.ListRideTickets)
		tickets.GET("/invoice", a.Invoice)
		tickets.GET("/summary.pdf", a.TicketSummary)
		tickets.GET("/my-tickets", a.MyTickets)
		tickets.GET("/booking-state", a.BookingState)
		tickets.POST("/create", a.CreateRideTicket)
		tickets.GET("/send-otp/:id", a.SendOTP)
		tickets.POST("/verify-otp/:id", a.VerifyOTP)
		tickets.PUT("/update-remarks/:id", a.UpdateRemarks)
		tickets.GET("/:id", a.GetRideTicket)
		tickets.GET("/:id/access", a.TicketAccess)
		tickets.POST("", masters, a.CreateRideTicket)
		tickets.PUT("/:id", masters, a.UpdateRideTicket)
		tickets.DELETE("/:id", masters, a.DeleteRideTicket)
	}

	h.SetRouter(r)
	return r
}
