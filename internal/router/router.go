package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"                             // Echo web framework handles routing
	"github.com/prometheus/client_golang/prometheus/promhttp" // Prometheus scrape endpoint

	"github.com/iliyamo/ticket-registry/internal/handler"    // handlers implementing the API surface
	"github.com/iliyamo/ticket-registry/internal/middleware" // JWT authentication middleware
)

// RegisterRoutes registers routes that do not belong to the API surface
// proper: the health check used by load balancers and the Prometheus
// scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the identity gateway.  Unauthenticated operations
// live under /v1/auth; /v1/auth/me and /v1/auth/logout require a valid
// access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	auth := e.Group("/v1/auth")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireIdentity())
	auth.GET("/me", a.Me)
	auth.POST("/logout", a.Logout)
}

// RegisterPublic registers the unauthenticated read surface: ticket
// lookups, the event feed and the durable history.
func RegisterPublic(e *echo.Echo, b *handler.BrowseHandler) {
	e.GET("/v1/tickets/count", b.Count)
	e.GET("/v1/tickets/:id", b.GetTicket)
	e.GET("/v1/tickets/:id/owner", b.Owner)
	e.GET("/v1/tickets/:id/expired", b.Expired)
	e.GET("/v1/tickets/:id/uri", b.URI)
	e.GET("/v1/admins/:identity", b.Admin)
	e.GET("/v1/events", b.Events)
	e.GET("/v1/history", b.History)
}

// RegisterTickets registers every mutating lifecycle route behind JWT
// authentication.  Capability checks (admin, owner, delegate) happen inside
// the registry, not here: the router only guarantees that a caller identity
// exists.
func RegisterTickets(e *echo.Echo, a *handler.AdminHandler, t *handler.TradeHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireIdentity())

	// lifecycle driven by admins and sport centers
	g.POST("/tickets", a.CreateTicket)
	g.POST("/tickets/:id/lock", a.Lock)
	g.POST("/tickets/:id/unlock", a.Unlock)
	g.POST("/tickets/:id/use", a.Use)
	g.POST("/tickets/:id/expire", a.Expire)
	g.PUT("/tickets/:id/limit-date", a.SetLimitDate)
	g.PUT("/tickets/:id/reservation-date", a.SetReservationDate)
	g.PUT("/tickets/:id/uri", a.SetTicketURI)
	g.PUT("/products/:code/uri", a.SetProductURI)
	g.POST("/admins", a.GrantAdmin)
	g.DELETE("/admins/:identity", a.RevokeAdmin)

	// lifecycle driven by owners and their delegates
	g.POST("/tickets/:id/sale", t.Sale)
	g.POST("/tickets/:id/buy", t.Buy)
	g.POST("/tickets/:id/transfer", t.Transfer)
	g.POST("/tickets/:id/approve", t.Approve)
	g.POST("/approvals", t.SetOperator)
}
