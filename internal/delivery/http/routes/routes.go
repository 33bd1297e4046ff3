package routes

import (
	"propwatch/internal/delivery/http/handler"
	"propwatch/internal/delivery/http/middleware"
	"propwatch/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	health     *handler.HealthHandler
	searches   *handler.SavedSearchHandler
	pending    *handler.PendingHandler
	properties *handler.PropertyHandler
	portalIDs  *handler.PortalIDHandler
	events     *ws.Handler

	// nil leaves the import and admin routes unguarded (development).
	auth *middleware.AuthMiddleware
}

func NewRegistry(
	health *handler.HealthHandler,
	searches *handler.SavedSearchHandler,
	pending *handler.PendingHandler,
	properties *handler.PropertyHandler,
	portalIDs *handler.PortalIDHandler,
	events *ws.Handler,
	auth *middleware.AuthMiddleware,
) *Registry {
	return &Registry{
		health:     health,
		searches:   searches,
		pending:    pending,
		properties: properties,
		portalIDs:  portalIDs,
		events:     events,
		auth:       auth,
	}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.health.RegisterRoutes(app)

	api := app.Group("/api")
	v1 := api.Group("/v1")

	r.searches.RegisterRoutes(v1)
	r.pending.RegisterRoutes(v1)
	r.properties.RegisterRoutes(v1)

	guarded := v1
	if r.auth != nil {
		guarded = v1.Group("", r.auth.Middleware())
	}
	r.searches.RegisterImportRoutes(guarded)
	r.portalIDs.RegisterRoutes(guarded)

	if r.events != nil {
		app.Get("/ws/events", r.events.HandleEventsWS)
	}
}
