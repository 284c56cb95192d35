package calendar

import (
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"
)

// Module exposes call booking endpoints when a provider is configured.
type Module struct {
	handler  *Handler
	provider Provider
}

func NewModule(provider Provider, val *validator.Validator, log *logger.Logger) *Module {
	return &Module{
		handler:  NewHandler(provider, val, log),
		provider: provider,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "calendar"
}

// RegisterRoutes mounts calendar routes on the provided router context.
// Without a provider the module registers nothing.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	if m.provider == nil {
		return
	}

	group := ctx.Protected.Group("/calendar")
	group.GET("/availability", m.handler.HandleGetAvailability)
	group.POST("/events", m.handler.HandleCreateEvent)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
