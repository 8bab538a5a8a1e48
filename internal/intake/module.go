// Package intake provides the lead capture bounded context module.
package intake

import (
	"edpulse_backend/internal/events"
	apphttp "edpulse_backend/internal/http"
	"edpulse_backend/internal/intake/handler"
	"edpulse_backend/internal/intake/repository"
	"edpulse_backend/internal/intake/service"
	"edpulse_backend/platform/config"
	"edpulse_backend/platform/logger"
	"edpulse_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the intake bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	service  *service.Service
	visitors *repository.VisitorRepository
}

// NewModule creates and initializes the intake module with all its dependencies.
func NewModule(pool *pgxpool.Pool, sender service.RelaySender, eventBus events.Bus, cfg config.IntakeConfig, val *validator.Validator, log *logger.Logger) *Module {
	visitors := repository.NewVisitorRepository(pool)
	sessions := repository.NewSessionRepository(pool)
	submissions := repository.NewSubmissionRepository(pool)
	svc := service.New(visitors, sessions, submissions, sender, eventBus, cfg, log)

	return &Module{
		handler:  handler.NewHandler(svc, val),
		service:  svc,
		visitors: visitors,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "intake"
}

// Visitors exposes the visitor repository for modules that read lead
// profiles (learning path generation).
func (m *Module) Visitors() *repository.VisitorRepository {
	return m.visitors
}

// RegisterRoutes mounts intake routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/submissions")
	group.Use(ctx.SubmissionRateLimiter.RateLimit())
	group.POST("", m.handler.HandleSubmit)
	group.POST("/partial", m.handler.HandleSubmitPartial)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
