package learningpath

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apphttp "edpulse_backend/internal/http"
	"edpulse_backend/internal/intake/repository"
	"edpulse_backend/internal/storage"
	"edpulse_backend/platform/apperr"
	"edpulse_backend/platform/httpkit"
	"edpulse_backend/platform/logger"
	"edpulse_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Module is the learning path bounded context module implementing http.Module.
type Module struct {
	generator *Generator
	visitors  *repository.VisitorRepository
	documents storage.DocumentStore
	val       *validator.Validator
	log       *logger.Logger
}

// NewModule creates the learning path module. documents may be nil when no
// object storage is configured; generated paths are then simply not archived.
func NewModule(generator *Generator, visitors *repository.VisitorRepository, documents storage.DocumentStore, val *validator.Validator, log *logger.Logger) *Module {
	return &Module{
		generator: generator,
		visitors:  visitors,
		documents: documents,
		val:       val,
		log:       log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "learningpath"
}

// RegisterRoutes mounts learning path routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/learning-path", m.handleGenerate)
}

type generateRequest struct {
	VisitorID string `json:"visitorId" validate:"required,uuid4"`
}

type generateResponse struct {
	Success      bool   `json:"success"`
	LearningPath string `json:"learningPath"`
	StudentName  string `json:"studentName"`
	DocumentKey  string `json:"documentKey,omitempty"`
}

// handleGenerate builds a learning path for a captured visitor.
// POST /api/v1/learning-path
func (m *Module) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := m.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation("visitorId is required").WithDetails(err.Error()))
		return
	}

	visitorID, err := uuid.Parse(req.VisitorID)
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid visitor id"))
		return
	}

	ctx := c.Request.Context()
	visitor, err := m.visitors.FindByID(ctx, visitorID)
	if errors.Is(err, repository.ErrVisitorNotFound) {
		httpkit.HandleError(c, apperr.NotFound("visitor not found"))
		return
	}
	if err != nil {
		m.log.DatabaseError("find_visitor", err)
		httpkit.HandleError(c, apperr.Internal("failed to load visitor"))
		return
	}

	interests, err := m.visitors.ListInterests(ctx, visitorID)
	if err != nil {
		m.log.DatabaseError("list_interests", err)
		httpkit.HandleError(c, apperr.Internal("failed to load visitor profile"))
		return
	}
	preferences, err := m.visitors.ListPreferences(ctx, visitorID)
	if err != nil {
		m.log.DatabaseError("list_preferences", err)
		httpkit.HandleError(c, apperr.Internal("failed to load visitor profile"))
		return
	}

	path, err := m.generator.Generate(ctx, visitor, interests, preferences)
	if err != nil {
		m.log.Error("learning path generation failed", "error", err, "visitor_id", visitorID.String())
		httpkit.HandleError(c, apperr.Internal("failed to generate learning path"))
		return
	}

	resp := generateResponse{
		Success:      true,
		LearningPath: path,
		StudentName:  strings.TrimSpace(visitor.FirstName + " " + visitor.LastName),
	}
	resp.DocumentKey = m.archive(ctx, visitorID, path)

	c.JSON(http.StatusOK, resp)
}

// archive stores the generated document when object storage is configured.
// Failure to archive never fails the request.
func (m *Module) archive(ctx context.Context, visitorID uuid.UUID, content string) string {
	if m.documents == nil {
		return ""
	}

	key, err := m.documents.StoreDocument(ctx, visitorID.String(), "learning-path.md", content)
	if err != nil {
		m.log.Warn("learning path archive failed", "error", err.Error(), "visitor_id", visitorID.String())
		return ""
	}
	return key
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
