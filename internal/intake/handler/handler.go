// Package handler exposes the intake pipeline over HTTP.
package handler

import (
	"net/http"

	"edpulse_backend/internal/intake/service"
	"edpulse_backend/internal/intake/transport"
	"edpulse_backend/platform/apperr"
	"edpulse_backend/platform/httpkit"
	"edpulse_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	errInvalidRequest = "invalid request body"
	msgLeadCaptured   = "submission received"
)

// Handler handles lead submission HTTP requests.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// NewHandler creates a new intake handler.
func NewHandler(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

// HandleSubmit processes a lead form submission.
// POST /api/v1/submissions
func (h *Handler) HandleSubmit(c *gin.Context) {
	req, ok := h.bindAndValidate(c)
	if !ok {
		return
	}

	outcome, err := h.service.Submit(c.Request.Context(), req, requestMeta(c), false)
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusOK, transport.SubmitResponse{
		Success:   true,
		VisitorID: outcome.VisitorID.String(),
		Message:   msgLeadCaptured,
	})
}

// HandleSubmitPartial processes a beacon-style partial submission sent on
// page unload. The browser never reads the response, so it answers 202 as
// soon as the pipeline finishes and always forces PARTIAL status.
// POST /api/v1/submissions/partial
func (h *Handler) HandleSubmitPartial(c *gin.Context) {
	req, ok := h.bindAndValidate(c)
	if !ok {
		return
	}

	outcome, err := h.service.Submit(c.Request.Context(), req, requestMeta(c), true)
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusAccepted, transport.SubmitResponse{
		Success:   true,
		VisitorID: outcome.VisitorID.String(),
	})
}

func (h *Handler) bindAndValidate(c *gin.Context) (transport.SubmitRequest, bool) {
	var req transport.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, nil)
		return transport.SubmitRequest{}, false
	}

	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation("validation failed").WithDetails(err.Error()))
		return transport.SubmitRequest{}, false
	}

	return req, true
}

func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{
		ForwardedFor: c.GetHeader("X-Forwarded-For"),
		RealIP:       c.GetHeader("X-Real-IP"),
		UserAgent:    c.GetHeader("User-Agent"),
		Referrer:     c.GetHeader("Referer"),
	}
}
