package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"edpulse_backend/internal/intake/domain"
	"edpulse_backend/internal/intake/repository"
	"edpulse_backend/internal/intake/service"
	"edpulse_backend/internal/intake/transport"
	"edpulse_backend/internal/relay"
	"edpulse_backend/platform/config"
	"edpulse_backend/platform/logger"
	"edpulse_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type stubVisitorStore struct{}

func (stubVisitorStore) FindByEmail(context.Context, string) (domain.Visitor, error) {
	return domain.Visitor{}, repository.ErrVisitorNotFound
}

func (stubVisitorStore) Create(_ context.Context, v domain.Visitor) (domain.Visitor, error) {
	v.ID = uuid.New()
	return v, nil
}

func (stubVisitorStore) Update(_ context.Context, v domain.Visitor) (domain.Visitor, error) {
	return v, nil
}

func (stubVisitorStore) ReplaceInterests(context.Context, uuid.UUID, []domain.InterestType) error {
	return nil
}

func (stubVisitorStore) ReplacePreferences(context.Context, uuid.UUID, []domain.PreferenceType) error {
	return nil
}

func (stubVisitorStore) ListInterests(context.Context, uuid.UUID) ([]domain.InterestType, error) {
	return nil, nil
}

func (stubVisitorStore) ListPreferences(context.Context, uuid.UUID) ([]domain.PreferenceType, error) {
	return nil, nil
}

type stubSessionStore struct{}

func (stubSessionStore) FindActive(context.Context, uuid.UUID, time.Time) (domain.Session, error) {
	return domain.Session{}, repository.ErrSessionNotFound
}

func (stubSessionStore) Create(_ context.Context, s domain.Session) (domain.Session, error) {
	s.ID = uuid.New()
	return s, nil
}

func (stubSessionStore) UpdateContext(_ context.Context, s domain.Session) (domain.Session, error) {
	return s, nil
}

type stubSubmissionStore struct{}

func (stubSubmissionStore) Create(_ context.Context, s domain.FormSubmission) (domain.FormSubmission, error) {
	s.ID = uuid.New()
	return s, nil
}

func (stubSubmissionStore) AttachRelayOutcome(context.Context, uuid.UUID, bool, string, *time.Time) error {
	return nil
}

type stubRelay struct{}

func (stubRelay) Post(context.Context, string, interface{}) relay.Result {
	return relay.Result{Status: 200}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{SessionWindow: 24 * time.Hour, DefaultPhoneRegion: "US"}
	svc := service.New(stubVisitorStore{}, stubSessionStore{}, stubSubmissionStore{}, stubRelay{}, nil, cfg, logger.New("development"))
	h := NewHandler(svc, validator.New())

	router := gin.New()
	router.POST("/api/v1/submissions", h.HandleSubmit)
	router.POST("/api/v1/submissions/partial", h.HandleSubmitPartial)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleSubmitReturnsVisitorID(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/submissions", `{"firstName":"Ana","lastName":"Lee","email":"ana@x.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp transport.SubmitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.VisitorID == "" {
		t.Fatalf("expected success with a visitorId, got %+v", resp)
	}
}

func TestHandleSubmitPartialAccepted(t *testing.T) {
	router := newTestRouter(t)

	// Beacon pings force PARTIAL even without isPartial in the body.
	rec := postJSON(t, router, "/api/v1/submissions/partial", `{"firstName":"Ben","lastFieldSeen":"email","timeSpent":42}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleSubmitMalformedBody(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/submissions", `{"firstName":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Fatalf("expected success=false envelope, got %s", rec.Body.String())
	}
}

func TestHandleSubmitValidationFailures(t *testing.T) {
	router := newTestRouter(t)

	// Missing firstName is rejected by the pipeline.
	rec := postJSON(t, router, "/api/v1/submissions", `{"lastName":"Lee"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing firstName, got %d", rec.Code)
	}

	// A malformed email is rejected by struct validation.
	rec = postJSON(t, router, "/api/v1/submissions", `{"firstName":"Ana","lastName":"Lee","email":"not-an-email"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad email, got %d", rec.Code)
	}

	// Unexpected list types degrade instead of failing the request.
	rec = postJSON(t, router, "/api/v1/submissions", `{"firstName":"Ana","lastName":"Lee","interests":42}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected degraded accept for numeric interests, got %d: %s", rec.Code, rec.Body.String())
	}
}
