// Package service implements the lead submission pipeline: normalize the raw
// request, reconcile the visitor by email, attach a time-windowed session,
// record the submission event, relay to the marketing webhook, and publish
// the recorded event for the notification module.
package service

import (
	"context"
	"errors"
	"time"

	"edpulse_backend/internal/events"
	"edpulse_backend/internal/intake/domain"
	"edpulse_backend/internal/intake/repository"
	"edpulse_backend/internal/intake/transport"
	"edpulse_backend/internal/relay"
	"edpulse_backend/platform/apperr"
	"edpulse_backend/platform/config"
	"edpulse_backend/platform/logger"

	"github.com/google/uuid"
)

// VisitorStore is the persistence surface the pipeline needs for visitors.
type VisitorStore interface {
	FindByEmail(ctx context.Context, email string) (domain.Visitor, error)
	Create(ctx context.Context, v domain.Visitor) (domain.Visitor, error)
	Update(ctx context.Context, v domain.Visitor) (domain.Visitor, error)
	ReplaceInterests(ctx context.Context, visitorID uuid.UUID, interests []domain.InterestType) error
	ReplacePreferences(ctx context.Context, visitorID uuid.UUID, preferences []domain.PreferenceType) error
	ListInterests(ctx context.Context, visitorID uuid.UUID) ([]domain.InterestType, error)
	ListPreferences(ctx context.Context, visitorID uuid.UUID) ([]domain.PreferenceType, error)
}

// SessionStore is the persistence surface for sessions.
type SessionStore interface {
	FindActive(ctx context.Context, visitorID uuid.UUID, createdAfter time.Time) (domain.Session, error)
	Create(ctx context.Context, s domain.Session) (domain.Session, error)
	UpdateContext(ctx context.Context, s domain.Session) (domain.Session, error)
}

// SubmissionStore is the persistence surface for form submissions.
type SubmissionStore interface {
	Create(ctx context.Context, s domain.FormSubmission) (domain.FormSubmission, error)
	AttachRelayOutcome(ctx context.Context, id uuid.UUID, sent bool, response string, sentAt *time.Time) error
}

// RelaySender posts payloads to a named webhook and classifies the outcome.
type RelaySender interface {
	Post(ctx context.Context, name string, payload interface{}) relay.Result
}

// Outcome is the pipeline result for one submission.
type Outcome struct {
	VisitorID    uuid.UUID
	SubmissionID uuid.UUID
	Status       domain.SubmissionStatus
	Relay        relay.Result
}

// Service orchestrates the submission pipeline.
type Service struct {
	visitors      VisitorStore
	sessions      SessionStore
	submissions   SubmissionStore
	relay         RelaySender
	bus           events.Bus
	log           *logger.Logger
	sessionWindow time.Duration
	phoneRegion   string
	now           func() time.Time
}

// New creates the intake service.
func New(visitors VisitorStore, sessions SessionStore, submissions SubmissionStore, sender RelaySender, bus events.Bus, cfg config.IntakeConfig, log *logger.Logger) *Service {
	window := cfg.GetSessionWindow()
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Service{
		visitors:      visitors,
		sessions:      sessions,
		submissions:   submissions,
		relay:         sender,
		bus:           bus,
		log:           log,
		sessionWindow: window,
		phoneRegion:   cfg.GetDefaultPhoneRegion(),
		now:           time.Now,
	}
}

// Submit runs the full pipeline for one submission event.
// Validation and persistence errors abort with a typed error; relay and
// reminder failures are recorded or logged, never propagated.
func (s *Service) Submit(ctx context.Context, req transport.SubmitRequest, meta RequestMeta, forcePartial bool) (Outcome, error) {
	lead, err := s.normalize(req, meta, forcePartial)
	if err != nil {
		return Outcome{}, err
	}

	visitor, err := s.reconcileVisitor(ctx, lead)
	if err != nil {
		return Outcome{}, err
	}

	log := s.log.WithVisitorID(visitor.ID.String())

	if len(lead.Interests) > 0 {
		if err := s.visitors.ReplaceInterests(ctx, visitor.ID, lead.Interests); err != nil {
			log.DatabaseError("replace_interests", err)
			return Outcome{}, apperr.Wrap(apperr.KindInternal, "failed to store interests", err)
		}
	}
	if len(lead.Preferences) > 0 {
		if err := s.visitors.ReplacePreferences(ctx, visitor.ID, lead.Preferences); err != nil {
			log.DatabaseError("replace_preferences", err)
			return Outcome{}, apperr.Wrap(apperr.KindInternal, "failed to store preferences", err)
		}
	}

	session, err := s.reconcileSession(ctx, visitor.ID, lead)
	if err != nil {
		log.DatabaseError("reconcile_session", err)
		return Outcome{}, apperr.Wrap(apperr.KindInternal, "failed to track session", err)
	}

	submission, err := s.recordSubmission(ctx, visitor.ID, session.ID, lead)
	if err != nil {
		log.DatabaseError("record_submission", err)
		return Outcome{}, apperr.Wrap(apperr.KindInternal, "failed to record submission", err)
	}

	// Local capture succeeded; everything from here on is best effort.
	// The webhook and the reminder decision see the visitor's stored sets,
	// which may include interests captured by earlier submissions.
	interests, preferences := s.storedSets(ctx, visitor.ID, lead)

	result := s.relayToWebhook(ctx, visitor, session, submission, interests, preferences)

	s.publishRecorded(ctx, visitor, lead, interests, preferences)

	return Outcome{
		VisitorID:    visitor.ID,
		SubmissionID: submission.ID,
		Status:       submission.Status,
		Relay:        result,
	}, nil
}

// reconcileVisitor maps the lead onto a persisted visitor. When the email
// matches an existing row, new values win only when non-empty.
func (s *Service) reconcileVisitor(ctx context.Context, lead domain.Lead) (domain.Visitor, error) {
	if lead.Email != "" {
		existing, err := s.visitors.FindByEmail(ctx, lead.Email)
		switch {
		case err == nil:
			merged := mergeVisitor(existing, lead)
			updated, err := s.visitors.Update(ctx, merged)
			if err != nil {
				return domain.Visitor{}, s.mapVisitorError("update_visitor", err)
			}
			return updated, nil
		case errors.Is(err, repository.ErrVisitorNotFound):
			// Fall through to create.
		default:
			return domain.Visitor{}, s.mapVisitorError("find_visitor", err)
		}
	}

	created, err := s.visitors.Create(ctx, visitorFromLead(lead))
	if err != nil {
		return domain.Visitor{}, s.mapVisitorError("create_visitor", err)
	}
	return created, nil
}

func (s *Service) mapVisitorError(op string, err error) error {
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return apperr.Conflict("this email is already registered").WithOp(op)
	}
	s.log.DatabaseError(op, err)
	return apperr.Wrap(apperr.KindInternal, "failed to save visitor", err).WithOp(op)
}

func visitorFromLead(lead domain.Lead) domain.Visitor {
	visitor := domain.Visitor{
		FirstName:  lead.FirstName,
		LastName:   lead.LastName,
		Phone:      lead.Phone,
		Age:        lead.Age,
		Reasons:    lead.Reasons,
		Occupation: lead.Occupation,
		Company:    lead.Company,
		Department: lead.Department,
		Bio:        lead.Bio,
	}
	if lead.Email != "" {
		email := lead.Email
		visitor.Email = &email
	}
	return visitor
}

// mergeVisitor applies the non-empty-wins rule field by field.
func mergeVisitor(existing domain.Visitor, lead domain.Lead) domain.Visitor {
	merged := existing
	merged.FirstName = pickNonEmpty(lead.FirstName, existing.FirstName)
	merged.LastName = pickNonEmpty(lead.LastName, existing.LastName)
	merged.Phone = pickNonEmpty(lead.Phone, existing.Phone)
	merged.Reasons = pickNonEmpty(lead.Reasons, existing.Reasons)
	merged.Occupation = pickNonEmpty(lead.Occupation, existing.Occupation)
	merged.Company = pickNonEmpty(lead.Company, existing.Company)
	merged.Department = pickNonEmpty(lead.Department, existing.Department)
	merged.Bio = pickNonEmpty(lead.Bio, existing.Bio)
	if lead.Age != nil {
		merged.Age = lead.Age
	}
	return merged
}

func pickNonEmpty(incoming, stored string) string {
	if incoming != "" {
		return incoming
	}
	return stored
}

// reconcileSession reuses the most recent session inside the rolling window,
// refreshing its UTM/referrer fields non-empty-wins; outside the window a new
// session is created with the derived device fingerprint.
func (s *Service) reconcileSession(ctx context.Context, visitorID uuid.UUID, lead domain.Lead) (domain.Session, error) {
	cutoff := s.now().Add(-s.sessionWindow)
	active, err := s.sessions.FindActive(ctx, visitorID, cutoff)
	switch {
	case err == nil:
		active.Referrer = pickNonEmpty(lead.Referrer, active.Referrer)
		active.UTMSource = pickNonEmpty(lead.UTMSource, active.UTMSource)
		active.UTMMedium = pickNonEmpty(lead.UTMMedium, active.UTMMedium)
		active.UTMCampaign = pickNonEmpty(lead.UTMCampaign, active.UTMCampaign)
		return s.sessions.UpdateContext(ctx, active)
	case errors.Is(err, repository.ErrSessionNotFound):
		// Fall through to create.
	default:
		return domain.Session{}, err
	}

	client := domain.ParseUserAgent(lead.UserAgent)
	return s.sessions.Create(ctx, domain.Session{
		VisitorID:   visitorID,
		IPAddress:   lead.IPAddress,
		UserAgent:   lead.UserAgent,
		Referrer:    lead.Referrer,
		UTMSource:   lead.UTMSource,
		UTMMedium:   lead.UTMMedium,
		UTMCampaign: lead.UTMCampaign,
		Browser:     client.Browser,
		DeviceType:  client.DeviceType,
		OS:          client.OS,
	})
}

func (s *Service) recordSubmission(ctx context.Context, visitorID, sessionID uuid.UUID, lead domain.Lead) (domain.FormSubmission, error) {
	now := s.now()
	submission := domain.FormSubmission{
		VisitorID:     visitorID,
		SessionID:     sessionID,
		Status:        lead.Status(),
		Flags:         lead.Completeness(),
		LastFieldSeen: lead.LastFieldSeen,
		TimeSpent:     lead.TimeSpent,
		StartTime:     now.Add(-time.Duration(lead.TimeSpent) * time.Second),
	}
	if submission.Status == domain.StatusCompleted {
		submitTime := now
		submission.SubmitTime = &submitTime
	}
	return s.submissions.Create(ctx, submission)
}

// storedSets reads the visitor's persisted interest and preference rows.
// Read failures degrade to the current request's lists with a logged error.
func (s *Service) storedSets(ctx context.Context, visitorID uuid.UUID, lead domain.Lead) ([]domain.InterestType, []domain.PreferenceType) {
	interests, err := s.visitors.ListInterests(ctx, visitorID)
	if err != nil {
		s.log.DatabaseError("list_interests", err)
		interests = lead.Interests
	}
	preferences, err := s.visitors.ListPreferences(ctx, visitorID)
	if err != nil {
		s.log.DatabaseError("list_preferences", err)
		preferences = lead.Preferences
	}
	return interests, preferences
}

// relayToWebhook posts the payload and attaches the outcome to the
// submission row. A dead webhook never fails the request.
func (s *Service) relayToWebhook(ctx context.Context, visitor domain.Visitor, session domain.Session, submission domain.FormSubmission, interests []domain.InterestType, preferences []domain.PreferenceType) relay.Result {
	payload := relay.BuildPayload(visitor, session, submission, interests, preferences)
	result := s.relay.Post(ctx, relay.EndpointPabbly, payload)

	var sentAt *time.Time
	if !result.Error {
		now := s.now()
		sentAt = &now
	}
	if err := s.submissions.AttachRelayOutcome(ctx, submission.ID, !result.Error, result.Serialize(), sentAt); err != nil {
		s.log.DatabaseError("attach_relay_outcome", err)
	}

	return result
}

func (s *Service) publishRecorded(ctx context.Context, visitor domain.Visitor, lead domain.Lead, interests []domain.InterestType, preferences []domain.PreferenceType) {
	if s.bus == nil {
		return
	}
	email := ""
	if visitor.Email != nil {
		email = *visitor.Email
	}
	s.bus.Publish(ctx, events.SubmissionRecorded{
		BaseEvent:          events.NewBaseEvent(),
		VisitorID:          visitor.ID,
		Email:              email,
		FirstName:          visitor.FirstName,
		Completed:          lead.Status() == domain.StatusCompleted,
		MissingInterests:   len(interests) == 0,
		MissingPreferences: len(preferences) == 0,
	})
}
