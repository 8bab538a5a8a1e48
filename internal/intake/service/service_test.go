package service

import (
	"context"
	"testing"
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

// ---- fakes ----

type fakeVisitorStore struct {
	byEmail         map[string]domain.Visitor
	byID            map[uuid.UUID]domain.Visitor
	interests       map[uuid.UUID][]domain.InterestType
	preferences     map[uuid.UUID][]domain.PreferenceType
	replaceIntCalls int
	replacePreCalls int
	createErr       error
}

func newFakeVisitorStore() *fakeVisitorStore {
	return &fakeVisitorStore{
		byEmail:     map[string]domain.Visitor{},
		byID:        map[uuid.UUID]domain.Visitor{},
		interests:   map[uuid.UUID][]domain.InterestType{},
		preferences: map[uuid.UUID][]domain.PreferenceType{},
	}
}

func (f *fakeVisitorStore) FindByEmail(_ context.Context, email string) (domain.Visitor, error) {
	if v, ok := f.byEmail[email]; ok {
		return v, nil
	}
	return domain.Visitor{}, repository.ErrVisitorNotFound
}

func (f *fakeVisitorStore) Create(_ context.Context, v domain.Visitor) (domain.Visitor, error) {
	if f.createErr != nil {
		return domain.Visitor{}, f.createErr
	}
	v.ID = uuid.New()
	f.byID[v.ID] = v
	if v.Email != nil {
		f.byEmail[*v.Email] = v
	}
	return v, nil
}

func (f *fakeVisitorStore) Update(_ context.Context, v domain.Visitor) (domain.Visitor, error) {
	f.byID[v.ID] = v
	if v.Email != nil {
		f.byEmail[*v.Email] = v
	}
	return v, nil
}

func (f *fakeVisitorStore) ReplaceInterests(_ context.Context, id uuid.UUID, interests []domain.InterestType) error {
	f.replaceIntCalls++
	f.interests[id] = interests
	return nil
}

func (f *fakeVisitorStore) ReplacePreferences(_ context.Context, id uuid.UUID, preferences []domain.PreferenceType) error {
	f.replacePreCalls++
	f.preferences[id] = preferences
	return nil
}

func (f *fakeVisitorStore) ListInterests(_ context.Context, id uuid.UUID) ([]domain.InterestType, error) {
	return f.interests[id], nil
}

func (f *fakeVisitorStore) ListPreferences(_ context.Context, id uuid.UUID) ([]domain.PreferenceType, error) {
	return f.preferences[id], nil
}

type fakeSessionStore struct {
	sessions []domain.Session
	now      func() time.Time
}

func (f *fakeSessionStore) FindActive(_ context.Context, visitorID uuid.UUID, createdAfter time.Time) (domain.Session, error) {
	for i := len(f.sessions) - 1; i >= 0; i-- {
		s := f.sessions[i]
		if s.VisitorID == visitorID && !s.CreatedAt.Before(createdAfter) {
			return s, nil
		}
	}
	return domain.Session{}, repository.ErrSessionNotFound
}

func (f *fakeSessionStore) Create(_ context.Context, s domain.Session) (domain.Session, error) {
	s.ID = uuid.New()
	s.CreatedAt = f.now()
	s.UpdatedAt = s.CreatedAt
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *fakeSessionStore) UpdateContext(_ context.Context, s domain.Session) (domain.Session, error) {
	for i := range f.sessions {
		if f.sessions[i].ID == s.ID {
			s.CreatedAt = f.sessions[i].CreatedAt
			s.UpdatedAt = f.now()
			f.sessions[i] = s
			return s, nil
		}
	}
	return domain.Session{}, repository.ErrSessionNotFound
}

type relayOutcome struct {
	sent     bool
	response string
	sentAt   *time.Time
}

type fakeSubmissionStore struct {
	submissions []domain.FormSubmission
	outcomes    map[uuid.UUID]relayOutcome
}

func newFakeSubmissionStore() *fakeSubmissionStore {
	return &fakeSubmissionStore{outcomes: map[uuid.UUID]relayOutcome{}}
}

func (f *fakeSubmissionStore) Create(_ context.Context, s domain.FormSubmission) (domain.FormSubmission, error) {
	s.ID = uuid.New()
	f.submissions = append(f.submissions, s)
	return s, nil
}

func (f *fakeSubmissionStore) AttachRelayOutcome(_ context.Context, id uuid.UUID, sent bool, response string, sentAt *time.Time) error {
	f.outcomes[id] = relayOutcome{sent: sent, response: response, sentAt: sentAt}
	return nil
}

type fakeRelay struct {
	calls    int
	payloads []interface{}
	result   relay.Result
}

func (f *fakeRelay) Post(_ context.Context, _ string, payload interface{}) relay.Result {
	f.calls++
	f.payloads = append(f.payloads, payload)
	return f.result
}

type fakeBus struct {
	published []events.Event
}

func (f *fakeBus) Publish(_ context.Context, event events.Event) {
	f.published = append(f.published, event)
}

func (f *fakeBus) PublishSync(_ context.Context, event events.Event) error {
	f.published = append(f.published, event)
	return nil
}
func (f *fakeBus) Subscribe(string, events.Handler) {}

// ---- harness ----

type harness struct {
	svc         *Service
	visitors    *fakeVisitorStore
	sessions    *fakeSessionStore
	submissions *fakeSubmissionStore
	relay       *fakeRelay
	bus         *fakeBus
	clock       time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		visitors:    newFakeVisitorStore(),
		submissions: newFakeSubmissionStore(),
		relay:       &fakeRelay{result: relay.Result{Status: 200, Data: `{"ok":true}`}},
		bus:         &fakeBus{},
		clock:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	h.sessions = &fakeSessionStore{now: func() time.Time { return h.clock }}

	cfg := &config.Config{SessionWindow: 24 * time.Hour, DefaultPhoneRegion: "US"}
	h.svc = New(h.visitors, h.sessions, h.submissions, h.relay, h.bus, cfg, logger.New("development"))
	h.svc.now = func() time.Time { return h.clock }
	return h
}

func (h *harness) advance(d time.Duration) { h.clock = h.clock.Add(d) }

func boolPtr(b bool) *bool { return &b }

// ---- tests ----

func TestSubmitFullPipelineCompleted(t *testing.T) {
	h := newHarness(t)

	req := transport.SubmitRequest{
		FirstName: "Ana",
		LastName:  "Lee",
		Email:     "ana@x.com",
		IsPartial: boolPtr(false),
	}
	req.Interests.Present = true
	req.Interests.Raw = "ENGLISH"
	req.Preferences.Present = true
	req.Preferences.Raw = "VIDEO"

	outcome, err := h.svc.Submit(context.Background(), req, RequestMeta{}, false)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	visitor, ok := h.visitors.byEmail["ana@x.com"]
	if !ok {
		t.Fatalf("expected visitor stored under ana@x.com")
	}
	if outcome.VisitorID != visitor.ID {
		t.Fatalf("expected outcome visitor %s, got %s", visitor.ID, outcome.VisitorID)
	}

	if got := h.visitors.interests[visitor.ID]; len(got) != 1 || got[0] != domain.InterestEnglish {
		t.Fatalf("expected interests [ENGLISH], got %v", got)
	}
	if got := h.visitors.preferences[visitor.ID]; len(got) != 1 || got[0] != domain.PreferenceVideo {
		t.Fatalf("expected preferences [VIDEO], got %v", got)
	}

	if len(h.submissions.submissions) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(h.submissions.submissions))
	}
	sub := h.submissions.submissions[0]
	if sub.Status != domain.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", sub.Status)
	}
	if sub.SubmitTime == nil {
		t.Fatalf("expected submitTime set for a completed submission")
	}
	if !sub.Flags.PersonalInfo || !sub.Flags.ContactInfo || !sub.Flags.InterestsInfo || !sub.Flags.PreferencesInfo {
		t.Fatalf("expected presence flags true, got %+v", sub.Flags)
	}

	if h.relay.calls != 1 {
		t.Fatalf("expected one relay call, got %d", h.relay.calls)
	}
	payload := h.relay.payloads[0].(map[string]interface{})
	if payload["submission_status"] != "complete" {
		t.Fatalf("expected complete payload, got %v", payload["submission_status"])
	}
	if got := payload["interests"].([]string); len(got) != 1 || got[0] != "ENGLISH" {
		t.Fatalf("expected interests in payload, got %v", got)
	}

	recorded := h.submissions.outcomes[outcome.SubmissionID]
	if !recorded.sent || recorded.sentAt == nil {
		t.Fatalf("expected relay outcome marked sent, got %+v", recorded)
	}
}

func TestSubmitMergeNonEmptyWins(t *testing.T) {
	h := newHarness(t)

	first := transport.SubmitRequest{FirstName: "Jo", Email: "a@b.com", Bio: "loves languages", IsPartial: boolPtr(true)}
	if _, err := h.svc.Submit(context.Background(), first, RequestMeta{}, false); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	// The second submit omits bio; the stored value must survive the merge.
	second := transport.SubmitRequest{FirstName: "Jo", LastName: "Smith", Email: "a@b.com", IsPartial: boolPtr(true)}
	if _, err := h.svc.Submit(context.Background(), second, RequestMeta{}, false); err != nil {
		t.Fatalf("second submit failed: %v", err)
	}

	visitor := h.visitors.byEmail["a@b.com"]
	if visitor.FirstName != "Jo" || visitor.LastName != "Smith" {
		t.Fatalf("expected merged visitor Jo Smith, got %q %q", visitor.FirstName, visitor.LastName)
	}
	if visitor.Bio != "loves languages" {
		t.Fatalf("expected omitted bio to keep the stored value, got %q", visitor.Bio)
	}

	if len(h.visitors.byEmail) != 1 {
		t.Fatalf("expected a single visitor row per email, got %d", len(h.visitors.byEmail))
	}
}

func TestSubmitDuplicateEmailIsConflict(t *testing.T) {
	h := newHarness(t)
	h.visitors.createErr = repository.ErrDuplicateEmail

	req := transport.SubmitRequest{FirstName: "Ana", LastName: "Lee", Email: "ana@x.com"}
	_, err := h.svc.Submit(context.Background(), req, RequestMeta{}, false)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}

	if h.relay.calls != 0 {
		t.Fatalf("expected no relay attempt after persistence failure")
	}
}

func TestSubmitValidationFailsBeforePersistence(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Submit(context.Background(), transport.SubmitRequest{}, RequestMeta{}, false)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// lastName is required for a final submit.
	_, err = h.svc.Submit(context.Background(), transport.SubmitRequest{FirstName: "Ana"}, RequestMeta{}, false)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for missing lastName, got %v", err)
	}

	if len(h.visitors.byID) != 0 || len(h.submissions.submissions) != 0 {
		t.Fatalf("expected nothing persisted on validation failure")
	}
}

func TestSubmitPartialSkipsLastNameAndSubmitTime(t *testing.T) {
	h := newHarness(t)

	req := transport.SubmitRequest{FirstName: "Ana", Email: "ana@x.com", IsPartial: boolPtr(true)}
	if _, err := h.svc.Submit(context.Background(), req, RequestMeta{}, false); err != nil {
		t.Fatalf("expected partial submit to succeed without lastName, got %v", err)
	}

	sub := h.submissions.submissions[0]
	if sub.Status != domain.StatusPartial {
		t.Fatalf("expected PARTIAL, got %s", sub.Status)
	}
	if sub.SubmitTime != nil {
		t.Fatalf("expected no submitTime for a partial submission")
	}
}

func TestSessionReusedInsideWindowNewOutside(t *testing.T) {
	h := newHarness(t)

	req := transport.SubmitRequest{FirstName: "Ana", Email: "ana@x.com", IsPartial: boolPtr(true), UTMSource: "ads"}
	if _, err := h.svc.Submit(context.Background(), req, RequestMeta{}, false); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	h.advance(1 * time.Hour)
	req.UTMSource = ""
	req.UTMMedium = "cpc"
	if _, err := h.svc.Submit(context.Background(), req, RequestMeta{}, false); err != nil {
		t.Fatalf("second submit failed: %v", err)
	}

	if len(h.sessions.sessions) != 1 {
		t.Fatalf("expected session reuse inside the window, got %d sessions", len(h.sessions.sessions))
	}
	session := h.sessions.sessions[0]
	if session.UTMSource != "ads" || session.UTMMedium != "cpc" {
		t.Fatalf("expected non-empty-wins UTM refresh, got source=%q medium=%q", session.UTMSource, session.UTMMedium)
	}

	h.advance(25 * time.Hour)
	if _, err := h.svc.Submit(context.Background(), req, RequestMeta{}, false); err != nil {
		t.Fatalf("third submit failed: %v", err)
	}
	if len(h.sessions.sessions) != 2 {
		t.Fatalf("expected a new session outside the window, got %d sessions", len(h.sessions.sessions))
	}
}

func TestRelayFailureStillReportsLocalSuccess(t *testing.T) {
	h := newHarness(t)
	h.relay.result = relay.Result{Error: true, Message: "no response from webhook: dial tcp: refused"}

	req := transport.SubmitRequest{FirstName: "Ana", LastName: "Lee", Email: "ana@x.com"}
	outcome, err := h.svc.Submit(context.Background(), req, RequestMeta{}, false)
	if err != nil {
		t.Fatalf("relay failure must not fail the request, got %v", err)
	}
	if outcome.VisitorID == uuid.Nil {
		t.Fatalf("expected a valid visitorId despite relay failure")
	}
	if !outcome.Relay.Error {
		t.Fatalf("expected relay failure reported in the outcome")
	}

	recorded := h.submissions.outcomes[outcome.SubmissionID]
	if recorded.sent {
		t.Fatalf("expected sent_to_pabbly=false on relay failure")
	}
	if recorded.sentAt != nil {
		t.Fatalf("expected no pabbly_sent_at on relay failure")
	}
	if recorded.response == "" {
		t.Fatalf("expected failure payload stored on the submission row")
	}
}

func TestReplaceSetsDestructiveAcrossCallsButSkippedWhenEmpty(t *testing.T) {
	h := newHarness(t)

	req := transport.SubmitRequest{FirstName: "Ana", LastName: "Lee", Email: "ana@x.com"}
	req.Interests.Present = true
	req.Interests.IsArray = true
	req.Interests.Values = []string{"ENGLISH", "SPANISH"}
	if _, err := h.svc.Submit(context.Background(), req, RequestMeta{}, false); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	req.Interests.Values = []string{"FRENCH"}
	if _, err := h.svc.Submit(context.Background(), req, RequestMeta{}, false); err != nil {
		t.Fatalf("second submit failed: %v", err)
	}

	visitor := h.visitors.byEmail["ana@x.com"]
	if got := h.visitors.interests[visitor.ID]; len(got) != 1 || got[0] != domain.InterestFrench {
		t.Fatalf("expected replacement to leave exactly [FRENCH], got %v", got)
	}

	// An absent list leaves the stored set untouched.
	req.Interests = transport.FlexibleStringList{}
	if _, err := h.svc.Submit(context.Background(), req, RequestMeta{}, false); err != nil {
		t.Fatalf("third submit failed: %v", err)
	}
	if h.visitors.replaceIntCalls != 2 {
		t.Fatalf("expected no replace call for an empty list, got %d calls", h.visitors.replaceIntCalls)
	}
}

func TestBeaconPartialWithoutEmail(t *testing.T) {
	h := newHarness(t)

	req := transport.SubmitRequest{FirstName: "Ben", LastFieldSeen: "email", TimeSpent: 42}
	outcome, err := h.svc.Submit(context.Background(), req, RequestMeta{}, true)
	if err != nil {
		t.Fatalf("beacon submit failed: %v", err)
	}

	if len(h.visitors.byID) != 1 {
		t.Fatalf("expected a fresh visitor without a dedup key, got %d", len(h.visitors.byID))
	}
	sub := h.submissions.submissions[0]
	if sub.Status != domain.StatusPartial {
		t.Fatalf("expected PARTIAL for a beacon ping, got %s", sub.Status)
	}
	// firstName alone does not satisfy personalInfo.
	if sub.Flags.PersonalInfo {
		t.Fatalf("expected personalInfo=false with only firstName present")
	}
	if sub.Flags.ContactInfo {
		t.Fatalf("expected contactInfo=false without email or phone")
	}
	if sub.LastFieldSeen != "email" || sub.TimeSpent != 42 {
		t.Fatalf("expected telemetry carried onto the row, got %+v", sub)
	}

	// The recorded event carries no email, so no reminder can be attempted.
	recorded := h.bus.published[0].(events.SubmissionRecorded)
	if recorded.Email != "" {
		t.Fatalf("expected empty email on the event, got %q", recorded.Email)
	}
	if recorded.VisitorID != outcome.VisitorID {
		t.Fatalf("expected event visitor to match outcome")
	}
}

func TestSubmitDeduplicatesRepeatedInterestTokens(t *testing.T) {
	h := newHarness(t)

	// Both tokens resolve to ENGLISH; the stored set takes a single row.
	req := transport.SubmitRequest{FirstName: "Ana", LastName: "Lee", Email: "ana@x.com"}
	req.Interests.Present = true
	req.Interests.Raw = "english, ENGLISH"

	if _, err := h.svc.Submit(context.Background(), req, RequestMeta{}, false); err != nil {
		t.Fatalf("duplicate tokens must not fail the submit, got %v", err)
	}

	visitor := h.visitors.byEmail["ana@x.com"]
	if got := h.visitors.interests[visitor.ID]; len(got) != 1 || got[0] != domain.InterestEnglish {
		t.Fatalf("expected deduplicated [ENGLISH], got %v", got)
	}
}

func TestRelayAndReminderSeeStoredSets(t *testing.T) {
	h := newHarness(t)

	// An earlier submission already captured an interest for this visitor.
	id := uuid.New()
	email := "ana@x.com"
	existing := domain.Visitor{ID: id, FirstName: "Ana", LastName: "Lee", Email: &email}
	h.visitors.byID[id] = existing
	h.visitors.byEmail[email] = existing
	h.visitors.interests[id] = []domain.InterestType{domain.InterestSpanish}

	req := transport.SubmitRequest{FirstName: "Ana", LastName: "Lee", Email: email}
	if _, err := h.svc.Submit(context.Background(), req, RequestMeta{}, false); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	payload := h.relay.payloads[0].(map[string]interface{})
	if got := payload["interests"].([]string); len(got) != 1 || got[0] != "SPANISH" {
		t.Fatalf("expected stored interests relayed, got %v", got)
	}

	recorded := h.bus.published[0].(events.SubmissionRecorded)
	if recorded.MissingInterests {
		t.Fatalf("expected stored interests to suppress the missing flag")
	}
	if !recorded.MissingPreferences {
		t.Fatalf("expected preferences still reported missing, got %+v", recorded)
	}
}

func TestRecordedEventMarksMissingSections(t *testing.T) {
	h := newHarness(t)

	req := transport.SubmitRequest{FirstName: "Ana", LastName: "Lee", Email: "ana@x.com"}
	if _, err := h.svc.Submit(context.Background(), req, RequestMeta{}, false); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if len(h.bus.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(h.bus.published))
	}
	recorded := h.bus.published[0].(events.SubmissionRecorded)
	if !recorded.Completed || !recorded.MissingInterests || !recorded.MissingPreferences {
		t.Fatalf("expected completed event with both sections missing, got %+v", recorded)
	}
	if recorded.Email != "ana@x.com" {
		t.Fatalf("expected email on the event, got %q", recorded.Email)
	}
}
