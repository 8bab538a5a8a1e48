package domain

import (
	"time"

	"github.com/google/uuid"
)

// Visitor is the lead identity record. Email, when present, is the
// de-duplication key; at most one visitor exists per non-null email.
type Visitor struct {
	ID         uuid.UUID
	FirstName  string
	LastName   string
	Email      *string
	Phone      string
	Age        *int
	Reasons    string
	Occupation string
	Company    string
	Department string
	Bio        string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Session is one browsing context. A visitor has at most one active session
// per rolling window; outside the window a fresh session is created.
type Session struct {
	ID          uuid.UUID
	VisitorID   uuid.UUID
	IPAddress   string
	UserAgent   string
	Referrer    string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	Browser     string
	DeviceType  string
	OS          string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CompletenessFlags are the five independent booleans recorded per submission.
// They are computed from field presence, never from the submission status.
type CompletenessFlags struct {
	PersonalInfo    bool
	ContactInfo     bool
	ReasonsInfo     bool
	InterestsInfo   bool
	PreferencesInfo bool
}

// FormSubmission records one submission event. Rows are append-only; the only
// in-place update is attaching the relay outcome after the webhook call.
type FormSubmission struct {
	ID             uuid.UUID
	VisitorID      uuid.UUID
	SessionID      uuid.UUID
	Status         SubmissionStatus
	Flags          CompletenessFlags
	LastFieldSeen  string
	TimeSpent      int
	StartTime      time.Time
	SubmitTime     *time.Time
	SentToPabbly   bool
	PabblyResponse *string
	PabblySentAt   *time.Time
	CreatedAt      time.Time
}

// Lead is the canonical submission produced by the intake normalizer.
// Interests and preferences are already resolved to enum members.
type Lead struct {
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Age           *int
	Reasons       string
	Occupation    string
	Company       string
	Department    string
	Bio           string
	Interests     []InterestType
	Preferences   []PreferenceType
	IsPartial     bool
	LastFieldSeen string
	TimeSpent     int
	UserAgent     string
	Referrer      string
	UTMSource     string
	UTMMedium     string
	UTMCampaign   string
	IPAddress     string
}

// Completeness computes the five completeness flags from the normalized lead.
// personalInfo requires both first and last name.
func (l Lead) Completeness() CompletenessFlags {
	return CompletenessFlags{
		PersonalInfo:    l.FirstName != "" && l.LastName != "",
		ContactInfo:     l.Email != "" || l.Phone != "",
		ReasonsInfo:     l.Reasons != "",
		InterestsInfo:   len(l.Interests) > 0,
		PreferencesInfo: len(l.Preferences) > 0,
	}
}

// Status classifies the lead from the caller's isPartial signal.
// An omitted flag means a final submit.
func (l Lead) Status() SubmissionStatus {
	if l.IsPartial {
		return StatusPartial
	}
	return StatusCompleted
}
