// Package events defines the domain events exchanged between modules and
// re-exports the platform bus types so modules import a single package.
package events

import (
	"edpulse_backend/platform/events"

	"github.com/google/uuid"
)

// Re-exported platform types.
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// NewBaseEvent creates a base event stamped with the current time.
func NewBaseEvent() BaseEvent { return events.NewBaseEvent() }

// SubmissionRecordedName identifies the SubmissionRecorded event.
const SubmissionRecordedName = "intake.submission_recorded"

// SubmissionRecorded is published after a form submission has been persisted
// locally. The notification module uses it to decide whether a profile
// reminder email is due.
type SubmissionRecorded struct {
	BaseEvent
	VisitorID          uuid.UUID
	Email              string
	FirstName          string
	Completed          bool
	MissingInterests   bool
	MissingPreferences bool
}

// EventName implements Event.
func (SubmissionRecorded) EventName() string { return SubmissionRecordedName }
