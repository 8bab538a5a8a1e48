// Package notification reacts to domain events with outbound messages.
// It subscribes to the event bus and is not HTTP-facing.
package notification

import (
	"context"

	"edpulse_backend/internal/email"
	"edpulse_backend/internal/events"
	"edpulse_backend/internal/scheduler"
	"edpulse_backend/platform/logger"
)

// Module delivers the profile reminder email. When a scheduler client is
// configured the reminder is queued for background delivery; otherwise it is
// sent inline. Either way failures are logged and swallowed.
type Module struct {
	sender    email.Sender
	reminders scheduler.ReminderScheduler
	log       *logger.Logger
}

// New creates the notification module.
func New(sender email.Sender, log *logger.Logger) *Module {
	return &Module{sender: sender, log: log}
}

// SetReminderScheduler wires the optional asynq-backed scheduler.
func (m *Module) SetReminderScheduler(reminders scheduler.ReminderScheduler) {
	m.reminders = reminders
}

// RegisterHandlers subscribes the module to the events it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.SubmissionRecordedName, events.HandlerFunc(m.onSubmissionRecorded))
}

func (m *Module) onSubmissionRecorded(ctx context.Context, event events.Event) error {
	recorded, ok := event.(events.SubmissionRecorded)
	if !ok {
		return nil
	}

	// Reminder is due only for a completed submission that captured an email
	// but neither interests nor preferences.
	if !recorded.Completed || recorded.Email == "" {
		return nil
	}
	if !recorded.MissingInterests || !recorded.MissingPreferences {
		return nil
	}

	if m.reminders != nil {
		err := m.reminders.EnqueuePreferenceReminder(ctx, scheduler.PreferenceReminderPayload{
			VisitorID:          recorded.VisitorID.String(),
			Email:              recorded.Email,
			FirstName:          recorded.FirstName,
			MissingInterests:   recorded.MissingInterests,
			MissingPreferences: recorded.MissingPreferences,
		})
		if err == nil {
			return nil
		}
		// Queue unavailable; fall back to sending inline.
		m.log.Warn("reminder_enqueue_failed_sending_inline", "error", err.Error())
	}

	description := email.MissingSectionsDescription(recorded.MissingInterests, recorded.MissingPreferences)
	if err := m.sender.SendPreferenceReminderEmail(ctx, recorded.Email, recorded.FirstName, description); err != nil {
		m.log.EmailEvent("preference_reminder", recorded.Email, false, err.Error())
		return nil
	}

	m.log.EmailEvent("preference_reminder", recorded.Email, true, "")
	return nil
}
