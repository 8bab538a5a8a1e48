package notification

import (
	"context"
	"errors"
	"testing"

	"edpulse_backend/internal/events"
	"edpulse_backend/internal/scheduler"
	"edpulse_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) SendPreferenceReminderEmail(_ context.Context, toEmail, _, _ string) error {
	f.sent = append(f.sent, toEmail)
	return f.err
}

func (f *fakeSender) SendCustomEmail(context.Context, string, string, string) error { return nil }

type fakeReminderScheduler struct {
	enqueued []scheduler.PreferenceReminderPayload
	err      error
}

func (f *fakeReminderScheduler) EnqueuePreferenceReminder(_ context.Context, payload scheduler.PreferenceReminderPayload) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, payload)
	return nil
}

func recordedEvent(completed bool, email string, missingInterests, missingPreferences bool) events.SubmissionRecorded {
	return events.SubmissionRecorded{
		BaseEvent:          events.NewBaseEvent(),
		VisitorID:          uuid.New(),
		Email:              email,
		FirstName:          "Ana",
		Completed:          completed,
		MissingInterests:   missingInterests,
		MissingPreferences: missingPreferences,
	}
}

func TestReminderSentInlineWhenDue(t *testing.T) {
	sender := &fakeSender{}
	m := New(sender, logger.New("development"))

	err := m.onSubmissionRecorded(context.Background(), recordedEvent(true, "ana@x.com", true, true))
	if err != nil {
		t.Fatalf("handler must not propagate errors, got %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "ana@x.com" {
		t.Fatalf("expected one reminder to ana@x.com, got %v", sender.sent)
	}
}

func TestReminderSkipped(t *testing.T) {
	cases := map[string]events.SubmissionRecorded{
		"partial submission":   recordedEvent(false, "ana@x.com", true, true),
		"no email captured":    recordedEvent(true, "", true, true),
		"interests present":    recordedEvent(true, "ana@x.com", false, true),
		"preferences present":  recordedEvent(true, "ana@x.com", true, false),
		"profile complete":     recordedEvent(true, "ana@x.com", false, false),
	}
	for name, event := range cases {
		sender := &fakeSender{}
		m := New(sender, logger.New("development"))
		if err := m.onSubmissionRecorded(context.Background(), event); err != nil {
			t.Fatalf("%s: handler returned %v", name, err)
		}
		if len(sender.sent) != 0 {
			t.Fatalf("%s: expected no reminder, got %v", name, sender.sent)
		}
	}
}

func TestReminderPrefersQueue(t *testing.T) {
	sender := &fakeSender{}
	reminders := &fakeReminderScheduler{}
	m := New(sender, logger.New("development"))
	m.SetReminderScheduler(reminders)

	if err := m.onSubmissionRecorded(context.Background(), recordedEvent(true, "ana@x.com", true, true)); err != nil {
		t.Fatalf("handler returned %v", err)
	}
	if len(reminders.enqueued) != 1 {
		t.Fatalf("expected one enqueued reminder, got %d", len(reminders.enqueued))
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no inline send when the queue accepted the task")
	}
	if got := reminders.enqueued[0]; got.Email != "ana@x.com" || !got.MissingInterests {
		t.Fatalf("expected payload carried onto the task, got %+v", got)
	}
}

func TestReminderFallsBackInlineOnQueueFailure(t *testing.T) {
	sender := &fakeSender{}
	reminders := &fakeReminderScheduler{err: errors.New("redis down")}
	m := New(sender, logger.New("development"))
	m.SetReminderScheduler(reminders)

	if err := m.onSubmissionRecorded(context.Background(), recordedEvent(true, "ana@x.com", true, true)); err != nil {
		t.Fatalf("handler returned %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected inline fallback send, got %v", sender.sent)
	}
}

func TestReminderSendFailureSwallowed(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp refused")}
	m := New(sender, logger.New("development"))

	if err := m.onSubmissionRecorded(context.Background(), recordedEvent(true, "ana@x.com", true, true)); err != nil {
		t.Fatalf("send failures must be swallowed, got %v", err)
	}
}
