// Package email provides outbound email delivery for the application.
package email

import "context"

// Sender delivers application emails. Implementations must treat delivery as
// best effort; callers log failures and never surface them to visitors.
type Sender interface {
	// SendPreferenceReminderEmail asks a visitor to finish the parts of their
	// learning profile described by missingDescription.
	SendPreferenceReminderEmail(ctx context.Context, toEmail, firstName, missingDescription string) error
	// SendCustomEmail delivers an arbitrary HTML email.
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

// MissingSectionsDescription derives the "what's missing" wording for the
// reminder email from which profile sections are absent.
func MissingSectionsDescription(missingInterests, missingPreferences bool) string {
	switch {
	case missingInterests && missingPreferences:
		return "learning topics and preferences"
	case missingInterests:
		return "learning topics"
	case missingPreferences:
		return "learning preferences"
	default:
		return ""
	}
}

// NoopSender is used when no SMTP server is configured. Sends succeed
// silently so the pipeline's best-effort semantics hold in development.
type NoopSender struct{}

// SendPreferenceReminderEmail implements Sender.
func (NoopSender) SendPreferenceReminderEmail(context.Context, string, string, string) error {
	return nil
}

// SendCustomEmail implements Sender.
func (NoopSender) SendCustomEmail(context.Context, string, string, string) error {
	return nil
}
