package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskPreferenceReminder asks a visitor to finish their learning profile.
const TaskPreferenceReminder = "intake.preference_reminder"

// PreferenceReminderPayload carries everything the worker needs so it can
// send without a database round trip.
type PreferenceReminderPayload struct {
	VisitorID          string `json:"visitorId"`
	Email              string `json:"email"`
	FirstName          string `json:"firstName"`
	MissingInterests   bool   `json:"missingInterests"`
	MissingPreferences bool   `json:"missingPreferences"`
}

// NewPreferenceReminderTask builds the asynq task for a reminder.
func NewPreferenceReminderTask(payload PreferenceReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPreferenceReminder, data), nil
}

// ParsePreferenceReminderPayload decodes a reminder task payload.
func ParsePreferenceReminderPayload(task *asynq.Task) (PreferenceReminderPayload, error) {
	var payload PreferenceReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PreferenceReminderPayload{}, err
	}
	return payload, nil
}
