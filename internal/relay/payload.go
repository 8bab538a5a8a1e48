package relay

import (
	"time"

	"edpulse_backend/internal/intake/domain"
)

// BuildPayload shapes the webhook payload for one recorded submission.
// Completed and partial submissions share the envelope but differ in the
// analytics block and in when the interest/preference arrays are included.
func BuildPayload(visitor domain.Visitor, session domain.Session, submission domain.FormSubmission, interests []domain.InterestType, preferences []domain.PreferenceType) map[string]interface{} {
	payload := map[string]interface{}{
		"event_type": "form_submission",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"company":    visitor.Company,
		"department": visitor.Department,
		"visitor": map[string]interface{}{
			"id":         visitor.ID.String(),
			"first_name": visitor.FirstName,
			"last_name":  visitor.LastName,
			"email":      stringOrEmpty(visitor.Email),
			"phone":      visitor.Phone,
			"age":        visitor.Age,
			"occupation": visitor.Occupation,
			"reasons":    visitor.Reasons,
		},
		"session": map[string]interface{}{
			"id":           session.ID.String(),
			"referrer":     session.Referrer,
			"browser":      session.Browser,
			"device_type":  session.DeviceType,
			"os":           session.OS,
			"utm_source":   session.UTMSource,
			"utm_medium":   session.UTMMedium,
			"utm_campaign": session.UTMCampaign,
		},
	}

	analytics := map[string]interface{}{
		"submission_id":      submission.ID.String(),
		"start_time":         submission.StartTime.UTC().Format(time.RFC3339),
		"time_spent_seconds": submission.TimeSpent,
	}

	if submission.Status == domain.StatusCompleted {
		payload["submission_status"] = "complete"
		payload["interests"] = interestStrings(interests)
		payload["preferences"] = preferenceStrings(preferences)
		if submission.SubmitTime != nil {
			analytics["submit_time"] = submission.SubmitTime.UTC().Format(time.RFC3339)
		}
	} else {
		payload["submission_status"] = "partial"
		if submission.Flags.InterestsInfo {
			payload["interests"] = interestStrings(interests)
		}
		if submission.Flags.PreferencesInfo {
			payload["preferences"] = preferenceStrings(preferences)
		}
		analytics["dropout_time"] = time.Now().UTC().Format(time.RFC3339)
		analytics["last_field_seen"] = submission.LastFieldSeen
		analytics["completed_sections"] = map[string]bool{
			"personal_info":    submission.Flags.PersonalInfo,
			"contact_info":     submission.Flags.ContactInfo,
			"reasons_info":     submission.Flags.ReasonsInfo,
			"interests_info":   submission.Flags.InterestsInfo,
			"preferences_info": submission.Flags.PreferencesInfo,
		}
	}

	payload["form_analytics"] = analytics
	return payload
}

func interestStrings(interests []domain.InterestType) []string {
	result := make([]string, 0, len(interests))
	for _, interest := range interests {
		result = append(result, string(interest))
	}
	return result
}

func preferenceStrings(preferences []domain.PreferenceType) []string {
	result := make([]string, 0, len(preferences))
	for _, preference := range preferences {
		result = append(result, string(preference))
	}
	return result
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
