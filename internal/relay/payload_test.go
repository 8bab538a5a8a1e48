package relay

import (
	"testing"
	"time"

	"edpulse_backend/internal/intake/domain"

	"github.com/google/uuid"
)

func fixtureVisitor() domain.Visitor {
	email := "ana@x.com"
	return domain.Visitor{
		ID:        uuid.New(),
		FirstName: "Ana",
		LastName:  "Lee",
		Email:     &email,
	}
}

func TestBuildPayloadCompleted(t *testing.T) {
	submitTime := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	submission := domain.FormSubmission{
		ID:         uuid.New(),
		Status:     domain.StatusCompleted,
		StartTime:  submitTime.Add(-90 * time.Second),
		SubmitTime: &submitTime,
		TimeSpent:  90,
	}

	payload := BuildPayload(fixtureVisitor(), domain.Session{ID: uuid.New()}, submission,
		[]domain.InterestType{domain.InterestEnglish},
		[]domain.PreferenceType{domain.PreferenceVideo})

	if payload["submission_status"] != "complete" {
		t.Fatalf("expected complete status, got %v", payload["submission_status"])
	}
	if got := payload["interests"].([]string); len(got) != 1 || got[0] != "ENGLISH" {
		t.Fatalf("expected interests always present on complete, got %v", got)
	}

	analytics := payload["form_analytics"].(map[string]interface{})
	if analytics["submit_time"] != submitTime.Format(time.RFC3339) {
		t.Fatalf("expected submit_time on complete, got %v", analytics["submit_time"])
	}
	if _, ok := analytics["dropout_time"]; ok {
		t.Fatalf("dropout_time must not appear on a complete payload")
	}
	if _, ok := analytics["completed_sections"]; ok {
		t.Fatalf("completed_sections must not appear on a complete payload")
	}
}

func TestBuildPayloadPartial(t *testing.T) {
	submission := domain.FormSubmission{
		ID:            uuid.New(),
		Status:        domain.StatusPartial,
		StartTime:     time.Now().Add(-42 * time.Second),
		TimeSpent:     42,
		LastFieldSeen: "email",
		Flags:         domain.CompletenessFlags{PersonalInfo: true},
	}

	payload := BuildPayload(fixtureVisitor(), domain.Session{ID: uuid.New()}, submission, nil, nil)

	if payload["submission_status"] != "partial" {
		t.Fatalf("expected partial status, got %v", payload["submission_status"])
	}
	// Arrays stay off a partial payload when the section flags are false.
	if _, ok := payload["interests"]; ok {
		t.Fatalf("interests must not appear when interestsInfo is false")
	}
	if _, ok := payload["preferences"]; ok {
		t.Fatalf("preferences must not appear when preferencesInfo is false")
	}

	analytics := payload["form_analytics"].(map[string]interface{})
	if analytics["last_field_seen"] != "email" {
		t.Fatalf("expected last_field_seen, got %v", analytics["last_field_seen"])
	}
	if _, ok := analytics["dropout_time"]; !ok {
		t.Fatalf("expected dropout_time on a partial payload")
	}
	sections := analytics["completed_sections"].(map[string]bool)
	if !sections["personal_info"] || sections["contact_info"] {
		t.Fatalf("expected section flags mirrored, got %v", sections)
	}
	if _, ok := analytics["submit_time"]; ok {
		t.Fatalf("submit_time must not appear on a partial payload")
	}
}

func TestBuildPayloadPartialIncludesArraysWhenSectionsPresent(t *testing.T) {
	submission := domain.FormSubmission{
		ID:     uuid.New(),
		Status: domain.StatusPartial,
		Flags:  domain.CompletenessFlags{InterestsInfo: true},
	}

	payload := BuildPayload(fixtureVisitor(), domain.Session{ID: uuid.New()}, submission,
		[]domain.InterestType{domain.InterestFrench}, nil)

	if got := payload["interests"].([]string); len(got) != 1 || got[0] != "FRENCH" {
		t.Fatalf("expected interests when interestsInfo is true, got %v", got)
	}
	if _, ok := payload["preferences"]; ok {
		t.Fatalf("preferences must stay off without preferencesInfo")
	}
}
