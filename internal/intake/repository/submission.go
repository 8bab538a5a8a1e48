package repository

import (
	"context"
	"time"

	"edpulse_backend/internal/intake/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubmissionRepository provides data access for form submissions.
// Submission rows are append-only; the only update is attaching the relay
// outcome after the webhook call finishes.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new submission repository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

const submissionColumns = `
	id, visitor_id, session_id, status, personal_info, contact_info,
	reasons_info, interests_info, preferences_info, last_field_seen,
	time_spent, start_time, submit_time, sent_to_pabbly, pabbly_response,
	pabbly_sent_at, created_at`

func scanSubmission(row pgx.Row) (domain.FormSubmission, error) {
	var s domain.FormSubmission
	err := row.Scan(
		&s.ID, &s.VisitorID, &s.SessionID, &s.Status,
		&s.Flags.PersonalInfo, &s.Flags.ContactInfo, &s.Flags.ReasonsInfo,
		&s.Flags.InterestsInfo, &s.Flags.PreferencesInfo,
		&s.LastFieldSeen, &s.TimeSpent, &s.StartTime, &s.SubmitTime,
		&s.SentToPabbly, &s.PabblyResponse, &s.PabblySentAt, &s.CreatedAt,
	)
	return s, err
}

// Create inserts a new submission event.
func (r *SubmissionRepository) Create(ctx context.Context, s domain.FormSubmission) (domain.FormSubmission, error) {
	return scanSubmission(r.pool.QueryRow(ctx, `
		INSERT INTO form_submissions (visitor_id, session_id, status,
			personal_info, contact_info, reasons_info, interests_info,
			preferences_info, last_field_seen, time_spent, start_time,
			submit_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+submissionColumns+`
	`, s.VisitorID, s.SessionID, string(s.Status),
		s.Flags.PersonalInfo, s.Flags.ContactInfo, s.Flags.ReasonsInfo,
		s.Flags.InterestsInfo, s.Flags.PreferencesInfo,
		s.LastFieldSeen, s.TimeSpent, s.StartTime, s.SubmitTime))
}

// AttachRelayOutcome records the webhook relay result on the submission row.
// sentAt is nil when the relay failed.
func (r *SubmissionRepository) AttachRelayOutcome(ctx context.Context, id uuid.UUID, sent bool, response string, sentAt *time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE form_submissions
		SET sent_to_pabbly = $2, pabbly_response = $3, pabbly_sent_at = $4
		WHERE id = $1
	`, id, sent, response, sentAt)
	return err
}
