package repository

import (
	"context"
	"errors"
	"time"

	"edpulse_backend/internal/intake/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSessionNotFound is returned when no session matches the lookup.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository provides data access for visitor sessions.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `
	id, visitor_id, ip_address, user_agent, referrer, utm_source, utm_medium,
	utm_campaign, browser, device_type, os, created_at, updated_at`

func scanSession(row pgx.Row) (domain.Session, error) {
	var s domain.Session
	err := row.Scan(
		&s.ID, &s.VisitorID, &s.IPAddress, &s.UserAgent, &s.Referrer,
		&s.UTMSource, &s.UTMMedium, &s.UTMCampaign, &s.Browser, &s.DeviceType,
		&s.OS, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// FindActive returns the visitor's most recent session created at or after
// the given cutoff.
func (r *SessionRepository) FindActive(ctx context.Context, visitorID uuid.UUID, createdAfter time.Time) (domain.Session, error) {
	session, err := scanSession(r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE visitor_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT 1
	`, visitorID, createdAfter))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, ErrSessionNotFound
	}
	return session, err
}

// Create inserts a new session row.
func (r *SessionRepository) Create(ctx context.Context, s domain.Session) (domain.Session, error) {
	return scanSession(r.pool.QueryRow(ctx, `
		INSERT INTO sessions (visitor_id, ip_address, user_agent, referrer,
			utm_source, utm_medium, utm_campaign, browser, device_type, os)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+sessionColumns+`
	`, s.VisitorID, s.IPAddress, s.UserAgent, s.Referrer, s.UTMSource,
		s.UTMMedium, s.UTMCampaign, s.Browser, s.DeviceType, s.OS))
}

// UpdateContext refreshes the session's UTM/referrer fields and bumps
// updated_at. The caller applies the non-empty-wins merge before handing the
// session over.
func (r *SessionRepository) UpdateContext(ctx context.Context, s domain.Session) (domain.Session, error) {
	session, err := scanSession(r.pool.QueryRow(ctx, `
		UPDATE sessions
		SET referrer = $2, utm_source = $3, utm_medium = $4, utm_campaign = $5,
			updated_at = now()
		WHERE id = $1
		RETURNING `+sessionColumns+`
	`, s.ID, s.Referrer, s.UTMSource, s.UTMMedium, s.UTMCampaign))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, ErrSessionNotFound
	}
	return session, err
}
