// Package repository provides data access for the intake bounded context.
package repository

import (
	"context"
	"errors"

	"edpulse_backend/internal/intake/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrVisitorNotFound is returned when no visitor matches the lookup.
	ErrVisitorNotFound = errors.New("visitor not found")
	// ErrDuplicateEmail is returned when the unique index on visitors.email
	// rejects an insert (two submissions racing on a brand-new email).
	ErrDuplicateEmail = errors.New("visitor email already registered")
)

const uniqueViolationCode = "23505"

// VisitorRepository provides data access for visitors and their
// interest/preference sets.
type VisitorRepository struct {
	pool *pgxpool.Pool
}

// NewVisitorRepository creates a new visitor repository.
func NewVisitorRepository(pool *pgxpool.Pool) *VisitorRepository {
	return &VisitorRepository{pool: pool}
}

const visitorColumns = `
	id, first_name, last_name, email, phone, age, reasons, occupation,
	company, department, bio, created_at, updated_at`

func scanVisitor(row pgx.Row) (domain.Visitor, error) {
	var v domain.Visitor
	err := row.Scan(
		&v.ID, &v.FirstName, &v.LastName, &v.Email, &v.Phone, &v.Age,
		&v.Reasons, &v.Occupation, &v.Company, &v.Department, &v.Bio,
		&v.CreatedAt, &v.UpdatedAt,
	)
	return v, err
}

// FindByEmail retrieves the visitor with the given email.
func (r *VisitorRepository) FindByEmail(ctx context.Context, email string) (domain.Visitor, error) {
	visitor, err := scanVisitor(r.pool.QueryRow(ctx, `
		SELECT `+visitorColumns+`
		FROM visitors
		WHERE email = $1
	`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Visitor{}, ErrVisitorNotFound
	}
	return visitor, err
}

// FindByID retrieves a visitor by primary key.
func (r *VisitorRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Visitor, error) {
	visitor, err := scanVisitor(r.pool.QueryRow(ctx, `
		SELECT `+visitorColumns+`
		FROM visitors
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Visitor{}, ErrVisitorNotFound
	}
	return visitor, err
}

// Create inserts a new visitor. A unique violation on email maps to
// ErrDuplicateEmail.
func (r *VisitorRepository) Create(ctx context.Context, v domain.Visitor) (domain.Visitor, error) {
	created, err := scanVisitor(r.pool.QueryRow(ctx, `
		INSERT INTO visitors (first_name, last_name, email, phone, age, reasons,
			occupation, company, department, bio)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+visitorColumns+`
	`, v.FirstName, v.LastName, v.Email, v.Phone, v.Age, v.Reasons,
		v.Occupation, v.Company, v.Department, v.Bio))
	if isUniqueViolation(err) {
		return domain.Visitor{}, ErrDuplicateEmail
	}
	return created, err
}

// Update overwrites the visitor row. The caller is responsible for the
// non-empty-wins merge; this writes whatever it is handed.
func (r *VisitorRepository) Update(ctx context.Context, v domain.Visitor) (domain.Visitor, error) {
	updated, err := scanVisitor(r.pool.QueryRow(ctx, `
		UPDATE visitors
		SET first_name = $2, last_name = $3, email = $4, phone = $5, age = $6,
			reasons = $7, occupation = $8, company = $9, department = $10,
			bio = $11, updated_at = now()
		WHERE id = $1
		RETURNING `+visitorColumns+`
	`, v.ID, v.FirstName, v.LastName, v.Email, v.Phone, v.Age, v.Reasons,
		v.Occupation, v.Company, v.Department, v.Bio))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Visitor{}, ErrVisitorNotFound
	}
	if isUniqueViolation(err) {
		return domain.Visitor{}, ErrDuplicateEmail
	}
	return updated, err
}

// ReplaceInterests swaps the visitor's interest set for the given one.
// Delete-all-then-insert runs inside a transaction so readers never observe
// an empty set mid-swap.
func (r *VisitorRepository) ReplaceInterests(ctx context.Context, visitorID uuid.UUID, interests []domain.InterestType) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM visitor_interests WHERE visitor_id = $1`, visitorID); err != nil {
			return err
		}
		for _, interest := range interests {
			if _, err := tx.Exec(ctx, `
				INSERT INTO visitor_interests (visitor_id, type) VALUES ($1, $2)
				ON CONFLICT (visitor_id, type) DO NOTHING
			`, visitorID, string(interest)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplacePreferences swaps the visitor's preference set for the given one.
func (r *VisitorRepository) ReplacePreferences(ctx context.Context, visitorID uuid.UUID, preferences []domain.PreferenceType) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM visitor_preferences WHERE visitor_id = $1`, visitorID); err != nil {
			return err
		}
		for _, preference := range preferences {
			if _, err := tx.Exec(ctx, `
				INSERT INTO visitor_preferences (visitor_id, type) VALUES ($1, $2)
				ON CONFLICT (visitor_id, type) DO NOTHING
			`, visitorID, string(preference)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListInterests returns the visitor's current interest set.
func (r *VisitorRepository) ListInterests(ctx context.Context, visitorID uuid.UUID) ([]domain.InterestType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT type FROM visitor_interests WHERE visitor_id = $1 ORDER BY type
	`, visitorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var interests []domain.InterestType
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		interests = append(interests, domain.InterestType(value))
	}
	return interests, rows.Err()
}

// ListPreferences returns the visitor's current preference set.
func (r *VisitorRepository) ListPreferences(ctx context.Context, visitorID uuid.UUID) ([]domain.PreferenceType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT type FROM visitor_preferences WHERE visitor_id = $1 ORDER BY type
	`, visitorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var preferences []domain.PreferenceType
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		preferences = append(preferences, domain.PreferenceType(value))
	}
	return preferences, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
