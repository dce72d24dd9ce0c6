package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/liliang-cn/standbot/internal/domain"
)

// ProfileRepository handles visitor profile persistence
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Upsert creates or replaces the profile bound to a session
func (r *ProfileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	now := time.Now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (session_id, website, name, email, company, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			website = excluded.website,
			name = excluded.name,
			email = excluded.email,
			company = excluded.company,
			updated_at = excluded.updated_at
	`, profile.SessionID, profile.Website, profile.Name, profile.Email, profile.Company,
		profile.CreatedAt, profile.UpdatedAt)

	return err
}

// Get retrieves the profile bound to a session
func (r *ProfileRepository) Get(ctx context.Context, sessionID string) (*domain.Profile, error) {
	profile := &domain.Profile{}
	var company sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT session_id, website, name, email, company, created_at, updated_at
		FROM profiles WHERE session_id = ?
	`, sessionID).Scan(&profile.SessionID, &profile.Website, &profile.Name, &profile.Email,
		&company, &profile.CreatedAt, &profile.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	profile.Company = company.String
	return profile, nil
}

// Delete removes the profile bound to a session
func (r *ProfileRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE session_id = ?`, sessionID)
	return err
}
