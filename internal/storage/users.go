package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/claude/gains/internal/models"
	"github.com/jackc/pgx/v5"
)

// EnsureUser creates the account row for a verified identity on first contact
// and refreshes display name and email on every later call.
func (db *DB) EnsureUser(ctx context.Context, subject, displayName, email string) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO users (subject, display_name, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (subject) DO UPDATE
			SET display_name = COALESCE(NULLIF($2, ''), users.display_name),
			    email = COALESCE(NULLIF($3, ''), users.email),
			    updated_at = NOW()
	`, subject, displayName, email)
	if err != nil {
		return fmt.Errorf("ensuring user: %w", err)
	}
	return nil
}

// CreateLocalUser inserts a local account with a password hash. Returns
// ErrDuplicate when the email is taken.
func (db *DB) CreateLocalUser(ctx context.Context, u *models.User) error {
	settings, err := json.Marshal(u.Settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	err = db.Pool.QueryRow(ctx, `
		INSERT INTO users (subject, display_name, email, password_hash, settings)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, u.Subject, u.DisplayName, u.Email, u.PasswordHash, settings).Scan(&u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// GetUser retrieves an account by subject.
func (db *DB) GetUser(ctx context.Context, subject string) (*models.User, error) {
	return db.getUser(ctx, `subject = $1`, subject)
}

// GetUserByEmail retrieves a local account by email for login.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.getUser(ctx, `email = $1 AND password_hash <> ''`, email)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT subject, display_name, email, password_hash, settings, created_at, updated_at
		 FROM users WHERE `+where, arg)

	var u models.User
	var settings []byte
	err := row.Scan(&u.Subject, &u.DisplayName, &u.Email, &u.PasswordHash,
		&settings, &u.CreatedAt, &u.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &u.Settings); err != nil {
			return nil, fmt.Errorf("decoding settings: %w", err)
		}
	}
	return &u, nil
}

// GetSettings returns the user's stored settings merged over the defaults.
func (db *DB) GetSettings(ctx context.Context, subject string) (models.Settings, error) {
	u, err := db.GetUser(ctx, subject)
	if err != nil {
		return models.Settings{}, err
	}
	return u.Settings.Merge(models.DefaultSettings()), nil
}

// UpdateSettings writes the full settings document for the user.
func (db *DB) UpdateSettings(ctx context.Context, subject string, s models.Settings) error {
	encoded, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	tag, err := db.Pool.Exec(ctx,
		`UPDATE users SET settings = $2, updated_at = NOW() WHERE subject = $1`,
		subject, encoded)
	if err != nil {
		return fmt.Errorf("updating settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
