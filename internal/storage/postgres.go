/**
 * PostgreSQL registration store.
 *
 * Holds in-progress registrations (one row per wizard session, step
 * payloads as JSONB) and completed users. Completing a registration writes
 * the user row and the username reservation in one transaction, mirroring
 * the all-or-nothing semantics the front-end expects.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/goldengeneration/signup-service/internal/apperrors"
)

// RegistrationStore handles database operations for the sign-up wizard.
type RegistrationStore struct {
	db *sql.DB
}

// Registration is one wizard session.
type Registration struct {
	ID           string
	Status       string
	Email        string
	Username     string
	PasswordHash string
	Identity     json.RawMessage
	Steps        map[string]json.RawMessage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// User is a completed profile.
type User struct {
	ID        string
	Email     string
	Username  string
	Profile   json.RawMessage
	CreatedAt time.Time
}

// stepColumns whitelists the JSONB column per wizard step.
var stepColumns = map[string]string{
	"personal":  "personal",
	"work":      "work",
	"lifestyle": "lifestyle",
	"veterans":  "veterans",
}

// NewRegistrationStore connects to PostgreSQL and prepares the schema.
func NewRegistrationStore(databaseURL string) (*RegistrationStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &RegistrationStore{db: db}
	if err := store.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare schema: %w", err)
	}

	return store, nil
}

func (s *RegistrationStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS registrations (
			id            UUID PRIMARY KEY,
			status        TEXT NOT NULL DEFAULT 'in_progress',
			email         TEXT,
			username      TEXT,
			password_hash TEXT,
			identity      JSONB,
			personal      JSONB,
			work          JSONB,
			lifestyle     JSONB,
			veterans      JSONB,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id         UUID PRIMARY KEY,
			email      TEXT NOT NULL UNIQUE,
			username   TEXT NOT NULL UNIQUE,
			profile    JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS usernames (
			username   TEXT PRIMARY KEY,
			user_id    UUID NOT NULL REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateRegistration starts a new wizard session and returns its id.
func (s *RegistrationStore) CreateRegistration(ctx context.Context) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO registrations (id) VALUES ($1::uuid)`, id)
	if err != nil {
		return "", apperrors.NewStorageError("create registration", err)
	}
	return id, nil
}

// GetRegistration loads one wizard session.
func (s *RegistrationStore) GetRegistration(ctx context.Context, id string) (*Registration, error) {
	query := `
		SELECT id, status, COALESCE(email, ''), COALESCE(username, ''),
		       COALESCE(password_hash, ''), identity,
		       personal, work, lifestyle, veterans,
		       created_at, updated_at
		FROM registrations
		WHERE id = $1::uuid
	`

	reg := &Registration{Steps: make(map[string]json.RawMessage)}
	var identity, personal, work, lifestyle, veterans []byte

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&reg.ID, &reg.Status, &reg.Email, &reg.Username,
		&reg.PasswordHash, &identity,
		&personal, &work, &lifestyle, &veterans,
		&reg.CreatedAt, &reg.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("registration", id)
	}
	if err != nil {
		return nil, apperrors.NewStorageError("get registration", err)
	}

	reg.Identity = identity
	for name, payload := range map[string][]byte{
		"personal": personal, "work": work, "lifestyle": lifestyle, "veterans": veterans,
	} {
		if payload != nil {
			reg.Steps[name] = payload
		}
	}
	return reg, nil
}

// SaveIdentity stores the reviewed identity form for a registration.
func (s *RegistrationStore) SaveIdentity(ctx context.Context, id string, identity json.RawMessage) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE registrations
		SET identity = $2::jsonb, updated_at = NOW()
		WHERE id = $1::uuid AND status = 'in_progress'
	`, id, []byte(identity))
	if err != nil {
		return apperrors.NewStorageError("save identity", err)
	}
	return s.requireRow(res, id)
}

// SaveCredentials stores the account step. The raw password never reaches
// the store; only its hash does.
func (s *RegistrationStore) SaveCredentials(ctx context.Context, id, email, username, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE registrations
		SET email = $2, username = $3, password_hash = $4, updated_at = NOW()
		WHERE id = $1::uuid AND status = 'in_progress'
	`, id, email, username, passwordHash)
	if err != nil {
		return apperrors.NewStorageError("save credentials", err)
	}
	return s.requireRow(res, id)
}

// SaveStep stores one wizard step payload as JSONB.
func (s *RegistrationStore) SaveStep(ctx context.Context, id, step string, payload json.RawMessage) error {
	column, ok := stepColumns[step]
	if !ok {
		return apperrors.NewValidationError("step", fmt.Sprintf("unknown wizard step: %s", step))
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE registrations
		SET %s = $2::jsonb, updated_at = NOW()
		WHERE id = $1::uuid AND status = 'in_progress'
	`, column), id, []byte(payload))
	if err != nil {
		return apperrors.NewStorageError("save step "+step, err)
	}
	return s.requireRow(res, id)
}

// EmailInUse reports whether a completed user already has this email.
func (s *RegistrationStore) EmailInUse(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = LOWER($1))`, email).Scan(&exists)
	if err != nil {
		return false, apperrors.NewStorageError("check email", err)
	}
	return exists, nil
}

// UsernameInUse reports whether a username is already reserved.
func (s *RegistrationStore) UsernameInUse(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM usernames WHERE username = LOWER($1))`, username).Scan(&exists)
	if err != nil {
		return false, apperrors.NewStorageError("check username", err)
	}
	return exists, nil
}

// CompleteRegistration turns an in-progress registration into a user. The
// user row and the username reservation commit together or not at all.
func (s *RegistrationStore) CompleteRegistration(ctx context.Context, id string) (string, error) {
	reg, err := s.GetRegistration(ctx, id)
	if err != nil {
		return "", err
	}
	if reg.Status != "in_progress" {
		return "", apperrors.NewConflictError("registration is already completed")
	}
	if reg.Identity == nil || reg.Email == "" || reg.Steps["personal"] == nil {
		return "", apperrors.NewValidationError("registration",
			"identity, credentials and personal details must be completed first")
	}

	profile := map[string]interface{}{
		"idVerification":  json.RawMessage(reg.Identity),
		"personalDetails": json.RawMessage(reg.Steps["personal"]),
	}
	for _, step := range []string{"work", "lifestyle", "veterans"} {
		if payload, ok := reg.Steps[step]; ok {
			profile[step] = json.RawMessage(payload)
		}
	}
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return "", apperrors.NewStorageError("encode profile", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", apperrors.NewStorageError("begin transaction", err)
	}
	defer tx.Rollback()

	userID := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, email, username, profile)
		VALUES ($1::uuid, LOWER($2), LOWER($3), $4::jsonb)
	`, userID, reg.Email, reg.Username, profileJSON)
	if err != nil {
		return "", apperrors.NewConflictError("email or username is already taken")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO usernames (username, user_id) VALUES (LOWER($1), $2::uuid)
	`, reg.Username, userID)
	if err != nil {
		return "", apperrors.NewConflictError("username is already taken")
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE registrations SET status = 'completed', updated_at = NOW()
		WHERE id = $1::uuid
	`, id)
	if err != nil {
		return "", apperrors.NewStorageError("mark registration completed", err)
	}

	if err := tx.Commit(); err != nil {
		return "", apperrors.NewStorageError("commit registration", err)
	}
	return userID, nil
}

// GetUser loads a completed profile for the dashboard.
func (s *RegistrationStore) GetUser(ctx context.Context, id string) (*User, error) {
	user := &User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, username, profile, created_at
		FROM users WHERE id = $1::uuid
	`, id).Scan(&user.ID, &user.Email, &user.Username, &user.Profile, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("user", id)
	}
	if err != nil {
		return nil, apperrors.NewStorageError("get user", err)
	}
	return user, nil
}

func (s *RegistrationStore) requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewStorageError("rows affected", err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError("registration", id)
	}
	return nil
}

// Ping checks database connectivity.
func (s *RegistrationStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *RegistrationStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
