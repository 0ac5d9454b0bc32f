// Package auth implements user registration and login against the users
// table. Password hashing and JWT issuance live in pkg/auth; this package
// owns the persistence and the credential checks.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgauth "github.com/Nsralla/HRNexus-AI-assistant/pkg/auth"
	"github.com/Nsralla/HRNexus-AI-assistant/pkg/uuid"
)

var (
	// ErrEmailAlreadyExists is returned when registering an email that is
	// already taken.
	ErrEmailAlreadyExists = errors.New("email already registered")

	// ErrInvalidCredentials is returned for both unknown emails and wrong
	// passwords, so login responses do not reveal which one failed.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// User is the public view of an account. Password hashes never leave this
// package.
type User struct {
	ID          string
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

// Service handles registration and login.
type Service struct {
	db *sql.DB
}

// NewService creates an auth service backed by the given database.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Register creates a new user with a bcrypt-hashed password and returns the
// created account plus a signed JWT.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("auth.Register: invalid email %q", email)
	}
	if len(password) < 8 {
		return nil, "", fmt.Errorf("auth.Register: password must be at least 8 characters")
	}

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("auth.Register: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	user := &User{
		ID:          uuid.NewV7().String(),
		Email:       email,
		DisplayName: strings.TrimSpace(displayName),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.DisplayName, hash, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, "", ErrEmailAlreadyExists
		}
		return nil, "", fmt.Errorf("auth.Register: insert user: %w", err)
	}
	user.CreatedAt, _ = time.Parse(time.RFC3339, now)

	token, err := pkgauth.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("auth.Register: %w", err)
	}
	return user, token, nil
}

// Login verifies credentials and returns the account plus a signed JWT.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var (
		user      User
		hash      string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, created_at
		FROM users WHERE email = ?`, email,
	).Scan(&user.ID, &user.Email, &user.DisplayName, &hash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Burn a bcrypt comparison anyway to keep timing comparable
		// between unknown-email and wrong-password failures.
		pkgauth.VerifyPassword("$2a$12$invalidsaltinvalidsaltinvalidsaltinvalid", password)
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("auth.Login: query user: %w", err)
	}

	if !pkgauth.VerifyPassword(hash, password) {
		return nil, "", ErrInvalidCredentials
	}
	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	token, err := pkgauth.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("auth.Login: %w", err)
	}
	return &user, token, nil
}

// GetUser loads a user by id. Used by the API layer to resolve the
// authenticated principal.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	var (
		user      User
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, created_at
		FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.Email, &user.DisplayName, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("auth.GetUser: user %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("auth.GetUser: %w", err)
	}
	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &user, nil
}

// isUniqueViolation detects SQLite unique-constraint errors. modernc.org/sqlite
// surfaces them as plain errors with a stable message prefix, so string
// matching is the portable check.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
