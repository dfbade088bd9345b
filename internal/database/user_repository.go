package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joetm/ckanext-feeds/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// UserRepository handles user account storage and lookup. It backs the
// user-lookup service the snippet renderers call.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create stores a new user with the given bcrypt password hash.
func (r *UserRepository) Create(ctx context.Context, user *models.User, passwordHash string) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, display_name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Name, user.DisplayName, user.Email, passwordHash, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// Get looks up a user by ID.
func (r *UserRepository) Get(ctx context.Context, id string) (models.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, name, display_name, email, created_at
		FROM users WHERE id = $1
	`, id))
}

// GetByName looks up a user by account name.
func (r *UserRepository) GetByName(ctx context.Context, name string) (models.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, name, display_name, email, created_at
		FROM users WHERE name = $1
	`, name))
}

// PasswordHash returns the stored bcrypt hash for a user name.
func (r *UserRepository) PasswordHash(ctx context.Context, name string) (string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx, `
		SELECT password_hash FROM users WHERE name = $1
	`, name).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("user %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query password hash: %w", err)
	}
	return hash, nil
}

// Follow records that follower follows the given object.
func (r *UserRepository) Follow(ctx context.Context, follow models.Follow) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_follows (follower_id, object_type, object_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (follower_id, object_type, object_id) DO NOTHING
	`, follow.FollowerID, follow.ObjectType, follow.ObjectID)
	if err != nil {
		return fmt.Errorf("failed to insert follow: %w", err)
	}
	return nil
}

func (r *UserRepository) scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Name, &user.DisplayName, &user.Email, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}
