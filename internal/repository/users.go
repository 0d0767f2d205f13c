package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/woramet12/fitnu/internal/model"
)

const userColumns = `id, student_id, name, year, interest, bio, avatar, email,
	password_hash, email_verified, skip_verify, verify_token, reset_token, created_at`

// UserRepository handles persistence for user profiles and credentials.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *model.UserProfile) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		u.ID, u.StudentID, u.Name, u.Year, u.Interest, u.Bio, u.Avatar, u.Email,
		u.PasswordHash, u.EmailVerified, u.SkipVerify, u.VerifyToken, u.ResetToken, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID returns a user by id or ErrNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.UserProfile, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail returns a user by email or ErrNotFound.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	return r.getBy(ctx, "email", email)
}

// GetByVerifyToken returns the user holding an email-verification token.
func (r *UserRepository) GetByVerifyToken(ctx context.Context, token string) (*model.UserProfile, error) {
	return r.getBy(ctx, "verify_token", token)
}

// GetByResetToken returns the user holding a password-reset token.
func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*model.UserProfile, error) {
	return r.getBy(ctx, "reset_token", token)
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*model.UserProfile, error) {
	if value == "" {
		return nil, ErrNotFound
	}
	var u model.UserProfile
	err := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value,
	).Scan(&u.ID, &u.StudentID, &u.Name, &u.Year, &u.Interest, &u.Bio, &u.Avatar, &u.Email,
		&u.PasswordHash, &u.EmailVerified, &u.SkipVerify, &u.VerifyToken, &u.ResetToken, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	return &u, nil
}

// Update persists the full user record.
func (r *UserRepository) Update(ctx context.Context, u *model.UserProfile) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET
			student_id = $2, name = $3, year = $4, interest = $5, bio = $6,
			avatar = $7, email = $8, password_hash = $9, email_verified = $10,
			skip_verify = $11, verify_token = $12, reset_token = $13
		 WHERE id = $1`,
		u.ID, u.StudentID, u.Name, u.Year, u.Interest, u.Bio,
		u.Avatar, u.Email, u.PasswordHash, u.EmailVerified,
		u.SkipVerify, u.VerifyToken, u.ResetToken,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists reports whether a user row still exists for id.
func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

// Search returns users whose name or interest contains the query,
// case-insensitively.
func (r *UserRepository) Search(ctx context.Context, q string, limit int) ([]model.UserProfile, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE name ILIKE '%' || $1 || '%' OR interest ILIKE '%' || $1 || '%'
		 ORDER BY name ASC
		 LIMIT $2`, q, limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var users []model.UserProfile
	for rows.Next() {
		var u model.UserProfile
		if err := rows.Scan(&u.ID, &u.StudentID, &u.Name, &u.Year, &u.Interest, &u.Bio, &u.Avatar, &u.Email,
			&u.PasswordHash, &u.EmailVerified, &u.SkipVerify, &u.VerifyToken, &u.ResetToken, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
