package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/storefront-api/internal/model"
)

// UserRepository stores shopper and admin accounts. Emails are unique; a
// clash on create or profile update surfaces as ErrEmailTaken.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateProfile writes name, email and password hash.
	UpdateProfile(ctx context.Context, user *model.User) error
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type pgUserRepo struct{ pool *pgxpool.Pool }

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepo{pool: pool}
}

const (
	userColumns     = `id, email, password_hash, first_name, last_name, role, last_login_at, created_at, updated_at`
	usersEmailIndex = "users_email_key"
)

func scanUser(row pgx.Row, u *model.User) error {
	return row.Scan(
		&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName,
		&u.Role, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
}

func (r *pgUserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, password_hash, first_name, last_name, role)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		user.ID, user.Email, user.Password, user.FirstName, user.LastName, user.Role,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err, usersEmailIndex) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.find(ctx, "id", id)
}

func (r *pgUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.find(ctx, "email", email)
}

// find looks a user up by a unique column; nil, nil when absent.
func (r *pgUserRepo) find(ctx context.Context, column string, value any) (*model.User, error) {
	var user model.User
	err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value), &user)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	return &user, nil
}

func (r *pgUserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET email = $2, password_hash = $3, first_name = $4, last_name = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		user.ID, user.Email, user.Password, user.FirstName, user.LastName,
	).Scan(&user.UpdatedAt)
	if isUniqueViolation(err, usersEmailIndex) {
		return ErrEmailTaken
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("update user profile: %w", err)
	}
	return nil
}

func (r *pgUserRepo) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if _, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return nil
}
