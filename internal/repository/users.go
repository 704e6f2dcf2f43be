package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Bimandi111/employee-managment-system/internal/apperror"
	"github.com/Bimandi111/employee-managment-system/internal/model"
)

// FindActiveByUsername matches the username case-insensitively and only
// returns identities with is_active set.
func (s *Store) FindActiveByUsername(ctx context.Context, username string) (model.User, error) {
	var user model.User
	row := s.db.QueryRow(ctx, `
		SELECT user_id, username, password_hash, role, employee_id, is_active, created_at
		FROM users
		WHERE LOWER(username) = LOWER($1) AND is_active
	`, username)
	err := row.Scan(
		&user.UserID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.EmployeeID,
		&user.Active,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, apperror.New(apperror.CodeNotFound, "User not found.")
		}
		return model.User{}, apperror.Wrap(apperror.CodeInternal, "Failed to fetch user.", err)
	}
	return user, nil
}

// CreateUser provisions an identity with an already-hashed credential.
func (s *Store) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, role, employee_id, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING user_id, created_at
	`, user.Username, user.PasswordHash, user.Role, user.EmployeeID, user.Active)
	if err := row.Scan(&user.UserID, &user.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return model.User{}, apperror.Newf(apperror.CodeConflict, "Username '%s' is already taken.", user.Username)
		}
		return model.User{}, apperror.Wrap(apperror.CodeInternal, "Failed to save user.", err)
	}
	return user, nil
}
