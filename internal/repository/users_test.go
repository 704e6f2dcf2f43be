package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"

	"github.com/Bimandi111/employee-managment-system/internal/apperror"
	"github.com/Bimandi111/employee-managment-system/internal/model"
)

func TestFindActiveByUsername(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT user_id`).
		WithArgs("Admin").
		WillReturnRows(pgxmock.NewRows([]string{
			"user_id", "username", "password_hash", "role", "employee_id", "is_active", "created_at",
		}).AddRow(int64(1), "admin", "$2a$10$hash", model.RoleAdmin, (*int64)(nil), true, now))

	user, err := store.FindActiveByUsername(context.Background(), "Admin")
	if err != nil {
		t.Fatalf("FindActiveByUsername returned error: %v", err)
	}
	if user.Username != "admin" || user.Role != model.RoleAdmin || !user.Active {
		t.Fatalf("unexpected user: %+v", user)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindActiveByUsernameNotFound(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)

	mock.ExpectQuery(`SELECT user_id`).
		WithArgs("nobody").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.FindActiveByUsername(context.Background(), "nobody")
	if apperror.GetCode(err) != apperror.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateUserConflict(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("admin", "$2a$10$hash", model.RoleAdmin, (*int64)(nil), true).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

	_, err := store.CreateUser(context.Background(), model.User{
		Username:     "admin",
		PasswordHash: "$2a$10$hash",
		Role:         model.RoleAdmin,
		Active:       true,
	})
	if apperror.GetCode(err) != apperror.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err.Error() != "Username 'admin' is already taken." {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
