package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"

	"github.com/Bimandi111/employee-managment-system/internal/apperror"
)

var pastEmployeeColumns = []string{
	"past_employee_id", "original_employee_id", "first_name", "last_name",
	"email", "phone", "hire_date", "salary",
	"termination_date", "termination_reason", "archived_at",
	"department_id", "department_name", "description",
	"position_id", "title", "pay_grade",
}

func TestArchiveEmployee(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(employeeSelect + `
		WHERE e.employee_id = $1 AND e.status = 'ACTIVE'
	`)).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(employeeColumns).
			AddRow(employeeRow(1, "Alice", "O'Brien", "alice.obrien@example.com")...))
	mock.ExpectQuery(`INSERT INTO past_employees`).
		WithArgs(int64(1), "Alice", "O'Brien", "alice.obrien@example.com", "555-0100",
			int64(1), int64(1), time.Date(2020, 3, 16, 0, 0, 0, 0, time.UTC), 72000.0,
			"resigned").
		WillReturnRows(pgxmock.NewRows([]string{"past_employee_id", "termination_date", "archived_at"}).
			AddRow(int64(3), today, now))
	mock.ExpectExec(`DELETE FROM employees`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	archived, err := store.ArchiveEmployee(context.Background(), 1, "resigned")
	if err != nil {
		t.Fatalf("ArchiveEmployee returned error: %v", err)
	}
	if archived.PastEmployeeID != 3 || archived.OriginalEmployeeID != 1 {
		t.Fatalf("unexpected snapshot: %+v", archived)
	}
	if archived.TerminationReason != "resigned" || !archived.TerminationDate.Equal(today) {
		t.Fatalf("unexpected termination data: %+v", archived)
	}
	if archived.Department.DepartmentName != "Engineering" || archived.Salary != 72000 {
		t.Fatalf("snapshot lost employee data: %+v", archived)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestArchiveEmployeeDefaultReason(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(employeeSelect + `
		WHERE e.employee_id = $1 AND e.status = 'ACTIVE'
	`)).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(employeeColumns).
			AddRow(employeeRow(1, "Alice", "O'Brien", "alice.obrien@example.com")...))
	mock.ExpectQuery(`INSERT INTO past_employees`).
		WithArgs(int64(1), "Alice", "O'Brien", "alice.obrien@example.com", "555-0100",
			int64(1), int64(1), time.Date(2020, 3, 16, 0, 0, 0, 0, time.UTC), 72000.0,
			defaultTerminationReason).
		WillReturnRows(pgxmock.NewRows([]string{"past_employee_id", "termination_date", "archived_at"}).
			AddRow(int64(4), today, now))
	mock.ExpectExec(`DELETE FROM employees`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	archived, err := store.ArchiveEmployee(context.Background(), 1, "   ")
	if err != nil {
		t.Fatalf("ArchiveEmployee returned error: %v", err)
	}
	if archived.TerminationReason != defaultTerminationReason {
		t.Fatalf("unexpected reason: %q", archived.TerminationReason)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestArchiveEmployeeNotFound(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)

	// The transaction rolls back before any write happens.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(employeeSelect + `
		WHERE e.employee_id = $1 AND e.status = 'ACTIVE'
	`)).
		WithArgs(int64(42)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := store.ArchiveEmployee(context.Background(), 42, "resigned")
	if apperror.GetCode(err) != apperror.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListPastEmployees(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)
	hired := time.Date(2020, 3, 16, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(pastEmployeeSelect + `ORDER BY pe.termination_date DESC`)).
		WillReturnRows(pgxmock.NewRows(pastEmployeeColumns).
			AddRow(int64(2), int64(5), "Bob", "Smith", "bob.smith@example.com", "",
				hired, 68000.0, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "contract ended", now,
				int64(2), "Human Resources", "", int64(2), "HR Manager", "G7").
			AddRow(int64(1), int64(1), "Alice", "O'Brien", "alice.obrien@example.com", "555-0100",
				hired, 72000.0, time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC), defaultTerminationReason, now,
				int64(1), "Engineering", "Product development", int64(1), "Software Engineer", "G5"))

	archived, err := store.ListPastEmployees(context.Background())
	if err != nil {
		t.Fatalf("ListPastEmployees returned error: %v", err)
	}
	if len(archived) != 2 {
		t.Fatalf("expected 2 records, got %d", len(archived))
	}
	if archived[0].LastName != "Smith" || archived[0].TerminationReason != "contract ended" {
		t.Fatalf("unexpected record: %+v", archived[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetPastEmployeeNotFound(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(pastEmployeeSelect + `WHERE pe.past_employee_id = $1`)).
		WithArgs(int64(42)).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.GetPastEmployee(context.Background(), 42)
	if apperror.GetCode(err) != apperror.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if err.Error() != "Past employee with id=42 not found." {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
