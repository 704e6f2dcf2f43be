package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Bimandi111/employee-managment-system/internal/apperror"
	"github.com/Bimandi111/employee-managment-system/internal/model"
)

const employeeSelect = `
	SELECT e.employee_id, e.first_name, e.last_name, e.email, COALESCE(e.phone, ''),
	       e.hire_date, e.salary, e.status, e.created_at, e.updated_at,
	       d.department_id, d.department_name, COALESCE(d.description, ''),
	       p.position_id, p.title, p.pay_grade
	FROM employees e
	JOIN departments d ON e.department_id = d.department_id
	JOIN positions p ON e.position_id = p.position_id
`

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (model.Employee, error) {
	var e model.Employee
	err := row.Scan(
		&e.EmployeeID,
		&e.FirstName,
		&e.LastName,
		&e.Email,
		&e.Phone,
		&e.HireDate,
		&e.Salary,
		&e.Status,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.Department.DepartmentID,
		&e.Department.DepartmentName,
		&e.Department.Description,
		&e.Position.PositionID,
		&e.Position.Title,
		&e.Position.PayGrade,
	)
	return e, err
}

// ListEmployees returns all ACTIVE employees ordered by last then first name.
func (s *Store) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	rows, err := s.db.Query(ctx, employeeSelect+`
		WHERE e.status = 'ACTIVE'
		ORDER BY e.last_name, e.first_name
	`)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, "Failed to fetch employees.", err)
	}
	defer rows.Close()

	return collectEmployees(rows)
}

func (s *Store) GetEmployee(ctx context.Context, id int64) (model.Employee, error) {
	return getEmployee(ctx, s.db, id)
}

func getEmployee(ctx context.Context, q Querier, id int64) (model.Employee, error) {
	row := q.QueryRow(ctx, employeeSelect+`
		WHERE e.employee_id = $1 AND e.status = 'ACTIVE'
	`, id)
	employee, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Employee{}, apperror.Newf(apperror.CodeNotFound, "Employee with id=%d not found.", id)
		}
		return model.Employee{}, apperror.Wrap(apperror.CodeInternal, "Failed to fetch employee.", err)
	}
	return employee, nil
}

// SearchEmployees ANDs the supplied criteria. Name matches first or last name
// as a case-insensitive substring, department and position likewise against
// their display names, hire date by exact equality. Absent criteria add no
// predicate; the result is always scoped to ACTIVE employees.
func (s *Store) SearchEmployees(ctx context.Context, filter model.EmployeeFilter) ([]model.Employee, error) {
	where := []string{"e.status = 'ACTIVE'"}
	args := []any{}

	if name := strings.TrimSpace(filter.Name); name != "" {
		args = append(args, "%"+strings.ToLower(name)+"%")
		where = append(where, fmt.Sprintf("(LOWER(e.first_name) LIKE $%d OR LOWER(e.last_name) LIKE $%d)", len(args), len(args)))
	}
	if department := strings.TrimSpace(filter.Department); department != "" {
		args = append(args, "%"+strings.ToLower(department)+"%")
		where = append(where, fmt.Sprintf("LOWER(d.department_name) LIKE $%d", len(args)))
	}
	if position := strings.TrimSpace(filter.Position); position != "" {
		args = append(args, "%"+strings.ToLower(position)+"%")
		where = append(where, fmt.Sprintf("LOWER(p.title) LIKE $%d", len(args)))
	}
	if filter.HireDate != nil {
		args = append(args, *filter.HireDate)
		where = append(where, fmt.Sprintf("e.hire_date = $%d", len(args)))
	}

	query := employeeSelect + "WHERE " + strings.Join(where, " AND ") + " ORDER BY e.last_name, e.first_name"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, "Failed to search employees.", err)
	}
	defer rows.Close()

	return collectEmployees(rows)
}

// CreateEmployee checks email uniqueness among ACTIVE employees, resolves the
// department and position references and inserts the row, all in one
// transaction. The partial unique index on the live table backstops the
// uniqueness check under concurrent writers.
func (s *Store) CreateEmployee(ctx context.Context, draft model.EmployeeDraft) (model.Employee, error) {
	var created model.Employee
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		exists, err := emailExists(ctx, tx, draft.Email, nil)
		if err != nil {
			return err
		}
		if exists {
			return apperror.Newf(apperror.CodeConflict, "An employee with email '%s' already exists.", draft.Email)
		}

		department, err := getDepartment(ctx, tx, draft.DepartmentID)
		if err != nil {
			return err
		}
		position, err := getPosition(ctx, tx, draft.PositionID)
		if err != nil {
			return err
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO employees (first_name, last_name, email, phone, department_id, position_id, hire_date, salary, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'ACTIVE')
			RETURNING employee_id, created_at, updated_at
		`, draft.FirstName, draft.LastName, draft.Email, draft.Phone, draft.DepartmentID, draft.PositionID, draft.HireDate, draft.Salary)

		created = model.Employee{
			FirstName:  draft.FirstName,
			LastName:   draft.LastName,
			Email:      draft.Email,
			Phone:      draft.Phone,
			Department: department,
			Position:   position,
			HireDate:   draft.HireDate,
			Salary:     draft.Salary,
			Status:     model.StatusActive,
		}
		if err := row.Scan(&created.EmployeeID, &created.CreatedAt, &created.UpdatedAt); err != nil {
			if isUniqueViolation(err) {
				return apperror.Newf(apperror.CodeConflict, "An employee with email '%s' already exists.", draft.Email)
			}
			return apperror.Wrap(apperror.CodeInternal, "Failed to save employee.", err)
		}
		return nil
	})
	if err != nil {
		return model.Employee{}, err
	}
	return created, nil
}

// UpdateEmployee overwrites the mutable fields of an active employee. The id
// and status are never altered by this path. An email change re-checks
// uniqueness excluding the employee's own row.
func (s *Store) UpdateEmployee(ctx context.Context, id int64, draft model.EmployeeDraft) (model.Employee, error) {
	var updated model.Employee
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		existing, err := getEmployee(ctx, tx, id)
		if err != nil {
			return err
		}

		if !strings.EqualFold(existing.Email, draft.Email) {
			exists, err := emailExists(ctx, tx, draft.Email, &id)
			if err != nil {
				return err
			}
			if exists {
				return apperror.Newf(apperror.CodeConflict, "Email '%s' is already used.", draft.Email)
			}
		}

		department, err := getDepartment(ctx, tx, draft.DepartmentID)
		if err != nil {
			return err
		}
		position, err := getPosition(ctx, tx, draft.PositionID)
		if err != nil {
			return err
		}

		row := tx.QueryRow(ctx, `
			UPDATE employees
			SET first_name = $1, last_name = $2, email = $3, phone = $4,
			    department_id = $5, position_id = $6, hire_date = $7, salary = $8,
			    updated_at = now()
			WHERE employee_id = $9
			RETURNING updated_at
		`, draft.FirstName, draft.LastName, draft.Email, draft.Phone, draft.DepartmentID, draft.PositionID, draft.HireDate, draft.Salary, id)

		updated = model.Employee{
			EmployeeID: existing.EmployeeID,
			FirstName:  draft.FirstName,
			LastName:   draft.LastName,
			Email:      draft.Email,
			Phone:      draft.Phone,
			Department: department,
			Position:   position,
			HireDate:   draft.HireDate,
			Salary:     draft.Salary,
			Status:     existing.Status,
			CreatedAt:  existing.CreatedAt,
		}
		if err := row.Scan(&updated.UpdatedAt); err != nil {
			if isUniqueViolation(err) {
				return apperror.Newf(apperror.CodeConflict, "Email '%s' is already used.", draft.Email)
			}
			return apperror.Wrap(apperror.CodeInternal, "Failed to update employee.", err)
		}
		return nil
	})
	if err != nil {
		return model.Employee{}, err
	}
	return updated, nil
}

// emailExists checks the live table only; archived snapshots never block an
// address from being reused.
func emailExists(ctx context.Context, q Querier, email string, excludeID *int64) (bool, error) {
	var exists bool
	var err error
	if excludeID != nil {
		err = q.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM employees
				WHERE LOWER(email) = LOWER($1) AND status = 'ACTIVE' AND employee_id <> $2
			)
		`, email, *excludeID).Scan(&exists)
	} else {
		err = q.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM employees
				WHERE LOWER(email) = LOWER($1) AND status = 'ACTIVE'
			)
		`, email).Scan(&exists)
	}
	if err != nil {
		return false, apperror.Wrap(apperror.CodeInternal, "Failed to check email.", err)
	}
	return exists, nil
}

func collectEmployees(rows pgx.Rows) ([]model.Employee, error) {
	employees := make([]model.Employee, 0)
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, apperror.Wrap(apperror.CodeInternal, "Failed to fetch employees.", err)
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, "Failed to fetch employees.", err)
	}
	return employees, nil
}
