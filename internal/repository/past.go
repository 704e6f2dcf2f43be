package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Bimandi111/employee-managment-system/internal/apperror"
	"github.com/Bimandi111/employee-managment-system/internal/model"
)

const defaultTerminationReason = "Removed by administrator"

const pastEmployeeSelect = `
	SELECT pe.past_employee_id, pe.original_employee_id, pe.first_name, pe.last_name,
	       pe.email, COALESCE(pe.phone, ''), pe.hire_date, pe.salary,
	       pe.termination_date, pe.termination_reason, pe.archived_at,
	       d.department_id, d.department_name, COALESCE(d.description, ''),
	       p.position_id, p.title, p.pay_grade
	FROM past_employees pe
	JOIN departments d ON pe.department_id = d.department_id
	JOIN positions p ON pe.position_id = p.position_id
`

func scanPastEmployee(row scanner) (model.PastEmployee, error) {
	var pe model.PastEmployee
	err := row.Scan(
		&pe.PastEmployeeID,
		&pe.OriginalEmployeeID,
		&pe.FirstName,
		&pe.LastName,
		&pe.Email,
		&pe.Phone,
		&pe.HireDate,
		&pe.Salary,
		&pe.TerminationDate,
		&pe.TerminationReason,
		&pe.ArchivedAt,
		&pe.Department.DepartmentID,
		&pe.Department.DepartmentName,
		&pe.Department.Description,
		&pe.Position.PositionID,
		&pe.Position.Title,
		&pe.Position.PayGrade,
	)
	return pe, err
}

// ArchiveEmployee snapshots an active employee into past_employees and
// removes the source row. Both writes run in one transaction so the id is
// never reported by both tables, or by neither.
func (s *Store) ArchiveEmployee(ctx context.Context, id int64, reason string) (model.PastEmployee, error) {
	if strings.TrimSpace(reason) == "" {
		reason = defaultTerminationReason
	}

	var archived model.PastEmployee
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		employee, err := getEmployee(ctx, tx, id)
		if err != nil {
			return err
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO past_employees (original_employee_id, first_name, last_name, email, phone,
			                            department_id, position_id, hire_date, salary,
			                            termination_date, termination_reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_DATE, $10)
			RETURNING past_employee_id, termination_date, archived_at
		`, employee.EmployeeID, employee.FirstName, employee.LastName, employee.Email, employee.Phone,
			employee.Department.DepartmentID, employee.Position.PositionID, employee.HireDate, employee.Salary,
			reason)

		archived = model.PastEmployee{
			OriginalEmployeeID: employee.EmployeeID,
			FirstName:          employee.FirstName,
			LastName:           employee.LastName,
			Email:              employee.Email,
			Phone:              employee.Phone,
			Department:         employee.Department,
			Position:           employee.Position,
			HireDate:           employee.HireDate,
			Salary:             employee.Salary,
			TerminationReason:  reason,
		}
		if err := row.Scan(&archived.PastEmployeeID, &archived.TerminationDate, &archived.ArchivedAt); err != nil {
			return apperror.Wrap(apperror.CodeInternal, "Failed to archive employee.", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM employees WHERE employee_id = $1`, id)
		if err != nil {
			return apperror.Wrap(apperror.CodeInternal, "Failed to archive employee.", err)
		}
		if tag.RowsAffected() == 0 {
			return apperror.Newf(apperror.CodeNotFound, "Employee with id=%d not found.", id)
		}
		return nil
	})
	if err != nil {
		return model.PastEmployee{}, err
	}
	return archived, nil
}

// ListPastEmployees returns archived records, most recent termination first.
func (s *Store) ListPastEmployees(ctx context.Context) ([]model.PastEmployee, error) {
	rows, err := s.db.Query(ctx, pastEmployeeSelect+`ORDER BY pe.termination_date DESC`)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, "Failed to fetch past employees.", err)
	}
	defer rows.Close()

	archived := make([]model.PastEmployee, 0)
	for rows.Next() {
		pe, err := scanPastEmployee(rows)
		if err != nil {
			return nil, apperror.Wrap(apperror.CodeInternal, "Failed to fetch past employees.", err)
		}
		archived = append(archived, pe)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, "Failed to fetch past employees.", err)
	}
	return archived, nil
}

func (s *Store) GetPastEmployee(ctx context.Context, id int64) (model.PastEmployee, error) {
	row := s.db.QueryRow(ctx, pastEmployeeSelect+`WHERE pe.past_employee_id = $1`, id)
	pe, err := scanPastEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PastEmployee{}, apperror.Newf(apperror.CodeNotFound, "Past employee with id=%d not found.", id)
		}
		return model.PastEmployee{}, apperror.Wrap(apperror.CodeInternal, "Failed to fetch past employee.", err)
	}
	return pe, nil
}
