package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Bimandi111/employee-managment-system/internal/apperror"
	"github.com/Bimandi111/employee-managment-system/internal/model"
)

func (s *Store) ListDepartments(ctx context.Context) ([]model.Department, error) {
	rows, err := s.db.Query(ctx, `
		SELECT department_id, department_name, COALESCE(description, '')
		FROM departments
		ORDER BY department_name
	`)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, "Failed to fetch departments.", err)
	}
	defer rows.Close()

	departments := make([]model.Department, 0)
	for rows.Next() {
		var d model.Department
		if err := rows.Scan(&d.DepartmentID, &d.DepartmentName, &d.Description); err != nil {
			return nil, apperror.Wrap(apperror.CodeInternal, "Failed to fetch departments.", err)
		}
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, "Failed to fetch departments.", err)
	}
	return departments, nil
}

func (s *Store) ListPositions(ctx context.Context) ([]model.Position, error) {
	rows, err := s.db.Query(ctx, `
		SELECT position_id, title, pay_grade
		FROM positions
		ORDER BY title
	`)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, "Failed to fetch positions.", err)
	}
	defer rows.Close()

	positions := make([]model.Position, 0)
	for rows.Next() {
		var p model.Position
		if err := rows.Scan(&p.PositionID, &p.Title, &p.PayGrade); err != nil {
			return nil, apperror.Wrap(apperror.CodeInternal, "Failed to fetch positions.", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, "Failed to fetch positions.", err)
	}
	return positions, nil
}

func getDepartment(ctx context.Context, q Querier, id int64) (model.Department, error) {
	var d model.Department
	row := q.QueryRow(ctx, `
		SELECT department_id, department_name, COALESCE(description, '')
		FROM departments
		WHERE department_id = $1
	`, id)
	if err := row.Scan(&d.DepartmentID, &d.DepartmentName, &d.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Department{}, apperror.New(apperror.CodeNotFound, "Department not found.")
		}
		return model.Department{}, apperror.Wrap(apperror.CodeInternal, "Failed to fetch department.", err)
	}
	return d, nil
}

func getPosition(ctx context.Context, q Querier, id int64) (model.Position, error) {
	var p model.Position
	row := q.QueryRow(ctx, `
		SELECT position_id, title, pay_grade
		FROM positions
		WHERE position_id = $1
	`, id)
	if err := row.Scan(&p.PositionID, &p.Title, &p.PayGrade); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Position{}, apperror.New(apperror.CodeNotFound, "Position not found.")
		}
		return model.Position{}, apperror.Wrap(apperror.CodeInternal, "Failed to fetch position.", err)
	}
	return p, nil
}
