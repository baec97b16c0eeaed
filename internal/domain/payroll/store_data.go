package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const payslipColumns = `
	p.id, p.employee_id, p.year, p.month, COALESCE(p.pdf_url, ''), p.state,
	p.signed_at, p.created_at, e.user_id, u.full_name, e.employee_id`

const payslipJoins = `
	FROM payslips p
	JOIN employees e ON e.id = p.employee_id
	JOIN users u ON u.id = e.user_id`

func (s *Store) Upsert(ctx context.Context, employeeID string, year, month int, pdfURL string) (*PayslipDetail, error) {
	var id string
	err := s.db.QueryRow(ctx,
		`INSERT INTO payslips (employee_id, year, month, pdf_url, state)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (employee_id, year, month)
		 DO UPDATE SET pdf_url = EXCLUDED.pdf_url, updated_at = now()
		 RETURNING id`,
		employeeID, year, month, pdfURL, StateUnsigned).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("upsert payslip: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *Store) Get(ctx context.Context, id string) (*PayslipDetail, error) {
	row := s.db.QueryRow(ctx, `SELECT`+payslipColumns+payslipJoins+` WHERE p.id = $1`, id)
	detail, err := scanPayslip(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payslip: %w", err)
	}
	return detail, nil
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID string, year, limit, offset int) ([]PayslipDetail, int, error) {
	var total int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM payslips
		 WHERE employee_id = $1 AND ($2 = 0 OR year = $2)`, employeeID, year).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count payslips: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT`+payslipColumns+payslipJoins+`
		 WHERE p.employee_id = $1 AND ($2 = 0 OR p.year = $2)
		 ORDER BY p.year DESC, p.month DESC
		 LIMIT $3 OFFSET $4`, employeeID, year, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list payslips: %w", err)
	}
	defer rows.Close()

	details, err := scanPayslips(rows)
	return details, total, err
}

func (s *Store) ListAll(ctx context.Context, year, limit, offset int) ([]PayslipDetail, int, error) {
	var total int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM payslips WHERE ($1 = 0 OR year = $1)`, year).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count payslips: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT`+payslipColumns+payslipJoins+`
		 WHERE ($1 = 0 OR p.year = $1)
		 ORDER BY p.year DESC, p.month DESC, u.full_name
		 LIMIT $2 OFFSET $3`, year, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list payslips: %w", err)
	}
	defer rows.Close()

	details, err := scanPayslips(rows)
	return details, total, err
}

func (s *Store) MarkSigned(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE payslips SET state = $1, signed_at = now(), updated_at = now()
		 WHERE id = $2 AND state = $3`,
		StateSigned, id, StateUnsigned)
	if err != nil {
		return false, fmt.Errorf("sign payslip: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) EmployeeIDByUserID(ctx context.Context, userID string) (string, error) {
	var id string
	err := s.db.QueryRow(ctx, `SELECT id FROM employees WHERE user_id = $1`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrEmployeeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("employee by user: %w", err)
	}
	return id, nil
}

func (s *Store) Employee(ctx context.Context, employeeID string) (*EmployeeRef, error) {
	var ref EmployeeRef
	err := s.db.QueryRow(ctx,
		`SELECT e.user_id, u.full_name, e.employee_id, e.position, e.salary
		 FROM employees e JOIN users u ON u.id = e.user_id
		 WHERE e.id = $1`, employeeID).
		Scan(&ref.UserID, &ref.FullName, &ref.Code, &ref.Position, &ref.Salary)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("employee ref: %w", err)
	}
	return &ref, nil
}

func scanPayslip(row pgx.Row) (*PayslipDetail, error) {
	var d PayslipDetail
	err := row.Scan(&d.ID, &d.EmployeeID, &d.Year, &d.Month, &d.PDFURL, &d.State,
		&d.SignedAt, &d.CreatedAt, &d.EmployeeUserID, &d.EmployeeName, &d.EmployeeCode)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanPayslips(rows pgx.Rows) ([]PayslipDetail, error) {
	var details []PayslipDetail
	for rows.Next() {
		d, err := scanPayslip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payslip: %w", err)
		}
		details = append(details, *d)
	}
	return details, rows.Err()
}
