package leave

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const requestColumns = `
	lr.id, lr.employee_id, lr.leave_type_id, lr.start_date, lr.end_date,
	lr.days_requested, COALESCE(lr.reason, ''), lr.status,
	lr.certificate_url, lr.rejection_reason, lr.approved_by, lr.approved_at,
	lr.created_at, e.user_id, u.full_name, lt.name`

const requestJoins = `
	FROM leave_requests lr
	JOIN employees e ON e.id = lr.employee_id
	JOIN users u ON u.id = e.user_id
	JOIN leave_types lt ON lt.id = lr.leave_type_id`

func (s *Store) ListTypes(ctx context.Context) ([]LeaveType, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, COALESCE(description, ''), max_days_per_year
		 FROM leave_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list leave types: %w", err)
	}
	defer rows.Close()

	var types []LeaveType
	for rows.Next() {
		var t LeaveType
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.MaxDaysPerYear); err != nil {
			return nil, fmt.Errorf("scan leave type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (s *Store) GetType(ctx context.Context, id string) (*LeaveType, error) {
	var t LeaveType
	err := s.db.QueryRow(ctx,
		`SELECT id, name, COALESCE(description, ''), max_days_per_year
		 FROM leave_types WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Description, &t.MaxDaysPerYear)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTypeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get leave type: %w", err)
	}
	return &t, nil
}

func (s *Store) Insert(ctx context.Context, req *LeaveRequest) (string, error) {
	var id string
	err := s.db.QueryRow(ctx,
		`INSERT INTO leave_requests
			(employee_id, leave_type_id, start_date, end_date, days_requested, reason, status)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		 RETURNING id`,
		req.EmployeeID, req.LeaveTypeID, req.StartDate, req.EndDate,
		req.DaysRequested, req.Reason, req.Status).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert leave request: %w", err)
	}
	return id, nil
}

func (s *Store) GetRequest(ctx context.Context, id string) (*RequestDetail, error) {
	row := s.db.QueryRow(ctx,
		`SELECT`+requestColumns+requestJoins+` WHERE lr.id = $1`, id)
	detail, err := scanDetail(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get leave request: %w", err)
	}
	return detail, nil
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]RequestDetail, int, error) {
	var total int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM leave_requests WHERE employee_id = $1`, employeeID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count leave requests: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT`+requestColumns+requestJoins+`
		 WHERE lr.employee_id = $1
		 ORDER BY lr.created_at DESC
		 LIMIT $2 OFFSET $3`, employeeID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list leave requests: %w", err)
	}
	defer rows.Close()

	details, err := scanDetails(rows)
	return details, total, err
}

func (s *Store) ListAll(ctx context.Context, status string, limit, offset int) ([]RequestDetail, int, error) {
	var total int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM leave_requests WHERE ($1 = '' OR status = $1)`, status).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count leave requests: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT`+requestColumns+requestJoins+`
		 WHERE ($1 = '' OR lr.status = $1)
		 ORDER BY lr.created_at DESC
		 LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list leave requests: %w", err)
	}
	defer rows.Close()

	details, err := scanDetails(rows)
	return details, total, err
}

// MarkApproved flips a pending request to approved. The status guard in the
// WHERE clause is what makes concurrent approve/reject/cancel race-safe.
func (s *Store) MarkApproved(ctx context.Context, requestID, approverUserID string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE leave_requests
		 SET status = $1, approved_by = $2, approved_at = now(), updated_at = now()
		 WHERE id = $3 AND status = $4`,
		StatusApproved, approverUserID, requestID, StatusPending)
	if err != nil {
		return false, fmt.Errorf("approve leave request: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) MarkRejected(ctx context.Context, requestID, approverUserID, reason string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE leave_requests
		 SET status = $1, approved_by = $2, approved_at = now(),
		     rejection_reason = $3, updated_at = now()
		 WHERE id = $4 AND status = $5`,
		StatusRejected, approverUserID, reason, requestID, StatusPending)
	if err != nil {
		return false, fmt.Errorf("reject leave request: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkCancelled checks ownership and state in the same statement, so a
// request that was approved, or that belongs to someone else, is left alone.
func (s *Store) MarkCancelled(ctx context.Context, requestID, employeeID string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE leave_requests
		 SET status = $1, updated_at = now()
		 WHERE id = $2 AND employee_id = $3 AND status = $4`,
		StatusCancelled, requestID, employeeID, StatusPending)
	if err != nil {
		return false, fmt.Errorf("cancel leave request: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) SetCertificateURL(ctx context.Context, requestID string, url *string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE leave_requests SET certificate_url = $1, updated_at = now() WHERE id = $2`,
		url, requestID)
	if err != nil {
		return fmt.Errorf("set certificate url: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) EmployeeIDByUserID(ctx context.Context, userID string) (string, error) {
	var id string
	err := s.db.QueryRow(ctx,
		`SELECT id FROM employees WHERE user_id = $1`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoEmployee
	}
	if err != nil {
		return "", fmt.Errorf("employee by user: %w", err)
	}
	return id, nil
}

func scanDetail(row pgx.Row) (*RequestDetail, error) {
	var d RequestDetail
	err := row.Scan(
		&d.ID, &d.EmployeeID, &d.LeaveTypeID, &d.StartDate, &d.EndDate,
		&d.DaysRequested, &d.Reason, &d.Status,
		&d.CertificateURL, &d.RejectionReason, &d.ApprovedBy, &d.ApprovedAt,
		&d.CreatedAt, &d.EmployeeUserID, &d.EmployeeName, &d.LeaveTypeName)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanDetails(rows pgx.Rows) ([]RequestDetail, error) {
	var details []RequestDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leave request: %w", err)
		}
		details = append(details, *d)
	}
	return details, rows.Err()
}
