package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const employeeColumns = `
	e.id, e.user_id, e.employee_id, COALESCE(e.department, ''), e.position,
	e.hire_date, e.salary, e.salary_enc,
	COALESCE(e.address, ''), COALESCE(e.emergency_contact_name, ''),
	COALESCE(e.emergency_contact_phone, ''), e.status, e.created_at,
	u.id, u.email, u.full_name, u.role, COALESCE(u.phone, ''),
	COALESCE(u.avatar_url, ''), u.created_at`

const employeeJoins = `
	FROM employees e
	JOIN users u ON u.id = e.user_id`

func (s *Store) salaryColumns(salary *float64) (plain *float64, sealed []byte, err error) {
	if salary == nil {
		return nil, nil, nil
	}
	if !s.cipher.Enabled() {
		return salary, nil, nil
	}
	sealed, err = s.cipher.Encrypt([]byte(strconv.FormatFloat(*salary, 'f', 2, 64)))
	if err != nil {
		return nil, nil, fmt.Errorf("encrypt salary: %w", err)
	}
	return nil, sealed, nil
}

func (s *Store) decodeSalary(plain *float64, sealed []byte) (*float64, error) {
	if len(sealed) == 0 {
		return plain, nil
	}
	raw, err := s.cipher.Decrypt(sealed)
	if err != nil {
		return nil, fmt.Errorf("decrypt salary: %w", err)
	}
	value, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return nil, fmt.Errorf("parse salary: %w", err)
	}
	return &value, nil
}

func (s *Store) InsertEmployee(ctx context.Context, in EmployeeInput) (string, error) {
	plain, sealed, err := s.salaryColumns(in.Salary)
	if err != nil {
		return "", err
	}
	status := in.Status
	if status == "" {
		status = EmployeeActive
	}

	var id string
	err = s.db.QueryRow(ctx,
		`INSERT INTO employees
			(user_id, employee_id, department, position, hire_date, salary, salary_enc,
			 address, emergency_contact_name, emergency_contact_phone, status)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7,
		         NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), $11)
		 RETURNING id`,
		in.UserID, in.EmployeeID, in.Department, in.Position, in.HireDate, plain, sealed,
		in.Address, in.EmergencyContactName, in.EmergencyContactPhone, status).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == "employees_user_id_key" {
			return "", ErrEmployeeHasAccount
		}
		return "", ErrEmployeeIDTaken
	}
	if err != nil {
		return "", fmt.Errorf("insert employee: %w", err)
	}
	return id, nil
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	row := s.db.QueryRow(ctx, `SELECT`+employeeColumns+employeeJoins+` WHERE e.id = $1`, id)
	return s.scanEmployee(row)
}

func (s *Store) GetEmployeeByUserID(ctx context.Context, userID string) (*Employee, error) {
	row := s.db.QueryRow(ctx, `SELECT`+employeeColumns+employeeJoins+` WHERE e.user_id = $1`, userID)
	return s.scanEmployee(row)
}

func (s *Store) ListEmployees(ctx context.Context, status string, limit, offset int) ([]Employee, int, error) {
	var total int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM employees WHERE ($1 = '' OR status = $1)`, status).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT`+employeeColumns+employeeJoins+`
		 WHERE ($1 = '' OR e.status = $1)
		 ORDER BY u.full_name
		 LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := s.scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *emp)
	}
	return out, total, rows.Err()
}

func (s *Store) UpdateEmployee(ctx context.Context, id string, in EmployeeInput) error {
	plain, sealed, err := s.salaryColumns(in.Salary)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE employees SET
			department = NULLIF($1, ''), position = $2, hire_date = $3,
			salary = $4, salary_enc = $5,
			address = NULLIF($6, ''), emergency_contact_name = NULLIF($7, ''),
			emergency_contact_phone = NULLIF($8, ''), status = $9, updated_at = now()
		 WHERE id = $10`,
		in.Department, in.Position, in.HireDate, plain, sealed,
		in.Address, in.EmergencyContactName, in.EmergencyContactPhone, in.Status, id)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

// UpdateSelf writes only the contact fields the caller provided, leaving
// everything else untouched. Phone lives on users, the rest on employees.
func (s *Store) UpdateSelf(ctx context.Context, userID string, in SelfEditInput) error {
	if in.Phone != nil {
		_, err := s.db.Exec(ctx,
			`UPDATE users SET phone = NULLIF($1, ''), updated_at = now() WHERE id = $2`,
			*in.Phone, userID)
		if err != nil {
			return fmt.Errorf("update phone: %w", err)
		}
	}
	if in.Address == nil && in.EmergencyContactName == nil && in.EmergencyContactPhone == nil {
		return nil
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE employees SET
			address = CASE WHEN $1::bool THEN NULLIF($2, '') ELSE address END,
			emergency_contact_name = CASE WHEN $3::bool THEN NULLIF($4, '') ELSE emergency_contact_name END,
			emergency_contact_phone = CASE WHEN $5::bool THEN NULLIF($6, '') ELSE emergency_contact_phone END,
			updated_at = now()
		 WHERE user_id = $7`,
		in.Address != nil, deref(in.Address),
		in.EmergencyContactName != nil, deref(in.EmergencyContactName),
		in.EmergencyContactPhone != nil, deref(in.EmergencyContactPhone),
		userID)
	if err != nil {
		return fmt.Errorf("update employee contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.QueryRow(ctx,
		`SELECT id, email, full_name, role, COALESCE(phone, ''), COALESCE(avatar_url, ''), created_at
		 FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.Phone, &u.AvatarURL, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *Store) SetAvatarURL(ctx context.Context, userID, url string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET avatar_url = $1, updated_at = now() WHERE id = $2`, url, userID)
	if err != nil {
		return fmt.Errorf("set avatar url: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) scanEmployee(row pgx.Row) (*Employee, error) {
	var (
		e      Employee
		u      User
		plain  *float64
		sealed []byte
	)
	err := row.Scan(
		&e.ID, &e.UserID, &e.EmployeeID, &e.Department, &e.Position,
		&e.HireDate, &plain, &sealed,
		&e.Address, &e.EmergencyContactName, &e.EmergencyContactPhone,
		&e.Status, &e.CreatedAt,
		&u.ID, &u.Email, &u.FullName, &u.Role, &u.Phone, &u.AvatarURL, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan employee: %w", err)
	}
	e.Salary, err = s.decodeSalary(plain, sealed)
	if err != nil {
		return nil, err
	}
	e.User = &u
	return &e, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
