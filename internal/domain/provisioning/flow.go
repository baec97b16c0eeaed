package provisioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cyberhr/internal/domain/auth"
	"cyberhr/internal/domain/core"
	"cyberhr/internal/domain/identity"
	"cyberhr/internal/domain/notifications"
)

var ErrForbidden = errors.New("only employers and admins can provision employees")

// IdentityAPI is the slice of the identity service the flow needs: account
// creation and its undo.
type IdentityAPI interface {
	SignUp(ctx context.Context, email, password, fullName, role, phone string) (*identity.UserRecord, error)
	DeleteUser(ctx context.Context, userID string) error
}

// EmployeeStore is the slice of the core store the flow needs.
type EmployeeStore interface {
	InsertEmployee(ctx context.Context, in core.EmployeeInput) (string, error)
	GetEmployee(ctx context.Context, id string) (*core.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
}

type Notifier interface {
	Notify(ctx context.Context, userID, kind, title, message string) error
}

type Service struct {
	ids       IdentityAPI
	employees EmployeeStore
	notify    Notifier
}

func NewService(ids IdentityAPI, employees EmployeeStore, notify Notifier) *Service {
	return &Service{ids: ids, employees: employees, notify: notify}
}

// Result is the outcome of a successful provisioning run. Password is set
// only when the flow generated one.
type Result struct {
	Employee *core.Employee `json:"employee"`
	Password string         `json:"temporaryPassword,omitempty"`
}

// Provision creates the account and the employee record as a saga: if the
// employee insert fails (say, a duplicate employee id), the freshly created
// account is deleted again, so no credentialed user without an employee
// record is ever left behind.
func (s *Service) Provision(ctx context.Context, actor auth.Actor, in Input) (*Result, error) {
	if actor.Capability() != auth.Privileged {
		return nil, ErrForbidden
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	password := in.Password
	generated := false
	if password == "" {
		var err error
		if password, err = generatePassword(); err != nil {
			return nil, fmt.Errorf("generate password: %w", err)
		}
		generated = true
	} else if err := identity.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	var (
		user       *identity.UserRecord
		employeeID string
	)
	steps := []step{
		{
			name: "create account",
			run: func(ctx context.Context) error {
				var err error
				user, err = s.ids.SignUp(ctx, in.Email, password, in.FullName, auth.RoleEmployee, in.Phone)
				return err
			},
			compensate: func(ctx context.Context) error {
				return s.ids.DeleteUser(ctx, user.ID)
			},
		},
		{
			name: "create employee record",
			run: func(ctx context.Context) error {
				var err error
				employeeID, err = s.employees.InsertEmployee(ctx, core.EmployeeInput{
					UserID:     user.ID,
					EmployeeID: in.EmployeeID,
					Department: in.Department,
					Position:   in.Position,
					HireDate:   in.HireDate,
					Salary:     in.Salary,
				})
				return err
			},
			compensate: func(ctx context.Context) error {
				return s.employees.DeleteEmployee(ctx, employeeID)
			},
		},
	}
	if err := runSaga(ctx, steps); err != nil {
		return nil, err
	}

	if s.notify != nil {
		err := s.notify.Notify(ctx, user.ID, notifications.KindWelcome, "Bienvenido al portal de RRHH",
			fmt.Sprintf("Hola %s, tu cuenta fue creada. Ya puedes consultar tus recibos y solicitar licencias.", in.FullName))
		if err != nil {
			slog.Warn("welcome notification failed", "userId", user.ID, "error", err)
		}
	}

	employee, err := s.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	result := &Result{Employee: employee}
	if generated {
		result.Password = password
	}
	return result, nil
}
