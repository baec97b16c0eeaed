package core

import (
	"context"
	"time"
)

// EmployeeInput carries every employee column a privileged actor may set.
type EmployeeInput struct {
	UserID                string
	EmployeeID            string
	Department            string
	Position              string
	HireDate              time.Time
	Salary                *float64
	Address               string
	EmergencyContactName  string
	EmergencyContactPhone string
	Status                string
}

// SelfEditInput carries the fields an employee may change on their own
// record: contact details only, never compensation or status.
type SelfEditInput struct {
	Phone                 *string
	Address               *string
	EmergencyContactName  *string
	EmergencyContactPhone *string
}

type StoreAPI interface {
	InsertEmployee(ctx context.Context, in EmployeeInput) (string, error)
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	GetEmployeeByUserID(ctx context.Context, userID string) (*Employee, error)
	ListEmployees(ctx context.Context, status string, limit, offset int) ([]Employee, int, error)
	UpdateEmployee(ctx context.Context, id string, in EmployeeInput) error
	UpdateSelf(ctx context.Context, userID string, in SelfEditInput) error
	DeleteEmployee(ctx context.Context, id string) error

	GetUser(ctx context.Context, id string) (*User, error)
	SetAvatarURL(ctx context.Context, userID, url string) error
}
