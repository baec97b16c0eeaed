package payroll

import "context"

// EmployeeRef is the slice of an employee record the payroll flows need.
type EmployeeRef struct {
	UserID   string
	FullName string
	Code     string
	Position string
	Salary   *float64
}

type StoreAPI interface {
	// Upsert inserts the payslip for (employeeID, year, month) or, on an
	// existing period, replaces pdf_url only. The signing state is
	// forward-only and survives a re-upload.
	Upsert(ctx context.Context, employeeID string, year, month int, pdfURL string) (*PayslipDetail, error)
	Get(ctx context.Context, id string) (*PayslipDetail, error)
	ListByEmployee(ctx context.Context, employeeID string, year, limit, offset int) ([]PayslipDetail, int, error)
	ListAll(ctx context.Context, year, limit, offset int) ([]PayslipDetail, int, error)
	// MarkSigned flips an unsigned payslip to signed and reports whether a
	// row changed.
	MarkSigned(ctx context.Context, id string) (bool, error)

	EmployeeIDByUserID(ctx context.Context, userID string) (string, error)
	Employee(ctx context.Context, employeeID string) (*EmployeeRef, error)
}
