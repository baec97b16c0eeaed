package payroll

import "errors"

var (
	ErrNotFound         = errors.New("payslip not found")
	ErrForbidden        = errors.New("not allowed to act on this payslip")
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrInvalidPeriod    = errors.New("year must be between 1990 and 2100 and month between 1 and 12")
	ErrNotPDF           = errors.New("payslip file must be a PDF")
	ErrTooLarge         = errors.New("payslip file exceeds the 10 MiB limit")
)
