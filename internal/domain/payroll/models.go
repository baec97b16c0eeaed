package payroll

import "time"

// Payslip signature states. The values are the Spanish labels the workforce
// sees; they are stored verbatim.
const (
	StateUnsigned = "No Firmada"
	StateSigned   = "Firmada"
)

type Payslip struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employeeId"`
	Year       int        `json:"year"`
	Month      int        `json:"month"`
	PDFURL     string     `json:"pdfUrl,omitempty"`
	State      string     `json:"state"`
	SignedAt   *time.Time `json:"signedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// PayslipDetail joins in the fields needed for ownership checks and lists.
type PayslipDetail struct {
	Payslip
	EmployeeUserID string `json:"-"`
	EmployeeName   string `json:"employeeName,omitempty"`
	EmployeeCode   string `json:"employeeCode,omitempty"`
}
