package payroll

import "fmt"

// MaxPDFBytes caps uploaded payslip files.
const MaxPDFBytes = 10 << 20

func ValidatePeriod(year, month int) error {
	if year < 1990 || year > 2100 || month < 1 || month > 12 {
		return ErrInvalidPeriod
	}
	return nil
}

// ValidateFile checks the upload before any byte reaches storage. The
// content type must be exactly application/pdf; parameterized variants are
// rejected.
func ValidateFile(contentType string, size int) error {
	if contentType != "application/pdf" {
		return ErrNotPDF
	}
	if size > MaxPDFBytes {
		return ErrTooLarge
	}
	return nil
}

// ObjectPath is the canonical storage location of a payslip. One object per
// employee and period; re-uploads overwrite it.
func ObjectPath(employeeID string, year, month int) string {
	return fmt.Sprintf("%s/%d-%02d.pdf", employeeID, year, month)
}

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// PeriodLabel renders a period the way it appears on documents, e.g.
// "Marzo 2024".
func PeriodLabel(year, month int) string {
	if month < 1 || month > 12 {
		return fmt.Sprintf("%02d/%d", month, year)
	}
	return fmt.Sprintf("%s %d", monthNames[month-1], year)
}
