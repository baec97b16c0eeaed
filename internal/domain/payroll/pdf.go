package payroll

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// renderPayslipPDF produces the payslip document for one employee and
// period. Amounts come from the employee record; when the salary is not
// available in plaintext the amount line is left for manual completion.
func renderPayslipPDF(employee *EmployeeRef, year, month int) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, tr("Recibo de Sueldo"))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Período: %s", PeriodLabel(year, month))))
	pdf.Ln(7)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Empleado: %s", employee.FullName)))
	pdf.Ln(7)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Legajo: %s", employee.Code)))
	pdf.Ln(7)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Puesto: %s", employee.Position)))
	pdf.Ln(10)

	if employee.Salary != nil {
		pdf.Cell(0, 8, tr(fmt.Sprintf("Sueldo bruto: $ %.2f", *employee.Salary)))
	} else {
		pdf.Cell(0, 8, tr("Sueldo bruto: ______________"))
	}
	pdf.Ln(20)

	pdf.Cell(0, 8, "______________________")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, tr("Firma del empleado"))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
