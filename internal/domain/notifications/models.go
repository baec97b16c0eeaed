package notifications

import "time"

// Notification kinds recorded in the type column.
const (
	KindLeaveApproved   = "leave_approved"
	KindLeaveRejected   = "leave_rejected"
	KindPayslipUploaded = "payslip_uploaded"
	KindPayslipSigned   = "payslip_signed"
	KindWelcome         = "welcome"
)

type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Kind      string     `json:"type"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}
