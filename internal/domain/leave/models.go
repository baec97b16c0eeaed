package leave

import "time"

type LeaveType struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	MaxDaysPerYear int    `json:"maxDaysPerYear"`
}

type LeaveRequest struct {
	ID              string     `json:"id"`
	EmployeeID      string     `json:"employeeId"`
	LeaveTypeID     string     `json:"leaveTypeId"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         time.Time  `json:"endDate"`
	DaysRequested   int        `json:"daysRequested"`
	Reason          string     `json:"reason,omitempty"`
	Status          string     `json:"status"`
	CertificateURL  *string    `json:"certificateUrl,omitempty"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	ApprovedBy      *string    `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// RequestDetail augments a request with the joined fields the services and
// handlers need: who to notify and what to call the leave in messages.
type RequestDetail struct {
	LeaveRequest
	EmployeeUserID string `json:"-"`
	EmployeeName   string `json:"employeeName,omitempty"`
	LeaveTypeName  string `json:"leaveTypeName,omitempty"`
}
