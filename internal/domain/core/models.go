package core

import "time"

const (
	EmployeeActive   = "active"
	EmployeeInactive = "inactive"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Role      string    `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Employee struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"userId"`
	EmployeeID            string    `json:"employeeId"`
	Department            string    `json:"department,omitempty"`
	Position              string    `json:"position"`
	HireDate              time.Time `json:"hireDate"`
	Salary                *float64  `json:"salary,omitempty"`
	Address               string    `json:"address,omitempty"`
	EmergencyContactName  string    `json:"emergencyContactName,omitempty"`
	EmergencyContactPhone string    `json:"emergencyContactPhone,omitempty"`
	Status                string    `json:"status"`
	CreatedAt             time.Time `json:"createdAt"`

	User *User `json:"user,omitempty"`
}
