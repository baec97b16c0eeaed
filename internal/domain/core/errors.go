package core

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrEmployeeIDTaken    = errors.New("an employee with that employee id already exists")
	ErrEmployeeHasAccount = errors.New("user already has an employee record")
	ErrForbidden          = errors.New("not allowed to view or edit this record")
)
