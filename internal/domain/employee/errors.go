package employee

import "errors"

var (
	ErrEmployeeNotFound       = errors.New("employee not found")
	ErrManagerNotFound        = errors.New("reporting manager not found")
	ErrEmployeeNumberExists   = errors.New("employee number already exists")
	ErrEmailExists            = errors.New("email already registered")
	ErrCannotDeleteSelf       = errors.New("cannot delete your own employee record")
	ErrHierarchyCycle         = errors.New("reporting manager cannot be the employee or one of their reports")
	ErrPasswordRequired       = errors.New("password is required")
	ErrInvalidManagementLevel = errors.New("management level must be between 0 and 3")
)
