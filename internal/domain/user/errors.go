package user

import "errors"

var (
	ErrRequesterMissing        = errors.New("authenticated employee missing from request")
	ErrRequesterInactive       = errors.New("employee account is not active")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)
