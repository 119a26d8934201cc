package access

import "fmt"

// AuthorizationError is a permission denial naming the violated rule.
type AuthorizationError struct {
	Rule string
}

func (e *AuthorizationError) Error() string {
	return e.Rule
}

// Deny builds an AuthorizationError.
func Deny(format string, args ...any) error {
	return &AuthorizationError{Rule: fmt.Sprintf(format, args...)}
}
