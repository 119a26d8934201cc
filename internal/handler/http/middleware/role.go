package middleware

import (
	"fmt"
	"net/http"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
	"github.com/redaxis-hris/hrms-backend-go/internal/handler/http/response"
)

// RequirePermission checks the requester's level against the permission table.
func RequirePermission(permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requester, ok := RequesterFromContext(r.Context())
			if !ok {
				response.HandleError(w, user.ErrRequesterMissing)
				return
			}

			if !requester.HasPermission(permission) {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s', but requester is %s", permission, requester.Level))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
