package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/auth"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
	"github.com/redaxis-hris/hrms-backend-go/internal/handler/http/response"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/jwt"
)

type requesterKey struct{}

// WithRequester stores the authenticated employee in ctx.
func WithRequester(ctx context.Context, requester user.Requester) context.Context {
	return context.WithValue(ctx, requesterKey{}, requester)
}

// RequesterFromContext returns the employee set by AuthRequired.
func RequesterFromContext(ctx context.Context) (user.Requester, bool) {
	requester, ok := ctx.Value(requesterKey{}).(user.Requester)
	return requester, ok
}

// AuthRequired accepts verified, unrevoked access tokens and reloads the
// employee they name, so level changes apply without a new login.
func AuthRequired(jwtService jwt.Service, identifier auth.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			tokenType, ok := claims[jwt.ClaimType].(string)
			if tokenType != jwt.TokenTypeAccess || !ok {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			if jwtService.IsTokenRevoked(jwtauth.TokenFromHeader(r)) {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			employeeID, _ := claims[jwt.ClaimEmployeeID].(string)
			requester, err := identifier.Identify(r.Context(), employeeID)
			if err != nil {
				response.HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithRequester(r.Context(), requester)))
		}
		return http.HandlerFunc(hfn)
	}
}
