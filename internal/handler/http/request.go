package http

import (
	"net/http"
	"strings"

	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
	"github.com/redaxis-hris/hrms-backend-go/internal/handler/http/middleware"
	"github.com/redaxis-hris/hrms-backend-go/internal/handler/http/response"
)

// requesterFrom writes 401 and reports false when the request is anonymous.
func requesterFrom(w http.ResponseWriter, r *http.Request) (user.Requester, bool) {
	requester, ok := middleware.RequesterFromContext(r.Context())
	if !ok {
		response.HandleError(w, user.ErrRequesterMissing)
		return user.Requester{}, false
	}
	return requester, true
}

// queryPtr returns nil for a missing or blank query parameter.
func queryPtr(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil
	}
	return &v
}
