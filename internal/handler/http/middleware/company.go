package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
)

// RequireCompany rejects callers whose token is not bound to a company,
// such as users still in onboarding.
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := jwt.CallerFromContext(r.Context())
		if err != nil || caller.CompanyID == nil {
			response.HandleError(w, r, user.ErrCompanyIDRequired)
			return
		}

		if caller.Role == user.RolePending {
			response.HandleError(w, r, user.ErrCompanyIDRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
