package middleware

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
)

// RequirePermission lets the request through only if the caller's role grants permission.
func RequirePermission(permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := jwt.CallerFromContext(r.Context())
			if err != nil || caller.Role == "" {
				response.HandleError(w, r, fmt.Errorf("%w: required '%s'", user.ErrInsufficientPermissions, permission))
				return
			}

			if !user.HasPermission(caller.Role, permission) {
				response.HandleError(w, r, fmt.Errorf("%w: required '%s', but user role is '%s'", user.ErrInsufficientPermissions, permission, caller.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
