package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/tokendesk/contractsinfo/internal/blockscout"
)

const userEmailContextKey contextKey = "userEmail"

// UserResolver resolves an explorer session token to an account.
type UserResolver interface {
	UserInfo(ctx context.Context, authorization string) (*blockscout.UserInfo, error)
}

// GetUserEmailFromContext retrieves the authenticated user's email from
// context.
func GetUserEmailFromContext(ctx context.Context) string {
	if email, ok := ctx.Value(userEmailContextKey).(string); ok {
		return email
	}
	return ""
}

// SessionMiddleware returns an HTTP middleware that authenticates requests
// against the explorer's account API. The Authorization header is forwarded
// verbatim; the resolved account email lands in the request context.
func SessionMiddleware(resolver UserResolver, writeError func(w http.ResponseWriter, status int, code, message string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorization := r.Header.Get("Authorization")
			if authorization == "" {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization required")
				return
			}

			user, err := resolver.UserInfo(r.Context(), authorization)
			if err != nil {
				if errors.Is(err, blockscout.ErrUnauthorized) || errors.Is(err, blockscout.ErrNotFound) {
					writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid session")
					return
				}
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve account")
				return
			}
			if user.Email == "" {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Account has no email")
				return
			}

			ctx := context.WithValue(r.Context(), userEmailContextKey, user.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
