package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/leave-engine/internal/domain/user"
	"github.com/cmlabs-hris/leave-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/jwt"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

type ctxKey int

const (
	claimsKey ctxKey = iota
	requestContextKey
)

// AuthRequired rejects requests without a verified access token and stores the
// caller's identity in the request context. It must run after jwtauth.Verifier.
func AuthRequired(jwtService jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.Unauthorized(w, "Invalid token")
				return
			}

			claims, err := jwtService.ParseClaims(token)
			if err != nil {
				response.Unauthorized(w, "Invalid token")
				return
			}

			if !claims.Role.IsValid() {
				response.HandleError(w, user.ErrInvalidRole)
				return
			}

			rc := leave.RequestContext{
				UserID:         claims.UserID,
				OrganizationID: claims.OrganizationID,
				UserRole:       claims.Role,
				RequestID:      chiMiddleware.GetReqID(r.Context()),
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = context.WithValue(ctx, requestContextKey, rc)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hfn)
	}
}

// ClaimsFromContext returns the claims stored by AuthRequired.
func ClaimsFromContext(ctx context.Context) (jwt.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(jwt.Claims)
	return claims, ok
}

// RequestContextFromContext returns the caller identity stored by AuthRequired.
func RequestContextFromContext(ctx context.Context) (leave.RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey).(leave.RequestContext)
	return rc, ok
}
