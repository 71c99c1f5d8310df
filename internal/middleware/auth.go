package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
	"github.com/deppfellow/tours/internal/errs"
	"github.com/deppfellow/tours/internal/server"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

// Organization roles allowed to manage tours.
const (
	RoleAdmin     = "org:admin"
	RoleLeadGuide = "org:lead-guide"
	RoleGuide     = "org:guide"
)

// AuthMiddleware verifies Clerk sessions and enforces roles.
type AuthMiddleware struct {
	server *server.Server
}

func NewAuthMiddleware(s *server.Server) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
	}
}

// RequireAuth rejects requests without a valid Clerk session token with a
// 401. On success the user id, organization role and permissions are stored
// in the echo context.
func (auth *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return echo.WrapMiddleware(
		clerkhttp.WithHeaderAuthorization(
			clerkhttp.AuthorizationFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				start := time.Now()

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)

				body := errs.NewUnauthorizedError("You are not logged in! Please log in to get access.", true)
				if err := json.NewEncoder(w).Encode(body); err != nil {
					auth.server.Logger.Error().
						Err(err).
						Str("function", "RequireAuth").
						Dur("duration", time.Since(start)).
						Msg("failed to write JSON response")
					return
				}

				auth.server.Logger.Warn().
					Str("function", "RequireAuth").
					Str("path", r.URL.Path).
					Dur("duration", time.Since(start)).
					Msg("rejected request without a valid session")
			}))))(
		func(c echo.Context) error {
			start := time.Now()

			claims, ok := clerk.SessionClaimsFromContext(c.Request().Context())
			if !ok {
				auth.server.Logger.Error().
					Str("function", "RequireAuth").
					Str("request_id", GetRequestID(c)).
					Dur("duration", time.Since(start)).
					Msg("could not get session claims from context")

				return errs.NewUnauthorizedError("Unauthorized", false)
			}

			c.Set(UserIDKey, claims.Subject)
			c.Set(UserRoleKey, claims.ActiveOrganizationRole)
			c.Set(PermissionsKey, claims.Claims.ActiveOrganizationPermissions)

			auth.server.Logger.Info().
				Str("function", "RequireAuth").
				Str("user_id", claims.Subject).
				Str("request_id", GetRequestID(c)).
				Dur("duration", time.Since(start)).
				Msg("user authenticated successfully")

			return next(c)
		})
}

// RequireRole only lets through users whose organization role is one of
// roles. It must run after RequireAuth.
func (auth *AuthMiddleware) RequireRole(roles ...string) echo.MiddlewareFunc {
	return RequireRole(roles...)
}

// RequireRole is the role gate without a server dependency.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(UserRoleKey).(string)
			if !slices.Contains(roles, role) {
				GetLogger(c).Warn().
					Str("user_role", role).
					Strs("required_roles", roles).
					Msg("permission denied")
				return errs.NewForbiddenError("You do not have permission to perform this action", true)
			}
			return next(c)
		}
	}
}
