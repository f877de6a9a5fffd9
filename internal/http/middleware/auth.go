package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"shopapi/internal/errs"
	"shopapi/internal/model"
	"shopapi/internal/service"
)

const (
	// UserIDLocalKey holds the authenticated user id (the auth provider's subject).
	UserIDLocalKey = "user_id"
	// OrgRoleLocalKey holds the caller's active organization role, if any.
	OrgRoleLocalKey = "org_role"

	// SessionCookie is the cookie the auth provider's frontend SDK stores the session token in.
	SessionCookie = "__session"
)

// Claims are the verified parts of a session token the API relies on.
type Claims struct {
	Subject string
	OrgRole string
}

// TokenVerifier checks a session token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// Auth guards routes that need a signed-in caller or an admin.
type Auth struct {
	verifier TokenVerifier
	users    service.UserService
	log      zerolog.Logger
}

func NewAuth(verifier TokenVerifier, users service.UserService, log zerolog.Logger) *Auth {
	return &Auth{verifier: verifier, users: users, log: log.With().Str("component", "auth").Logger()}
}

// RequireAuth accepts a bearer token or the session cookie and stores the
// caller's id and organization role in the request locals.
func (a *Auth) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		token := sessionToken(c)
		if token == "" {
			return errs.NewUnauthorizedError("authentication required")
		}
		claims, err := a.verifier.Verify(c.UserContext(), token)
		if err != nil || claims == nil || claims.Subject == "" {
			a.log.Warn().
				Err(err).
				Str("request_id", RequestIDFromCtx(c)).
				Dur("duration", time.Since(start)).
				Msg("session token rejected")
			return errs.NewUnauthorizedError("invalid or expired session")
		}

		c.Locals(UserIDLocalKey, claims.Subject)
		c.Locals(OrgRoleLocalKey, claims.OrgRole)
		return c.Next()
	}
}

// RequireAdmin must run after RequireAuth. The organization role alone is
// enough; otherwise the stored user row must carry the admin role.
func (a *Auth) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid := UserID(c)
		if uid == "" {
			return errs.NewUnauthorizedError("authentication required")
		}
		if OrgRole(c) == service.OrgAdminRole {
			return c.Next()
		}

		u, err := a.users.Get(c.UserContext(), uid)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				return errs.NewForbiddenError("admin access required")
			}
			return err
		}
		if u.Role != model.RoleAdmin {
			a.log.Warn().Str("user_id", uid).Str("path", c.Path()).Msg("admin route denied")
			return errs.NewForbiddenError("admin access required")
		}
		return c.Next()
	}
}

// UserID returns the authenticated caller, or "" on public routes.
func UserID(c *fiber.Ctx) string {
	s, _ := c.Locals(UserIDLocalKey).(string)
	return s
}

func OrgRole(c *fiber.Ctx) string {
	s, _ := c.Locals(OrgRoleLocalKey).(string)
	return s
}

func sessionToken(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return c.Cookies(SessionCookie)
}
