package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/labstack/echo/v4"
)

// RequestLogger puts a request-scoped logger into the request context and
// records one log line and one metrics sample per request.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(echo.HeaderXRequestID)

			l := base.With(
				"method", c.Request().Method,
				"path", c.Path(),
				"remote_ip", c.RealIP(),
			)
			if rid != "" {
				l = l.With("request_id", rid)
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}
			c.SetRequest(c.Request().WithContext(logging.IntoContext(c.Request().Context(), l)))

			start := time.Now()
			err := next(c)
			dur := time.Since(start)
			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
			}
			status := c.Response().Status

			endpoint := c.Path()
			if endpoint == "" {
				endpoint = "unmatched"
			}
			metrics.RequestsTotal.WithLabelValues(c.Request().Method, endpoint, strconv.Itoa(status)).Inc()
			metrics.RequestDuration.WithLabelValues(c.Request().Method, endpoint).Observe(dur.Seconds())

			switch {
			case err != nil || status >= 500:
				l.Error("request_completed", "status", status, "duration_ms", dur.Milliseconds(), "error", errStr(err))
			case status >= 400:
				l.Warn("request_completed", "status", status, "duration_ms", dur.Milliseconds())
			default:
				l.Debug("request_completed", "status", status, "duration_ms", dur.Milliseconds(), "bytes", c.Response().Size)
			}
			return nil
		}
	}
}

func errStr(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%v", err)
}

type TokenReader interface {
	Token(ctx context.Context) (string, error)
}

// AuthMiddleware resolves the caller's session claims from a Bearer header,
// falling back to the token held in the session store. With a secret the
// signature is checked; without one the backend stays the only authority.
type AuthMiddleware struct {
	Secret  []byte
	Session TokenReader
	Now     func() time.Time
}

type ValidatorFunc func(claims *tokens.SessionClaims) error

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireWithValidator(next, nil)
}

func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireWithValidator(next, func(claims *tokens.SessionClaims) error {
		if !claims.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (m *AuthMiddleware) requireWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearer(c.Request().Header.Get(echo.HeaderAuthorization))
		if raw == "" && m.Session != nil {
			tok, err := m.Session.Token(c.Request().Context())
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session unavailable")
			}
			raw = tok
		}
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing session token")
		}

		claims, err := m.parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid session token")
		}
		now := time.Now
		if m.Now != nil {
			now = m.Now
		}
		if claims.Expired(now()) {
			return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
		}
		if validator != nil {
			if vErr := validator(claims); vErr != nil {
				return vErr
			}
		}

		c.Set("phone", claims.Phone)
		c.Set("role_id", claims.RoleID)
		return next(c)
	}
}

func (m *AuthMiddleware) parse(raw string) (*tokens.SessionClaims, error) {
	if len(m.Secret) > 0 {
		return tokens.Verify(raw, m.Secret)
	}
	return tokens.Decode(raw)
}

func bearer(h string) string {
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
