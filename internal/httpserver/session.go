package httpserver

import (
	"net/http"
	"strings"

	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/labstack/echo/v4"
)

type SessionHTTP struct {
	Session *session.Store
	Bus     *notify.Bus
}

type sessionResponse struct {
	SignedIn bool          `json:"signed_in"`
	Phone    string        `json:"phone,omitempty"`
	RoleID   int           `json:"role_id,omitempty"`
	User     *session.User `json:"user,omitempty"`
}

func (h *SessionHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	out := sessionResponse{}
	if claims, err := h.Session.Claims(ctx); err == nil {
		out.SignedIn = true
		out.Phone = claims.Phone
		out.RoleID = claims.RoleID
	}
	if u, ok := h.Session.User(ctx); ok {
		out.User = u
	}
	return c.JSON(http.StatusOK, out)
}

// Login stores a token the backend already issued.
func (h *SessionHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.login")

	var req struct {
		Token string        `json:"token"`
		User  *session.User `json:"user"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", errStr(err))
		return echo.NewHTTPError(http.StatusBadRequest, "token required")
	}
	if err := h.Session.Login(ctx, strings.TrimSpace(req.Token), req.User); err != nil {
		l.Error("login_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.Bus.Publish(ctx, notify.KindSessionChanged, storage.KeySession, map[string]any{"signed_in": true})
	l.Info("login_success")
	return c.NoContent(http.StatusNoContent)
}

func (h *SessionHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	h.Session.Logout(ctx)
	h.Bus.Publish(ctx, notify.KindSessionChanged, storage.KeySession, map[string]any{"signed_in": false})
	return c.NoContent(http.StatusNoContent)
}
