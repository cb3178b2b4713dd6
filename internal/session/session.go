// Package session is a thin wrapper over the stored auth token and the
// signed-in user's profile.
package session

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

type User struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Street   string `json:"street"`
	City     string `json:"city"`
	District string `json:"district"`
	Ward     string `json:"ward"`
	RoleID   int    `json:"role_id"`
}

type Store struct {
	kv  storage.Store
	log *slog.Logger
}

func NewStore(kv storage.Store, l *slog.Logger) *Store {
	if l == nil {
		l = slog.Default()
	}
	return &Store{kv: kv, log: l.With("component", "session")}
}

// Token satisfies apiclient.TokenSource. No token is not an error.
func (s *Store) Token(ctx context.Context) (string, error) {
	tok, _, err := s.kv.Get(ctx, storage.KeySession)
	return tok, err
}

func (s *Store) Login(ctx context.Context, token string, user *User) error {
	if err := s.kv.Set(ctx, storage.KeySession, token); err != nil {
		return err
	}
	if user == nil {
		return nil
	}
	return s.SetUser(ctx, *user)
}

func (s *Store) Claims(ctx context.Context) (*tokens.SessionClaims, error) {
	tok, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	return tokens.Decode(tok)
}

func (s *Store) User(ctx context.Context) (*User, bool) {
	raw, ok, err := s.kv.Get(ctx, storage.KeyUser)
	if err != nil || !ok || raw == "" {
		return nil, false
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.log.Warn("session_user_decode_error", "error", err)
		_ = s.kv.Set(ctx, storage.KeyUser, "{}")
		return nil, false
	}
	return &u, true
}

func (s *Store) SetUser(ctx context.Context, u User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, storage.KeyUser, string(data))
}

// Phone is the signed-in customer's phone: the profile first, token claims second.
func (s *Store) Phone(ctx context.Context) string {
	if u, ok := s.User(ctx); ok && u.Phone != "" {
		return u.Phone
	}
	if c, err := s.Claims(ctx); err == nil {
		return c.Phone
	}
	return ""
}

// DropToken forgets only the token, which is what a 401 from the backend does.
func (s *Store) DropToken(ctx context.Context) {
	if err := s.kv.Remove(ctx, storage.KeySession); err != nil {
		s.log.Warn("session_drop_token_error", "error", err)
	}
}

// Logout clears the token, the profile and the admin's new-order state.
func (s *Store) Logout(ctx context.Context) {
	for _, key := range []string{storage.KeySession, storage.KeyUser, storage.KeyLastOrderID, storage.KeyOrderWatermark} {
		if err := s.kv.Remove(ctx, key); err != nil {
			s.log.Warn("session_logout_error", "key", key, "error", err)
		}
	}
}
