package session

import (
	"context"
	"testing"

	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, phone string, role int) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokens.SessionClaims{Phone: phone, RoleID: role}).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func TestLoginAndPhone(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryStore(), nil)

	tok, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
	assert.Empty(t, s.Phone(ctx))

	require.NoError(t, s.Login(ctx, signed(t, "0900000001", tokens.RoleCustomer), nil))
	assert.Equal(t, "0900000001", s.Phone(ctx))

	require.NoError(t, s.SetUser(ctx, User{Name: "An", Phone: "0900000002"}))
	assert.Equal(t, "0900000002", s.Phone(ctx))

	claims, err := s.Claims(ctx)
	require.NoError(t, err)
	assert.False(t, claims.IsAdmin())
}

func TestUser_CorruptIsReset(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	s := NewStore(kv, nil)

	require.NoError(t, kv.Set(ctx, storage.KeyUser, "{oops"))
	_, ok := s.User(ctx)
	assert.False(t, ok)

	raw, _, _ := kv.Get(ctx, storage.KeyUser)
	assert.Equal(t, "{}", raw)
}

func TestLogoutAndDropToken(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	s := NewStore(kv, nil)

	require.NoError(t, s.Login(ctx, "tok", &User{Phone: "1"}))
	require.NoError(t, kv.Set(ctx, storage.KeyLastOrderID, "o-1"))
	require.NoError(t, kv.Set(ctx, storage.KeyOrderWatermark, `{"seen":["o-1"]}`))

	s.DropToken(ctx)
	_, ok, _ := kv.Get(ctx, storage.KeySession)
	assert.False(t, ok)
	_, ok, _ = kv.Get(ctx, storage.KeyUser)
	assert.True(t, ok)

	s.Logout(ctx)
	for _, key := range []string{storage.KeyUser, storage.KeyLastOrderID, storage.KeyOrderWatermark} {
		_, ok, _ := kv.Get(ctx, key)
		assert.False(t, ok, key)
	}
}
