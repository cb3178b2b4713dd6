package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	mu      sync.Mutex
	token   string
	dropped int
	logout  int
}

func (f *fakeSession) Token(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, nil
}
func (f *fakeSession) DropToken(context.Context) { f.mu.Lock(); f.dropped++; f.mu.Unlock() }
func (f *fakeSession) Logout(context.Context)    { f.mu.Lock(); f.logout++; f.mu.Unlock() }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, h http.HandlerFunc, s Session) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL, LocationURL: srv.URL, Session: s})
}

func TestBrands_SendsQueryAndBearer(t *testing.T) {
	t.Parallel()
	sess := &fakeSession{token: "tok"}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/brand/get", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "", r.URL.Query().Get("search"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, BrandsResponse{Brands: []Brand{{ID: "b1", Name: "Acme"}}, TotalPages: 3})
	}, sess)

	out, err := c.Brands(context.Background(), "", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, out.TotalPages)
	assert.Equal(t, "Acme", out.Brands[0].Name)
}

func TestOrders_EmptyFiltersSentAsEmptyStrings(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		for _, key := range []string{"phone", "fromDate", "toDate", "status", "payment_status"} {
			assert.True(t, q.Has(key), key)
			assert.Empty(t, q.Get(key), key)
		}
		assert.Equal(t, "1", q.Get("page"))
		writeJSON(w, http.StatusOK, OrdersResponse{})
	}, nil)

	_, err := c.Orders(context.Background(), OrderQuery{})
	require.NoError(t, err)
}

func TestUpdateOrder_PutsCombinedBody(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "o-1", r.URL.Query().Get("id"))
		var body UpdateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, UpdateOrderRequest{Status: "processing", PaymentStatus: "1", ShipPrice: 30000}, body)
		writeJSON(w, http.StatusOK, UpdateOrderResponse{Message: "ok", Result: Order{ID: "o-1"}})
	}, nil)

	out, err := c.UpdateOrder(context.Background(), "o-1", UpdateOrderRequest{Status: "processing", PaymentStatus: "1", ShipPrice: 30000})
	require.NoError(t, err)
	assert.Equal(t, "o-1", out.Result.ID)
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		dropped int
		logout  int
	}{
		{"old password", http.StatusBadRequest, "old_password incorrect", MsgOldPassword, 0, 0},
		{"jwt expired", http.StatusBadRequest, "jwt expired", "Bad Request: jwt expired", 0, 1},
		{"bad request", http.StatusBadRequest, "name required", "Bad Request: name required", 0, 0},
		{"unauthorized", http.StatusUnauthorized, "", MsgUnauthorized, 1, 0},
		{"forbidden", http.StatusForbidden, "", MsgForbidden, 0, 0},
		{"not found", http.StatusNotFound, "", MsgNotFound, 0, 0},
		{"server with body", http.StatusInternalServerError, "boom", "Internal Server Error: boom", 0, 0},
		{"server blank", http.StatusInternalServerError, "", MsgServerBlank, 0, 0},
		{"other", http.StatusTeapot, "", "Something went wrong! Error Status: 418", 0, 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sess := &fakeSession{token: "tok"}
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, sess)

			_, err := c.OrderByID(context.Background(), "x")
			require.Error(t, err)
			assert.Equal(t, tt.message, Message(err))
			assert.Equal(t, tt.status, StatusOf(err))
			assert.Equal(t, tt.dropped, sess.dropped)
			assert.Equal(t, tt.logout, sess.logout)
		})
	}
}

func TestTransportError_GenericMessage(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()
	c := NewClient(Options{BaseURL: srv.URL})

	_, err := c.Brands(context.Background(), "", 1)
	require.Error(t, err)
	assert.Equal(t, MsgGeneric, Message(err))
	assert.Zero(t, StatusOf(err))
}

func TestBreakerOpensAfterServerErrors(t *testing.T) {
	t.Parallel()
	hits := 0
	var mu sync.Mutex
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}, nil)

	for i := 0; i < 3; i++ {
		_, err := c.Brands(context.Background(), "", 1)
		require.Error(t, err)
	}
	_, err := c.Brands(context.Background(), "", 1)
	require.Error(t, err)
	assert.Equal(t, MsgGeneric, Message(err))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, hits)
}

func TestLocations(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/districts/79", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("page"))
		assert.Equal(t, "100", r.URL.Query().Get("size"))
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"data": []Location{{ID: "760", Name: "Quận 1"}}})
	}, &fakeSession{token: "tok"})

	out, err := c.Districts(context.Background(), "79")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Quận 1", out[0].Name)
}
