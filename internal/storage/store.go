// Package storage holds the durable key-value entries the storefront keeps
// per browser profile: the cart envelope, the session token, the signed-in
// user and the admin's last-seen order marker and watermark.
package storage

import (
	"context"
	"errors"
)

const (
	KeyCart        = "cart"
	KeySession     = "sessionToken"
	KeyUser        = "userInfo"
	KeyLastOrderID = "firstOrderId"
	// KeyOrderWatermark holds the ids already seen on the waiting list.
	KeyOrderWatermark = "newOrderWatermark"
)

var ErrUnavailable = errors.New("storage unavailable")

type Store interface {
	// Get returns ok=false with a nil error when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
