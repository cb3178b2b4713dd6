// Package checkout turns the cart into a backend order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/notice"
	"github.com/Skotchmaster/storefront/pkg/apiclient"
)

var (
	ErrEmptyCart  = errors.New("cart is empty")
	ErrInFlight   = errors.New("checkout already in flight")
	ErrNotCreated = errors.New("order not created")
)

const successMessage = "Đặt hàng thành công, liên hệ với shop để biết thêm thông tin! "

type Cart interface {
	Lines(ctx context.Context) []cart.Line
	Clear(ctx context.Context)
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, req apiclient.CreateOrderRequest) (*apiclient.Order, error)
}

type Result struct {
	OrderID  string      `json:"order_id"`
	Subtotal int64       `json:"subtotal"`
	Lines    []cart.Line `json:"products"`
}

type Pipeline struct {
	cart Cart
	api  OrderCreator
	sink notice.Sink
	log  *slog.Logger

	busy atomic.Bool
}

func New(c Cart, api OrderCreator, sink notice.Sink, l *slog.Logger) *Pipeline {
	if l == nil {
		l = slog.Default()
	}
	if sink == nil {
		sink = notice.LogSink{Log: l}
	}
	return &Pipeline{cart: c, api: api, sink: sink, log: l.With("component", "checkout")}
}

// Submit places an order for the current cart. The cart is cleared only
// after the backend returned an order id.
func (p *Pipeline) Submit(ctx context.Context, f Form) (Result, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return Result{}, ErrInFlight
	}
	defer p.busy.Store(false)

	if err := f.Validate(); err != nil {
		return Result{}, err
	}
	f = f.normalized()

	lines := p.cart.Lines(ctx)
	if len(lines) == 0 {
		p.sink.Notify(ctx, notice.Error("Giỏ hàng trống"))
		return Result{}, ErrEmptyCart
	}

	req := BuildRequest(f, lines)
	created, err := p.api.CreateOrder(ctx, req)
	if err != nil {
		p.sink.Notify(ctx, notice.Error(apiclient.Message(err)))
		p.log.Warn("checkout_error", "status", apiclient.StatusOf(err), "error", err)
		return Result{}, fmt.Errorf("create order: %w", err)
	}
	if created == nil || created.ID == "" {
		p.log.Warn("checkout_error", "reason", "empty order id")
		return Result{}, ErrNotCreated
	}

	p.cart.Clear(ctx)
	p.sink.Notify(ctx, notice.Notice{Title: "Thông báo", Description: successMessage, Variant: notice.Success, Duration: notice.LongDuration})
	p.log.Info("checkout_success", "order_id", created.ID, "price", req.Price, "lines", len(lines))
	return Result{OrderID: created.ID, Subtotal: req.Price, Lines: lines}, nil
}

func BuildRequest(f Form, lines []cart.Line) apiclient.CreateOrderRequest {
	products := make([]apiclient.OrderProduct, 0, len(lines))
	for _, l := range lines {
		products = append(products, apiclient.OrderProduct{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return apiclient.CreateOrderRequest{
		Name:          f.Name,
		Email:         f.Email,
		CustomerPhone: f.Phone,
		City:          f.City,
		District:      f.District,
		Ward:          f.Ward,
		Street:        f.Street,
		Discount:      "0",
		Price:         cart.Summarize(lines).Total,
		Products:      products,
	}
}
