package order

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Skotchmaster/storefront/internal/notice"
	"github.com/Skotchmaster/storefront/pkg/apiclient"
)

const maxShipPrice = 1_000_000_000

type API interface {
	Orders(ctx context.Context, q apiclient.OrderQuery) (*apiclient.OrdersResponse, error)
	OrderByID(ctx context.Context, id string) (*apiclient.Order, error)
	UpdateOrder(ctx context.Context, id string, req apiclient.UpdateOrderRequest) (*apiclient.UpdateOrderResponse, error)
	DeleteOrder(ctx context.Context, id string) (*apiclient.MessageResponse, error)
}

type Listing struct {
	Orders      []Order
	CurrentPage int
	TotalPages  int
}

type UpdateRequest struct {
	Status    Status
	Payment   PaymentStatus
	ShipPrice int64
}

type Service struct {
	api  API
	sink notice.Sink
	log  *slog.Logger
}

func NewService(api API, sink notice.Sink, l *slog.Logger) *Service {
	if sink == nil {
		sink = notice.LogSink{Log: l}
	}
	if l == nil {
		l = slog.Default()
	}
	return &Service{api: api, sink: sink, log: l.With("component", "order")}
}

func (s *Service) List(ctx context.Context, f Filter, page int) (Listing, error) {
	if page < 1 {
		page = 1
	}
	res, err := s.api.Orders(ctx, f.Query(page))
	if err != nil {
		s.sink.Notify(ctx, notice.Error(apiclient.Message(err)))
		return Listing{}, fmt.Errorf("list orders: %w", err)
	}
	out := Listing{Orders: make([]Order, 0, len(res.Orders)), CurrentPage: page, TotalPages: res.TotalPages}
	for _, w := range res.Orders {
		o, err := FromWire(w)
		if err != nil {
			s.log.Warn("order_decode_error", "order_id", w.ID, "error", err)
			continue
		}
		out.Orders = append(out.Orders, o)
	}
	return out, nil
}

// ListForCustomer pins the phone constraint to the signed-in customer.
func (s *Service) ListForCustomer(ctx context.Context, phone string, f Filter, page int) ([]CustomerView, Listing, error) {
	if phone == "" {
		return []CustomerView{}, Listing{CurrentPage: 1}, nil
	}
	f.Phone = phone
	res, err := s.List(ctx, f, page)
	if err != nil {
		return nil, Listing{}, err
	}
	return CustomerViews(res.Orders, phone), res, nil
}

func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	if id == "" {
		return Order{}, fmt.Errorf("%w: id required", ErrValidation)
	}
	w, err := s.api.OrderByID(ctx, id)
	if err != nil {
		s.sink.Notify(ctx, notice.Error(apiclient.Message(err)))
		if apiclient.StatusOf(err) == 404 {
			return Order{}, fmt.Errorf("%w: order %s", ErrNotFound, id)
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	if w.ID == "" {
		return Order{}, fmt.Errorf("%w: order %s", ErrNotFound, id)
	}
	return FromWire(*w)
}

// UpdateStatus sends status, payment and ship price in one request. The
// caller re-lists to see the result.
func (s *Service) UpdateStatus(ctx context.Context, id string, req UpdateRequest) error {
	if id == "" {
		return fmt.Errorf("%w: id required", ErrValidation)
	}
	if _, err := ParseStatus(string(req.Status)); err != nil {
		return err
	}
	if req.Payment != Unpaid && req.Payment != Paid {
		return fmt.Errorf("%w: unknown payment status %d", ErrValidation, req.Payment)
	}
	if req.ShipPrice < 0 || req.ShipPrice > maxShipPrice {
		return fmt.Errorf("%w: ship price out of range", ErrValidation)
	}

	res, err := s.api.UpdateOrder(ctx, id, apiclient.UpdateOrderRequest{
		Status:        string(req.Status),
		PaymentStatus: req.Payment.String(),
		ShipPrice:     req.ShipPrice,
	})
	if err != nil {
		s.sink.Notify(ctx, notice.Error(apiclient.Message(err)))
		return fmt.Errorf("update order: %w", err)
	}
	if res.Result.ID != "" {
		s.sink.Notify(ctx, notice.Done(fmt.Sprintf("Cập nhật đơn hàng %s thành công", res.Result.ID)))
	}
	s.log.Info("order_update_success", "order_id", id, "status", string(req.Status), "payment_status", req.Payment.String())
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id required", ErrValidation)
	}
	res, err := s.api.DeleteOrder(ctx, id)
	if err != nil {
		s.sink.Notify(ctx, notice.Error(apiclient.Message(err)))
		return fmt.Errorf("delete order: %w", err)
	}
	if res.Message != "" {
		s.sink.Notify(ctx, notice.Info(res.Message))
	}
	return nil
}
