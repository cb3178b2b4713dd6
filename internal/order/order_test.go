package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Skotchmaster/storefront/internal/notice"
	"github.com/Skotchmaster/storefront/pkg/apiclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()
	for _, st := range Statuses() {
		got, err := ParseStatus(string(st))
		require.NoError(t, err)
		assert.Equal(t, st, got)
		assert.NotEmpty(t, got.Label())
	}
	_, err := ParseStatus("shipped")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Đang chờ", StatusWaiting.Label())
	assert.Equal(t, "Đã huỷ", StatusCanceled.Label())
}

func TestCanTransition(t *testing.T) {
	t.Parallel()
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusWaiting, StatusProcessing, true},
		{StatusWaiting, StatusDelivered, true},
		{StatusProcessing, StatusWaiting, false},
		{StatusDelivering, StatusCanceled, true},
		{StatusDelivered, StatusCanceled, false},
		{StatusCanceled, StatusWaiting, false},
		{StatusWaiting, StatusWaiting, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
	assert.True(t, StatusDelivered.IsTerminal())
	assert.False(t, StatusDelivering.IsTerminal())
}

func TestPaymentStatus(t *testing.T) {
	t.Parallel()
	p, err := ParsePaymentStatus("1")
	require.NoError(t, err)
	assert.Equal(t, Paid, p)
	assert.Equal(t, "0", Unpaid.String())
	_, err = ParsePaymentStatus("2")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFromWire(t *testing.T) {
	t.Parallel()
	o, err := FromWire(apiclient.Order{
		ID: "o-1", CustomerPhone: "0901", Date: "2024-03-05T10:00:00Z",
		City: "Hồ Chí Minh", District: "Quận 1", Ward: "Bến Nghé", Street: "1 Lê Lợi",
		Price: 200000, ShipPrice: 30000, Status: "delivering", PaymentStatus: 1,
		Products: []apiclient.OrderProduct{{ProductID: "p1", ProductName: "Phone", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusDelivering, o.Status)
	assert.Equal(t, Paid, o.Payment)
	assert.Equal(t, int64(230000), o.Total())
	assert.Equal(t, "Hồ Chí Minh, Quận 1, Bến Nghé, 1 Lê Lợi", o.Address.Line())
	assert.Equal(t, 5, o.PlacedAt.Day())

	_, err = FromWire(apiclient.Order{ID: "bad", Status: "lost"})
	assert.ErrorIs(t, err, ErrValidation)
}

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFilter_Matches(t *testing.T) {
	t.Parallel()
	paid := Paid
	o := Order{ID: "o", CustomerPhone: "0901234567", PlacedAt: day("10/03/2024").Add(23 * time.Hour), Status: StatusWaiting, Payment: Unpaid}

	tests := []struct {
		name string
		f    Filter
		want bool
	}{
		{"empty", Filter{}, true},
		{"phone substring", Filter{Phone: "1234"}, true},
		{"phone miss", Filter{Phone: "999"}, false},
		{"status", Filter{Status: StatusWaiting}, true},
		{"status miss", Filter{Status: StatusDelivered}, false},
		{"payment miss", Filter{Payment: &paid}, false},
		{"from inclusive", Filter{From: day("10/03/2024")}, true},
		{"to inclusive", Filter{To: day("10/03/2024")}, true},
		{"before range", Filter{From: day("11/03/2024")}, false},
		{"after range", Filter{To: day("09/03/2024")}, false},
		{"all", Filter{Phone: "0901", From: day("01/03/2024"), To: day("31/03/2024"), Status: StatusWaiting}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.f.Matches(o))
		})
	}
}

func TestParseFilter(t *testing.T) {
	t.Parallel()
	f, err := ParseFilter("", "", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, apiclient.OrderQuery{Page: 2}, f.Query(2))

	f, err = ParseFilter("09", "01/03/2024", "31/03/2024", "waiting", "0")
	require.NoError(t, err)
	q := f.Query(1)
	assert.Equal(t, "01/03/2024", q.FromDate)
	assert.Equal(t, "31/03/2024", q.ToDate)
	assert.Equal(t, "waiting", q.Status)
	assert.Equal(t, "0", q.PaymentStatus)

	_, err = ParseFilter("", "2024-03-01", "", "", "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ParseFilter("", "02/03/2024", "01/03/2024", "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

type fakeAPI struct {
	orders   []apiclient.Order
	queries  []apiclient.OrderQuery
	updates  map[string]apiclient.UpdateOrderRequest
	err      error
	notFound bool
}

func (f *fakeAPI) Orders(_ context.Context, q apiclient.OrderQuery) (*apiclient.OrdersResponse, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	var out []apiclient.Order
	for _, o := range f.orders {
		if q.Status != "" && o.Status != q.Status {
			continue
		}
		if q.Phone != "" && o.CustomerPhone != q.Phone {
			continue
		}
		out = append(out, o)
	}
	return &apiclient.OrdersResponse{Orders: out, TotalPages: 1}, nil
}

func (f *fakeAPI) OrderByID(_ context.Context, id string) (*apiclient.Order, error) {
	if f.notFound {
		return nil, &apiclient.Error{Status: 404, Message: apiclient.MsgNotFound}
	}
	for _, o := range f.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return &apiclient.Order{}, nil
}

func (f *fakeAPI) UpdateOrder(_ context.Context, id string, req apiclient.UpdateOrderRequest) (*apiclient.UpdateOrderResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.updates == nil {
		f.updates = map[string]apiclient.UpdateOrderRequest{}
	}
	f.updates[id] = req
	return &apiclient.UpdateOrderResponse{Result: apiclient.Order{ID: id}}, nil
}

func (f *fakeAPI) DeleteOrder(context.Context, string) (*apiclient.MessageResponse, error) {
	return &apiclient.MessageResponse{Message: "deleted"}, nil
}

func sampleOrders() []apiclient.Order {
	return []apiclient.Order{
		{ID: "o3", CustomerPhone: "0903", Status: "waiting"},
		{ID: "o2", CustomerPhone: "0902", Status: "delivered", PaymentStatus: 1},
		{ID: "o1", CustomerPhone: "0903", Status: "waiting"},
	}
}

func TestService_List(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{orders: sampleOrders()}
	svc := NewService(api, notice.NewRecorder(0), nil)
	ctx := context.Background()

	waiting, err := svc.List(ctx, Filter{Status: StatusWaiting}, 1)
	require.NoError(t, err)
	require.Len(t, waiting.Orders, 2)
	for _, o := range waiting.Orders {
		assert.Equal(t, StatusWaiting, o.Status)
	}

	all, err := svc.List(ctx, Filter{}, 0)
	require.NoError(t, err)
	assert.Len(t, all.Orders, 3)
	assert.Equal(t, 1, api.queries[1].Page)
}

func TestService_ListForCustomer(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{orders: sampleOrders()}
	svc := NewService(api, nil, nil)

	views, _, err := svc.ListForCustomer(context.Background(), "0903", Filter{Phone: "0902"}, 1)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "0903", api.queries[0].Phone)
	assert.Equal(t, "Đang chờ", views[0].StatusLabel)

	views, _, err = svc.ListForCustomer(context.Background(), "", Filter{}, 1)
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.Len(t, api.queries, 1)
}

func TestService_ErrorsBecomeNotices(t *testing.T) {
	t.Parallel()
	rec := notice.NewRecorder(0)
	api := &fakeAPI{err: &apiclient.Error{Status: 403, Message: apiclient.MsgForbidden}}
	svc := NewService(api, rec, nil)

	_, err := svc.List(context.Background(), Filter{}, 1)
	require.Error(t, err)
	require.Len(t, rec.All(), 1)
	assert.Equal(t, apiclient.MsgForbidden, rec.All()[0].Description)
	assert.Equal(t, notice.Destructive, rec.All()[0].Variant)
}

func TestService_UpdateStatus(t *testing.T) {
	t.Parallel()
	rec := notice.NewRecorder(0)
	api := &fakeAPI{orders: sampleOrders()}
	svc := NewService(api, rec, nil)
	ctx := context.Background()

	require.NoError(t, svc.UpdateStatus(ctx, "o3", UpdateRequest{Status: StatusProcessing, Payment: Paid, ShipPrice: 25000}))
	assert.Equal(t, apiclient.UpdateOrderRequest{Status: "processing", PaymentStatus: "1", ShipPrice: 25000}, api.updates["o3"])
	assert.Equal(t, notice.Success, rec.All()[0].Variant)

	assert.ErrorIs(t, svc.UpdateStatus(ctx, "o3", UpdateRequest{Status: "lost"}), ErrValidation)
	assert.ErrorIs(t, svc.UpdateStatus(ctx, "o3", UpdateRequest{Status: StatusWaiting, ShipPrice: -1}), ErrValidation)
	assert.ErrorIs(t, svc.UpdateStatus(ctx, "", UpdateRequest{Status: StatusWaiting}), ErrValidation)
	assert.Len(t, api.updates, 1)
}

func TestService_Get(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{orders: sampleOrders()}
	svc := NewService(api, nil, nil)
	ctx := context.Background()

	o, err := svc.Get(ctx, "o2")
	require.NoError(t, err)
	assert.Equal(t, Paid, o.Payment)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	api.notFound = true
	_, err = svc.Get(ctx, "o2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Delete(t *testing.T) {
	t.Parallel()
	rec := notice.NewRecorder(0)
	svc := NewService(&fakeAPI{}, rec, nil)

	require.NoError(t, svc.Delete(context.Background(), "o1"))
	assert.Equal(t, "deleted", rec.All()[0].Description)
	assert.True(t, errors.Is(svc.Delete(context.Background(), ""), ErrValidation))
}

func TestViews(t *testing.T) {
	t.Parallel()
	orders := []Order{
		{ID: "a", CustomerPhone: "1", Status: StatusWaiting, Subtotal: 100, ShipPrice: 10},
		{ID: "b", CustomerPhone: "2", Status: StatusDelivered},
	}
	cv := CustomerViews(orders, "1")
	require.Len(t, cv, 1)
	assert.Equal(t, int64(110), cv[0].Total)
	assert.Equal(t, "Chưa thanh toán", cv[0].PaymentLabel)

	av := AdminViews(orders)
	require.Len(t, av, 2)
	assert.Equal(t, []Status{StatusProcessing, StatusDelivering, StatusDelivered, StatusCanceled}, av[0].Next)
	assert.Empty(t, av[1].Next)
}
