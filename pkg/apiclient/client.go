// Package apiclient talks to the storefront REST backend and the public
// location directory.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// Session supplies the bearer token and reacts to auth failures.
type Session interface {
	Token(ctx context.Context) (string, error)
	DropToken(ctx context.Context)
	Logout(ctx context.Context)
}

type Options struct {
	BaseURL     string
	LocationURL string
	Timeout     time.Duration
	Session     Session
	Log         *slog.Logger
}

type Client struct {
	http     *resty.Client
	location *resty.Client
	breaker  *gobreaker.CircuitBreaker
	session  Session
	log      *slog.Logger
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	l := opts.Log
	if l == nil {
		l = slog.Default()
	}
	l = l.With("component", "apiclient")
	return &Client{
		http: resty.New().
			SetBaseURL(opts.BaseURL).
			SetTimeout(opts.Timeout).
			SetRetryCount(0),
		location: resty.New().
			SetBaseURL(opts.LocationURL).
			SetTimeout(opts.Timeout).
			SetRetryCount(0),
		breaker: newBreaker("backend", l),
		session: opts.Session,
		log:     l,
	}
}

type call struct {
	endpoint string
	method   string
	path     string
	query    map[string]string
	body     any
}

func (c *Client) do(ctx context.Context, rc call, out any) error {
	req := c.http.R().SetContext(ctx)
	if c.session != nil {
		if tok, err := c.session.Token(ctx); err == nil && tok != "" {
			req.SetAuthToken(tok)
		}
	}
	if rc.query != nil {
		req.SetQueryParams(rc.query)
	}
	if rc.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(rc.body)
	}

	var resp *resty.Response
	_, err := c.breaker.Execute(func() (interface{}, error) {
		r, err := req.Execute(rc.method, rc.path)
		if err != nil {
			return nil, err
		}
		resp = r
		if r.StatusCode() >= http.StatusInternalServerError {
			return nil, errServerStatus
		}
		return nil, nil
	})
	if err != nil && !errors.Is(err, errServerStatus) {
		metrics.APIRequests.WithLabelValues(rc.endpoint, "0").Inc()
		c.log.Warn("api_request_error", "endpoint", rc.endpoint, "error", err)
		return transportError(rc.endpoint, err)
	}

	status := resp.StatusCode()
	metrics.APIRequests.WithLabelValues(rc.endpoint, strconv.Itoa(status)).Inc()
	if resp.IsError() || status >= http.StatusInternalServerError {
		apiErr := statusError(rc.endpoint, status, resp.String())
		c.onFailure(ctx, apiErr)
		c.log.Warn("api_status_error", "endpoint", rc.endpoint, "status", status, "body", apiErr.Body)
		return apiErr
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &Error{Endpoint: rc.endpoint, Status: status, Message: MsgGeneric, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) onFailure(ctx context.Context, e *Error) {
	if c.session == nil {
		return
	}
	switch {
	case errors.Is(e, ErrSessionExpired):
		c.session.Logout(ctx)
	case e.Status == http.StatusUnauthorized:
		c.session.DropToken(ctx)
	}
}

func (c *Client) Brands(ctx context.Context, search string, page int) (*BrandsResponse, error) {
	var out BrandsResponse
	err := c.do(ctx, call{
		endpoint: "brand_get",
		method:   http.MethodGet,
		path:     "/brand/get",
		query:    map[string]string{"search": search, "page": strconv.Itoa(page)},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Categories(ctx context.Context, search string, page int) (*CategoriesResponse, error) {
	var out CategoriesResponse
	err := c.do(ctx, call{
		endpoint: "category_get",
		method:   http.MethodGet,
		path:     "/category/get",
		query:    map[string]string{"search": search, "page": strconv.Itoa(page)},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Orders(ctx context.Context, q OrderQuery) (*OrdersResponse, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	var out OrdersResponse
	err := c.do(ctx, call{
		endpoint: "order_get",
		method:   http.MethodGet,
		path:     "/order/get",
		query: map[string]string{
			"phone":          q.Phone,
			"fromDate":       q.FromDate,
			"toDate":         q.ToDate,
			"status":         q.Status,
			"payment_status": q.PaymentStatus,
			"page":           strconv.Itoa(q.Page),
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) OrderByID(ctx context.Context, id string) (*Order, error) {
	var out Order
	err := c.do(ctx, call{
		endpoint: "order_get_by_id",
		method:   http.MethodGet,
		path:     "/order/getById",
		query:    map[string]string{"id": id},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	var out Order
	err := c.do(ctx, call{
		endpoint: "order_create",
		method:   http.MethodPost,
		path:     "/order/create",
		body:     req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateOrder(ctx context.Context, id string, req UpdateOrderRequest) (*UpdateOrderResponse, error) {
	var out UpdateOrderResponse
	err := c.do(ctx, call{
		endpoint: "order_update",
		method:   http.MethodPut,
		path:     "/order/update",
		query:    map[string]string{"id": id},
		body:     req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteOrder(ctx context.Context, id string) (*MessageResponse, error) {
	var out MessageResponse
	err := c.do(ctx, call{
		endpoint: "order_delete",
		method:   http.MethodDelete,
		path:     "/order/delete",
		query:    map[string]string{"id": id},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Provinces(ctx context.Context) ([]Location, error) {
	return c.locations(ctx, "/provinces")
}

func (c *Client) Districts(ctx context.Context, provinceID string) ([]Location, error) {
	return c.locations(ctx, "/districts/"+provinceID)
}

func (c *Client) Wards(ctx context.Context, districtID string) ([]Location, error) {
	return c.locations(ctx, "/wards/"+districtID)
}

// locations skips the breaker and the session: the directory is a public
// third-party service.
func (c *Client) locations(ctx context.Context, path string) ([]Location, error) {
	resp, err := c.location.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"page": "0", "size": "100"}).
		Get(path)
	if err != nil {
		return nil, &Error{Endpoint: "location", Message: MsgGeneric, Err: err}
	}
	if resp.IsError() {
		return nil, &Error{
			Endpoint: "location",
			Status:   resp.StatusCode(),
			Body:     resp.String(),
			Message:  fmt.Sprintf("Lỗi lấy dữ liệu %d", resp.StatusCode()),
		}
	}
	var out locationsResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, &Error{Endpoint: "location", Status: resp.StatusCode(), Message: MsgGeneric, Err: fmt.Errorf("decode response: %w", err)}
	}
	return out.Data, nil
}
