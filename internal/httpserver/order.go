package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/order"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/pkg/apiclient"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/labstack/echo/v4"
)

type OrderHTTP struct {
	Orders   *order.Service
	Checkout *checkout.Pipeline
	Session  *session.Store
}

type listResponse[T any] struct {
	Orders      []T `json:"orders"`
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
}

func (h *OrderHTTP) filter(c echo.Context) (order.Filter, int, error) {
	f, err := order.ParseFilter(
		c.QueryParam("phone"),
		c.QueryParam("fromDate"),
		c.QueryParam("toDate"),
		c.QueryParam("status"),
		c.QueryParam("payment_status"),
	)
	if err != nil {
		return order.Filter{}, 0, err
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	return f, page, nil
}

// backendStatus keeps client errors from the backend and folds the rest into 502.
func backendStatus(err error) int {
	if s := apiclient.StatusOf(err); s >= 400 && s < 500 {
		return s
	}
	return http.StatusBadGateway
}

func (h *OrderHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	var form checkout.Form
	if err := c.Bind(&form); err != nil {
		l.Warn("checkout_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Checkout.Submit(ctx, form)
	if err != nil {
		var verr *checkout.ValidationError
		switch {
		case errors.As(err, &verr):
			l.Warn("checkout_error", "status", 422, "reason", "invalid form")
			return c.JSON(http.StatusUnprocessableEntity, map[string]any{"error": "invalid form", "fields": verr.Fields})
		case errors.Is(err, checkout.ErrEmptyCart):
			l.Warn("checkout_error", "status", 409, "reason", "empty cart")
			return echo.NewHTTPError(http.StatusConflict, "cart is empty")
		case errors.Is(err, checkout.ErrInFlight):
			l.Warn("checkout_error", "status", 409, "reason", "in flight")
			return echo.NewHTTPError(http.StatusConflict, "checkout already in progress")
		default:
			status := backendStatus(err)
			l.Error("checkout_error", "status", status, "error", err)
			return echo.NewHTTPError(status, apiclient.Message(err))
		}
	}

	l.Info("checkout_success", "order_id", res.OrderID)
	return c.JSON(http.StatusCreated, res)
}

func (h *OrderHTTP) CheckoutForm(c echo.Context) error {
	u, _ := h.Session.User(c.Request().Context())
	return c.JSON(http.StatusOK, checkout.FormFor(u))
}

// CustomerOrders lists the signed-in customer's orders only.
func (h *OrderHTTP) CustomerOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.customer_orders")

	f, page, err := h.filter(c)
	if err != nil {
		l.Warn("customer_orders_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	views, res, err := h.Orders.ListForCustomer(ctx, h.customerPhone(c), f, page)
	if err != nil {
		status := backendStatus(err)
		l.Error("customer_orders_error", "status", status, "error", err)
		return echo.NewHTTPError(status, apiclient.Message(err))
	}
	return c.JSON(http.StatusOK, listResponse[order.CustomerView]{Orders: views, CurrentPage: res.CurrentPage, TotalPages: res.TotalPages})
}

// customerPhone prefers the phone of the token RequireAuth accepted over
// the stored profile.
func (h *OrderHTTP) customerPhone(c echo.Context) string {
	if phone, ok := c.Get("phone").(string); ok && phone != "" {
		return phone
	}
	return h.Session.Phone(c.Request().Context())
}

func (h *OrderHTTP) AdminOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.admin_orders")

	if id := c.QueryParam("id"); id != "" {
		o, err := h.Orders.Get(ctx, id)
		if err != nil {
			if errors.Is(err, order.ErrNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "order not found")
			}
			status := backendStatus(err)
			l.Error("admin_orders_error", "status", status, "error", err)
			return echo.NewHTTPError(status, apiclient.Message(err))
		}
		return c.JSON(http.StatusOK, listResponse[order.AdminView]{Orders: []order.AdminView{order.NewAdminView(o)}, CurrentPage: 1})
	}

	f, page, err := h.filter(c)
	if err != nil {
		l.Warn("admin_orders_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.Orders.List(ctx, f, page)
	if err != nil {
		status := backendStatus(err)
		l.Error("admin_orders_error", "status", status, "error", err)
		return echo.NewHTTPError(status, apiclient.Message(err))
	}
	return c.JSON(http.StatusOK, listResponse[order.AdminView]{Orders: order.AdminViews(res.Orders), CurrentPage: res.CurrentPage, TotalPages: res.TotalPages})
}

func (h *OrderHTTP) UpdateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_order")

	var req struct {
		Status        string `json:"status"`
		PaymentStatus string `json:"payment_status"`
		ShipPrice     int64  `json:"ship_price"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("update_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	st, err := order.ParseStatus(req.Status)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pay, err := order.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err = h.Orders.UpdateStatus(ctx, c.Param("id"), order.UpdateRequest{Status: st, Payment: pay, ShipPrice: req.ShipPrice})
	if err != nil {
		if errors.Is(err, order.ErrValidation) {
			l.Warn("update_order_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		status := backendStatus(err)
		l.Error("update_order_error", "status", status, "error", err)
		return echo.NewHTTPError(status, apiclient.Message(err))
	}

	l.Info("update_order_success", "order_id", c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHTTP) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.delete_order")

	if err := h.Orders.Delete(ctx, c.Param("id")); err != nil {
		if errors.Is(err, order.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		status := backendStatus(err)
		l.Error("delete_order_error", "status", status, "error", err)
		return echo.NewHTTPError(status, apiclient.Message(err))
	}
	return c.NoContent(http.StatusNoContent)
}
