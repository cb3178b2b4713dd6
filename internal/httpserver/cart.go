package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/labstack/echo/v4"
)

type CartHTTP struct {
	Cart *cart.Store
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Image     string `json:"image"`
	Quantity  int    `json:"quantity"`
}

func (r addItemRequest) product() cart.Product {
	return cart.Product{ID: strings.TrimSpace(r.ProductID), Name: r.Name, Price: r.Price, Image: r.Image}
}

type cartResponse struct {
	cart.Summary
	Changed bool `json:"changed"`
	Removed bool `json:"removed,omitempty"`
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, h.Cart.Summary(ctx))
}

func (h *CartHTTP) QuickAdd(c echo.Context) error {
	return h.add(c, "cart.quick_add", false)
}

func (h *CartHTTP) AddWithQuantity(c echo.Context) error {
	return h.add(c, "cart.add_with_quantity", true)
}

func (h *CartHTTP) add(c echo.Context, handler string, explicit bool) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", handler)

	var req addItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var err error
	if explicit {
		_, err = h.Cart.AddWithQuantity(ctx, req.product(), req.Quantity)
	} else {
		_, err = h.Cart.QuickAdd(ctx, req.product())
	}
	if err != nil {
		if errors.Is(err, cart.ErrValidation) {
			l.Warn("add_to_cart_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("add_to_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("add_to_cart_success", "product_id", req.ProductID)
	return c.JSON(http.StatusCreated, cartResponse{Summary: h.Cart.Summary(ctx), Changed: true})
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_quantity")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("update_quantity_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	changed := h.Cart.UpdateQuantity(ctx, c.Param("id"), req.Quantity)
	return c.JSON(http.StatusOK, cartResponse{Summary: h.Cart.Summary(ctx), Changed: changed})
}

func (h *CartHTTP) Decrement(c echo.Context) error {
	ctx := c.Request().Context()
	removed := h.Cart.Decrement(ctx, c.Param("id"))
	return c.JSON(http.StatusOK, cartResponse{Summary: h.Cart.Summary(ctx), Removed: removed})
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	changed := h.Cart.RemoveItem(ctx, c.Param("id"))
	return c.JSON(http.StatusOK, cartResponse{Summary: h.Cart.Summary(ctx), Changed: changed})
}

func (h *CartHTTP) Clear(c echo.Context) error {
	h.Cart.Clear(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}
