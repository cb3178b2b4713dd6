package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	CartHandler    *CartHTTP
	OrderHandler   *OrderHTTP
	SessionHandler *SessionHTTP
	OptionsHandler *OptionsHTTP
	EventsHandler  *EventsHTTP
	Auth           *AuthMiddleware
	Ready          func() error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			}
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	carts := e.Group("/cart")
	carts.GET("", d.CartHandler.GetCart)
	carts.DELETE("", d.CartHandler.Clear)
	carts.POST("/items", d.CartHandler.QuickAdd)
	carts.POST("/items/detail", d.CartHandler.AddWithQuantity)
	carts.PATCH("/items/:id", d.CartHandler.UpdateQuantity)
	carts.POST("/items/:id/decrement", d.CartHandler.Decrement)
	carts.DELETE("/items/:id", d.CartHandler.RemoveItem)

	e.GET("/session", d.SessionHandler.Get)
	e.POST("/session", d.SessionHandler.Login)
	e.DELETE("/session", d.SessionHandler.Logout)

	e.GET("/checkout", d.OrderHandler.CheckoutForm)
	e.POST("/checkout", d.OrderHandler.PlaceOrder)
	e.GET("/orders", d.OrderHandler.CustomerOrders, d.Auth.RequireAuth)

	admin := e.Group("/admin", d.Auth.RequireAdmin)
	admin.GET("/orders", d.OrderHandler.AdminOrders)
	admin.PATCH("/orders/:id", d.OrderHandler.UpdateOrder)
	admin.DELETE("/orders/:id", d.OrderHandler.DeleteOrder)

	options := e.Group("/options")
	options.GET("/brands", d.OptionsHandler.Brands)
	options.GET("/categories", d.OptionsHandler.Categories)
	options.GET("/cities", d.OptionsHandler.Cities)
	options.GET("/districts", d.OptionsHandler.Districts)
	options.GET("/wards", d.OptionsHandler.Wards)

	e.GET("/events", d.EventsHandler.Stream)
}
