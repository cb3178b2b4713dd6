package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Skotchmaster/storefront/internal/resolver"
	"github.com/Skotchmaster/storefront/pkg/apiclient"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/labstack/echo/v4"
)

type CatalogAPI interface {
	resolver.BrandLister
	resolver.CategoryLister
	resolver.LocationLister
}

// OptionsHTTP backs the searchable dropdowns. Each request is one view
// resolving its current value and, with ?page=, its "load more" position.
type OptionsHTTP struct {
	API CatalogAPI
}

type optionsResponse[T any] struct {
	State       string `json:"state"`
	Match       *T     `json:"match"`
	Items       []T    `json:"items"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
	HasMore     bool   `json:"hasMore"`
}

// maxOptionPages bounds how far one request may page a dropdown forward.
const maxOptionPages = 50

// respond resolves the default value, then keeps loading pages until the
// view has reached the page it asked for with ?page=. Accumulating sources
// return every page so far, replacing ones only the last.
func respond[T any](c echo.Context, l *slog.Logger, r *resolver.Resolver[T], match func(T) bool) error {
	ctx := c.Request().Context()
	want, err := pageParam(c)
	if err != nil {
		return err
	}

	res, err := r.Resolve(ctx, match)
	if err != nil && !errors.Is(err, resolver.ErrInFlight) {
		l.Warn("resolve_options_error", "state", res.State.String(), "error", err)
		if len(res.Items) == 0 {
			return echo.NewHTTPError(backendStatus(err), apiclient.Message(err))
		}
	}
	if err == nil {
		for r.HasMore() && r.Snapshot().CurrentPage < want {
			if _, err := r.LoadMore(ctx); err != nil {
				l.Warn("load_more_options_error", "page", r.Snapshot().CurrentPage+1, "error", err)
				break
			}
		}
		snap := r.Snapshot()
		res.Items, res.CurrentPage, res.TotalPages = snap.Items, snap.CurrentPage, snap.TotalPages
	}

	if res.Items == nil {
		res.Items = []T{}
	}
	return c.JSON(http.StatusOK, optionsResponse[T]{
		State:       res.State.String(),
		Match:       res.Match,
		Items:       res.Items,
		CurrentPage: res.CurrentPage,
		TotalPages:  res.TotalPages,
		HasMore:     res.CurrentPage < res.TotalPages,
	})
}

func pageParam(c echo.Context) (int, error) {
	raw := c.QueryParam("page")
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "page must be a positive integer")
	}
	return min(n, maxOptionPages), nil
}

func (h *OptionsHTTP) Brands(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "options.brands")
	var match func(apiclient.Brand) bool
	if id := c.QueryParam("default"); id != "" {
		match = resolver.BrandByID(id)
	}
	return respond(c, l, resolver.BrandSource(h.API, l), match)
}

func (h *OptionsHTTP) Categories(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "options.categories")
	var match func(apiclient.Category) bool
	if id := c.QueryParam("default"); id != "" {
		match = resolver.CategoryByID(id)
	}
	return respond(c, l, resolver.CategorySource(h.API, l), match)
}

func (h *OptionsHTTP) locations(c echo.Context, kind resolver.LocationKind, parent string) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "options."+string(kind))
	if kind != resolver.Cities && parent == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "parent id required")
	}
	// location lists are unpaginated, so a blank default still yields the full list
	name := c.QueryParam("default")
	return respond(c, l, resolver.LocationSource(h.API, kind, parent, l), resolver.LocationByName(name))
}

func (h *OptionsHTTP) Cities(c echo.Context) error {
	return h.locations(c, resolver.Cities, "")
}

func (h *OptionsHTTP) Districts(c echo.Context) error {
	return h.locations(c, resolver.Districts, c.QueryParam("city"))
}

func (h *OptionsHTTP) Wards(c echo.Context) error {
	return h.locations(c, resolver.Wards, c.QueryParam("district"))
}
