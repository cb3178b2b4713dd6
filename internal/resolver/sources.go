package resolver

import (
	"context"
	"log/slog"

	"github.com/Skotchmaster/storefront/pkg/apiclient"
)

type BrandLister interface {
	Brands(ctx context.Context, search string, page int) (*apiclient.BrandsResponse, error)
}

type CategoryLister interface {
	Categories(ctx context.Context, search string, page int) (*apiclient.CategoriesResponse, error)
}

type LocationLister interface {
	Provinces(ctx context.Context) ([]apiclient.Location, error)
	Districts(ctx context.Context, provinceID string) ([]apiclient.Location, error)
	Wards(ctx context.Context, districtID string) ([]apiclient.Location, error)
}

// BrandSource accumulates pages, the way the brand picker grows with "load more".
func BrandSource(api BrandLister, l *slog.Logger) *Resolver[apiclient.Brand] {
	return New("brands", func(ctx context.Context, page int) (Page[apiclient.Brand], error) {
		res, err := api.Brands(ctx, "", page)
		if err != nil {
			return Page[apiclient.Brand]{}, err
		}
		return Page[apiclient.Brand]{Items: res.Brands, CurrentPage: page, TotalPages: res.TotalPages}, nil
	}, Accumulate, l)
}

func CategorySource(api CategoryLister, l *slog.Logger) *Resolver[apiclient.Category] {
	return New("categories", func(ctx context.Context, page int) (Page[apiclient.Category], error) {
		res, err := api.Categories(ctx, "", page)
		if err != nil {
			return Page[apiclient.Category]{}, err
		}
		return Page[apiclient.Category]{Items: res.Categories, CurrentPage: page, TotalPages: res.TotalPages}, nil
	}, Replace, l)
}

func onePage(items []apiclient.Location) Page[apiclient.Location] {
	return Page[apiclient.Location]{Items: items, CurrentPage: 1, TotalPages: 1}
}

type LocationKind string

const (
	Cities    LocationKind = "cities"
	Districts LocationKind = "districts"
	Wards     LocationKind = "wards"
)

// LocationSource serves one unpaginated directory list. parentID is the
// province for districts and the district for wards.
func LocationSource(api LocationLister, kind LocationKind, parentID string, l *slog.Logger) *Resolver[apiclient.Location] {
	return New(string(kind), func(ctx context.Context, _ int) (Page[apiclient.Location], error) {
		var (
			items []apiclient.Location
			err   error
		)
		switch kind {
		case Districts:
			items, err = api.Districts(ctx, parentID)
		case Wards:
			items, err = api.Wards(ctx, parentID)
		default:
			items, err = api.Provinces(ctx)
		}
		if err != nil {
			return Page[apiclient.Location]{}, err
		}
		return onePage(items), nil
	}, Replace, l)
}

func BrandByID(id string) func(apiclient.Brand) bool {
	return func(b apiclient.Brand) bool { return b.ID == id }
}

func CategoryByID(id string) func(apiclient.Category) bool {
	return func(c apiclient.Category) bool { return c.ID == id }
}

// LocationByName matches on the display name, which is what orders and
// profiles store.
func LocationByName(name string) func(apiclient.Location) bool {
	return func(loc apiclient.Location) bool { return loc.Name == name }
}
