package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Skotchmaster/storefront/pkg/apiclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)

type pagedSource struct {
	mu      sync.Mutex
	total   int
	perPage int
	failOn  int
	calls   []int
	block   chan struct{}
}

func (s *pagedSource) fetch(ctx context.Context, page int) (Page[string], error) {
	s.mu.Lock()
	s.calls = append(s.calls, page)
	block := s.block
	s.mu.Unlock()
	if block != nil {
		<-block
	}
	if page == s.failOn {
		return Page[string]{}, errors.New("backend down")
	}
	items := make([]string, 0, s.perPage)
	for i := 0; i < s.perPage; i++ {
		items = append(items, fmt.Sprintf("p%d-%d", page, i))
	}
	return Page[string]{Items: items, CurrentPage: page, TotalPages: s.total}, nil
}

func (s *pagedSource) pages() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.calls...)
}

func equals(v string) func(string) bool {
	return func(s string) bool { return s == v }
}

func TestResolve_TargetOnPageThreeOfFive(t *testing.T) {
	t.Parallel()
	src := &pagedSource{total: 5, perPage: 2}
	r := New("test", src.fetch, Accumulate, nil)

	res, err := r.Resolve(context.Background(), equals("p3-1"))
	require.NoError(t, err)
	assert.Equal(t, Resolved, res.State)
	require.NotNil(t, res.Match)
	assert.Equal(t, "p3-1", *res.Match)
	assert.Equal(t, []int{1, 2, 3}, src.pages())
	assert.Len(t, res.Items, 6)
	assert.True(t, r.HasMore())
}

func TestResolve_ReplaceKeepsLatestPage(t *testing.T) {
	t.Parallel()
	src := &pagedSource{total: 5, perPage: 2}
	r := New("test", src.fetch, Replace, nil)

	res, err := r.Resolve(context.Background(), equals("p2-0"))
	require.NoError(t, err)
	assert.Equal(t, []string{"p2-0", "p2-1"}, res.Items)
}

func TestResolve_ZeroTotalPagesSingleFetch(t *testing.T) {
	t.Parallel()
	src := &pagedSource{total: 0, perPage: 0}
	r := New("test", src.fetch, Accumulate, nil)

	res, err := r.Resolve(context.Background(), equals("anything"))
	require.NoError(t, err)
	assert.Equal(t, Unresolved, res.State)
	assert.Equal(t, []int{1}, src.pages())
	assert.Nil(t, res.Match)
}

func TestResolve_NeverExceedsTotalPages(t *testing.T) {
	t.Parallel()
	for total := 1; total <= 6; total++ {
		src := &pagedSource{total: total, perPage: 3}
		r := New("test", src.fetch, Accumulate, nil)

		res, err := r.Resolve(context.Background(), equals("missing"))
		require.NoError(t, err)
		assert.Equal(t, Unresolved, res.State)

		pages := src.pages()
		assert.Len(t, pages, total)
		seen := map[int]bool{}
		for i, p := range pages {
			assert.False(t, seen[p], "page %d fetched twice", p)
			seen[p] = true
			assert.Equal(t, i+1, p)
		}
	}
}

func TestResolve_FirstPageMatchStops(t *testing.T) {
	t.Parallel()
	src := &pagedSource{total: 4, perPage: 2}
	r := New("test", src.fetch, Accumulate, nil)

	res, err := r.Resolve(context.Background(), equals("p1-0"))
	require.NoError(t, err)
	assert.Equal(t, Resolved, res.State)
	assert.Equal(t, 1, res.Fetches)
	assert.Equal(t, []int{1}, src.pages())
}

func TestResolve_NilMatchFetchesOnlyFirstPage(t *testing.T) {
	t.Parallel()
	src := &pagedSource{total: 4, perPage: 2}
	r := New("test", src.fetch, Accumulate, nil)

	res, err := r.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Unresolved, res.State)
	assert.Equal(t, []int{1}, src.pages())
}

func TestResolve_FetchErrorKeepsSeenItems(t *testing.T) {
	t.Parallel()
	src := &pagedSource{total: 5, perPage: 2, failOn: 3}
	r := New("test", src.fetch, Accumulate, nil)

	res, err := r.Resolve(context.Background(), equals("missing"))
	require.Error(t, err)
	assert.Equal(t, Failed, res.State)
	assert.Len(t, res.Items, 4)
	assert.Equal(t, Failed, r.Snapshot().State)
}

func TestResolve_SecondCallWhileInFlightIsDropped(t *testing.T) {
	t.Parallel()
	src := &pagedSource{total: 1, perPage: 1, block: make(chan struct{})}
	r := New("test", src.fetch, Accumulate, nil)

	done := make(chan error, 1)
	go func() {
		_, err := r.Resolve(context.Background(), equals("p1-0"))
		done <- err
	}()

	require.Eventually(t, func() bool { return len(src.pages()) == 1 }, timeout, tick)
	_, err := r.Resolve(context.Background(), equals("p1-0"))
	assert.ErrorIs(t, err, ErrInFlight)
	_, err = r.LoadMore(context.Background())
	assert.ErrorIs(t, err, ErrInFlight)

	close(src.block)
	require.NoError(t, <-done)
	assert.Equal(t, []int{1}, src.pages())
}

func TestResolve_CanceledContextDiscardsPage(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	r := New("test", func(context.Context, int) (Page[string], error) {
		cancel()
		return Page[string]{Items: []string{"a"}, CurrentPage: 1, TotalPages: 1}, nil
	}, Accumulate, nil)

	res, err := r.Resolve(ctx, equals("a"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Failed, res.State)
	assert.Empty(t, res.Items)
}

func TestResolve_IgnoresEchoedPageNumber(t *testing.T) {
	t.Parallel()
	for name, echoed := range map[string]int{"stale": 1, "zero based": 0} {
		echoed := echoed
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var mu sync.Mutex
			var calls []int
			r := New("test", func(_ context.Context, page int) (Page[string], error) {
				mu.Lock()
				calls = append(calls, page)
				mu.Unlock()
				return Page[string]{Items: []string{"x"}, CurrentPage: echoed, TotalPages: 3}, nil
			}, Accumulate, nil)

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			res, err := r.Resolve(ctx, equals("missing"))
			require.NoError(t, err)
			assert.Equal(t, Unresolved, res.State)
			assert.Equal(t, 3, res.Fetches)
			assert.Equal(t, 3, res.CurrentPage)
			assert.Equal(t, []int{1, 2, 3}, calls)
			assert.False(t, r.HasMore())
		})
	}
}

func TestResolve_GrowingTotalIsCappedByFirstPage(t *testing.T) {
	t.Parallel()
	var calls []int
	r := New("test", func(_ context.Context, page int) (Page[string], error) {
		calls = append(calls, page)
		return Page[string]{Items: []string{"x"}, CurrentPage: page, TotalPages: page + 1}, nil
	}, Replace, nil)

	res, err := r.Resolve(context.Background(), equals("missing"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Fetches)
	assert.Equal(t, []int{1, 2}, calls)
}

func TestLoadMore(t *testing.T) {
	t.Parallel()
	src := &pagedSource{total: 3, perPage: 1}
	r := New("test", src.fetch, Accumulate, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		more, err := r.LoadMore(ctx)
		require.NoError(t, err)
		assert.True(t, more)
	}
	more, err := r.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, []int{1, 2, 3}, src.pages())
	assert.Equal(t, []string{"p1-0", "p2-0", "p3-0"}, r.Snapshot().Items)
}

type fakeCatalog struct {
	brandPages [][]apiclient.Brand
	provinces  []apiclient.Location
	districts  map[string][]apiclient.Location
}

func (f *fakeCatalog) Brands(_ context.Context, _ string, page int) (*apiclient.BrandsResponse, error) {
	return &apiclient.BrandsResponse{Brands: f.brandPages[page-1], TotalPages: len(f.brandPages)}, nil
}

func (f *fakeCatalog) Categories(context.Context, string, int) (*apiclient.CategoriesResponse, error) {
	return &apiclient.CategoriesResponse{Categories: []apiclient.Category{{ID: "c1", Name: "Phones"}}}, nil
}

func (f *fakeCatalog) Provinces(context.Context) ([]apiclient.Location, error) {
	return f.provinces, nil
}

func (f *fakeCatalog) Districts(_ context.Context, id string) ([]apiclient.Location, error) {
	return f.districts[id], nil
}

func (f *fakeCatalog) Wards(context.Context, string) ([]apiclient.Location, error) {
	return nil, nil
}

func TestSources(t *testing.T) {
	t.Parallel()
	cat := &fakeCatalog{
		brandPages: [][]apiclient.Brand{{{ID: "b1", Name: "A"}}, {{ID: "b2", Name: "B"}}},
		provinces:  []apiclient.Location{{ID: "01", Name: "Hà Nội"}, {ID: "79", Name: "Hồ Chí Minh"}},
		districts:  map[string][]apiclient.Location{"79": {{ID: "760", Name: "Quận 1"}}},
	}
	ctx := context.Background()

	brand, err := BrandSource(cat, nil).Resolve(ctx, BrandByID("b2"))
	require.NoError(t, err)
	assert.Equal(t, "B", brand.Match.Name)
	assert.Len(t, brand.Items, 2)

	category, err := CategorySource(cat, nil).Resolve(ctx, CategoryByID("c1"))
	require.NoError(t, err)
	assert.Equal(t, Resolved, category.State)

	city, err := LocationSource(cat, Cities, "", nil).Resolve(ctx, LocationByName("Hồ Chí Minh"))
	require.NoError(t, err)
	require.NotNil(t, city.Match)
	assert.Equal(t, "79", city.Match.ID)

	district, err := LocationSource(cat, Districts, city.Match.ID, nil).Resolve(ctx, LocationByName("Quận 1"))
	require.NoError(t, err)
	assert.Equal(t, "760", district.Match.ID)

	ward, err := LocationSource(cat, Wards, "760", nil).Resolve(ctx, LocationByName("x"))
	require.NoError(t, err)
	assert.Equal(t, Unresolved, ward.State)
}
