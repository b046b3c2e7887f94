package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partscout/partscout/internal/fetch"
)

const searchPage = `<html><body>
<div class="product-card">
  <h2 class="product-name">چراغ جلو تیگو 8 پرو</h2>
  <a href="/p/123"></a>
  <div class="product-price">۲,۵۰۰,۰۰۰ تومان</div>
  <div class="product-category">چراغ خودرو</div>
</div>
<div class="product-card">
  <h2 class="product-name"></h2>
  <a href="/p/malformed"></a>
</div>
<div class="product-card">
  <h2 class="product-name">چراغ عقب تیگو 8</h2>
  <a href="/p/456"></a>
</div>
</body></html>`

const productPage = `<html><body>
<div class="shop-card">
  <div class="shop-name">فروشگاه یدک شرق</div>
  <div class="shop-price">۲,۵۰۰,۰۰۰ تومان</div>
  <a class="buy-link" href="/buy/1"></a>
  <div class="shop-details">نو</div>
  <div class="shop-details">گارانتی ۱۲ ماهه</div>
</div>
<div class="shop-card">
  <div class="shop-name"></div>
  <div class="shop-price"></div>
</div>
</body></html>`

func testClient(t *testing.T, baseURL string) *fetch.Torob {
	t.Helper()
	client, err := fetch.NewTorob(fetch.Config{
		BaseURL:        baseURL,
		RequestTimeout: 5 * time.Second,
		RateLimit:      time.Millisecond,
		Parallelism:    1,
	}, nil)
	require.NoError(t, err)
	return client
}

func TestNewTorobRequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := fetch.NewTorob(fetch.Config{}, nil)
	assert.Error(t, err)
}

func TestSearchParsesCandidates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/", r.URL.Path)
		assert.Equal(t, "چراغ جلو تیگو 8", r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)
	candidates, err := client.Search(context.Background(), "چراغ جلو تیگو 8")
	require.NoError(t, err)

	// The malformed card (no title) is dropped.
	require.Len(t, candidates, 2)
	assert.Equal(t, "چراغ جلو تیگو 8 پرو", candidates[0].Title)
	assert.Equal(t, srv.URL+"/p/123", candidates[0].ProductRef)
	assert.Equal(t, "۲,۵۰۰,۰۰۰ تومان", candidates[0].PriceHint)
	assert.Equal(t, "چراغ خودرو", candidates[0].CategoryHint)
}

func TestSearchEmptyResultPage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>no results</body></html>"))
	}))
	defer srv.Close()

	candidates, err := testClient(t, srv.URL).Search(context.Background(), "query")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestSearchClassifiesServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).Search(context.Background(), "query")
	require.Error(t, err)
	assert.True(t, fetch.IsTransient(err), "5xx must be transient")
}

func TestSearchClassifiesNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).Search(context.Background(), "query")
	require.Error(t, err)
	assert.False(t, fetch.IsTransient(err), "404 must be permanent")
}

func TestSearchRespectsCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(t, "http://localhost:1").Search(ctx, "query")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDrillDownParsesOffers(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/p/123", r.URL.Path)
		_, _ = w.Write([]byte(productPage))
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)
	offers, err := client.DrillDown(context.Background(), srv.URL+"/p/123")
	require.NoError(t, err)

	// The empty row is dropped.
	require.Len(t, offers, 1)
	assert.Equal(t, "فروشگاه یدک شرق", offers[0].SellerName)
	assert.Equal(t, "۲,۵۰۰,۰۰۰ تومان", offers[0].PriceText)
	assert.Equal(t, srv.URL+"/buy/1", offers[0].Link)
	assert.Equal(t, "نو", offers[0].ConditionText)
	assert.Equal(t, "گارانتی ۱۲ ماهه", offers[0].WarrantyText)
}

func TestDrillDownRelativeRef(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/p/123", r.URL.Path)
		_, _ = w.Write([]byte(productPage))
	}))
	defer srv.Close()

	offers, err := testClient(t, srv.URL).DrillDown(context.Background(), "/p/123")
	require.NoError(t, err)
	assert.Len(t, offers, 1)
}

func TestDrillDownEmptyRef(t *testing.T) {
	t.Parallel()

	_, err := testClient(t, "http://localhost:1").DrillDown(context.Background(), "")
	require.Error(t, err)
	assert.False(t, fetch.IsTransient(err))
}
