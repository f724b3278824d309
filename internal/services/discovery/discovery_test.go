package discovery_test

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/Houeta/price-radar/internal/fetcher"
	"github.com/Houeta/price-radar/internal/identity"
	"github.com/Houeta/price-radar/internal/parser"
	"github.com/Houeta/price-radar/internal/services/discovery"
	"github.com/Houeta/price-radar/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const origin = "https://www.amazon.com"

func newEngine(t *testing.T, f fetcher.HTMLFetcher, opts discovery.Options) *discovery.Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	normalizer := identity.NewNormalizer(origin, 0)
	return discovery.NewEngine(logger, f, parser.NewParser(logger, normalizer), normalizer, opts)
}

func categoryURL(category string, page int) string {
	return fmt.Sprintf("%s/gp/bestsellers/%s/ref=zg_bs_pg_%d?ie=UTF8&pg=%d", origin, category, page, page)
}

func listing(hrefs ...string) []byte {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for _, href := range hrefs {
		fmt.Fprintf(&sb, `<div class="zg-item-immersion"><a href="%s">item</a></div>`, href)
	}
	sb.WriteString("</body></html>")
	return []byte(sb.String())
}

func TestDiscover_DeduplicatesAcrossQueryStrings(t *testing.T) {
	// Arrange
	mFetcher := mocks.NewHTMLFetcher(t)
	mFetcher.On("Fetch", mock.Anything, categoryURL("alpha", 1)).Return(listing(
		"/Widget/dp/B000000001?ref=a",
		"/Widget/dp/B000000001?ref=b&th=1",
		"https://www.amazon.com/gp/product/B000000001/ref=sr_1",
		"/Gadget/dp/B000000002",
	), nil).Once()
	mFetcher.On("Fetch", mock.Anything, categoryURL("beta", 1)).Return(listing(
		"/dp/B000000002?psc=1",
		"/dp/not-an-id?x=1",
		"/dp/not-an-id?x=2",
	), nil).Once()

	engine := newEngine(t, mFetcher, discovery.Options{
		Categories: []string{"alpha", "beta"},
		Surfaces:   []discovery.Surface{},
	})

	// Act
	urls, err := engine.Discover(t.Context(), 50)

	// Assert
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"https://www.amazon.com/dp/B000000001",
		"https://www.amazon.com/dp/B000000002",
		"https://www.amazon.com/dp/not-an-id",
	}, urls)
}

func TestDiscover_PageFailureIsSkipped(t *testing.T) {
	mFetcher := mocks.NewHTMLFetcher(t)
	mFetcher.On("Fetch", mock.Anything, categoryURL("alpha", 1)).
		Return(nil, &fetcher.FetchError{URL: categoryURL("alpha", 1), StatusCode: 503, Err: fetcher.ErrStatus}).Once()
	mFetcher.On("Fetch", mock.Anything, categoryURL("beta", 1)).
		Return(listing("/dp/B000000003"), nil).Once()

	engine := newEngine(t, mFetcher, discovery.Options{
		Categories: []string{"alpha", "beta"},
		Surfaces:   []discovery.Surface{},
	})

	urls, err := engine.Discover(t.Context(), 10)

	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.amazon.com/dp/B000000003"}, urls)
}

func TestDiscover_ProxyAuthAborts(t *testing.T) {
	mFetcher := mocks.NewHTMLFetcher(t)
	mFetcher.On("Fetch", mock.Anything, categoryURL("alpha", 1)).
		Return(nil, &fetcher.FetchError{URL: categoryURL("alpha", 1), StatusCode: 407, Err: fetcher.ErrProxyAuth}).Once()

	engine := newEngine(t, mFetcher, discovery.Options{
		Categories:  []string{"alpha"},
		Surfaces:    []discovery.Surface{},
		Concurrency: 1,
	})

	_, err := engine.Discover(t.Context(), 10)

	require.ErrorIs(t, err, fetcher.ErrProxyAuth)
}

func TestDiscover_StopsAtTarget(t *testing.T) {
	mFetcher := mocks.NewHTMLFetcher(t)
	mFetcher.On("Fetch", mock.Anything, categoryURL("alpha", 1)).Return(listing(
		"/dp/B000000001", "/dp/B000000002", "/dp/B000000003", "/dp/B000000004",
	), nil).Once()
	mFetcher.On("Fetch", mock.Anything, categoryURL("beta", 1)).Return(listing(
		"/dp/B000000005", "/dp/B000000006",
	), nil).Maybe()

	engine := newEngine(t, mFetcher, discovery.Options{
		Categories:  []string{"alpha", "beta"},
		Concurrency: 1,
	})

	urls, err := engine.Discover(t.Context(), 3)

	require.NoError(t, err)
	assert.Len(t, urls, 3)
}

func TestDiscover_FallsBackToSurfaces(t *testing.T) {
	surfaceURL := origin + "/gp/new-releases/electronics/ref=zg_bsnr_pg_1?ie=UTF8&pg=1"

	mFetcher := mocks.NewHTMLFetcher(t)
	mFetcher.On("Fetch", mock.Anything, categoryURL("alpha", 1)).Return(listing("/dp/B000000001"), nil).Once()
	mFetcher.On("Fetch", mock.Anything, surfaceURL).
		Return([]byte(`<ul><li><a href="/dp/B000000001">dup</a></li><li><a href="/x/dp/B000000009">new</a></li></ul>`), nil).
		Once()
	for page := 2; page <= discovery.SurfacePages; page++ {
		mFetcher.On("Fetch", mock.Anything,
			fmt.Sprintf("%s/gp/new-releases/electronics/ref=zg_bsnr_pg_%d?ie=UTF8&pg=%d", origin, page, page)).
			Return([]byte(`<p>empty</p>`), nil).Once()
	}

	engine := newEngine(t, mFetcher, discovery.Options{
		Categories: []string{"alpha"},
		Surfaces:   []discovery.Surface{{Base: "new-releases", Category: "electronics"}},
	})

	urls, err := engine.Discover(t.Context(), 10)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"https://www.amazon.com/dp/B000000001",
		"https://www.amazon.com/dp/B000000009",
	}, urls)
}

func TestDiscover_SurfaceCapCountsUniqueProducts(t *testing.T) {
	surfaceURL := func(page int) string {
		return fmt.Sprintf("%s/gp/new-releases/electronics/ref=zg_bsnr_pg_%d?ie=UTF8&pg=%d", origin, page, page)
	}

	// Arrange: 30 products on one surface page, each with an image, title and rating anchor.
	var sb strings.Builder
	expected := make([]string, 0, 30)
	for i := 1; i <= 30; i++ {
		id := fmt.Sprintf("B%09d", 100+i)
		fmt.Fprintf(&sb, `<li><a href="/Item/dp/%[1]s/ref=img">i</a><a href="/Item/dp/%[1]s/ref=t">t</a>`+
			`<a href="/Item/dp/%[1]s#reviews">r</a></li>`, id)
		expected = append(expected, origin+"/dp/"+id)
	}

	mFetcher := mocks.NewHTMLFetcher(t)
	mFetcher.On("Fetch", mock.Anything, categoryURL("alpha", 1)).Return([]byte(`<p>empty</p>`), nil).Once()
	mFetcher.On("Fetch", mock.Anything, surfaceURL(1)).Return([]byte("<ul>"+sb.String()+"</ul>"), nil).Once()
	for page := 2; page <= discovery.SurfacePages; page++ {
		mFetcher.On("Fetch", mock.Anything, surfaceURL(page)).Return([]byte(`<p>empty</p>`), nil).Once()
	}

	engine := newEngine(t, mFetcher, discovery.Options{
		Categories: []string{"alpha"},
		Surfaces:   []discovery.Surface{{Base: "new-releases", Category: "electronics"}},
	})

	// Act
	urls, err := engine.Discover(t.Context(), 40)

	// Assert
	require.NoError(t, err)
	assert.ElementsMatch(t, expected, urls)
}

func TestDiscover_ZeroTarget(t *testing.T) {
	engine := newEngine(t, mocks.NewHTMLFetcher(t), discovery.Options{})

	urls, err := engine.Discover(t.Context(), 0)

	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestSearch(t *testing.T) {
	searchURL := origin + "/s?k=usb+c+hub&page=1"
	page := `<div data-component-type="s-search-result"><h2><a href="/Hub/dp/B0HUB00001/ref=sr_1_1?keywords=hub">Hub</a></h2></div>
		<div data-component-type="s-search-result"><h2><a href="/Hub/dp/B0HUB00001/ref=sr_1_2">Same hub</a></h2></div>
		<div data-component-type="s-search-result"><h2><a href="/Dock/dp/B0DOCK0001">Dock</a></h2></div>
		<div data-component-type="s-search-result"><h2><a href="/Cable/dp/B0CABLE001">Cable</a></h2></div>`

	t.Run("success", func(t *testing.T) {
		mFetcher := mocks.NewHTMLFetcher(t)
		mFetcher.On("Fetch", mock.Anything, searchURL).Return([]byte(page), nil).Once()

		urls, err := newEngine(t, mFetcher, discovery.Options{}).Search(t.Context(), " usb c hub ", 2)

		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://www.amazon.com/dp/B0HUB00001",
			"https://www.amazon.com/dp/B0DOCK0001",
		}, urls)
	})

	t.Run("fetch failure yields nothing", func(t *testing.T) {
		mFetcher := mocks.NewHTMLFetcher(t)
		mFetcher.On("Fetch", mock.Anything, searchURL).Return(nil, assert.AnError).Once()

		urls, err := newEngine(t, mFetcher, discovery.Options{}).Search(t.Context(), "usb c hub", 5)

		require.NoError(t, err)
		assert.Empty(t, urls)
	})

	t.Run("proxy auth failure surfaces", func(t *testing.T) {
		mFetcher := mocks.NewHTMLFetcher(t)
		mFetcher.On("Fetch", mock.Anything, searchURL).
			Return(nil, &fetcher.FetchError{StatusCode: 407, Err: fetcher.ErrProxyAuth}).Once()

		_, err := newEngine(t, mFetcher, discovery.Options{}).Search(t.Context(), "usb c hub", 5)

		require.ErrorIs(t, err, fetcher.ErrProxyAuth)
	})

	t.Run("empty query", func(t *testing.T) {
		urls, err := newEngine(t, mocks.NewHTMLFetcher(t), discovery.Options{}).Search(t.Context(), "   ", 5)

		require.NoError(t, err)
		assert.Nil(t, urls)
	})
}
