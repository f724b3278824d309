package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds a single request, including reading the body.
	DefaultTimeout = 30 * time.Second
	// MaxBodySize caps the number of bytes read from a response.
	MaxBodySize = 10 << 20
)

// Browser-like header set sent with every request.
var defaultHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"Cache-Control":             "no-cache",
	"Pragma":                    "no-cache",
	"Upgrade-Insecure-Requests": "1",
}

// HTMLFetcher retrieves raw documents from the marketplace.
type HTMLFetcher interface {
	// Fetch returns the body of a successful GET of rawURL.
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Proxy holds the credentials of an authenticated forward proxy.
// Each request is sent with a fresh session suffix appended to Username.
type Proxy struct {
	Host     string
	Port     int
	Username string
	Password string
	Insecure bool
}

// Options configures a Fetcher. Zero values select the defaults.
type Options struct {
	Timeout time.Duration
	// RPS limits outgoing requests per second; non-positive disables limiting.
	RPS   float64
	Burst int
	Proxy *Proxy
}

// Fetcher is an HTMLFetcher performing single, non-retried GET requests.
type Fetcher struct {
	log     *slog.Logger
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a Fetcher with its own transport.
func New(log *slog.Logger, opts Options) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != nil && opts.Proxy.Host != "" {
		transport.Proxy = opts.Proxy.rotatingSession
		if opts.Proxy.Insecure {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // configurable for MITM proxies
		}
	}

	return NewWithClient(log, &http.Client{Transport: transport}, opts)
}

// NewWithClient creates a Fetcher around an existing client. The client's own timeout is overridden.
func NewWithClient(log *slog.Logger, client *http.Client, opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	client.Timeout = opts.Timeout

	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Fetcher{log: log, client: client, limiter: rate.NewLimiter(limit, burst)}
}

// Fetch performs a GET of rawURL and returns its body.
// Network failures and non-2xx responses are reported as *FetchError; a 407 also matches ErrProxyAuth.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	const opn = "fetcher.Fetch"

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("%s: rate limiter: %w", opn, err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("%s: failed to create new request: %w", opn, err)}
	}
	for key, value := range defaultHeaders {
		req.Header.Set(key, value)
	}

	f.log.DebugContext(ctx, "Send request", "method", req.Method, "URL", req.URL)

	res, err := f.client.Do(req)
	if err != nil {
		// CONNECT tunnels surface a 407 as a transport error carrying the status text.
		if strings.Contains(err.Error(), http.StatusText(http.StatusProxyAuthRequired)) {
			return nil, &FetchError{URL: rawURL, StatusCode: http.StatusProxyAuthRequired, Err: ErrProxyAuth}
		}
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("%s: failed to request: %w", opn, err)}
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusProxyAuthRequired:
		return nil, &FetchError{URL: rawURL, StatusCode: res.StatusCode, Err: ErrProxyAuth}
	case res.StatusCode < 200 || res.StatusCode > 299:
		return nil, &FetchError{URL: rawURL, StatusCode: res.StatusCode, Err: fmt.Errorf("%w: %s", ErrStatus, res.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, MaxBodySize))
	if err != nil {
		return nil, &FetchError{
			URL:        rawURL,
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("%s: failed to read response body: %w", opn, err),
		}
	}

	f.log.DebugContext(ctx, "Successfully received http response", "status code", res.StatusCode, "bytes", len(body))

	return body, nil
}

// rotatingSession is an http.Transport Proxy func that assigns a new session to every request.
func (p *Proxy) rotatingSession(_ *http.Request) (*url.URL, error) {
	return p.URL(sessionToken()), nil
}

// URL returns the proxy URL for the given session.
func (p *Proxy) URL(session string) *url.URL {
	user := p.Username
	if session != "" {
		user = fmt.Sprintf("%s-session-%s", p.Username, session)
	}

	port := p.Port
	if port <= 0 {
		port = 22225
	}

	return &url.URL{
		Scheme: "http",
		User:   url.UserPassword(user, p.Password),
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(port)),
	}
}

func sessionToken() string {
	return strconv.Itoa(rand.IntN(1_000_000)) //nolint:gosec // session ids are not secrets
}
