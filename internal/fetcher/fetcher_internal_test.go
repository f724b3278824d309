package fetcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRoundTripper is a mock for http.RoundTripper.
type mockRoundTripper struct {
	response *http.Response
	err      error
	requests []*http.Request
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.requests = append(m.requests, req)
	return m.response, m.err
}

func newTestFetcher(rt http.RoundTripper) *Fetcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWithClient(logger, &http.Client{Transport: rt}, Options{})
}

func TestFetch(t *testing.T) {
	testCases := []struct {
		name           string
		mockResponse   *http.Response
		mockError      error
		url            string
		expectedBody   string
		expectedErrMsg string
		expectedStatus int
		expectedIs     error
	}{
		{
			name: "Successful request (200 OK)",
			mockResponse: &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader("<html>OK</html>")),
			},
			url:          "https://www.amazon.com/dp/B000000001",
			expectedBody: "<html>OK</html>",
		},
		{
			name: "Server Error (503)",
			mockResponse: &http.Response{
				StatusCode: http.StatusServiceUnavailable,
				Status:     "503 Service Unavailable",
				Body:       io.NopCloser(strings.NewReader("Error")),
			},
			url:            "https://www.amazon.com/dp/B000000001",
			expectedErrMsg: "status code error: [503]",
			expectedStatus: http.StatusServiceUnavailable,
			expectedIs:     ErrStatus,
		},
		{
			name: "Proxy rejects credentials (407)",
			mockResponse: &http.Response{
				StatusCode: http.StatusProxyAuthRequired,
				Status:     "407 Proxy Authentication Required",
				Body:       io.NopCloser(strings.NewReader("")),
			},
			url:            "https://www.amazon.com/dp/B000000001",
			expectedErrMsg: "proxy authentication failed",
			expectedStatus: http.StatusProxyAuthRequired,
			expectedIs:     ErrProxyAuth,
		},
		{
			name:           "Network error",
			mockError:      errors.New("connection failed"),
			url:            "https://www.amazon.com/dp/B000000001",
			expectedErrMsg: "connection failed",
		},
		{
			name:           "Proxy tunnel rejected",
			mockError:      errors.New("proxyconnect tcp: 407 Proxy Authentication Required"),
			url:            "https://www.amazon.com/dp/B000000001",
			expectedErrMsg: "proxy authentication failed",
			expectedStatus: http.StatusProxyAuthRequired,
			expectedIs:     ErrProxyAuth,
		},
		{
			name:           "Invalid URL",
			url:            "://invalid-url",
			expectedErrMsg: "failed to create new request",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			f := newTestFetcher(&mockRoundTripper{response: tc.mockResponse, err: tc.mockError})

			// Act
			body, err := f.Fetch(t.Context(), tc.url)

			// Assert
			if tc.expectedErrMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, tc.expectedBody, string(body))
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErrMsg)

			var fetchErr *FetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, tc.url, fetchErr.URL)
			assert.Equal(t, tc.expectedStatus, fetchErr.StatusCode)
			if tc.expectedIs != nil {
				require.ErrorIs(t, err, tc.expectedIs)
			}
		})
	}
}

func TestFetch_SendsBrowserHeaders(t *testing.T) {
	rt := &mockRoundTripper{response: &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("ok")),
	}}
	f := newTestFetcher(rt)

	_, err := f.Fetch(t.Context(), "https://www.amazon.com/dp/B000000001")

	require.NoError(t, err)
	require.Len(t, rt.requests, 1)
	assert.Contains(t, rt.requests[0].Header.Get("User-Agent"), "Mozilla/5.0")
	assert.Equal(t, "en-US,en;q=0.9", rt.requests[0].Header.Get("Accept-Language"))
	assert.Equal(t, http.MethodGet, rt.requests[0].Method)
}

func TestFetch_BodyIsCapped(t *testing.T) {
	huge := strings.Repeat("a", MaxBodySize+1024)
	f := newTestFetcher(&mockRoundTripper{response: &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(huge)),
	}})

	body, err := f.Fetch(t.Context(), "https://www.amazon.com/dp/B000000001")

	require.NoError(t, err)
	assert.Len(t, body, MaxBodySize)
}

func TestFetch_CancelledContext(t *testing.T) {
	f := newTestFetcher(&mockRoundTripper{})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := f.Fetch(ctx, "https://www.amazon.com/dp/B000000001")

	require.Error(t, err)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
}

func TestNewWithClient_Defaults(t *testing.T) {
	client := &http.Client{}
	f := NewWithClient(slog.New(slog.NewTextHandler(io.Discard, nil)), client, Options{})

	assert.Equal(t, DefaultTimeout, f.client.Timeout)
	assert.Equal(t, 1, f.limiter.Burst())

	f = NewWithClient(slog.New(slog.NewTextHandler(io.Discard, nil)), &http.Client{}, Options{Timeout: time.Second, RPS: 5, Burst: 10})
	assert.Equal(t, time.Second, f.client.Timeout)
	assert.InDelta(t, 5.0, float64(f.limiter.Limit()), 0.0001)
	assert.Equal(t, 10, f.limiter.Burst())
}

func TestProxy_RotatesSession(t *testing.T) {
	proxy := &Proxy{Host: "brd.superproxy.io", Port: 22225, Username: "customer-zone", Password: "secret"}

	u := proxy.URL("42")
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "brd.superproxy.io:22225", u.Host)
	assert.Equal(t, "customer-zone-session-42", u.User.Username())
	pass, ok := u.User.Password()
	assert.True(t, ok)
	assert.Equal(t, "secret", pass)

	first, err := proxy.rotatingSession(nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.User.Username(), "customer-zone-session-"))
}

func TestProxy_DefaultPortAndNoSession(t *testing.T) {
	u := (&Proxy{Host: "proxy.local", Username: "user"}).URL("")

	assert.Equal(t, "proxy.local:22225", u.Host)
	assert.Equal(t, "user", u.User.Username())
}

func TestNew_InstallsProxy(t *testing.T) {
	f := New(slog.New(slog.NewTextHandler(io.Discard, nil)), Options{
		Proxy: &Proxy{Host: "proxy.local", Port: 8080, Username: "user", Password: "pass", Insecure: true},
	})

	transport, ok := f.client.Transport.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, transport.Proxy)
	require.NotNil(t, transport.TLSClientConfig)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)

	proxyURL, err := transport.Proxy(nil)
	require.NoError(t, err)
	assert.Equal(t, "proxy.local:8080", proxyURL.Host)
}
