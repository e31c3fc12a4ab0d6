package kiwix

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

const (
	// defaultMaxBodySize caps how much of a response is read into memory.
	defaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// maxRedirects matches net/http's own default limit.
	maxRedirects = 10
)

// Response is what an Opener returns for a successful request.
type Response struct {
	// Body holds the full response body. The caller closes it.
	Body io.ReadCloser

	// Charset is the charset parameter of the Content-Type header.
	// Empty when the server did not declare one.
	Charset string
}

// Opener performs a single GET request bounded by timeout.
//
// Design decision: We keep the interface to one method so that test doubles
// stay trivial and transport concerns (pooling, redirects, proxies) remain
// entirely inside the implementation.
type Opener interface {
	Open(ctx context.Context, url string, timeout time.Duration) (*Response, error)
}

// HTTPOpener is the net/http implementation of Opener.
type HTTPOpener struct {
	client *http.Client

	// userAgent is sent with every request.
	userAgent string

	// maxBodySize is the largest body that is accepted, in bytes.
	maxBodySize int64
}

// OpenerOption configures an HTTPOpener.
type OpenerOption func(*HTTPOpener)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) OpenerOption {
	return func(o *HTTPOpener) {
		o.userAgent = ua
	}
}

// WithMaxBodySize sets the body size limit. Non-positive values keep the default.
func WithMaxBodySize(size int64) OpenerOption {
	return func(o *HTTPOpener) {
		if size > 0 {
			o.maxBodySize = size
		}
	}
}

// WithTransport replaces the HTTP transport, e.g. with one from NewProxyTransport.
func WithTransport(rt http.RoundTripper) OpenerOption {
	return func(o *HTTPOpener) {
		o.client.Transport = rt
	}
}

// NewHTTPOpener creates an HTTPOpener with its own http.Client.
//
// The client has no overall timeout; each Open call bounds its own request
// with the timeout it is given.
func NewHTTPOpener(opts ...OpenerOption) *HTTPOpener {
	o := &HTTPOpener{
		client: &http.Client{
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent:   "kiwicrawl",
		maxBodySize: defaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Open performs the request. The whole round trip, body included, must
// finish within timeout; a non-positive timeout means no limit beyond ctx.
func (o *HTTPOpener) Open(ctx context.Context, url string, timeout time.Duration) (*Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", o.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	// Read one byte past the limit so an oversized body is detected rather
	// than silently truncated.
	body, err := io.ReadAll(io.LimitReader(resp.Body, o.maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > o.maxBodySize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, o.maxBodySize)
	}

	return &Response{
		Body:    io.NopCloser(bytes.NewReader(body)),
		Charset: charsetFromContentType(resp.Header.Get("Content-Type")),
	}, nil
}

// charsetFromContentType extracts the charset parameter, or "" if absent.
func charsetFromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}

// NewProxyTransport returns a transport that dials through a SOCKS5 proxy.
// This is for archives that are only reachable through a tunnel, e.g.
// "ssh -D 1080".
func NewProxyTransport(proxyAddress string) (*http.Transport, error) {
	if !isValidProxyAddress(proxyAddress) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProxyAddress, proxyAddress)
	}

	dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	dialContext := func(_ context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(network, addr)
	}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		dialContext = cd.DialContext
	}

	return &http.Transport{
		DialContext:         dialContext,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}, nil
}

// isValidProxyAddress checks for a non-empty host and a port in 1-65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}
