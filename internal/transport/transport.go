// Package transport builds the outbound http.RoundTripper used to reach the
// storefront backend.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// Options controls how the backend is dialed.
type Options struct {
	Timeout   time.Duration // dial timeout
	ChromeTLS bool          // present a Chrome TLS fingerprint on https
	UserAgent string        // set when the request has none
}

// New returns the transport for opts. Plain http always uses the standard
// transport; https uses the Chrome fingerprint when enabled.
func New(opts Options) http.RoundTripper {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	plain := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: opts.Timeout}).DialContext,
		TLSHandshakeTimeout: opts.Timeout,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
	}

	var rt http.RoundTripper = plain
	if opts.ChromeTLS {
		rt = &schemeRouter{plain: plain, secure: NewChromeTransport(opts.Timeout)}
	}
	if opts.UserAgent != "" {
		rt = &userAgent{next: rt, ua: opts.UserAgent}
	}
	return rt
}

// schemeRouter keeps plain-http backends (local dev) off the uTLS path.
type schemeRouter struct {
	plain  http.RoundTripper
	secure http.RoundTripper
}

func (s *schemeRouter) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme == "https" {
		return s.secure.RoundTrip(req)
	}
	return s.plain.RoundTrip(req)
}

type userAgent struct {
	next http.RoundTripper
	ua   string
}

func (u *userAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return u.next.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", u.ua)
	return u.next.RoundTrip(r)
}

// NewChromeTransport creates an http.RoundTripper that presents Chrome's TLS
// fingerprint. HTTP/2 is tried first and HTTP/1.1 is used when the server
// does not negotiate h2.
func NewChromeTransport(timeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: timeout}

	h2Transport := &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			return dialChromeTLS(ctx, dialer, network, addr)
		},
	}

	h1Transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialChromeTLS(ctx, dialer, network, addr)
		},
		ForceAttemptHTTP2: false,
	}

	return &chromeTransport{h2: h2Transport, h1: h1Transport}
}

type chromeTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

// RoundTrip tries HTTP/2 and falls back to HTTP/1.1. A request whose body
// cannot be replayed is not retried.
func (t *chromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	retry, ok := rewind(req)
	if !ok {
		return nil, err
	}
	return t.h1.RoundTrip(retry)
}

func rewind(req *http.Request) (*http.Request, bool) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	r := req.Clone(req.Context())
	r.Body = body
	return r, true
}

func dialChromeTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
