// Package httpclient builds the shared outbound client used for the
// generation endpoint, the upstream model and Telegram file downloads.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"time"
)

type Options struct {
	PreferIPv4 bool
	Timeout    time.Duration
	// ResponseHeaderTimeout bounds the wait for the first response byte.
	// Image generation is slow, so the default matches Timeout.
	ResponseHeaderTimeout time.Duration
}

func New(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	headerTimeout := opts.ResponseHeaderTimeout
	if headerTimeout <= 0 {
		headerTimeout = timeout
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: newTransport(opts.PreferIPv4, headerTimeout),
	}
}

func newTransport(preferIPv4 bool, headerTimeout time.Duration) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   15 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, dialNetwork(network, preferIPv4), addr)
		},
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: headerTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

func dialNetwork(network string, preferIPv4 bool) string {
	if preferIPv4 && (network == "tcp" || network == "tcp6") {
		return "tcp4"
	}
	return network
}
