package providers

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// newPingClient returns an HTTP client for a single long-lived stream. Its
// HTTP/2 connection sends a health check ping after interval without reads, so
// a dead peer is dropped while a slow one is left alone. There is no overall
// timeout.
func newPingClient(interval time.Duration) (*http.Client, error) {
	dialer := &net.Dialer{Timeout: 30 * time.Second}
	base := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	h2, err := http2.ConfigureTransports(base)
	if err != nil {
		return nil, fmt.Errorf("configure http2: %w", err)
	}
	h2.ReadIdleTimeout = interval
	h2.PingTimeout = interval
	return &http.Client{Transport: base}, nil
}
