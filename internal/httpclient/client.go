// Package httpclient provides shared HTTP utilities with connection
// pooling and safe response handling for the semantic layer's provider
// probes and chat-completion calls.
package httpclient

import (
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// MaxResponseSize is the default maximum size for reading HTTP response
// bodies. Prevents unbounded reads from a misbehaving or hostile endpoint.
const MaxResponseSize = 2 * 1024 * 1024 // 2MB

// Shared transport with pooled connections, safe for concurrent use.
var sharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          50,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// TimeoutTier names the two timeout categories the semantic layer needs.
type TimeoutTier int

const (
	// TierProbe is for provider-detection probes (2s).
	TierProbe TimeoutTier = iota
	// TierChat is for the chat-completion call (10s default).
	TierChat
)

var (
	clientProbe *http.Client
	clientChat  *http.Client
	clientOnce  sync.Once
)

func initClients() {
	clientProbe = &http.Client{Timeout: 2 * time.Second, Transport: sharedTransport}
	clientChat = &http.Client{Timeout: 10 * time.Second, Transport: sharedTransport}
}

// Client returns a shared, pooled client for the given tier.
func Client(tier TimeoutTier) *http.Client {
	clientOnce.Do(initClients)
	if tier == TierProbe {
		return clientProbe
	}
	return clientChat
}

// ProbeClient returns the 2s-timeout client used for provider detection.
func ProbeClient() *http.Client {
	return Client(TierProbe)
}

// ChatClient returns the client sharing the pooled transport, with the
// given cooperative timeout applied per-call (semantic.Config.Timeout is
// configurable, so the timeout is not baked into the singleton).
func ChatClient(timeout time.Duration) *http.Client {
	Client(TierChat) // ensure sharedTransport is warmed via clientOnce
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout, Transport: sharedTransport}
}

// ReadBody safely reads an HTTP response body with a size cap.
func ReadBody(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, MaxResponseSize))
}

// DrainAndClose drains then closes a response body so the connection can
// be reused by the pool.
func DrainAndClose(body io.ReadCloser) {
	if body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, MaxResponseSize))
		_ = body.Close()
	}
}
