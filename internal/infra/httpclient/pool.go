package httpclient

import (
	"net/http"
	"time"
)

// sharedTransport is reused by every pooled client so the embedder, generator
// and index clients share keep-alive connections to the same hosts.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        20,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     120 * time.Second,
	DisableKeepAlives:   false,
}

// NewPooledClient creates an http.Client on the shared transport. The timeout
// bounds the whole exchange, including reading the body.
func NewPooledClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: sharedTransport,
	}
}
