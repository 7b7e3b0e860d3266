package customHttpClient

import (
	"net/http"

	"github.com/skondray/pmcopilot/internal/config"
)

var customTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// NewPooledClient hands external SDKs a client that reuses connections,
// the embedder makes many small calls and cold TLS handshakes add up.
func NewPooledClient() *http.Client {
	return &http.Client{Transport: customTransport}
}
