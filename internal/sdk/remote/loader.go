// Package remote implements sdk.Handle on top of a websocket connection to
// an SDK gateway.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/checkout/internal/logging"
	"github.com/muurk/checkout/internal/protocol"
	"github.com/muurk/checkout/internal/sdk"
	"github.com/muurk/checkout/internal/version"
)

// DefaultHandshakeTimeout bounds the websocket handshake when loading the SDK.
const DefaultHandshakeTimeout = 10 * time.Second

// Loader dials an SDK gateway. A successful Load is the SDK's "ready" signal.
type Loader struct {
	// URL is the gateway websocket URL (ws:// or wss://)
	URL string

	// PublicKey is sent as a header so the gateway can pick the merchant
	PublicKey string

	// Dialer is the websocket dialer (default: websocket.DefaultDialer with a handshake timeout)
	Dialer *websocket.Dialer
}

// NewLoader creates a loader for the gateway at rawURL.
func NewLoader(rawURL, publicKey string) *Loader {
	return &Loader{
		URL:       rawURL,
		PublicKey: publicKey,
		Dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: DefaultHandshakeTimeout,
		},
	}
}

// Load connects to the gateway and returns a ready Client.
func (l *Loader) Load(ctx context.Context) (sdk.Handle, error) {
	if l.URL == "" {
		return nil, sdk.NewLoadError("SDK URL is not configured", nil)
	}

	u, err := url.Parse(l.URL)
	if err != nil {
		return nil, sdk.NewLoadError("invalid SDK URL", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, sdk.NewLoadError(fmt.Sprintf("unsupported SDK URL scheme %q", u.Scheme), nil)
	}

	dialer := l.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	header := http.Header{}
	header.Set("User-Agent", version.UserAgent())
	if l.PublicKey != "" {
		header.Set(protocol.PublicKeyHeader, l.PublicKey)
	}

	logging.Info("Loading payment SDK", zap.String("url", l.URL))

	conn, resp, err := dialer.DialContext(ctx, l.URL, header)
	if err != nil {
		if resp != nil {
			return nil, sdk.NewLoadError(fmt.Sprintf("SDK gateway answered HTTP %d", resp.StatusCode), err)
		}
		return nil, sdk.NewLoadError("failed to reach SDK gateway", err)
	}

	logging.LogConnection(conn.RemoteAddr().String(), "sdk_loaded")
	return NewClient(conn), nil
}
