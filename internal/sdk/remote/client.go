package remote

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/checkout/internal/logging"
	"github.com/muurk/checkout/internal/protocol"
	"github.com/muurk/checkout/internal/sdk"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10
)

// Client is an sdk.Handle backed by a websocket connection. Events are
// delivered to the registered callbacks from a single read goroutine, one at
// a time, in arrival order.
type Client struct {
	conn   *websocket.Conn
	remote string

	writeMu sync.Mutex

	mu       sync.Mutex
	pending  map[string]chan *protocol.Envelope
	onError  sdk.ErrorHandler
	onStatus sdk.StatusHandler
	closeErr error

	done      chan struct{}
	closeOnce sync.Once
}

var _ sdk.Handle = (*Client)(nil)

// NewClient starts serving conn. The caller must eventually call Close.
func NewClient(conn *websocket.Conn) *Client {
	c := &Client{
		conn:    conn,
		remote:  conn.RemoteAddr().String(),
		pending: make(map[string]chan *protocol.Envelope),
		done:    make(chan struct{}),
	}

	conn.SetReadLimit(protocol.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.readLoop()
	go c.pingLoop()
	return c
}

// ErrorCallback implements sdk.Handle.
func (c *Client) ErrorCallback(fn sdk.ErrorHandler) {
	c.mu.Lock()
	c.onError = fn
	c.mu.Unlock()
}

// PaymentStatusCallback implements sdk.Handle.
func (c *Client) PaymentStatusCallback(fn sdk.StatusHandler) {
	c.mu.Lock()
	c.onStatus = fn
	c.mu.Unlock()
}

// InitialiseOnlineSDK implements sdk.Handle.
func (c *Client) InitialiseOnlineSDK(ctx context.Context, cfg sdk.InitConfig) error {
	return c.call(ctx, protocol.MethodInitialise, cfg)
}

// Mount implements sdk.Handle.
func (c *Client) Mount(targets sdk.MountTargets) error {
	return c.notify(protocol.MethodMount, targets)
}

// Order implements sdk.Handle.
func (c *Client) Order() sdk.Order {
	return orderAPI{c}
}

// Done is closed once the connection has gone away.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns why the connection closed, or nil while it is open.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeErr
}

// Close sends a close frame and tears the connection down.
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.writeMu.Unlock()

	c.shutdown(sdk.ErrClosed)
	return nil
}

type orderAPI struct {
	c *Client
}

func (o orderAPI) InitiatePayments(method sdk.Method) error {
	return o.c.notify(protocol.MethodInitiatePayments, protocol.PaymentParams{Method: string(method)})
}

func (o orderAPI) AddCustomerInformation(ctx context.Context, payload sdk.CustomerPayload) error {
	return o.c.call(ctx, protocol.MethodAddCustomerInformation, payload)
}

// call sends a request and waits for its response.
func (c *Client) call(ctx context.Context, method string, params any) error {
	env, err := protocol.NewRequest(method, params)
	if err != nil {
		return sdk.NewProtocolError("failed to build request", err)
	}

	reply := make(chan *protocol.Envelope, 1)
	c.mu.Lock()
	if c.closeErr != nil {
		err := c.closeErr
		c.mu.Unlock()
		return sdk.NewTransportError(method, err)
	}
	c.pending[env.ID] = reply
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, env.ID)
		c.mu.Unlock()
	}()

	if err := c.write(env); err != nil {
		return sdk.NewTransportError(method, err)
	}

	select {
	case resp := <-reply:
		if resp.Failed() {
			return sdk.NewRejectedError(method, resp.Error.Code, resp.Error.Message)
		}
		return nil
	case <-c.done:
		return sdk.NewTransportError(method, c.Err())
	case <-ctx.Done():
		return sdk.NewTransportError(method, ctx.Err())
	}
}

// notify sends a request without waiting for a response.
func (c *Client) notify(method string, params any) error {
	env, err := protocol.NewRequest(method, params)
	if err != nil {
		return sdk.NewProtocolError("failed to build request", err)
	}
	if err := c.write(env); err != nil {
		return sdk.NewTransportError(method, err)
	}
	return nil
}

func (c *Client) write(env *protocol.Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return c.Err()
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	logging.LogWebSocketMessage(c.remote, "sent", websocket.TextMessage, data)
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readLoop() {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.LogConnection(c.remote, "sdk_connection_closed")
			} else {
				logging.Warn("SDK connection lost",
					zap.String("remote_addr", c.remote),
					zap.Error(err),
				)
			}
			c.shutdown(errors.Join(sdk.ErrClosed, err))
			return
		}

		logging.LogWebSocketMessage(c.remote, "received", msgType, data)
		if msgType != websocket.TextMessage {
			logging.Warn("Ignoring non-text SDK frame",
				zap.String("remote_addr", c.remote),
				zap.Int("message_type", msgType),
			)
			continue
		}

		env, err := protocol.Decode(data)
		if err != nil {
			logging.Error("Failed to decode SDK message",
				zap.String("remote_addr", c.remote),
				zap.Error(err),
			)
			continue
		}
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env *protocol.Envelope) {
	switch env.Type {
	case protocol.TypeResponse:
		c.mu.Lock()
		reply, ok := c.pending[env.ID]
		c.mu.Unlock()
		if !ok {
			logging.Warn("Response for unknown request",
				zap.String("remote_addr", c.remote),
				zap.String("id", env.ID),
			)
			return
		}
		select {
		case reply <- env:
		default:
			logging.Warn("Duplicate response", zap.String("id", env.ID))
		}

	case protocol.TypeEvent:
		c.dispatchEvent(env)

	default:
		logging.Warn("Unexpected SDK message",
			zap.String("remote_addr", c.remote),
			zap.String("message", env.String()),
		)
	}
}

func (c *Client) dispatchEvent(env *protocol.Envelope) {
	c.mu.Lock()
	onError, onStatus := c.onError, c.onStatus
	c.mu.Unlock()

	switch env.Method {
	case protocol.EventError:
		var ev sdk.ErrorEvent
		if err := env.DecodeParams(&ev); err != nil {
			logging.Error("Malformed SDK error event", zap.Error(err))
			return
		}
		logging.LogSDKEvent(env.Method, zap.String("code", ev.Code), zap.String("message", ev.Message))
		if onError == nil {
			logging.Warn("Dropping SDK error event, no callback registered", zap.String("code", ev.Code))
			return
		}
		onError(ev.Code, ev.Message)

	case protocol.EventPaymentStatus:
		var ev sdk.StatusEvent
		if err := env.DecodeParams(&ev); err != nil {
			logging.Error("Malformed SDK status event", zap.Error(err))
			return
		}
		logging.LogSDKEvent(env.Method, zap.String("status", ev.PaymentStatus))
		if onStatus == nil {
			logging.Warn("Dropping SDK status event, no callback registered", zap.String("status", ev.PaymentStatus))
			return
		}
		onStatus(ev)

	default:
		logging.Warn("Unknown SDK event", zap.String("event", env.Method))
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				logging.Debug("SDK ping failed", zap.String("remote_addr", c.remote), zap.Error(err))
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) shutdown(reason error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closeErr = reason
		c.mu.Unlock()
		close(c.done)
		_ = c.conn.Close()
	})
}
