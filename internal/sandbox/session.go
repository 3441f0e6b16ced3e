package sandbox

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
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

	// Time allowed to read the next message from the peer
	pongWait = 60 * time.Second
)

// Error codes returned by the sandbox.
const (
	CodeInvalidConfig       = "INVALID_CONFIG"
	CodeAlreadyInitialised  = "ALREADY_INITIALISED"
	CodeNotInitialised      = "NOT_INITIALISED"
	CodeInvalidMountTarget  = "INVALID_MOUNT_TARGET"
	CodeNotMounted          = "WIDGETS_NOT_MOUNTED"
	CodeUnsupportedMethod   = "UNSUPPORTED_PAYMENT_METHOD"
	CodeInvalidCustomerInfo = "INVALID_CUSTOMER_INFO"
	CodeUnknownMethod       = "UNKNOWN_METHOD"
	CodeBadRequest          = "BAD_REQUEST"
)

// FailOrderPrefix marks order ids whose payments are declined.
const FailOrderPrefix = "fail-"

// DeclinedMessage is the failure message for declined orders.
const DeclinedMessage = "Card declined by issuer"

// session is one connected checkout.
type session struct {
	conn       *websocket.Conn
	remote     string
	capture    *Capture
	delay      time.Duration
	messageNum atomic.Int32

	writeMu sync.Mutex

	mu          sync.Mutex
	initialized bool
	mounted     bool
	orderID     string
	customer    *sdk.CustomerPayload

	wg sync.WaitGroup
}

func newSession(conn *websocket.Conn, capture *Capture, delay time.Duration) *session {
	return &session{
		conn:    conn,
		remote:  conn.RemoteAddr().String(),
		capture: capture,
		delay:   delay,
	}
}

// serve reads requests until the connection closes or ctx is done.
func (s *session) serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.wg.Wait()
		_ = s.conn.Close()
		logging.LogConnection(s.remote, "session_closed")
	}()

	go func() {
		<-ctx.Done()
		// Unblocks ReadMessage on shutdown.
		_ = s.conn.SetReadDeadline(time.Now())
	}()

	s.conn.SetReadLimit(protocol.MaxMessageSize)
	s.conn.SetPingHandler(func(data string) error {
		if err := s.extendDeadline(ctx); err != nil {
			return err
		}
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		return s.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		if err := s.extendDeadline(ctx); err != nil {
			return
		}
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Info("Connection closed by client", zap.String("remote_addr", s.remote))
			} else if ctx.Err() == nil {
				logging.Info("Connection closed or error reading frame",
					zap.String("remote_addr", s.remote),
					zap.Error(err),
				)
			}
			return
		}

		logging.LogWebSocketMessage(s.remote, "received", msgType, data)
		s.capture.Save(s.remote, int(s.messageNum.Add(1)), DirectionInbound, data)

		if msgType != websocket.TextMessage {
			logging.Warn("Ignoring non-text frame", zap.String("remote_addr", s.remote))
			continue
		}

		env, err := protocol.Decode(data)
		if err != nil {
			logging.Error("Failed to decode frame", zap.String("remote_addr", s.remote), zap.Error(err))
			continue
		}
		if env.Type != protocol.TypeRequest {
			logging.Warn("Ignoring non-request envelope",
				zap.String("remote_addr", s.remote),
				zap.String("envelope", env.String()),
			)
			continue
		}

		s.handle(ctx, env)
	}
}

// extendDeadline pushes the read deadline out by pongWait. It checks ctx after
// the write so a shutdown racing with it still wins.
func (s *session) extendDeadline(ctx context.Context) error {
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *session) handle(ctx context.Context, req *protocol.Envelope) {
	switch req.Method {
	case protocol.MethodInitialise:
		s.handleInitialise(req)
	case protocol.MethodMount:
		s.handleMount(req)
	case protocol.MethodInitiatePayments:
		s.handleInitiatePayments(ctx, req)
	case protocol.MethodAddCustomerInformation:
		s.handleAddCustomerInformation(req)
	default:
		s.reply(protocol.NewErrorResponse(req.ID, CodeUnknownMethod, "unknown method "+req.Method))
	}
}

func (s *session) handleInitialise(req *protocol.Envelope) {
	var cfg sdk.InitConfig
	if err := req.DecodeParams(&cfg); err != nil {
		s.reply(protocol.NewErrorResponse(req.ID, CodeBadRequest, err.Error()))
		return
	}
	if cfg.PublicKey == "" || cfg.OrderID == "" || cfg.Nonce == "" {
		s.reply(protocol.NewErrorResponse(req.ID, CodeInvalidConfig, "publicKey, orderId and nonce are required"))
		return
	}

	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		s.reply(protocol.NewErrorResponse(req.ID, CodeAlreadyInitialised, "the SDK is already initialised"))
		return
	}
	s.initialized = true
	s.orderID = cfg.OrderID
	s.mu.Unlock()

	logging.Info("Session initialised",
		zap.String("remote_addr", s.remote),
		zap.String("order_id", cfg.OrderID),
	)
	s.reply(protocol.NewResponse(req.ID))
}

func (s *session) handleMount(req *protocol.Envelope) {
	if !s.isInitialized() {
		s.emitError(CodeNotInitialised, "mount called before initialiseOnlineSDK")
		return
	}

	var targets sdk.MountTargets
	if err := req.DecodeParams(&targets); err != nil {
		s.emitError(CodeBadRequest, err.Error())
		return
	}
	if targets.Card == "" || targets.ApplePay == "" || targets.GooglePay == "" {
		s.emitError(CodeInvalidMountTarget, "every widget needs a mount target")
		return
	}

	s.mu.Lock()
	s.mounted = true
	s.mu.Unlock()

	logging.Info("Widgets mounted",
		zap.String("remote_addr", s.remote),
		zap.String("card", targets.Card),
		zap.String("apple_pay", targets.ApplePay),
		zap.String("google_pay", targets.GooglePay),
	)
}

func (s *session) handleInitiatePayments(ctx context.Context, req *protocol.Envelope) {
	if !s.isInitialized() {
		s.emitError(CodeNotInitialised, "order.initiatePayments called before initialiseOnlineSDK")
		return
	}

	var params protocol.PaymentParams
	if err := req.DecodeParams(&params); err != nil {
		s.emitError(CodeBadRequest, err.Error())
		return
	}
	method := sdk.Method(params.Method)
	if !method.Valid() {
		s.emitError(CodeUnsupportedMethod, "unsupported payment method "+params.Method)
		return
	}

	if method == sdk.MethodCard && !s.isMounted() {
		s.emitError(CodeNotMounted, "card payments need the card widget to be mounted")
		return
	}

	final := s.outcome(method)
	logging.Info("Payment initiated",
		zap.String("remote_addr", s.remote),
		zap.String("payment_method", params.Method),
		zap.String("final_status", final.PaymentStatus),
	)

	s.emitStatus(sdk.StatusEvent{PaymentStatus: sdk.StatusPaymentInitiated})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-time.After(s.delay):
			s.emitStatus(final)
		case <-ctx.Done():
		}
	}()
}

// outcome decides how a payment with method ends.
func (s *session) outcome(method sdk.Method) sdk.StatusEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case strings.HasPrefix(s.orderID, FailOrderPrefix):
		return sdk.StatusEvent{PaymentStatus: sdk.StatusPaymentFailed, ErrorMessage: DeclinedMessage}
	case method == sdk.MethodKlarna && s.customer == nil:
		return sdk.StatusEvent{PaymentStatus: sdk.StatusPaymentFailed}
	default:
		return sdk.StatusEvent{PaymentStatus: sdk.StatusPaymentCompleted}
	}
}

func (s *session) handleAddCustomerInformation(req *protocol.Envelope) {
	if !s.isInitialized() {
		s.reply(protocol.NewErrorResponse(req.ID, CodeNotInitialised, "the SDK is not initialised"))
		return
	}

	var payload sdk.CustomerPayload
	if err := req.DecodeParams(&payload); err != nil {
		s.reply(protocol.NewErrorResponse(req.ID, CodeBadRequest, err.Error()))
		return
	}
	if strings.TrimSpace(payload.Email) == "" {
		s.reply(protocol.NewErrorResponse(req.ID, CodeInvalidCustomerInfo, "email is required"))
		return
	}

	s.mu.Lock()
	s.customer = &payload
	s.mu.Unlock()

	logging.Info("Customer information added", zap.String("remote_addr", s.remote))
	s.reply(protocol.NewResponse(req.ID))
}

func (s *session) isInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func (s *session) isMounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

func (s *session) emitError(code, message string) {
	logging.Warn("Emitting error event",
		zap.String("remote_addr", s.remote),
		zap.String("code", code),
		zap.String("message", message),
	)
	env, err := protocol.NewEvent(protocol.EventError, sdk.ErrorEvent{Code: code, Message: message})
	if err != nil {
		logging.Error("Failed to build error event", zap.Error(err))
		return
	}
	s.reply(env)
}

func (s *session) emitStatus(ev sdk.StatusEvent) {
	env, err := protocol.NewEvent(protocol.EventPaymentStatus, ev)
	if err != nil {
		logging.Error("Failed to build status event", zap.Error(err))
		return
	}
	s.reply(env)
}

// reply writes env to the client. Writes are serialized.
func (s *session) reply(env *protocol.Envelope) {
	data, err := env.Encode()
	if err != nil {
		logging.Error("Failed to encode envelope", zap.Error(err))
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		logging.Error("Failed to set write deadline",
			zap.String("remote_addr", s.remote),
			zap.Error(err),
		)
		return
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		logging.Error("Failed to send message",
			zap.String("remote_addr", s.remote),
			zap.Error(err),
		)
		return
	}

	logging.LogWebSocketMessage(s.remote, "sent", websocket.TextMessage, data)
	s.capture.Save(s.remote, int(s.messageNum.Add(1)), DirectionOutbound, data)
}
