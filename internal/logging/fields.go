package logging

import (
	"fmt"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// maxLoggedPayload caps the frame text included in debug logs.
const maxLoggedPayload = 512

// LogConnection records a connection lifecycle event such as "sdk_loaded".
func LogConnection(remoteAddr, event string) {
	Info("Connection event",
		zap.String("remote_addr", remoteAddr),
		zap.String("event", event),
	)
}

// LogSDKCall records an outbound call on the payment SDK surface.
func LogSDKCall(method string, fields ...zap.Field) {
	Debug("SDK call", append([]zap.Field{zap.String("method", method)}, fields...)...)
}

// LogSDKEvent records an event the payment SDK delivered.
func LogSDKEvent(kind string, fields ...zap.Field) {
	Info("SDK event", append([]zap.Field{zap.String("kind", kind)}, fields...)...)
}

// LogTransition records a readiness change.
func LogTransition(from, to string) {
	Info("SDK readiness changed", zap.String("from", from), zap.String("to", to))
}

// LogWebSocketMessage records one frame. Text payloads are included, cut
// to maxLoggedPayload bytes.
func LogWebSocketMessage(remoteAddr, direction string, messageType int, data []byte) {
	fields := []zap.Field{
		zap.String("remote_addr", remoteAddr),
		zap.String("direction", direction),
		zap.String("message_type", frameTypeName(messageType)),
		zap.Int("length", len(data)),
	}
	if messageType == websocket.TextMessage {
		fields = append(fields, zap.String("content", truncate(string(data), maxLoggedPayload)))
	}
	Debug("WebSocket message", fields...)
}

func frameTypeName(t int) string {
	switch t {
	case websocket.TextMessage:
		return "text"
	case websocket.BinaryMessage:
		return "binary"
	case websocket.CloseMessage:
		return "close"
	case websocket.PingMessage:
		return "ping"
	case websocket.PongMessage:
		return "pong"
	}
	return fmt.Sprintf("unknown(%d)", t)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
