package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// MessageType is the kind of an Envelope.
type MessageType string

const (
	TypeRequest  MessageType = "request"
	TypeResponse MessageType = "response"
	TypeEvent    MessageType = "event"
)

// SDK methods carried by requests.
const (
	MethodInitialise             = "initialiseOnlineSDK"
	MethodMount                  = "mount"
	MethodInitiatePayments       = "order.initiatePayments"
	MethodAddCustomerInformation = "order.addCustomerInformation"
)

// SDK callbacks carried by events.
const (
	EventError         = "error"
	EventPaymentStatus = "paymentStatus"
)

// PublicKeyHeader carries the merchant public key on the websocket handshake.
const PublicKeyHeader = "X-Public-Key"

// MaxMessageSize bounds a single frame. Larger frames are rejected by both ends.
const MaxMessageSize = 64 * 1024

var (
	// ErrUnknownType is returned by Decode for envelopes with an unrecognized type.
	ErrUnknownType = errors.New("unknown envelope type")
	// ErrMissingID is returned by Decode for requests and responses without an id.
	ErrMissingID = errors.New("envelope id is required")
	// ErrMissingMethod is returned by Decode for requests and events without a method.
	ErrMissingMethod = errors.New("envelope method is required")
)

// PaymentParams are the params of an order.initiatePayments request.
type PaymentParams struct {
	Method string `json:"method"`
}

// ErrorBody describes why a request failed.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope is one frame on the wire.
type Envelope struct {
	Type   MessageType     `json:"type"`
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Error  *ErrorBody      `json:"error,omitempty"`
}

// NewRequest builds a request with a fresh id.
func NewRequest(method string, params any) (*Envelope, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s params: %w", method, err)
	}
	return &Envelope{
		Type:   TypeRequest,
		ID:     uuid.NewString(),
		Method: method,
		Params: raw,
	}, nil
}

// NewResponse builds a successful response to the request with the given id.
func NewResponse(id string) *Envelope {
	return &Envelope{Type: TypeResponse, ID: id}
}

// NewErrorResponse builds a failed response to the request with the given id.
func NewErrorResponse(id, code, message string) *Envelope {
	return &Envelope{
		Type:  TypeResponse,
		ID:    id,
		Error: &ErrorBody{Code: code, Message: message},
	}
}

// NewEvent builds an event.
func NewEvent(name string, params any) (*Envelope, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", name, err)
	}
	return &Envelope{
		Type:   TypeEvent,
		Method: name,
		Params: raw,
	}, nil
}

func marshalParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	return json.Marshal(params)
}

// Decode parses and validates a frame.
func Decode(data []byte) (*Envelope, error) {
	if len(data) > MaxMessageSize {
		return nil, fmt.Errorf("message too large: %d bytes (max %d)", len(data), MaxMessageSize)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse envelope: %w", err)
	}

	switch env.Type {
	case TypeRequest:
		if env.ID == "" {
			return nil, ErrMissingID
		}
		if env.Method == "" {
			return nil, ErrMissingMethod
		}
	case TypeResponse:
		if env.ID == "" {
			return nil, ErrMissingID
		}
	case TypeEvent:
		if env.Method == "" {
			return nil, ErrMissingMethod
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	return &env, nil
}

// Encode serializes the envelope.
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeParams unmarshals the params into v.
func (e *Envelope) DecodeParams(v any) error {
	if len(e.Params) == 0 {
		return fmt.Errorf("%s: params are missing", e.Method)
	}
	if err := json.Unmarshal(e.Params, v); err != nil {
		return fmt.Errorf("%s: failed to parse params: %w", e.Method, err)
	}
	return nil
}

// Failed reports whether a response carries an error.
func (e *Envelope) Failed() bool {
	return e.Error != nil
}

// String returns a compact description for logging.
func (e *Envelope) String() string {
	switch e.Type {
	case TypeResponse:
		if e.Error != nil {
			return fmt.Sprintf("response{id=%s, error=%s: %s}", e.ID, e.Error.Code, e.Error.Message)
		}
		return fmt.Sprintf("response{id=%s}", e.ID)
	case TypeRequest:
		return fmt.Sprintf("request{id=%s, method=%s, params=%d bytes}", e.ID, e.Method, len(e.Params))
	default:
		return fmt.Sprintf("%s{method=%s, params=%d bytes}", e.Type, e.Method, len(e.Params))
	}
}
