// Package sdktest provides an in-memory SDK handle for tests.
package sdktest

import (
	"context"
	"sync"

	"github.com/muurk/checkout/internal/sdk"
)

// Handle is a scriptable sdk.Handle that records every call in order.
type Handle struct {
	mu sync.Mutex

	calls    []string
	onError  sdk.ErrorHandler
	onStatus sdk.StatusHandler

	// InitErr is returned by InitialiseOnlineSDK.
	InitErr error
	// MountErr is returned by Mount.
	MountErr error
	// PaymentErr is returned by InitiatePayments.
	PaymentErr error
	// CustomerErr is returned by AddCustomerInformation.
	CustomerErr error

	// BeforeInit runs inside InitialiseOnlineSDK, before it returns.
	BeforeInit func()

	InitConfigs []sdk.InitConfig
	Mounts      []sdk.MountTargets
	Payments    []sdk.Method
	Customers   []sdk.CustomerPayload
}

// New returns an empty handle.
func New() *Handle {
	return &Handle{}
}

func (h *Handle) record(call string) {
	h.mu.Lock()
	h.calls = append(h.calls, call)
	h.mu.Unlock()
}

// Calls returns the method names called so far, in order.
func (h *Handle) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.calls))
	copy(out, h.calls)
	return out
}

// Count returns how many times call was made.
func (h *Handle) Count(call string) int {
	n := 0
	for _, c := range h.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

// Close records the call the way a remote client would be closed.
func (h *Handle) Close() error {
	h.record("close")
	return nil
}

// ErrorCallback implements sdk.Handle.
func (h *Handle) ErrorCallback(fn sdk.ErrorHandler) {
	h.record("errorCallback")
	h.mu.Lock()
	h.onError = fn
	h.mu.Unlock()
}

// PaymentStatusCallback implements sdk.Handle.
func (h *Handle) PaymentStatusCallback(fn sdk.StatusHandler) {
	h.record("paymentStatusCallback")
	h.mu.Lock()
	h.onStatus = fn
	h.mu.Unlock()
}

// InitialiseOnlineSDK implements sdk.Handle.
func (h *Handle) InitialiseOnlineSDK(ctx context.Context, cfg sdk.InitConfig) error {
	h.record("initialiseOnlineSDK")
	h.mu.Lock()
	h.InitConfigs = append(h.InitConfigs, cfg)
	before := h.BeforeInit
	h.mu.Unlock()

	if before != nil {
		before()
	}
	return h.InitErr
}

// Mount implements sdk.Handle.
func (h *Handle) Mount(targets sdk.MountTargets) error {
	h.record("mount")
	h.mu.Lock()
	h.Mounts = append(h.Mounts, targets)
	h.mu.Unlock()
	return h.MountErr
}

// Order implements sdk.Handle.
func (h *Handle) Order() sdk.Order {
	return order{h}
}

// EmitError delivers an error event the way the SDK would. It reports false
// when no error callback has been registered, in which case nothing is delivered.
func (h *Handle) EmitError(code, message string) bool {
	h.mu.Lock()
	fn := h.onError
	h.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(code, message)
	return true
}

// EmitStatus delivers a status event. It reports false when no status
// callback has been registered.
func (h *Handle) EmitStatus(ev sdk.StatusEvent) bool {
	h.mu.Lock()
	fn := h.onStatus
	h.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(ev)
	return true
}

type order struct {
	h *Handle
}

func (o order) InitiatePayments(method sdk.Method) error {
	o.h.record("order.initiatePayments")
	o.h.mu.Lock()
	o.h.Payments = append(o.h.Payments, method)
	o.h.mu.Unlock()
	return o.h.PaymentErr
}

func (o order) AddCustomerInformation(ctx context.Context, payload sdk.CustomerPayload) error {
	o.h.record("order.addCustomerInformation")
	o.h.mu.Lock()
	o.h.Customers = append(o.h.Customers, payload)
	o.h.mu.Unlock()
	return o.h.CustomerErr
}
