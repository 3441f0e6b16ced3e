package sdk

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/checkout/internal/logging"
)

// Adapter exposes the parts of a Handle the checkout uses, with typed
// arguments and classified errors.
type Adapter struct {
	handle Handle
}

// NewAdapter wraps h.
func NewAdapter(h Handle) *Adapter {
	return &Adapter{handle: h}
}

// RegisterErrorCallback stores the handler for SDK error events.
func (a *Adapter) RegisterErrorCallback(fn ErrorHandler) {
	logging.LogSDKCall("errorCallback")
	a.handle.ErrorCallback(fn)
}

// RegisterStatusCallback stores the handler for payment status events.
func (a *Adapter) RegisterStatusCallback(fn StatusHandler) {
	logging.LogSDKCall("paymentStatusCallback")
	a.handle.PaymentStatusCallback(fn)
}

// Initialize initializes the SDK. It fails without contacting the SDK when
// any of the public key, order id or nonce is empty.
func (a *Adapter) Initialize(ctx context.Context, cfg InitConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.LogSDKCall("initialiseOnlineSDK", zap.String("order_id", cfg.OrderID))
	if err := a.handle.InitialiseOnlineSDK(ctx, cfg); err != nil {
		return classify("initialiseOnlineSDK", err)
	}
	return nil
}

// Mount binds the SDK widgets to the three regions.
func (a *Adapter) Mount(targets MountTargets) error {
	logging.LogSDKCall("mount",
		zap.String("card", targets.Card),
		zap.String("apple_pay", targets.ApplePay),
		zap.String("google_pay", targets.GooglePay),
	)
	if err := a.handle.Mount(targets); err != nil {
		return classify("mount", err)
	}
	return nil
}

// InitiatePayment triggers a payment. The result arrives on the status callback.
func (a *Adapter) InitiatePayment(method Method) error {
	if !method.Valid() {
		return &SDKError{
			Type:    ErrTypeInvalidArgument,
			Method:  "order.initiatePayments",
			Message: fmt.Sprintf("unsupported payment method %q", method),
		}
	}

	logging.LogSDKCall("order.initiatePayments", zap.String("payment_method", string(method)))
	if err := a.handle.Order().InitiatePayments(method); err != nil {
		return classify("order.initiatePayments", err)
	}
	return nil
}

// SubmitCustomerInfo forwards payload unchanged and waits for the SDK to
// accept or reject it.
func (a *Adapter) SubmitCustomerInfo(ctx context.Context, payload CustomerPayload) error {
	logging.LogSDKCall("order.addCustomerInformation")
	if err := a.handle.Order().AddCustomerInformation(ctx, payload); err != nil {
		return classify("order.addCustomerInformation", err)
	}
	return nil
}

// classify keeps SDKErrors as they are and marks anything else as a transport failure.
func classify(method string, err error) error {
	if _, ok := errorType(err); ok {
		return err
	}
	return NewTransportError(method, err)
}
