package sdk

import "context"

// Method selects how the customer pays.
type Method string

const (
	MethodCard   Method = "CARD"
	MethodKlarna Method = "KLARNA"
)

// Valid reports whether m is a payment method the SDK accepts.
func (m Method) Valid() bool {
	return m == MethodCard || m == MethodKlarna
}

// Payment status tags carried by status events. Only completed and failed
// are terminal; anything else is passed through unmapped.
const (
	StatusPaymentInitiated = "PAYMENT_INITIATED"
	StatusPaymentCompleted = "PAYMENT_COMPLETED"
	StatusPaymentFailed    = "PAYMENT_FAILED"
)

// InitConfig is the argument to initialiseOnlineSDK.
type InitConfig struct {
	PublicKey string `json:"publicKey"`
	OrderID   string `json:"orderId"`
	Nonce     string `json:"nonce"`
}

// Validate returns a config error naming the first missing field.
func (c InitConfig) Validate() error {
	switch {
	case c.PublicKey == "":
		return NewConfigError(ErrMissingPublicKey)
	case c.OrderID == "":
		return NewConfigError(ErrMissingOrderID)
	case c.Nonce == "":
		return NewConfigError(ErrMissingNonce)
	}
	return nil
}

// Widget mount point identifiers used by the checkout form.
const (
	CardWidgetID      = "card-details"
	ApplePayWidgetID  = "apple-pay"
	GooglePayWidgetID = "google-pay"
)

// MountTargets names the regions the SDK renders its widgets into.
type MountTargets struct {
	Card      string `json:"mountCardWidget" yaml:"card"`
	ApplePay  string `json:"mountApplePayWidget" yaml:"apple_pay"`
	GooglePay string `json:"mountGooglePayWidget" yaml:"google_pay"`
}

// DefaultMountTargets returns the three fixed widget identifiers.
func DefaultMountTargets() MountTargets {
	return MountTargets{
		Card:      CardWidgetID,
		ApplePay:  ApplePayWidgetID,
		GooglePay: GooglePayWidgetID,
	}
}

// StatusEvent is a payment status notification.
type StatusEvent struct {
	PaymentStatus string `json:"paymentStatus"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
}

// ErrorEvent is an operational or integration failure reported by the SDK.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Phone is the customer's phone number.
type Phone struct {
	CountryCode string `json:"countryCode"`
	Number      string `json:"number"`
}

// BillingAddress is the customer's billing address.
type BillingAddress struct {
	City         string `json:"city"`
	PostalCode   string `json:"postalCode"`
	CountryCode  string `json:"countryCode"`
	AddressLine1 string `json:"addressLine1"`
}

// CustomerPayload is the argument to order.addCustomerInformation.
type CustomerPayload struct {
	Email          string         `json:"email"`
	Phone          Phone          `json:"phone"`
	BillingAddress BillingAddress `json:"billingAddress"`
}

// ErrorHandler receives SDK error events.
type ErrorHandler func(code, message string)

// StatusHandler receives payment status events.
type StatusHandler func(StatusEvent)

// Handle is the native surface of a loaded SDK.
type Handle interface {
	// ErrorCallback stores the error handler. Last registration wins.
	ErrorCallback(fn ErrorHandler)

	// PaymentStatusCallback stores the status handler. Last registration wins.
	PaymentStatusCallback(fn StatusHandler)

	// InitialiseOnlineSDK initializes the SDK for one order.
	InitialiseOnlineSDK(ctx context.Context, cfg InitConfig) error

	// Mount renders the SDK widgets into the given regions.
	Mount(targets MountTargets) error

	// Order returns the order API.
	Order() Order
}

// Order is the order API of the SDK.
type Order interface {
	// InitiatePayments starts a payment. The outcome arrives through the
	// status callback; the returned error only reports delivery failures.
	InitiatePayments(method Method) error

	// AddCustomerInformation attaches customer details to the order.
	AddCustomerInformation(ctx context.Context, payload CustomerPayload) error
}

// Loader makes the SDK available. A nil error is the "ready" signal and an
// error is the "failed to load" signal.
type Loader interface {
	Load(ctx context.Context) (Handle, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (Handle, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context) (Handle, error) {
	return f(ctx)
}
