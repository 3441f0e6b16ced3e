package checkout

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/checkout/internal/eventlog"
	"github.com/muurk/checkout/internal/logging"
	"github.com/muurk/checkout/internal/sdk"
)

// Readiness is the SDK lifecycle state.
type Readiness int

const (
	NotLoaded Readiness = iota
	Loaded
	Initializing
	Initialized
	MountFailed
)

// String returns the state name
func (r Readiness) String() string {
	switch r {
	case NotLoaded:
		return "not_loaded"
	case Loaded:
		return "loaded"
	case Initializing:
		return "initializing"
	case Initialized:
		return "initialized"
	case MountFailed:
		return "mount_failed"
	default:
		return fmt.Sprintf("Readiness(%d)", int(r))
	}
}

// Terminal reports whether no further transition is possible.
func (r Readiness) Terminal() bool {
	return r == Initialized || r == MountFailed
}

// Notice codes raised by the controller. The halting ones are persistent.
const (
	CodeMissingValues     = "MISSING_VALUES"
	CodeSDKLoadError      = "SDK_LOAD_ERROR"
	CodeSDKInitError      = "SDK_INIT_ERROR"
	CodeSDKMountError     = "SDK_MOUNT_ERROR"
	CodeCustomerInfoError = "CUSTOMER_INFO_ERROR"
	CodePaymentError      = "PAYMENT_ERROR"
)

const (
	missingValuesMessage = "Please provide the order id and nonce for this checkout session."
	loadErrorMessage     = "Failed to load payment SDK."
)

// Session holds the per-checkout initialization values.
type Session struct {
	PublicKey string
	OrderID   string
	Nonce     string
}

func (s Session) initConfig() sdk.InitConfig {
	return sdk.InitConfig{PublicKey: s.PublicKey, OrderID: s.OrderID, Nonce: s.Nonce}
}

// allowed lists the legal transitions.
var allowed = map[Readiness][]Readiness{
	NotLoaded:    {Loaded, MountFailed},
	Loaded:       {Initializing},
	Initializing: {Initialized, MountFailed},
}

// Controller runs the SDK lifecycle once. OnScriptReady is the single entry
// point that registers callbacks, initializes and mounts.
type Controller struct {
	session Session
	targets sdk.MountTargets
	relay   *Relay
	log     *eventlog.Log

	mu      sync.Mutex
	state   Readiness
	adapter *sdk.Adapter

	updates chan struct{}
}

// NewController creates a controller in the NotLoaded state.
func NewController(session Session, targets sdk.MountTargets, relay *Relay, log *eventlog.Log) *Controller {
	return &Controller{
		session: session,
		targets: targets,
		relay:   relay,
		log:     log,
		state:   NotLoaded,
		updates: make(chan struct{}, 1),
	}
}

// State returns the current readiness.
func (c *Controller) State() Readiness {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Adapter returns the SDK adapter once the SDK is Initialized.
func (c *Controller) Adapter() (*sdk.Adapter, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Initialized {
		return nil, false
	}
	return c.adapter, true
}

// Updates returns a channel that receives a value after readiness changes.
func (c *Controller) Updates() <-chan struct{} {
	return c.updates
}

// transition moves from one state to another. It fails when the current
// state is not from, which is what makes the ready signal one-shot.
func (c *Controller) transition(from, to Readiness) bool {
	c.mu.Lock()
	if c.state != from || !isAllowed(from, to) {
		c.mu.Unlock()
		return false
	}
	c.state = to
	c.mu.Unlock()

	logging.LogTransition(from.String(), to.String())
	select {
	case c.updates <- struct{}{}:
	default:
	}
	return true
}

func isAllowed(from, to Readiness) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// OnScriptReady handles the SDK's ready signal. The first call runs the
// whole sequence; later calls are ignored. The returned error describes a
// failed sequence and has already been surfaced as a notice.
func (c *Controller) OnScriptReady(ctx context.Context, h sdk.Handle) error {
	if !c.transition(NotLoaded, Loaded) {
		logging.Warn("Ignoring repeated SDK ready signal", zap.String("state", c.State().String()))
		return nil
	}
	c.log.Append("Payment SDK is ready.")

	if !c.transition(Loaded, Initializing) {
		return nil
	}

	cfg := c.session.initConfig()
	if cfg.OrderID == "" || cfg.Nonce == "" {
		return c.fail(CodeMissingValues, missingValuesMessage, sdk.NewConfigError(missingValue(cfg)))
	}

	adapter := sdk.NewAdapter(h)
	adapter.RegisterErrorCallback(c.relay.HandleError)
	adapter.RegisterStatusCallback(c.relay.HandleStatus)

	if err := adapter.Initialize(ctx, cfg); err != nil {
		if sdk.IsConfigError(err) {
			return c.fail(CodeMissingValues, sdk.ShortMessage(err), err)
		}
		return c.fail(sdk.Code(err, CodeSDKInitError), sdk.ShortMessage(err), err)
	}
	c.log.Append("Payment SDK initialized.")

	if err := adapter.Mount(c.targets); err != nil {
		return c.fail(CodeSDKMountError, sdk.ShortMessage(err), err)
	}
	c.log.Appendf("Widgets mounted: card=%s apple_pay=%s google_pay=%s",
		c.targets.Card, c.targets.ApplePay, c.targets.GooglePay)

	c.mu.Lock()
	c.adapter = adapter
	c.mu.Unlock()
	c.transition(Initializing, Initialized)
	return nil
}

// OnScriptError handles the SDK's load failure signal. It only has an effect
// before the SDK was loaded.
func (c *Controller) OnScriptError(err error) {
	if !c.transition(NotLoaded, MountFailed) {
		logging.Warn("Ignoring SDK load failure after load", zap.Error(err))
		return
	}
	logging.Error("Payment SDK failed to load", zap.Error(err))
	c.relay.RaisePersistent(CodeSDKLoadError, loadErrorMessage)
}

func (c *Controller) fail(code, message string, err error) error {
	c.transition(Initializing, MountFailed)
	logging.Error("Payment SDK setup failed", zap.String("code", code), zap.Error(err))
	c.relay.RaisePersistent(code, message)
	return fmt.Errorf("%s: %w", code, err)
}

func missingValue(cfg sdk.InitConfig) error {
	if cfg.OrderID == "" {
		return sdk.ErrMissingOrderID
	}
	return sdk.ErrMissingNonce
}
