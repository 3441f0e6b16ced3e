package checkout

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/muurk/checkout/internal/eventlog"
	"github.com/muurk/checkout/internal/sdk"
)

// Config holds what a checkout needs to start.
type Config struct {
	Session        Session
	Targets        sdk.MountTargets
	NoticeDuration time.Duration
	Clock          Clock
}

// Checkout wires the event log, relay, controller and submitter together.
type Checkout struct {
	Log        *eventlog.Log
	Relay      *Relay
	Controller *Controller
	Submitter  *Submitter

	mu     sync.Mutex
	handle sdk.Handle
	closed bool
}

// New creates a checkout in the NotLoaded state.
func New(cfg Config) *Checkout {
	if cfg.Targets == (sdk.MountTargets{}) {
		cfg.Targets = sdk.DefaultMountTargets()
	}

	log := eventlog.New()
	opts := []RelayOption{WithNoticeDuration(cfg.NoticeDuration)}
	if cfg.Clock != nil {
		opts = append(opts, WithClock(cfg.Clock))
	}
	relay := NewRelay(log, opts...)
	ctrl := NewController(cfg.Session, cfg.Targets, relay, log)

	return &Checkout{
		Log:        log,
		Relay:      relay,
		Controller: ctrl,
		Submitter:  NewSubmitter(ctrl, relay, log),
	}
}

// Start loads the SDK and routes the outcome to the controller's ready or
// error signal. It returns the handle when loading succeeded, even if the
// subsequent setup failed. The checkout keeps the handle and closes it in
// Close; a handle that arrives after Close is closed at once.
func (c *Checkout) Start(ctx context.Context, loader sdk.Loader) (sdk.Handle, error) {
	handle, err := loader.Load(ctx)
	if err != nil {
		c.Controller.OnScriptError(err)
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		closeHandle(handle)
		return nil, sdk.ErrClosed
	}
	c.handle = handle
	c.mu.Unlock()

	return handle, c.Controller.OnScriptReady(ctx, handle)
}

// Close releases the SDK handle, if one was loaded. Safe to call more than once.
func (c *Checkout) Close() error {
	c.mu.Lock()
	handle := c.handle
	c.handle = nil
	c.closed = true
	c.mu.Unlock()

	return closeHandle(handle)
}

func closeHandle(h sdk.Handle) error {
	if closer, ok := h.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
