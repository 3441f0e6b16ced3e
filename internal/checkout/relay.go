package checkout

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/checkout/internal/eventlog"
	"github.com/muurk/checkout/internal/logging"
	"github.com/muurk/checkout/internal/sdk"
)

const (
	// NoticeDuration is how long a transient error notice stays visible.
	NoticeDuration = 5 * time.Second

	// SuccessMessage is shown when a payment completes.
	SuccessMessage = "Payment Successful!"

	// FailureFallback is shown when a payment fails without a message.
	FailureFallback = "Payment Failed"
)

// ErrorNotice is the error banner. Persistent notices stay until dismissed;
// the others clear themselves after NoticeDuration. A transient notice shown
// over a persistent one gives way to it again when it clears.
type ErrorNotice struct {
	Code       string
	Message    string
	Persistent bool
}

// OutcomeKind tags a PaymentOutcome.
type OutcomeKind int

const (
	OutcomePending OutcomeKind = iota
	OutcomeSuccess
	OutcomeFailure
)

// String returns the outcome name
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "pending"
	}
}

// PaymentOutcome is the result of the current payment attempt.
type PaymentOutcome struct {
	Kind    OutcomeKind
	Message string
}

// Snapshot is the relay's visible state at one instant.
type Snapshot struct {
	Notice  *ErrorNotice
	Outcome PaymentOutcome
}

// Relay translates SDK events into visible state. Its handlers are safe to
// call from the SDK's event goroutine.
type Relay struct {
	log      *eventlog.Log
	clock    Clock
	duration time.Duration

	mu        sync.Mutex
	notice    *ErrorNotice
	halted    *ErrorNotice
	noticeGen uint64
	timer     Timer
	outcome   PaymentOutcome

	updates chan struct{}
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithClock replaces the clock used for notice expiry.
func WithClock(c Clock) RelayOption {
	return func(r *Relay) {
		r.clock = c
	}
}

// WithNoticeDuration overrides how long transient notices stay visible.
func WithNoticeDuration(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.duration = d
		}
	}
}

// NewRelay creates a relay writing to log.
func NewRelay(log *eventlog.Log, opts ...RelayOption) *Relay {
	r := &Relay{
		log:      log,
		clock:    realClock{},
		duration: NoticeDuration,
		updates:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleError is the SDK error callback. The notice replaces any current
// one and restarts the expiry clock.
func (r *Relay) HandleError(code, message string) {
	r.log.Append("Error: "+code, message)
	logging.Warn("SDK error event", zap.String("code", code), zap.String("message", message))
	r.setNotice(&ErrorNotice{Code: code, Message: message}, true)
}

// RaisePersistent shows a notice that does not expire. Used for
// configuration and load failures.
func (r *Relay) RaisePersistent(code, message string) {
	r.log.Append("Error: "+code, message)
	logging.Error("Checkout halted", zap.String("code", code), zap.String("message", message))
	r.setNotice(&ErrorNotice{Code: code, Message: message, Persistent: true}, false)
}

func (r *Relay) setNotice(n *ErrorNotice, expire bool) {
	r.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.noticeGen++
	gen := r.noticeGen
	r.notice = n
	if n.Persistent {
		r.halted = n
	}
	if expire {
		r.timer = r.clock.AfterFunc(r.duration, func() {
			r.expire(gen)
		})
	}
	r.mu.Unlock()
	r.signal()
}

// expire clears the notice if it is still the one the timer was started for.
func (r *Relay) expire(gen uint64) {
	r.mu.Lock()
	if gen != r.noticeGen || r.notice == nil {
		r.mu.Unlock()
		return
	}
	r.notice = r.halted
	r.timer = nil
	r.mu.Unlock()
	r.signal()
}

// DismissError clears the current notice. Dismissing a transient notice
// uncovers the persistent one, if any; dismissing that clears the banner.
func (r *Relay) DismissError() {
	r.mu.Lock()
	if r.notice == nil {
		r.mu.Unlock()
		return
	}
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.noticeGen++
	if r.notice.Persistent {
		r.halted = nil
		r.notice = nil
	} else {
		r.notice = r.halted
	}
	r.mu.Unlock()
	r.signal()
}

// HandleStatus is the SDK payment status callback. Completed and failed
// statuses set the outcome; anything else is only logged.
func (r *Relay) HandleStatus(ev sdk.StatusEvent) {
	raw, err := json.Marshal(ev)
	if err != nil {
		// StatusEvent only holds strings
		raw = []byte(ev.PaymentStatus)
	}
	r.log.Append("Payment status:", string(raw))
	logging.LogSDKEvent("paymentStatus", zap.String("status", ev.PaymentStatus))

	var outcome PaymentOutcome
	switch ev.PaymentStatus {
	case sdk.StatusPaymentCompleted:
		outcome = PaymentOutcome{Kind: OutcomeSuccess, Message: SuccessMessage}
	case sdk.StatusPaymentFailed:
		msg := ev.ErrorMessage
		if msg == "" {
			msg = FailureFallback
		}
		outcome = PaymentOutcome{Kind: OutcomeFailure, Message: msg}
	default:
		return
	}

	r.mu.Lock()
	r.outcome = outcome
	r.mu.Unlock()
	r.signal()
}

// Snapshot returns the current visible state.
func (r *Relay) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{Outcome: r.outcome}
	if r.notice != nil {
		n := *r.notice
		s.Notice = &n
	}
	return s
}

// Updates returns a channel that receives a value after the visible state
// changes. Notifications coalesce.
func (r *Relay) Updates() <-chan struct{} {
	return r.updates
}

func (r *Relay) signal() {
	select {
	case r.updates <- struct{}{}:
	default:
	}
}
