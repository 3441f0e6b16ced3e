package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/muurk/checkout/internal/eventlog"
	"github.com/muurk/checkout/internal/sdk"
	"github.com/muurk/checkout/internal/sdk/sdktest"
)

var validSession = Session{PublicKey: "pk_test_123", OrderID: "ord_1", Nonce: "n0nce"}

func newTestController(session Session) (*Controller, *Relay, *eventlog.Log, *manualClock) {
	clock := &manualClock{}
	log := eventlog.New()
	relay := NewRelay(log, WithClock(clock))
	return NewController(session, sdk.DefaultMountTargets(), relay, log), relay, log, clock
}

func TestReadiness_String(t *testing.T) {
	tests := []struct {
		state Readiness
		want  string
	}{
		{NotLoaded, "not_loaded"},
		{Loaded, "loaded"},
		{Initializing, "initializing"},
		{Initialized, "initialized"},
		{MountFailed, "mount_failed"},
		{Readiness(42), "Readiness(42)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}

func TestController_ReadySequence(t *testing.T) {
	ctrl, relay, log, _ := newTestController(validSession)
	h := sdktest.New()

	if err := ctrl.OnScriptReady(context.Background(), h); err != nil {
		t.Fatalf("OnScriptReady() error = %v", err)
	}

	if ctrl.State() != Initialized {
		t.Errorf("State() = %v, want initialized", ctrl.State())
	}

	want := []string{"errorCallback", "paymentStatusCallback", "initialiseOnlineSDK", "mount"}
	got := h.Calls()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", got, want)
	}

	if h.InitConfigs[0] != (sdk.InitConfig{PublicKey: "pk_test_123", OrderID: "ord_1", Nonce: "n0nce"}) {
		t.Errorf("init config = %+v", h.InitConfigs[0])
	}
	if h.Mounts[0] != sdk.DefaultMountTargets() {
		t.Errorf("mount targets = %+v", h.Mounts[0])
	}

	lines := log.Lines()
	if len(lines) != 3 {
		t.Fatalf("log = %v, want 3 entries", lines)
	}
	for i, want := range []string{"Payment SDK is ready.", "Payment SDK initialized.", "Widgets mounted:"} {
		if !strings.Contains(lines[i], want) {
			t.Errorf("log[%d] = %q, want it to contain %q", i, lines[i], want)
		}
	}

	if _, ok := ctrl.Adapter(); !ok {
		t.Error("Adapter() should be available once initialized")
	}
	if relay.Snapshot().Notice != nil {
		t.Error("a successful setup should raise no notice")
	}
}

func TestController_CallbacksRegisteredBeforeInit(t *testing.T) {
	ctrl, relay, _, _ := newTestController(validSession)
	h := sdktest.New()

	// An event raised while initialization is in flight must reach the relay.
	h.BeforeInit = func() {
		if !h.EmitError("EARLY", "raised during init") {
			t.Error("error callback was not registered before initialiseOnlineSDK")
		}
	}

	if err := ctrl.OnScriptReady(context.Background(), h); err != nil {
		t.Fatalf("OnScriptReady() error = %v", err)
	}

	n := relay.Snapshot().Notice
	if n == nil || n.Code != "EARLY" {
		t.Errorf("Notice = %+v, want EARLY", n)
	}
}

func TestController_RepeatedReadyMountsOnce(t *testing.T) {
	ctrl, _, _, _ := newTestController(validSession)
	h := sdktest.New()

	for i := 0; i < 3; i++ {
		if err := ctrl.OnScriptReady(context.Background(), h); err != nil {
			t.Fatalf("OnScriptReady() #%d error = %v", i, err)
		}
	}

	if n := h.Count("mount"); n != 1 {
		t.Errorf("mount called %d times, want 1", n)
	}
	if n := h.Count("initialiseOnlineSDK"); n != 1 {
		t.Errorf("initialiseOnlineSDK called %d times, want 1", n)
	}
}

func TestController_ConcurrentReadyMountsOnce(t *testing.T) {
	ctrl, _, _, _ := newTestController(validSession)
	h := sdktest.New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ctrl.OnScriptReady(context.Background(), h)
		}()
	}
	wg.Wait()

	if n := h.Count("mount"); n != 1 {
		t.Errorf("mount called %d times, want 1", n)
	}
	if ctrl.State() != Initialized {
		t.Errorf("State() = %v, want initialized", ctrl.State())
	}
}

func TestController_MissingSessionValues(t *testing.T) {
	tests := []struct {
		name    string
		session Session
	}{
		{"missing order id", Session{PublicKey: "pk", Nonce: "n"}},
		{"missing nonce", Session{PublicKey: "pk", OrderID: "o"}},
		{"missing both", Session{PublicKey: "pk"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, relay, _, clock := newTestController(tt.session)
			h := sdktest.New()

			err := ctrl.OnScriptReady(context.Background(), h)
			if err == nil {
				t.Fatal("OnScriptReady() should fail")
			}
			if !sdk.IsConfigError(err) {
				t.Errorf("error = %v, want a config error", err)
			}

			if ctrl.State() != MountFailed {
				t.Errorf("State() = %v, want mount_failed", ctrl.State())
			}
			if len(h.Calls()) != 0 {
				t.Errorf("the SDK should not be touched, got calls %v", h.Calls())
			}

			clock.Advance(NoticeDuration * 10)
			n := relay.Snapshot().Notice
			if n == nil || n.Code != CodeMissingValues || !n.Persistent {
				t.Errorf("Notice = %+v, want persistent MISSING_VALUES", n)
			}
			if _, ok := ctrl.Adapter(); ok {
				t.Error("Adapter() must not be available after a failed setup")
			}
		})
	}
}

func TestController_MissingPublicKey(t *testing.T) {
	ctrl, relay, _, _ := newTestController(Session{OrderID: "o", Nonce: "n"})
	h := sdktest.New()

	if err := ctrl.OnScriptReady(context.Background(), h); !errors.Is(err, sdk.ErrMissingPublicKey) {
		t.Fatalf("error = %v, want ErrMissingPublicKey", err)
	}
	if h.Count("initialiseOnlineSDK") != 0 {
		t.Error("initialiseOnlineSDK must not be called without a public key")
	}
	if n := relay.Snapshot().Notice; n == nil || n.Code != CodeMissingValues {
		t.Errorf("Notice = %+v, want MISSING_VALUES", n)
	}
}

func TestController_InitFailure(t *testing.T) {
	tests := []struct {
		name     string
		initErr  error
		wantCode string
	}{
		{"rejected with code", sdk.NewRejectedError("initialiseOnlineSDK", "INVALID_NONCE", "nonce expired"), "INVALID_NONCE"},
		{"rejected without code", sdk.NewRejectedError("initialiseOnlineSDK", "", "nope"), CodeSDKInitError},
		{"transport failure", errors.New("connection reset"), CodeSDKInitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, relay, _, _ := newTestController(validSession)
			h := sdktest.New()
			h.InitErr = tt.initErr

			if err := ctrl.OnScriptReady(context.Background(), h); err == nil {
				t.Fatal("OnScriptReady() should fail")
			}
			if ctrl.State() != MountFailed {
				t.Errorf("State() = %v, want mount_failed", ctrl.State())
			}
			if h.Count("mount") != 0 {
				t.Error("mount must not be called after a failed initialization")
			}
			if n := relay.Snapshot().Notice; n == nil || n.Code != tt.wantCode || !n.Persistent {
				t.Errorf("Notice = %+v, want persistent %s", n, tt.wantCode)
			}
		})
	}
}

func TestController_SetupNoticeSurvivesLaterErrors(t *testing.T) {
	ctrl, relay, _, clock := newTestController(validSession)
	h := sdktest.New()
	h.InitErr = sdk.NewRejectedError("initialiseOnlineSDK", "", "nope")

	if err := ctrl.OnScriptReady(context.Background(), h); err == nil {
		t.Fatal("OnScriptReady() should fail")
	}
	if !h.EmitError("LATE", "session closed") {
		t.Fatal("error callback should be registered")
	}
	if n := relay.Snapshot().Notice; n == nil || n.Code != "LATE" {
		t.Fatalf("Notice = %+v, want LATE", n)
	}

	clock.Advance(NoticeDuration)
	if ctrl.State() != MountFailed {
		t.Errorf("State() = %v, want mount_failed", ctrl.State())
	}
	n := relay.Snapshot().Notice
	if n == nil || n.Code != CodeSDKInitError || !n.Persistent {
		t.Errorf("Notice = %+v, want persistent SDK_INIT_ERROR", n)
	}
}

func TestController_MountFailure(t *testing.T) {
	ctrl, relay, _, _ := newTestController(validSession)
	h := sdktest.New()
	h.MountErr = errors.New("region not found")

	err := ctrl.OnScriptReady(context.Background(), h)
	if err == nil || !strings.HasPrefix(err.Error(), CodeSDKMountError) {
		t.Fatalf("error = %v, want SDK_MOUNT_ERROR", err)
	}
	if ctrl.State() != MountFailed {
		t.Errorf("State() = %v, want mount_failed", ctrl.State())
	}
	if n := relay.Snapshot().Notice; n == nil || n.Code != CodeSDKMountError {
		t.Errorf("Notice = %+v, want SDK_MOUNT_ERROR", n)
	}

	// A later ready signal does not retry.
	if err := ctrl.OnScriptReady(context.Background(), h); err != nil {
		t.Errorf("repeated OnScriptReady() error = %v", err)
	}
	if h.Count("mount") != 1 {
		t.Errorf("mount called %d times, want 1", h.Count("mount"))
	}
}

func TestController_ScriptError(t *testing.T) {
	ctrl, relay, log, clock := newTestController(validSession)

	ctrl.OnScriptError(sdk.NewLoadError("dial failed", errors.New("dial tcp: connection refused")))

	if ctrl.State() != MountFailed {
		t.Errorf("State() = %v, want mount_failed", ctrl.State())
	}

	clock.Advance(NoticeDuration * 2)
	n := relay.Snapshot().Notice
	if n == nil || n.Code != CodeSDKLoadError || !n.Persistent {
		t.Errorf("Notice = %+v, want persistent SDK_LOAD_ERROR", n)
	}
	if n != nil && n.Message != loadErrorMessage {
		t.Errorf("Message = %q, want %q", n.Message, loadErrorMessage)
	}
	if log.Len() != 1 {
		t.Errorf("log = %v, want one entry", log.Lines())
	}

	// Ready after a load failure is ignored.
	h := sdktest.New()
	if err := ctrl.OnScriptReady(context.Background(), h); err != nil {
		t.Errorf("OnScriptReady() error = %v", err)
	}
	if len(h.Calls()) != 0 {
		t.Errorf("calls = %v, want none", h.Calls())
	}
}

func TestController_ScriptErrorAfterReadyIgnored(t *testing.T) {
	ctrl, relay, _, _ := newTestController(validSession)
	if err := ctrl.OnScriptReady(context.Background(), sdktest.New()); err != nil {
		t.Fatal(err)
	}

	ctrl.OnScriptError(errors.New("late failure"))

	if ctrl.State() != Initialized {
		t.Errorf("State() = %v, want initialized", ctrl.State())
	}
	if relay.Snapshot().Notice != nil {
		t.Error("a late load error should not raise a notice")
	}
}

func TestController_EventsReachRelay(t *testing.T) {
	ctrl, relay, _, _ := newTestController(validSession)
	h := sdktest.New()
	if err := ctrl.OnScriptReady(context.Background(), h); err != nil {
		t.Fatal(err)
	}

	h.EmitStatus(sdk.StatusEvent{PaymentStatus: sdk.StatusPaymentCompleted})

	if out := relay.Snapshot().Outcome; out.Kind != OutcomeSuccess {
		t.Errorf("Outcome = %+v, want success", out)
	}
}

func TestController_Updates(t *testing.T) {
	ctrl, _, _, _ := newTestController(validSession)
	if err := ctrl.OnScriptReady(context.Background(), sdktest.New()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ctrl.Updates():
	default:
		t.Error("expected a readiness update")
	}
}
