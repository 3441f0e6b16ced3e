package sandbox_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/muurk/checkout/internal/checkout"
	"github.com/muurk/checkout/internal/sandbox"
	"github.com/muurk/checkout/internal/sdk"
	"github.com/muurk/checkout/internal/sdk/remote"
)

const testKey = "pk_test_sandbox"

func startSandbox(t *testing.T, cfg *sandbox.Config) (*sandbox.Server, string) {
	t.Helper()
	if cfg.StatusDelay == 0 {
		cfg.StatusDelay = 10 * time.Millisecond
	}
	srv, err := sandbox.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
		ts.Close()
	})
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + "/sdk"
}

func startCheckout(t *testing.T, url string, session checkout.Session) (*checkout.Checkout, error) {
	t.Helper()
	c := checkout.New(checkout.Config{Session: session})
	handle, err := c.Start(context.Background(), remote.NewLoader(url, session.PublicKey))
	if handle != nil {
		t.Cleanup(func() { _ = handle.(*remote.Client).Close() })
	}
	return c, err
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

var profile = checkout.CustomerProfile{
	Email:              "ada@example.com",
	PhoneCountryCode:   "+44",
	PhoneNumber:        "7700900123",
	AddressCountryCode: "GB",
	AddressLine1:       "12 Analytical Row",
	City:               "London",
	PostalCode:         "N1 9GU",
}

func TestSandbox_CheckoutFlow(t *testing.T) {
	tests := []struct {
		name        string
		orderID     string
		method      sdk.Method
		addCustomer bool
		wantKind    checkout.OutcomeKind
		wantMessage string
	}{
		{"card completes", "ord_1", sdk.MethodCard, false, checkout.OutcomeSuccess, checkout.SuccessMessage},
		{"declined order", "fail-ord_2", sdk.MethodCard, true, checkout.OutcomeFailure, sandbox.DeclinedMessage},
		{"klarna without customer", "ord_3", sdk.MethodKlarna, false, checkout.OutcomeFailure, checkout.FailureFallback},
		{"klarna with customer", "ord_4", sdk.MethodKlarna, true, checkout.OutcomeSuccess, checkout.SuccessMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, url := startSandbox(t, &sandbox.Config{})
			c, err := startCheckout(t, url, checkout.Session{PublicKey: testKey, OrderID: tt.orderID, Nonce: "n0nce"})
			if err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			if c.Controller.State() != checkout.Initialized {
				t.Fatalf("State() = %v, want initialized", c.Controller.State())
			}

			if tt.addCustomer {
				if err := c.Submitter.SubmitCustomerInfo(context.Background(), profile); err != nil {
					t.Fatalf("SubmitCustomerInfo() error = %v", err)
				}
			}
			if err := c.Submitter.InitiatePayment(tt.method); err != nil {
				t.Fatalf("InitiatePayment() error = %v", err)
			}

			eventually(t, "a final payment status", func() bool {
				return c.Relay.Snapshot().Outcome.Kind != checkout.OutcomePending
			})

			out := c.Relay.Snapshot().Outcome
			if out.Kind != tt.wantKind || out.Message != tt.wantMessage {
				t.Errorf("Outcome = %+v, want %v %q", out, tt.wantKind, tt.wantMessage)
			}

			var statuses int
			for _, line := range c.Log.Lines() {
				if strings.Contains(line, "Payment status:") {
					statuses++
				}
			}
			if statuses != 2 {
				t.Errorf("logged %d status events, want 2 (initiated and final)", statuses)
			}
		})
	}
}

func TestSandbox_CustomerInfoRejected(t *testing.T) {
	_, url := startSandbox(t, &sandbox.Config{})
	c, err := startCheckout(t, url, checkout.Session{PublicKey: testKey, OrderID: "ord_1", Nonce: "n"})
	if err != nil {
		t.Fatal(err)
	}

	p := profile
	p.Email = ""
	err = c.Submitter.SubmitCustomerInfo(context.Background(), p)
	if !sdk.IsRejected(err) {
		t.Fatalf("SubmitCustomerInfo() error = %v, want rejection", err)
	}

	n := c.Relay.Snapshot().Notice
	if n == nil || n.Code != sandbox.CodeInvalidCustomerInfo {
		t.Errorf("Notice = %+v, want %s", n, sandbox.CodeInvalidCustomerInfo)
	}
}

func TestSandbox_InitRejectsMissingValues(t *testing.T) {
	_, url := startSandbox(t, &sandbox.Config{})

	handle, err := remote.NewLoader(url, testKey).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = handle.(*remote.Client).Close() }()

	err = handle.InitialiseOnlineSDK(context.Background(), sdk.InitConfig{PublicKey: testKey, OrderID: "ord_1"})
	if !sdk.IsRejected(err) || sdk.Code(err, "") != sandbox.CodeInvalidConfig {
		t.Errorf("InitialiseOnlineSDK() error = %v, want %s", err, sandbox.CodeInvalidConfig)
	}

	cfg := sdk.InitConfig{PublicKey: testKey, OrderID: "ord_1", Nonce: "n"}
	if err := handle.InitialiseOnlineSDK(context.Background(), cfg); err != nil {
		t.Fatalf("InitialiseOnlineSDK() error = %v", err)
	}
	err = handle.InitialiseOnlineSDK(context.Background(), cfg)
	if sdk.Code(err, "") != sandbox.CodeAlreadyInitialised {
		t.Errorf("second InitialiseOnlineSDK() error = %v, want %s", err, sandbox.CodeAlreadyInitialised)
	}
}

func TestSandbox_MountBeforeInit(t *testing.T) {
	_, url := startSandbox(t, &sandbox.Config{})

	handle, err := remote.NewLoader(url, testKey).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = handle.(*remote.Client).Close() }()

	var mu sync.Mutex
	var codes []string
	handle.ErrorCallback(func(code, message string) {
		mu.Lock()
		codes = append(codes, code)
		mu.Unlock()
	})

	if err := handle.Mount(sdk.DefaultMountTargets()); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}

	eventually(t, "an error event", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(codes) > 0
	})
	mu.Lock()
	defer mu.Unlock()
	if codes[0] != sandbox.CodeNotInitialised {
		t.Errorf("error code = %s, want %s", codes[0], sandbox.CodeNotInitialised)
	}
}

func TestSandbox_PublicKeyRequired(t *testing.T) {
	_, url := startSandbox(t, &sandbox.Config{PublicKey: testKey})

	_, err := remote.NewLoader(url, "pk_wrong").Load(context.Background())
	if !sdk.IsLoadError(err) {
		t.Fatalf("Load() error = %v, want load error", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("Load() error = %v, want it to mention HTTP 401", err)
	}

	c, err := startCheckout(t, url, checkout.Session{PublicKey: testKey, OrderID: "o", Nonce: "n"})
	if err != nil {
		t.Fatalf("Start() with the right key error = %v", err)
	}
	if c.Controller.State() != checkout.Initialized {
		t.Errorf("State() = %v, want initialized", c.Controller.State())
	}
}

func TestSandbox_Capture(t *testing.T) {
	dir := t.TempDir()
	_, url := startSandbox(t, &sandbox.Config{CaptureDir: dir})

	if _, err := startCheckout(t, url, checkout.Session{PublicKey: testKey, OrderID: "o", Nonce: "n"}); err != nil {
		t.Fatal(err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "capture-*.jsonl"))
	if err != nil || len(files) != 1 {
		t.Fatalf("capture files = %v (err %v), want 1", files, err)
	}

	// initialiseOnlineSDK request and response, then mount
	eventually(t, "three captured frames", func() bool {
		return len(readLines(t, files[0])) >= 3
	})
	lines := readLines(t, files[0])
	var first, second sandbox.CapturedFrame
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}
	if first.Method != "initialiseOnlineSDK" || first.Direction != sandbox.DirectionInbound || first.MessageNum != 1 {
		t.Errorf("first captured frame = %+v", first)
	}
	if second.Type != "response" || second.Direction != sandbox.DirectionOutbound || second.ID != first.ID {
		t.Errorf("second captured frame = %+v", second)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func TestSandbox_ShutdownClosesSessions(t *testing.T) {
	srv, url := startSandbox(t, &sandbox.Config{})

	handle, err := remote.NewLoader(url, testKey).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	client := handle.(*remote.Client)
	defer func() { _ = client.Close() }()

	eventually(t, "the session to register", func() bool { return srv.ActiveSessions() == 1 })

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	select {
	case <-client.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("client was not disconnected by Shutdown")
	}
	if !errors.Is(client.Err(), sdk.ErrClosed) {
		t.Errorf("client.Err() = %v, want ErrClosed", client.Err())
	}
	if srv.ActiveSessions() != 0 {
		t.Errorf("ActiveSessions() = %d, want 0", srv.ActiveSessions())
	}
}

func TestSandbox_Run(t *testing.T) {
	srv, err := sandbox.New(&sandbox.Config{Host: "127.0.0.1", Port: 0})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx) }()

	eventually(t, "the listener", func() bool { return srv.Addr() != nil })

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", srv.Addr()))
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "ok" {
		t.Errorf("GET /healthz = %d %q", resp.StatusCode, body)
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
