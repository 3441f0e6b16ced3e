package sdk_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/muurk/checkout/internal/sdk"
	"github.com/muurk/checkout/internal/sdk/sdktest"
)

var validConfig = sdk.InitConfig{PublicKey: "pk_test", OrderID: "order-1", Nonce: "nonce-1"}

func TestAdapter_InitializeRejectsMissingValues(t *testing.T) {
	tests := []struct {
		name    string
		cfg     sdk.InitConfig
		wantErr error
	}{
		{"missing public key", sdk.InitConfig{OrderID: "o", Nonce: "n"}, sdk.ErrMissingPublicKey},
		{"missing order id", sdk.InitConfig{PublicKey: "pk", Nonce: "n"}, sdk.ErrMissingOrderID},
		{"missing nonce", sdk.InitConfig{PublicKey: "pk", OrderID: "o"}, sdk.ErrMissingNonce},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := sdktest.New()
			a := sdk.NewAdapter(h)

			err := a.Initialize(context.Background(), tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Initialize() error = %v, want %v", err, tt.wantErr)
			}
			if !sdk.IsConfigError(err) {
				t.Errorf("Initialize() error should be a config error, got %T", err)
			}
			if h.Count("initialiseOnlineSDK") != 0 {
				t.Error("initialiseOnlineSDK must not be called with missing values")
			}
		})
	}
}

func TestAdapter_InitializeForwardsConfig(t *testing.T) {
	h := sdktest.New()
	a := sdk.NewAdapter(h)

	if err := a.Initialize(context.Background(), validConfig); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if len(h.InitConfigs) != 1 || h.InitConfigs[0] != validConfig {
		t.Errorf("InitConfigs = %v, want [%v]", h.InitConfigs, validConfig)
	}
}

func TestAdapter_ClassifiesHandleErrors(t *testing.T) {
	h := sdktest.New()
	h.InitErr = errors.New("socket reset")
	a := sdk.NewAdapter(h)

	err := a.Initialize(context.Background(), validConfig)
	if !sdk.IsTransportError(err) {
		t.Errorf("plain handle errors should become transport errors, got %v", err)
	}

	h.InitErr = sdk.NewRejectedError("initialiseOnlineSDK", "INVALID_NONCE", "nonce expired")
	err = a.Initialize(context.Background(), validConfig)
	if !sdk.IsRejected(err) {
		t.Errorf("rejections should pass through, got %v", err)
	}
	if got := sdk.Code(err, "fallback"); got != "INVALID_NONCE" {
		t.Errorf("Code() = %s, want INVALID_NONCE", got)
	}
}

func TestAdapter_MountUsesTargets(t *testing.T) {
	h := sdktest.New()
	a := sdk.NewAdapter(h)

	if err := a.Mount(sdk.DefaultMountTargets()); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}

	want := sdk.MountTargets{Card: "card-details", ApplePay: "apple-pay", GooglePay: "google-pay"}
	if !reflect.DeepEqual(h.Mounts, []sdk.MountTargets{want}) {
		t.Errorf("Mounts = %v, want [%v]", h.Mounts, want)
	}
}

func TestAdapter_InitiatePayment(t *testing.T) {
	h := sdktest.New()
	a := sdk.NewAdapter(h)

	if err := a.InitiatePayment(sdk.MethodKlarna); err != nil {
		t.Fatalf("InitiatePayment() error = %v", err)
	}
	if !reflect.DeepEqual(h.Payments, []sdk.Method{sdk.MethodKlarna}) {
		t.Errorf("Payments = %v", h.Payments)
	}

	if err := a.InitiatePayment(sdk.Method("CASH")); err == nil {
		t.Error("InitiatePayment() should reject unknown methods")
	}
	if h.Count("order.initiatePayments") != 1 {
		t.Error("unknown methods must not reach the SDK")
	}
}

func TestAdapter_SubmitCustomerInfo(t *testing.T) {
	h := sdktest.New()
	a := sdk.NewAdapter(h)
	payload := sdk.CustomerPayload{Email: "a@example.com"}

	if err := a.SubmitCustomerInfo(context.Background(), payload); err != nil {
		t.Fatalf("SubmitCustomerInfo() error = %v", err)
	}

	h.CustomerErr = sdk.NewRejectedError("order.addCustomerInformation", "INVALID_EMAIL", "email is invalid")
	err := a.SubmitCustomerInfo(context.Background(), payload)
	if !sdk.IsRejected(err) {
		t.Errorf("SubmitCustomerInfo() error = %v, want rejection", err)
	}
}

func TestAdapter_CallbacksLastRegistrationWins(t *testing.T) {
	h := sdktest.New()
	a := sdk.NewAdapter(h)

	var first, second int
	a.RegisterErrorCallback(func(string, string) { first++ })
	a.RegisterErrorCallback(func(string, string) { second++ })

	h.EmitError("E1", "boom")

	if first != 0 || second != 1 {
		t.Errorf("first = %d, second = %d; want 0, 1", first, second)
	}
}
