package checkout

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/muurk/checkout/internal/eventlog"
	"github.com/muurk/checkout/internal/logging"
	"github.com/muurk/checkout/internal/sdk"
)

// ErrNotReady is returned for customer actions taken before the SDK is Initialized.
var ErrNotReady = errors.New("payment SDK is not ready")

// CustomerProfile is the customer details form. Values are passed to the
// SDK as typed; the SDK decides what is acceptable.
type CustomerProfile struct {
	Email              string `json:"email"`
	PhoneCountryCode   string `json:"phoneCountryCode"`
	PhoneNumber        string `json:"phoneNumber"`
	AddressCountryCode string `json:"addressCountryCode"`
	AddressLine1       string `json:"addressLine1"`
	City               string `json:"city"`
	PostalCode         string `json:"postalCode"`
}

// BuildCustomerPayload shapes p into the SDK's nested customer payload.
func BuildCustomerPayload(p CustomerProfile) sdk.CustomerPayload {
	return sdk.CustomerPayload{
		Email: p.Email,
		Phone: sdk.Phone{
			CountryCode: p.PhoneCountryCode,
			Number:      p.PhoneNumber,
		},
		BillingAddress: sdk.BillingAddress{
			City:         p.City,
			PostalCode:   p.PostalCode,
			CountryCode:  p.AddressCountryCode,
			AddressLine1: p.AddressLine1,
		},
	}
}

// Submitter performs the customer's actions against a ready SDK.
type Submitter struct {
	ctrl  *Controller
	relay *Relay
	log   *eventlog.Log
}

// NewSubmitter creates a submitter bound to ctrl.
func NewSubmitter(ctrl *Controller, relay *Relay, log *eventlog.Log) *Submitter {
	return &Submitter{ctrl: ctrl, relay: relay, log: log}
}

// SubmitCustomerInfo sends the profile to the SDK and waits for its answer.
// A rejection is surfaced as a transient notice and returned.
func (s *Submitter) SubmitCustomerInfo(ctx context.Context, p CustomerProfile) error {
	adapter, ok := s.ctrl.Adapter()
	if !ok {
		s.log.Append("Cannot update customer info:", ErrNotReady.Error())
		return ErrNotReady
	}

	payload := BuildCustomerPayload(p)
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	s.log.Append("Updating customer info:", string(raw))

	if err := adapter.SubmitCustomerInfo(ctx, payload); err != nil {
		logging.Warn("Customer info rejected", zap.Error(err))
		s.relay.HandleError(sdk.Code(err, CodeCustomerInfoError), sdk.ShortMessage(err))
		return err
	}
	s.log.Append("Customer info updated.")
	return nil
}

// InitiatePayment starts a payment with method. The outcome arrives later
// through the relay.
func (s *Submitter) InitiatePayment(method sdk.Method) error {
	adapter, ok := s.ctrl.Adapter()
	if !ok {
		s.log.Append("Cannot start payment:", ErrNotReady.Error())
		return ErrNotReady
	}

	s.log.Append("Initiating payment:", string(method))
	// The previous outcome banner stays until the next terminal status replaces it.
	if err := adapter.InitiatePayment(method); err != nil {
		s.relay.HandleError(CodePaymentError, sdk.ShortMessage(err))
		return err
	}
	return nil
}
