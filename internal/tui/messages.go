package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/checkout/internal/discovery"
	"github.com/muurk/checkout/internal/sdk"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenDiscovery Screen = "discovery"
	ScreenCheckout  Screen = "checkout"
)

// gatewaySelectedMsg moves from discovery to checkout with a gateway URL
type gatewaySelectedMsg struct {
	url string
}

// Checkout state notifications. They carry no data; the model re-reads the
// checkout when one arrives.
type (
	relayUpdatedMsg     struct{}
	readinessChangedMsg struct{}
	logUpdatedMsg       struct{}
)

// sdkStartedMsg reports the end of the load and setup sequence
type sdkStartedMsg struct {
	err error
}

// customerSubmittedMsg reports the SDK's answer to a customer info update
type customerSubmittedMsg struct {
	err error
}

// paymentStartedMsg reports that a payment request was handed to the SDK
type paymentStartedMsg struct {
	method sdk.Method
	err    error
}

// scanCompleteMsg carries the result of an mDNS scan
type scanCompleteMsg struct {
	gateways []*discovery.Gateway
	err      error
}

// scanTickMsg advances the scan progress bar
type scanTickMsg struct{}

// waitFor turns one notification on ch into msg.
func waitFor(ch <-chan struct{}, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return msg
	}
}
