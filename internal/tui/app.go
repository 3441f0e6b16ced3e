package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/checkout/internal/checkout"
	"github.com/muurk/checkout/internal/logging"
	"github.com/muurk/checkout/internal/sdk"
)

// Options configures the interactive checkout.
type Options struct {
	// Checkout is the configuration for the checkout created once a gateway is known.
	Checkout checkout.Config

	// GatewayURL is the SDK gateway. When empty and Discover is set, the
	// gateway picker runs first.
	GatewayURL string
	Discover   bool

	// Finder and ScanTimeout drive the gateway picker.
	Finder      GatewayFinder
	ScanTimeout time.Duration

	// NewLoader returns the SDK loader for a gateway URL.
	NewLoader func(url string) sdk.Loader
}

// AppModel is the top-level coordinator model that manages screen transitions
type AppModel struct {
	opts   Options
	screen Screen

	discovery DiscoveryModel
	checkout  CheckoutModel
	started   bool

	size tea.WindowSizeMsg
}

// NewAppModel creates the application model. It starts on the gateway
// picker only when discovery is requested and no gateway is configured.
func NewAppModel(opts Options) AppModel {
	m := AppModel{opts: opts, screen: ScreenCheckout}
	if opts.GatewayURL == "" && opts.Discover && opts.Finder != nil {
		m.screen = ScreenDiscovery
		m.discovery = NewDiscoveryModel(opts.Finder, opts.ScanTimeout)
		return m
	}
	m.checkout = m.newCheckout(opts.GatewayURL)
	m.started = true
	return m
}

func (m AppModel) newCheckout(url string) CheckoutModel {
	c := checkout.New(m.opts.Checkout)
	return NewCheckoutModel(c, m.opts.NewLoader(url), url)
}

// Screen returns the active screen.
func (m AppModel) Screen() Screen {
	return m.screen
}

// Init initializes the application
func (m AppModel) Init() tea.Cmd {
	if m.screen == ScreenDiscovery {
		return m.discovery.Init()
	}
	return m.checkout.Init()
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.size = msg

	case gatewaySelectedMsg:
		logging.Info("Gateway selected", zap.String("url", msg.url))
		m.screen = ScreenCheckout
		m.checkout = m.newCheckout(msg.url)
		m.started = true
		if m.size.Width > 0 {
			m.checkout, _ = m.checkout.Update(m.size)
		}
		return m, m.checkout.Init()
	}

	switch m.screen {
	case ScreenDiscovery:
		m.discovery, cmd = m.discovery.Update(msg)
	case ScreenCheckout:
		m.checkout, cmd = m.checkout.Update(msg)
	}
	return m, cmd
}

// View renders the active screen
func (m AppModel) View() string {
	if m.screen == ScreenDiscovery {
		return m.discovery.View()
	}
	return m.checkout.View()
}

// Close releases the checkout's SDK connection, if one was opened.
func (m AppModel) Close() error {
	if !m.started {
		return nil
	}
	return m.checkout.Close()
}
