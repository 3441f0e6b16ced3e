package tui

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/checkout/internal/discovery"
)

// GatewayFinder scans for SDK gateways.
type GatewayFinder interface {
	FindGateways(ctx context.Context) ([]*discovery.Gateway, error)
}

const scanTick = 100 * time.Millisecond

// gatewayItem wraps a Gateway for use with bubbles/list
type gatewayItem struct {
	gateway *discovery.Gateway
}

// FilterValue implements list.Item
func (g gatewayItem) FilterValue() string {
	return g.gateway.Instance + " " + g.gateway.IP
}

// gatewayDelegate renders gateways as compact cards
type gatewayDelegate struct{}

func (gatewayDelegate) Height() int                               { return 2 }
func (gatewayDelegate) Spacing() int                              { return 1 }
func (gatewayDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (gatewayDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	gi, ok := item.(gatewayItem)
	if !ok {
		return
	}
	g := gi.gateway

	name := ItemStyle.Render("  " + g.Instance)
	if index == m.Index() {
		name = SelectedItemStyle.Render("→ " + g.Instance)
	}
	detail := g.URL()
	if v := g.GetMetadata("version"); v != "" {
		detail += " • " + v
	}
	if env := g.GetMetadata("env"); env != "" {
		detail += " • " + env
	}
	fmt.Fprintf(w, "%s\n    %s", name, LabelStyle.Render(detail))
}

// DiscoveryModel is the gateway picker shown before checkout when no SDK
// URL is configured.
type DiscoveryModel struct {
	finder  GatewayFinder
	timeout time.Duration

	scanning  bool
	scanStart time.Time
	err       error
	gateways  list.Model

	manual   bool
	urlInput textinput.Model

	width      int
	spinner    spinner.Model
	progress   progress.Model
	help       help.Model
	keys       discoveryKeyMap
	manualKeys manualKeyMap
}

// NewDiscoveryModel creates the gateway picker. timeout sizes the progress bar.
func NewDiscoveryModel(finder GatewayFinder, timeout time.Duration) DiscoveryModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	in := textinput.New()
	in.Placeholder = "ws://127.0.0.1:8787/sdk"
	in.CharLimit = 256
	in.Width = 40

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	l := list.New([]list.Item{}, gatewayDelegate{}, MinTerminalWidth, 12)
	l.Title = "Payment SDK Gateways"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = TitleStyle

	if timeout <= 0 {
		timeout = discovery.DefaultScanTimeout
	}

	m := DiscoveryModel{
		finder:     finder,
		timeout:    timeout,
		gateways:   l,
		urlInput:   in,
		width:      MaxContentWidth,
		spinner:    s,
		progress:   bar,
		help:       help.New(),
		keys:       newDiscoveryKeyMap(),
		manualKeys: newManualKeyMap(),
	}
	m.startScan()
	return m
}

// Init starts the first scan.
func (m DiscoveryModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.scan(), tickScan())
}

func (m DiscoveryModel) scan() tea.Cmd {
	finder := m.finder
	return func() tea.Msg {
		gateways, err := finder.FindGateways(context.Background())
		return scanCompleteMsg{gateways: gateways, err: err}
	}
}

func tickScan() tea.Cmd {
	return tea.Tick(scanTick, func(time.Time) tea.Msg { return scanTickMsg{} })
}

// Scanning reports whether a scan is in flight.
func (m DiscoveryModel) Scanning() bool {
	return m.scanning
}

// Update handles messages for the discovery screen
func (m DiscoveryModel) Update(msg tea.Msg) (DiscoveryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = contentWidth(msg.Width)
		m.gateways.SetSize(m.width-4, max(msg.Height-12, 6))
		m.help.Width = m.width
		return m, nil

	case scanCompleteMsg:
		m.scanning = false
		m.err = msg.err
		items := make([]list.Item, len(msg.gateways))
		for i, g := range msg.gateways {
			items[i] = gatewayItem{gateway: g}
		}
		return m, m.gateways.SetItems(items)

	case scanTickMsg:
		if !m.scanning {
			return m, nil
		}
		return m, tickScan()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.manual {
			return m.updateManual(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m DiscoveryModel) updateList(msg tea.KeyMsg) (DiscoveryModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Manual):
		m.manual = true
		m.err = nil
		return m, m.urlInput.Focus()

	case key.Matches(msg, m.keys.Rescan):
		if m.scanning {
			return m, nil
		}
		m.startScan()
		return m, tea.Batch(m.scan(), tickScan())

	case key.Matches(msg, m.keys.Enter):
		if m.scanning {
			return m, nil
		}
		if item, ok := m.gateways.SelectedItem().(gatewayItem); ok {
			return m, selectGateway(item.gateway.URL())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.gateways, cmd = m.gateways.Update(msg)
	return m, cmd
}

func (m DiscoveryModel) updateManual(msg tea.KeyMsg) (DiscoveryModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.manualKeys.Cancel):
		m.manual = false
		m.urlInput.Blur()
		return m, nil

	case key.Matches(msg, m.manualKeys.Confirm):
		raw := strings.TrimSpace(m.urlInput.Value())
		if err := validateGatewayURL(raw); err != nil {
			m.err = err
			return m, nil
		}
		m.urlInput.Blur()
		return m, selectGateway(raw)
	}

	var cmd tea.Cmd
	m.urlInput, cmd = m.urlInput.Update(msg)
	return m, cmd
}

func (m *DiscoveryModel) startScan() {
	m.scanning = true
	m.scanStart = time.Now()
	m.err = nil
}

func selectGateway(u string) tea.Cmd {
	return func() tea.Msg { return gatewaySelectedMsg{url: u} }
}

// validateGatewayURL accepts ws and wss URLs with a host.
func validateGatewayURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("URL must start with ws:// or wss://")
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}

// View renders the discovery screen
func (m DiscoveryModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(AppName))
	b.WriteString(" ")
	b.WriteString(SubtitleStyle.Render("v" + AppVersion()))
	b.WriteString("\n\n")

	switch {
	case m.manual:
		b.WriteString(SectionTitleStyle.Render("Gateway URL"))
		b.WriteString("\n\n")
		b.WriteString(m.urlInput.View())
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString("\n")
			b.WriteString(FailedStyle.Render(m.err.Error()))
			b.WriteString("\n")
		}
		b.WriteString(HelpStyle.Render(m.help.View(m.manualKeys)))
		return b.String()

	case m.scanning:
		elapsed := time.Since(m.scanStart)
		pct := float64(elapsed) / float64(m.timeout)
		if pct > 1 {
			pct = 1
		}
		b.WriteString(m.spinner.View())
		b.WriteString(" Searching the local network for payment SDK gateways...\n\n")
		b.WriteString(m.progress.ViewAs(pct))
		b.WriteString("\n")

	case m.err != nil:
		b.WriteString(FailedStyle.Render("Scan failed: " + m.err.Error()))
		b.WriteString("\n")

	case len(m.gateways.Items()) == 0:
		b.WriteString(lipgloss.NewStyle().Foreground(WarningColor).Render("No gateways found."))
		b.WriteString("\n")
		b.WriteString(LabelStyle.Render("Start one with checkout-sandbox serve --advertise, or press m to enter a URL."))
		b.WriteString("\n")

	default:
		b.WriteString(m.gateways.View())
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))
	return b.String()
}
