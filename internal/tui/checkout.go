package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/muurk/checkout/internal/checkout"
	"github.com/muurk/checkout/internal/logging"
	"github.com/muurk/checkout/internal/sdk"
)

// CheckoutModel is the checkout form: status banners, widget regions, pay
// actions, customer details and the event log.
type CheckoutModel struct {
	checkout *checkout.Checkout
	loader   sdk.Loader
	gateway  string

	ctx    context.Context
	cancel context.CancelFunc

	width      int
	spinner    spinner.Model
	form       customerForm
	formOpen   bool
	submitting bool
	logView    viewport.Model
	help       help.Model
	keys       checkoutKeyMap
	formKeys   formKeyMap
	status     string
}

// NewCheckoutModel creates the checkout screen. The SDK is loaded from
// loader when the model starts.
func NewCheckoutModel(c *checkout.Checkout, loader sdk.Loader, gateway string) CheckoutModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	ctx, cancel := context.WithCancel(context.Background())

	m := CheckoutModel{
		checkout: c,
		loader:   loader,
		gateway:  gateway,
		ctx:      ctx,
		cancel:   cancel,
		width:    MaxContentWidth,
		spinner:  s,
		form:     newCustomerForm(),
		logView:  viewport.New(MaxContentWidth-4, LogPanelHeight),
		help:     help.New(),
		keys:     newCheckoutKeyMap(),
		formKeys: newFormKeyMap(),
	}
	m.refreshLog()
	return m
}

// Init starts the spinner, the SDK load and the state watchers.
func (m CheckoutModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.start(),
		waitFor(m.checkout.Relay.Updates(), relayUpdatedMsg{}),
		waitFor(m.checkout.Controller.Updates(), readinessChangedMsg{}),
		waitFor(m.checkout.Log.Updates(), logUpdatedMsg{}),
	)
}

func (m CheckoutModel) start() tea.Cmd {
	c, loader, ctx := m.checkout, m.loader, m.ctx
	return func() tea.Msg {
		_, err := c.Start(ctx, loader)
		return sdkStartedMsg{err: err}
	}
}

func (m CheckoutModel) pay(method sdk.Method) tea.Cmd {
	submitter := m.checkout.Submitter
	return func() tea.Msg {
		return paymentStartedMsg{method: method, err: submitter.InitiatePayment(method)}
	}
}

func (m CheckoutModel) submitCustomer() tea.Cmd {
	submitter, ctx, profile := m.checkout.Submitter, m.ctx, m.form.Profile()
	return func() tea.Msg {
		return customerSubmittedMsg{err: submitter.SubmitCustomerInfo(ctx, profile)}
	}
}

// Update handles messages for the checkout screen
func (m CheckoutModel) Update(msg tea.Msg) (CheckoutModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = contentWidth(msg.Width)
		m.logView.Width = m.width - 4
		m.help.Width = m.width
		m.refreshLog()
		return m, nil

	case spinner.TickMsg:
		if m.checkout.Controller.State().Terminal() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case relayUpdatedMsg:
		return m, waitFor(m.checkout.Relay.Updates(), relayUpdatedMsg{})

	case readinessChangedMsg:
		return m, waitFor(m.checkout.Controller.Updates(), readinessChangedMsg{})

	case logUpdatedMsg:
		m.refreshLog()
		return m, waitFor(m.checkout.Log.Updates(), logUpdatedMsg{})

	case sdkStartedMsg:
		if msg.err != nil {
			logging.Warn("Checkout setup failed", zap.Error(msg.err))
		}
		return m, nil

	case customerSubmittedMsg:
		m.submitting = false
		switch {
		case errors.Is(msg.err, checkout.ErrNotReady):
			m.status = "Payment SDK is not ready yet."
		case msg.err == nil:
			m.status = "Customer details updated."
		default:
			m.status = ""
		}
		return m, nil

	case paymentStartedMsg:
		if errors.Is(msg.err, checkout.ErrNotReady) {
			m.status = "Payment SDK is not ready yet."
		} else if msg.err == nil {
			m.status = fmt.Sprintf("%s payment started.", methodLabel(msg.method))
		} else {
			m.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.formOpen {
			return m.updateForm(msg)
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m CheckoutModel) updateForm(msg tea.KeyMsg) (CheckoutModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.formKeys.Close):
		m.formOpen = false
		m.form.Blur()
		return m, nil

	case key.Matches(msg, m.formKeys.Next):
		return m, m.form.Move(1)

	case key.Matches(msg, m.formKeys.Prev):
		return m, m.form.Move(-1)

	case key.Matches(msg, m.formKeys.Submit):
		if m.submitting {
			return m, nil
		}
		m.submitting = true
		m.status = "Updating details..."
		return m, m.submitCustomer()
	}

	return m, m.form.Update(msg)
}

func (m CheckoutModel) updateKeys(msg tea.KeyMsg) (CheckoutModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.PayCard):
		return m, m.pay(sdk.MethodCard)

	case key.Matches(msg, m.keys.PayKlarna):
		return m, m.pay(sdk.MethodKlarna)

	case key.Matches(msg, m.keys.Details):
		m.formOpen = true
		m.status = ""
		return m, m.form.Focus()

	case key.Matches(msg, m.keys.Dismiss):
		m.checkout.Relay.DismissError()
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		if _, err := m.checkout.Log.CopyToClipboard(); err != nil {
			logging.Warn("Copy failed", zap.Error(err))
			m.status = "Could not copy logs."
		} else {
			m.status = "Logs copied to clipboard."
		}
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.checkout.Log.Clear()
		m.refreshLog()
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.logView.SetYOffset(m.logView.YOffset - m.logView.Height/2)
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.logView.SetYOffset(m.logView.YOffset + m.logView.Height/2)
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	return m, nil
}

// refreshLog reloads the log panel and keeps it pinned to the newest entry.
func (m *CheckoutModel) refreshLog() {
	lines := m.checkout.Log.Lines()
	if len(lines) == 0 {
		m.logView.SetContent(LabelStyle.Render("No events yet."))
		return
	}
	styled := make([]string, len(lines))
	for i, l := range lines {
		styled[i] = LogLineStyle.Render(l)
	}
	m.logView.SetContent(strings.Join(styled, "\n"))
	m.logView.GotoBottom()
}

// Close cancels pending SDK calls and releases the connection.
func (m CheckoutModel) Close() error {
	m.cancel()
	return m.checkout.Close()
}

// View renders the checkout screen
func (m CheckoutModel) View() string {
	snap := m.checkout.Relay.Snapshot()
	state := m.checkout.Controller.State()

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Surfboard Payments"))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render(Tagline))
	b.WriteString("\n\n")
	b.WriteString(m.renderReadiness(state))
	b.WriteString("\n")

	if n := snap.Notice; n != nil {
		b.WriteString(bannerStyle(ErrorColor, m.width).Render(
			fmt.Sprintf("Error [%s]: %s", n.Code, n.Message)))
		b.WriteString("\n")
	}
	switch snap.Outcome.Kind {
	case checkout.OutcomeSuccess:
		b.WriteString(bannerStyle(SecondaryColor, m.width).Render(snap.Outcome.Message))
		b.WriteString("\n")
	case checkout.OutcomeFailure:
		b.WriteString(bannerStyle(ErrorColor, m.width).Render(snap.Outcome.Message))
		b.WriteString("\n")
	}

	b.WriteString(m.renderDetails())
	b.WriteString("\n")
	b.WriteString(m.renderPayments(state))
	b.WriteString("\n")
	b.WriteString(m.renderLogs())

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(StatusStyle.Render(m.status))
	}

	if m.formOpen {
		b.WriteString(HelpStyle.Render(m.help.View(m.formKeys)))
	} else {
		b.WriteString(HelpStyle.Render(m.help.View(m.keys)))
	}
	return b.String()
}

func (m CheckoutModel) renderReadiness(state checkout.Readiness) string {
	gateway := m.gateway
	if gateway == "" {
		gateway = "no gateway configured"
	}
	suffix := LabelStyle.Render("  " + gateway)

	switch state {
	case checkout.Initialized:
		return ReadyStyle.Render("● Payment SDK ready") + suffix
	case checkout.MountFailed:
		return FailedStyle.Render("✗ Payment SDK unavailable") + suffix
	case checkout.Initializing:
		return m.spinner.View() + " Initializing payment SDK..." + suffix
	default:
		return m.spinner.View() + " Loading payment SDK..." + suffix
	}
}

func (m CheckoutModel) renderDetails() string {
	var b strings.Builder
	if !m.formOpen {
		b.WriteString(SectionTitleStyle.Render("▸ Customer Details"))
		b.WriteString(LabelStyle.Render("  (u to edit)"))
		return sectionStyle(m.width).Render(b.String())
	}

	b.WriteString(SectionTitleStyle.Render("▾ Customer Details"))
	b.WriteString("\n\n")
	b.WriteString(m.form.View())
	b.WriteString("\n")
	if m.submitting {
		b.WriteString(DisabledButtonStyle.Render("Updating..."))
	} else {
		b.WriteString(ButtonStyle.Render("Update Details"))
	}
	return sectionStyle(m.width).Render(b.String())
}

func (m CheckoutModel) renderPayments(state checkout.Readiness) string {
	ready := state == checkout.Initialized
	inner := m.width - 6
	button := ButtonStyle
	if !ready {
		button = DisabledButtonStyle
	}

	targets := sdk.DefaultMountTargets()
	var b strings.Builder
	b.WriteString(SectionTitleStyle.Render("Payment Selection"))
	b.WriteString("\n\n")
	b.WriteString(renderWidget(targets.Card, "Card details", inner, ready))
	b.WriteString("\n")
	b.WriteString(button.Render("Pay with Card (c)"))
	b.WriteString("\n\n")
	b.WriteString(renderWidget(targets.ApplePay, "Apple Pay", inner, ready))
	b.WriteString("\n")
	b.WriteString(renderWidget(targets.GooglePay, "Google Pay", inner, ready))
	b.WriteString("\n")
	b.WriteString(button.Render("Pay with Klarna (k)"))
	return sectionStyle(m.width).Render(b.String())
}

func renderWidget(id, title string, width int, mounted bool) string {
	body := LabelStyle.Render("waiting for SDK")
	if mounted {
		body = ReadyStyle.Render("rendered by SDK")
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		SectionTitleStyle.Render(title), LabelStyle.Render("  #"+id))
	return widgetStyle(width, mounted).Render(header + "\n" + body)
}

func (m CheckoutModel) renderLogs() string {
	var b strings.Builder
	b.WriteString(SectionTitleStyle.Render("Logs"))
	b.WriteString(LabelStyle.Render(fmt.Sprintf("  %d entries · y copy · x clear", m.checkout.Log.Len())))
	b.WriteString("\n")
	b.WriteString(m.logView.View())
	return sectionStyle(m.width).Render(b.String())
}

func methodLabel(m sdk.Method) string {
	switch m {
	case sdk.MethodCard:
		return "Card"
	case sdk.MethodKlarna:
		return "Klarna"
	default:
		return string(m)
	}
}
