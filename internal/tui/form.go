package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/checkout/internal/checkout"
)

// Field indices of the customer details form, in tab order.
const (
	fieldEmail = iota
	fieldPhoneCountry
	fieldPhoneNumber
	fieldAddressLine1
	fieldCity
	fieldPostalCode
	fieldAddressCountry
	fieldCount
)

var fieldLabels = [fieldCount]string{
	fieldEmail:          "Email",
	fieldPhoneCountry:   "Phone country",
	fieldPhoneNumber:    "Phone Number",
	fieldAddressLine1:   "Address Line 1",
	fieldCity:           "City",
	fieldPostalCode:     "Postal Code",
	fieldAddressCountry: "Country",
}

var fieldPlaceholders = [fieldCount]string{
	fieldEmail:          "you@example.com",
	fieldPhoneCountry:   "IN",
	fieldPhoneNumber:    "9876543210",
	fieldAddressLine1:   "Street and number",
	fieldCity:           "City",
	fieldPostalCode:     "12345",
	fieldAddressCountry: "SE",
}

// customerForm is the collapsible "Customer Details" section.
type customerForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
}

func newCustomerForm() customerForm {
	var f customerForm
	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = fieldPlaceholders[i]
		ti.Prompt = ""
		ti.CharLimit = 128
		ti.Width = 32
		f.inputs[i] = ti
	}
	return f
}

// Focus gives keyboard focus to the current field.
func (f *customerForm) Focus() tea.Cmd {
	return f.inputs[f.focus].Focus()
}

// Blur removes focus from every field.
func (f *customerForm) Blur() {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

// Move shifts focus by delta fields, wrapping at both ends.
func (f *customerForm) Move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	return f.inputs[f.focus].Focus()
}

// Update forwards msg to the focused field.
func (f *customerForm) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// Profile returns the form values as typed.
func (f customerForm) Profile() checkout.CustomerProfile {
	return checkout.CustomerProfile{
		Email:              f.inputs[fieldEmail].Value(),
		PhoneCountryCode:   f.inputs[fieldPhoneCountry].Value(),
		PhoneNumber:        f.inputs[fieldPhoneNumber].Value(),
		AddressLine1:       f.inputs[fieldAddressLine1].Value(),
		City:               f.inputs[fieldCity].Value(),
		PostalCode:         f.inputs[fieldPostalCode].Value(),
		AddressCountryCode: f.inputs[fieldAddressCountry].Value(),
	}
}

// View renders one labelled row per field.
func (f customerForm) View() string {
	var b strings.Builder
	for i, in := range f.inputs {
		label := LabelStyle.Width(16).Render(fieldLabels[i])
		if i == f.focus && in.Focused() {
			label = SelectedItemStyle.Width(16).Render(fieldLabels[i])
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label, in.View()))
		b.WriteString("\n")
	}
	return b.String()
}
