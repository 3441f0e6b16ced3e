// Package ui renders the styled, non-interactive output of the checkout
// command-line tools.
//
// Unlike the interactive checkout form in package tui, these components
// print once and return:
//
//   - Header: command banner showing the operation and its parameters
//   - Result: success, failure or warning box with ordered details
//   - Confirm: a yes/no prompt for destructive actions
//
// Example:
//
//	fmt.Println(ui.NewHeader("Sandbox", "checkout-sandbox serve",
//	    ui.Param{Key: "Listen", Value: addr},
//	).Render())
//
// zap logging is silent unless CHECKOUT_LOG_LEVEL is set, so the curated
// output here is not interleaved with log lines.
package ui
