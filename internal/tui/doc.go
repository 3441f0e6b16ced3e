// Package tui implements the interactive checkout form.
//
// The form shows the payment SDK's readiness, error and payment-outcome
// banners, the three widget regions, the card and Klarna pay actions, a
// collapsible customer details section and the event log. State lives in
// the checkout package; the models here re-render when its update channels
// fire. When no gateway URL is configured the app can first scan the local
// network for one over mDNS.
package tui
