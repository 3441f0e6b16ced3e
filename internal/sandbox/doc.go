// Package sandbox implements an SDK gateway emulator for local checkout
// development.
//
// The sandbox accepts websocket connections on a single path and speaks the
// envelope protocol of the protocol package. Each connection is an
// independent session that tracks initialization, mounting and customer
// information for one order, and answers the way the hosted payment SDK
// does.
//
// # Payment Outcomes
//
// Payment results are scripted by the order:
//   - Order ids starting with "fail-" fail with "Card declined by issuer"
//   - KLARNA payments fail without a message until customer information was added
//   - Everything else completes
//
// Every payment first reports PAYMENT_INITIATED, then the final status after
// Config.StatusDelay.
//
// # Capture
//
// When Config.CaptureDir is set, every frame in both directions is appended
// to a JSON Lines file in that directory for later inspection.
//
// # Discovery
//
// With Config.Advertise the sandbox registers itself as a
// "_checkout-sdk._tcp" mDNS service so `checkout sdk discover` can find it.
package sandbox
