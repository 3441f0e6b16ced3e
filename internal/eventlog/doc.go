// Package eventlog implements the customer-facing checkout log.
//
// The log is an append-only, in-memory sequence of timestamped lines. Every
// component of the checkout writes to it: the lifecycle controller, the SDK
// event relay, and the customer info submitter. Insertion order is the only
// meaningful order, and entries are never edited. The single way to remove
// entries is Clear, which empties the whole sequence.
//
// Copying the log yields the entries joined by newlines, in insertion order:
//
//	log := eventlog.New()
//	log.Append("SDK is ready.")
//	log.Append("Payment status:", `{"paymentStatus":"PAYMENT_COMPLETED"}`)
//	text := log.String()
//
// Appends may come from the SDK read loop goroutine as well as the UI, so the
// log serializes writers internally. Nothing blocks and nothing is dropped.
package eventlog
