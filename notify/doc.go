// Package notify implements the asynchronous email delivery pipeline:
// the durable-queue publisher, the resilient consumer worker, the wire
// message codec and the notification templates.
//
// Delivery is at-least-once: a message may be redelivered after a
// transient failure, and duplicate publishes are prevented upstream by
// the transaction's notification flag rather than by consumer-side dedup.
package notify
