// Package rabbitmq provides the broker plumbing for the notification
// pipeline: a Dialer with bounded exponential-backoff retries, durable
// queue declaration with prefetch, and classification of close
// notifications into recoverable losses versus fatal broker closes.
//
// The pipeline holds one connection and one channel per process; the
// broker serializes access to the shared queue, so no application-side
// locking is layered on top.
package rabbitmq
