// Package subscriptionservice reconciles payment-processor billing events
// into agent subscription state and starts processor checkouts.
//
// Processor webhooks are the authoritative writer. The local cancel path
// writes an optimistic value that the next authoritative event overwrites.
package subscriptionservice
