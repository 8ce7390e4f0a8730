// Package claimservice implements the claim state machine.
//
// Claims start pending and leave that state exactly once, to approved or
// denied, through a conditional single-row update. Every admin decision is
// authorized on each call, appended to the audit trail and announced through
// the claim outbox for owner notification.
package claimservice
