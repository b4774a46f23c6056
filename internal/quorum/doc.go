// Package quorum decides when a coordinator's in-flight transaction
// has reached a success or failure verdict. Replies arrive one at a
// time through the emulated network, so this package only evaluates
// the accumulated tally kept in internal/transaction — the
// coordinator calls it once per reply.
package quorum

