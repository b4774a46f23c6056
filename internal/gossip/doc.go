// Package gossip implements the heartbeat-based failure detector of
// spec.md §4.1: a simplified SWIM-style protocol with no incarnation
// numbers or suspicion sub-states — a member is ALIVE until TFAIL
// rounds pass without its heartbeat advancing, then FAILED until
// TREMOVE rounds later, when it is evicted from the table entirely.
package gossip
