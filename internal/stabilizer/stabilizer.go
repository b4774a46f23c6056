// Package stabilizer re-replicates locally-held keys after a ring
// change. There are no concurrent versions to reconcile here, so the
// repair need is purely structural: once the ring's member set
// shifts, each node's replica set for a key shifts with it, and the
// keys it holds must be pushed to whoever is newly responsible.
package stabilizer

import (
	"kvstore/internal/address"
	"kvstore/internal/network"
	"kvstore/internal/ring"
	"kvstore/internal/store"
	"kvstore/internal/transaction"
	"kvstore/internal/wire"
)

// Stabilize compares the replica set each locally-held key maps to
// under oldRing and newRing, and re-sends the key to any replica that
// is new under newRing, regardless of whether self is still one of
// the key's replicas itself. Replies to these CREATEs are stamped
// with transaction.StabID and are swallowed by the receiving
// coordinator logic rather than tracked or logged.
func Stabilize(self address.Address, oldRing, newRing *ring.Ring, st *store.Store, net *network.Network) {
	if ring.Equal(oldRing, newRing) {
		return
	}
	for key, value := range st.Snapshot() {
		oldReplicas := replicaSet(oldRing, key)
		newReplicas := newRing.Replicas(key)

		for _, r := range newReplicas {
			if r.Equal(self) || oldReplicas[r] {
				continue
			}
			msg := wire.Encode(wire.Message{
				TransID:  transaction.StabID,
				FromAddr: self,
				Type:     wire.Create,
				Key:      key,
				Value:    value,
			})
			net.Send(self, r, msg)
		}
	}
}

func replicaSet(r *ring.Ring, key string) map[address.Address]bool {
	out := make(map[address.Address]bool)
	if r == nil {
		return out
	}
	for _, a := range r.Replicas(key) {
		out[a] = true
	}
	return out
}
