package stabilizer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"kvstore/internal/address"
	"kvstore/internal/network"
	"kvstore/internal/ring"
	"kvstore/internal/store"
	"kvstore/internal/wire"
)

func TestStabilize_NoOpWhenRingUnchanged(t *testing.T) {
	self := address.New(1, 100)
	r := ring.New([]address.Address{self, address.New(2, 100), address.New(3, 100)})
	st := store.New()
	require.NoError(t, st.Create("k", "v"))
	net := network.New(1, network.Conditions{})
	net.Register(self)

	Stabilize(self, r, r, st, net)
	require.Empty(t, net.Recv(self))
}

func TestStabilize_PushesKeyToNewReplica(t *testing.T) {
	self := address.New(1, 100)
	other := address.New(2, 100)
	joiner := address.New(3, 100)

	oldRing := ring.New([]address.Address{self, other})
	newRing := ring.New([]address.Address{self, other, joiner})

	st := store.New()
	require.NoError(t, st.Create("k", "v"))

	net := network.New(1, network.Conditions{})
	net.Register(self)
	net.Register(other)
	net.Register(joiner)

	Stabilize(self, oldRing, newRing, st, net)

	// newRing has exactly ReplicationFactor members, so every key's
	// replica set is the whole ring: self is always responsible, and
	// the joiner is always a newly-added replica for every key.
	msgs := net.Recv(joiner)
	require.Len(t, msgs, 1)
	msg, err := wire.Decode(msgs[0])
	require.NoError(t, err)
	require.Equal(t, wire.Create, msg.Type)
	require.Equal(t, "k", msg.Key)
	require.Equal(t, "v", msg.Value)
}

func TestStabilize_PushesKeyEvenWhenSelfNoLongerResponsible(t *testing.T) {
	self := address.New(1, 100)
	oldRing := ring.New([]address.Address{self, address.New(2, 100), address.New(3, 100)})

	newPeers := []address.Address{self}
	for i := uint32(2); i <= 7; i++ {
		newPeers = append(newPeers, address.New(i, uint16(100+i)))
	}
	newRing := ring.New(newPeers)

	net := network.New(1, network.Conditions{})
	for _, a := range newPeers {
		net.Register(a)
	}

	var key string
	for i := 0; i < 500; i++ {
		candidate := fmt.Sprintf("stab-key-%d", i)
		selfInNew := false
		for _, r := range newRing.Replicas(candidate) {
			if r.Equal(self) {
				selfInNew = true
				break
			}
		}
		if !selfInNew {
			key = candidate
			break
		}
	}
	require.NotEmpty(t, key, "expected at least one key where self rotates out of the new replica set")

	st := store.New()
	require.NoError(t, st.Create(key, "v"))

	Stabilize(self, oldRing, newRing, st, net)

	sent := 0
	for _, r := range newRing.Replicas(key) {
		for _, raw := range net.Recv(r) {
			msg, err := wire.Decode(raw)
			require.NoError(t, err)
			if msg.Key == key {
				sent++
			}
		}
	}
	require.Equal(t, ring.ReplicationFactor, sent, "every new replica should receive the key even though self rotated out of the new replica set")
}
