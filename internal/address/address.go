// Package address defines the 6-byte node address used across the
// emulated network: a 4-byte node id followed by a 2-byte port.
package address

import (
	"encoding/binary"
	"fmt"
)

// Size is the wire width of an Address: 4 bytes id + 2 bytes port.
const Size = 6

// Address identifies a node on the emulated network. Equality is
// byte-wise: two addresses are the same node iff id and port match.
type Address struct {
	ID   uint32
	Port uint16
}

// New builds an Address from an id and port.
func New(id uint32, port uint16) Address {
	return Address{ID: id, Port: port}
}

// Introducer is the well-known rendezvous address new joiners send
// JOINREQ to: id=1, port=0.
var Introducer = Address{ID: 1, Port: 0}

// Equal reports whether two addresses name the same node.
func (a Address) Equal(b Address) bool {
	return a.ID == b.ID && a.Port == b.Port
}

// Less provides the lexicographic byte-wise order required for
// deterministic tie-breaking on the hash ring (spec §3, RingNode).
func (a Address) Less(b Address) bool {
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	return a.Port < b.Port
}

// Bytes packs the address into its 6-byte wire form (4 bytes id, big
// endian, followed by 2 bytes port, big endian).
func (a Address) Bytes() [Size]byte {
	var buf [Size]byte
	binary.BigEndian.PutUint32(buf[0:4], a.ID)
	binary.BigEndian.PutUint16(buf[4:6], a.Port)
	return buf
}

// FromBytes unpacks an Address from its 6-byte wire form.
func FromBytes(buf [Size]byte) Address {
	return Address{
		ID:   binary.BigEndian.Uint32(buf[0:4]),
		Port: binary.BigEndian.Uint16(buf[4:6]),
	}
}

// String renders the address as "id:port", used in KV wire records
// and log output.
func (a Address) String() string {
	return fmt.Sprintf("%d:%d", a.ID, a.Port)
}

// Parse reverses String.
func Parse(s string) (Address, error) {
	var id uint32
	var port uint16
	if _, err := fmt.Sscanf(s, "%d:%d", &id, &port); err != nil {
		return Address{}, fmt.Errorf("address: malformed %q: %w", s, err)
	}
	return Address{ID: id, Port: port}, nil
}
