// Package wire implements the two on-the-wire encodings spec.md §6
// mandates: a binary packed format for membership gossip, and a
// '|'-delimited text format for KV request/reply envelopes.
package wire

import (
	"encoding/binary"
	"fmt"

	"kvstore/internal/address"
)

// MembershipType distinguishes the three failure-detector message
// kinds carried over the wire.
type MembershipType byte

const (
	JoinReq       MembershipType = 0
	JoinRep       MembershipType = 1
	PingHeartbeat MembershipType = 2
)

// HeartbeatEntry is one row of a gossiped membership table: an address
// plus the heartbeat counter the owner last reported for it.
// FAILED is represented as -1 after decoding.
type HeartbeatEntry struct {
	Addr      address.Address
	Heartbeat int64
}

const heartbeatEntrySize = address.Size + 8 // 4(id)+2(port)+8(heartbeat)

// EncodeJoinReq packs a JOINREQ: 1 type byte + one HeartbeatEntry.
func EncodeJoinReq(self HeartbeatEntry) []byte {
	buf := make([]byte, 0, 1+heartbeatEntrySize)
	buf = append(buf, byte(JoinReq))
	buf = appendEntry(buf, self)
	return buf
}

// EncodeTable packs a JOINREP or PINGHEARTBEAT: 1 type byte + 4-byte
// count + N HeartbeatEntries.
func EncodeTable(t MembershipType, entries []HeartbeatEntry) []byte {
	buf := make([]byte, 0, 1+4+len(entries)*heartbeatEntrySize)
	buf = append(buf, byte(t))
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(entries)))
	buf = append(buf, countBuf[:]...)
	for _, e := range entries {
		buf = appendEntry(buf, e)
	}
	return buf
}

func appendEntry(buf []byte, e HeartbeatEntry) []byte {
	addrBytes := e.Addr.Bytes()
	buf = append(buf, addrBytes[:]...)
	var hbBuf [8]byte
	binary.BigEndian.PutUint64(hbBuf[:], uint64(e.Heartbeat))
	return append(buf, hbBuf[:]...)
}

// DecodedMembershipMessage is the parsed form of any of the three
// membership wire messages.
type DecodedMembershipMessage struct {
	Type    MembershipType
	Self    HeartbeatEntry   // populated for JoinReq
	Entries []HeartbeatEntry // populated for JoinRep / PingHeartbeat
}

// DecodeMembership parses a membership datagram. It returns
// ErrMalformed (wrapped) rather than panicking on truncated input, per
// spec §7: "Malformed message — drop; do not crash."
func DecodeMembership(buf []byte) (DecodedMembershipMessage, error) {
	if len(buf) < 1 {
		return DecodedMembershipMessage{}, fmt.Errorf("wire: %w: empty membership datagram", ErrMalformed)
	}
	t := MembershipType(buf[0])
	rest := buf[1:]

	switch t {
	case JoinReq:
		if len(rest) < heartbeatEntrySize {
			return DecodedMembershipMessage{}, fmt.Errorf("wire: %w: short JOINREQ", ErrMalformed)
		}
		e, err := readEntry(rest)
		if err != nil {
			return DecodedMembershipMessage{}, err
		}
		return DecodedMembershipMessage{Type: JoinReq, Self: e}, nil

	case JoinRep, PingHeartbeat:
		if len(rest) < 4 {
			return DecodedMembershipMessage{}, fmt.Errorf("wire: %w: missing count", ErrMalformed)
		}
		count := binary.BigEndian.Uint32(rest[:4])
		rest = rest[4:]
		if uint64(len(rest)) < uint64(count)*heartbeatEntrySize {
			return DecodedMembershipMessage{}, fmt.Errorf("wire: %w: truncated entry table", ErrMalformed)
		}
		entries := make([]HeartbeatEntry, 0, count)
		for i := uint32(0); i < count; i++ {
			e, err := readEntry(rest[i*heartbeatEntrySize:])
			if err != nil {
				return DecodedMembershipMessage{}, err
			}
			entries = append(entries, e)
		}
		return DecodedMembershipMessage{Type: t, Entries: entries}, nil

	default:
		return DecodedMembershipMessage{}, fmt.Errorf("wire: %w: unknown membership type %d", ErrMalformed, t)
	}
}

func readEntry(buf []byte) (HeartbeatEntry, error) {
	if len(buf) < heartbeatEntrySize {
		return HeartbeatEntry{}, fmt.Errorf("wire: %w: short heartbeat entry", ErrMalformed)
	}
	var addrBuf [address.Size]byte
	copy(addrBuf[:], buf[:address.Size])
	hb := int64(binary.BigEndian.Uint64(buf[address.Size : address.Size+8]))
	return HeartbeatEntry{Addr: address.FromBytes(addrBuf), Heartbeat: hb}, nil
}
