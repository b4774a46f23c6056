package wire

import (
	"fmt"
	"strconv"
	"strings"

	"kvstore/internal/address"
)

// KVType enumerates the KV envelope types spec.md §6 names.
type KVType string

const (
	Create    KVType = "CREATE"
	Read      KVType = "READ"
	Update    KVType = "UPDATE"
	Delete    KVType = "DELETE"
	Reply     KVType = "REPLY"
	ReadReply KVType = "READREPLY"
)

// ReplicaRole records which of the three replicas a message concerns.
// No behavior depends on its value, and it is not on the wire: Encode
// does not write it and Decode leaves it as RoleNone.
type ReplicaRole string

const (
	RolePrimary   ReplicaRole = "PRIMARY"
	RoleSecondary ReplicaRole = "SECONDARY"
	RoleTertiary  ReplicaRole = "TERTIARY"
	RoleNone      ReplicaRole = ""
)

// Message is the KV envelope of spec.md §3: one per request or reply.
type Message struct {
	TransID     int
	FromAddr    address.Address
	Type        KVType
	Key         string
	Value       string
	Success     bool
	ReplicaType ReplicaRole
}

const fieldSep = "|"

// Encode renders a Message as the '|'-delimited text record spec.md
// §6 mandates: "transID|fromAddrString|type[|key[|value]]" for
// requests, "transID|fromAddr|REPLY|success(0/1)" and
// "transID|fromAddr|READREPLY|value" for replies.
func Encode(m Message) []byte {
	parts := []string{
		strconv.Itoa(m.TransID),
		m.FromAddr.String(),
		string(m.Type),
	}

	switch m.Type {
	case Reply:
		parts = append(parts, boolField(m.Success))
	case ReadReply:
		parts = append(parts, m.Value)
	case Create, Update:
		parts = append(parts, m.Key, m.Value)
	case Read, Delete:
		parts = append(parts, m.Key)
	}

	return []byte(strings.Join(parts, fieldSep))
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Decode parses a KV wire record. Malformed input yields a wrapped
// ErrMalformed; callers must drop rather than propagate a crash
// (spec §7).
func Decode(buf []byte) (Message, error) {
	fields := strings.Split(string(buf), fieldSep)
	if len(fields) < 3 {
		return Message{}, fmt.Errorf("wire: %w: too few fields in %q", ErrMalformed, buf)
	}

	transID, err := strconv.Atoi(fields[0])
	if err != nil {
		return Message{}, fmt.Errorf("wire: %w: bad transID: %v", ErrMalformed, err)
	}
	from, err := address.Parse(fields[1])
	if err != nil {
		return Message{}, fmt.Errorf("wire: %w: %v", ErrMalformed, err)
	}

	m := Message{TransID: transID, FromAddr: from, Type: KVType(fields[2])}

	switch m.Type {
	case Create, Update:
		if len(fields) < 5 {
			return Message{}, fmt.Errorf("wire: %w: %s needs key and value", ErrMalformed, m.Type)
		}
		m.Key, m.Value = fields[3], fields[4]
	case Read, Delete:
		if len(fields) < 4 {
			return Message{}, fmt.Errorf("wire: %w: %s needs key", ErrMalformed, m.Type)
		}
		m.Key = fields[3]
	case Reply:
		if len(fields) < 4 {
			return Message{}, fmt.Errorf("wire: %w: REPLY needs success flag", ErrMalformed)
		}
		m.Success = fields[3] == "1"
	case ReadReply:
		if len(fields) < 4 {
			return Message{}, fmt.Errorf("wire: %w: READREPLY needs value field", ErrMalformed)
		}
		m.Value = fields[3]
	default:
		return Message{}, fmt.Errorf("wire: %w: unknown KV type %q", ErrMalformed, m.Type)
	}

	return m, nil
}
