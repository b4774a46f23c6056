package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kvstore/internal/address"
)

func TestEncodeDecode_JoinReq(t *testing.T) {
	self := HeartbeatEntry{Addr: address.New(1, 100), Heartbeat: 0}
	buf := EncodeJoinReq(self)

	got, err := DecodeMembership(buf)
	require.NoError(t, err)
	require.Equal(t, JoinReq, got.Type)
	require.Equal(t, self, got.Self)
}

func TestEncodeDecode_JoinRep(t *testing.T) {
	entries := []HeartbeatEntry{
		{Addr: address.New(1, 100), Heartbeat: 3},
		{Addr: address.New(2, 100), Heartbeat: -1},
	}
	buf := EncodeTable(JoinRep, entries)

	got, err := DecodeMembership(buf)
	require.NoError(t, err)
	require.Equal(t, JoinRep, got.Type)
	require.Equal(t, entries, got.Entries)
}

func TestEncodeDecode_PingHeartbeat_Empty(t *testing.T) {
	buf := EncodeTable(PingHeartbeat, nil)

	got, err := DecodeMembership(buf)
	require.NoError(t, err)
	require.Equal(t, PingHeartbeat, got.Type)
	require.Empty(t, got.Entries)
}

func TestDecodeMembership_RejectsEmptyDatagram(t *testing.T) {
	_, err := DecodeMembership(nil)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeMembership_RejectsShortJoinReq(t *testing.T) {
	_, err := DecodeMembership([]byte{byte(JoinReq), 1, 2})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeMembership_RejectsTruncatedEntryTable(t *testing.T) {
	buf := []byte{byte(JoinRep), 0, 0, 0, 5}
	_, err := DecodeMembership(buf)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeMembership_RejectsUnknownType(t *testing.T) {
	_, err := DecodeMembership([]byte{99, 0, 0, 0, 0})
	require.ErrorIs(t, err, ErrMalformed)
}
