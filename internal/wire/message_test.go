package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kvstore/internal/address"
)

func TestEncodeDecode_Create(t *testing.T) {
	m := Message{TransID: 7, FromAddr: address.New(1, 100), Type: Create, Key: "k", Value: "v"}
	got, err := Decode(Encode(m))
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestEncodeDecode_Read(t *testing.T) {
	m := Message{TransID: 1, FromAddr: address.New(2, 100), Type: Read, Key: "k"}
	got, err := Decode(Encode(m))
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestEncodeDecode_Reply(t *testing.T) {
	m := Message{TransID: 3, FromAddr: address.New(2, 100), Type: Reply, Success: true}
	got, err := Decode(Encode(m))
	require.NoError(t, err)
	require.True(t, got.Success)
}

func TestEncodeDecode_ReadReply(t *testing.T) {
	m := Message{TransID: 4, FromAddr: address.New(2, 100), Type: ReadReply, Value: "hello"}
	got, err := Decode(Encode(m))
	require.NoError(t, err)
	require.Equal(t, "hello", got.Value)
}

func TestDecode_RejectsTooFewFields(t *testing.T) {
	_, err := Decode([]byte("1|2:100"))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestDecode_RejectsBadTransID(t *testing.T) {
	_, err := Decode([]byte("notanumber|1:100|READ|k"))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestDecode_RejectsUnknownType(t *testing.T) {
	_, err := Decode([]byte("1|1:100|EXPLODE|k"))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestDecode_RejectsCreateMissingValue(t *testing.T) {
	_, err := Decode([]byte("1|1:100|CREATE|k"))
	require.ErrorIs(t, err, ErrMalformed)
}
