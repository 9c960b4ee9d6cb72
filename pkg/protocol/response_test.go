package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeResponseOK(t *testing.T) {
	v := EncodeResponse("OK")
	require.Equal(t, KindSimpleString, v.Kind)
	require.Equal(t, "OK", v.Str)
}

func TestEncodeResponseError(t *testing.T) {
	v := EncodeResponse("ERROR: bad thing happened")
	require.Equal(t, KindError, v.Kind)
	require.Equal(t, "bad thing happened", v.Str)
}

func TestEncodeResponseInteger(t *testing.T) {
	v := EncodeResponse("(integer) 42")
	require.Equal(t, KindInteger, v.Kind)
	require.Equal(t, int64(42), v.Int)
}

func TestEncodeResponseNil(t *testing.T) {
	v := EncodeResponse("nil")
	require.Equal(t, KindBulkString, v.Kind)
	require.True(t, v.Null)
}

func TestEncodeResponseBulkString(t *testing.T) {
	v := EncodeResponse("hello world")
	require.Equal(t, KindBulkString, v.Kind)
	require.Equal(t, "hello world", v.Bulk)
}
