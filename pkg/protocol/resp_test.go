package protocol

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeSimpleString(t *testing.T) {
	require.Equal(t, "+OK\r\n", string(Encode(SimpleString("OK"))))
}

func TestEncodeError(t *testing.T) {
	require.Equal(t, "-ERROR: boom\r\n", string(Encode(Error("ERROR: boom"))))
}

func TestEncodeInteger(t *testing.T) {
	require.Equal(t, ":42\r\n", string(Encode(Integer(42))))
}

func TestEncodeBulkString(t *testing.T) {
	require.Equal(t, "$5\r\nhello\r\n", string(Encode(BulkString("hello"))))
}

func TestEncodeNullBulkString(t *testing.T) {
	require.Equal(t, "$-1\r\n", string(Encode(NullBulkString())))
}

func TestEncodeArray(t *testing.T) {
	v := ArrayOf([]Value{BulkString("SET"), BulkString("foo"), BulkString("bar")})
	require.Equal(t, "*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n", string(Encode(v)))
}

func TestDecodeRoundTripsSimpleString(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("+PONG\r\n"))
	v, err := Decode(r)
	require.NoError(t, err)
	require.Equal(t, KindSimpleString, v.Kind)
	require.Equal(t, "PONG", v.Str)
}

func TestDecodeRoundTripsArray(t *testing.T) {
	raw := Encode(ArrayOf([]Value{BulkString("GET"), BulkString("foo")}))
	r := bufio.NewReader(strings.NewReader(string(raw)))
	v, err := Decode(r)
	require.NoError(t, err)
	require.Equal(t, KindArray, v.Kind)
	require.Len(t, v.Array, 2)
	require.Equal(t, "foo", v.Array[1].Bulk)
}

func TestDecodeInlineFallback(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("PING\r\n"))
	v, err := Decode(r)
	require.NoError(t, err)
	require.Equal(t, KindSimpleString, v.Kind)
	require.Equal(t, "PING", v.Str)
}

func TestToCommandStringQuotesSpaces(t *testing.T) {
	v := ArrayOf([]Value{BulkString("SET"), BulkString("foo"), BulkString("hello world")})
	s, err := ToCommandString(v)
	require.NoError(t, err)
	require.Equal(t, `SET foo "hello world"`, s)
}

func TestToCommandStringRejectsNonArray(t *testing.T) {
	_, err := ToCommandString(BulkString("SET"))
	require.Error(t, err)
}
