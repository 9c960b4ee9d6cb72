package protocol

import (
	"strconv"
	"strings"
)

// EncodeResponse maps one of pkg/executor's plain-text response strings
// onto a wire Value, per spec.md's response encoding table: "OK"/"PONG" are
// simple strings, "ERROR: ..." is an error, "(integer) N" is an integer,
// "nil" is a null bulk string, and everything else is a bulk string.
func EncodeResponse(raw string) Value {
	switch {
	case raw == "OK" || raw == "PONG":
		return SimpleString(raw)
	case strings.HasPrefix(raw, "ERROR:"):
		return Error(strings.TrimSpace(strings.TrimPrefix(raw, "ERROR:")))
	case raw == "nil":
		return NullBulkString()
	case strings.HasPrefix(raw, "(integer) "):
		n, err := strconv.ParseInt(strings.TrimPrefix(raw, "(integer) "), 10, 64)
		if err != nil {
			return BulkString(raw)
		}
		return Integer(n)
	default:
		return BulkString(raw)
	}
}
