package integration

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestKeyValueSetGetDel covers spec.md's literal scenario 1: SET, GET, DEL,
// and GET-after-DEL returning nil.
func TestKeyValueSetGetDel(t *testing.T) {
	_, client, _ := startAuthedServer(t)

	v, err := client.Send(`SET user:1 "alice"`)
	require.NoError(t, err)
	require.Equal(t, "OK", v.Str)

	v, err = client.Send("GET user:1")
	require.NoError(t, err)
	require.Equal(t, "alice", v.Bulk)

	v, err = client.Send("DEL user:1")
	require.NoError(t, err)
	require.Equal(t, int64(1), v.Int)

	v, err = client.Send("GET user:1")
	require.NoError(t, err)
	require.True(t, v.Null)
}
