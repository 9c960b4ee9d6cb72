package executor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unsetsoft/toridb/pkg/query"
)

func TestReplayAppliesCommandsWithoutReappendingLog(t *testing.T) {
	eng := newTestEngine(t)
	ex := New(t.TempDir())

	err := ex.Replay(eng, []string{"SET foo bar", "SET baz qux"})
	require.NoError(t, err)

	sess := authedSession(t, eng)
	resp, _ := ex.Execute(eng, query.Command{Kind: query.CmdGet, Key: "foo"}, "GET foo", nil, sess)
	require.Equal(t, "bar", resp)
}

func TestReplayAppliesWritesEvenWhenEngineIsAReplica(t *testing.T) {
	eng := newTestEngine(t)
	eng.Replication.SetReplicaOf("10.0.0.1", 8569)
	ex := New(t.TempDir())

	err := ex.Replay(eng, []string{"SET foo bar"})
	require.NoError(t, err)

	sess := authedSession(t, eng)
	resp, _ := ex.Execute(eng, query.Command{Kind: query.CmdGet, Key: "foo"}, "GET foo", nil, sess)
	require.Equal(t, "bar", resp)
}

func TestApplyReplicatedAppliesWriteEvenWhenReplica(t *testing.T) {
	eng := newTestEngine(t)
	eng.Replication.SetReplicaOf("10.0.0.1", 8569)
	ex := New(t.TempDir())

	resp, err := ex.ApplyReplicated(eng, nil, "SET foo bar")
	require.NoError(t, err)
	require.Equal(t, "OK", resp)

	sess := authedSession(t, eng)
	getResp, _ := ex.Execute(eng, query.Command{Kind: query.CmdGet, Key: "foo"}, "GET foo", nil, sess)
	require.Equal(t, "bar", getResp)
}
