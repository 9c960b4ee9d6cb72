package executor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unsetsoft/toridb/pkg/engine"
	"github.com/unsetsoft/toridb/pkg/query"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Setenv("DB_PASSWORD", "secret")
	return engine.New("test", 0)
}

func authedSession(t *testing.T, eng *engine.Engine) *Session {
	ex := New(t.TempDir())
	sess := NewSession("127.0.0.1:1", "test")
	resp, _ := ex.Execute(eng, query.Command{Kind: query.CmdAuth, Username: "default", Password: "secret"}, "AUTH default secret", nil, sess)
	require.Equal(t, "OK", resp)
	return sess
}

func TestUnauthenticatedCommandIsRejected(t *testing.T) {
	eng := newTestEngine(t)
	ex := New(t.TempDir())
	sess := NewSession("127.0.0.1:1", "test")

	resp, _ := ex.Execute(eng, query.Command{Kind: query.CmdPing}, "PING", nil, sess)
	require.Equal(t, "ERROR: Authentication required", resp)
}

func TestAuthThenSetGetRoundTrip(t *testing.T) {
	eng := newTestEngine(t)
	ex := New(t.TempDir())
	sess := authedSession(t, eng)

	resp, _ := ex.Execute(eng, query.Command{Kind: query.CmdSet, Key: "k", Value: "hello"}, `SET k "hello"`, nil, sess)
	require.Equal(t, "OK", resp)

	resp, _ = ex.Execute(eng, query.Command{Kind: query.CmdGet, Key: "k"}, "GET k", nil, sess)
	require.Equal(t, "hello", resp)
}

func TestGetMissingKeyReturnsNil(t *testing.T) {
	eng := newTestEngine(t)
	ex := New(t.TempDir())
	sess := authedSession(t, eng)

	resp, _ := ex.Execute(eng, query.Command{Kind: query.CmdGet, Key: "missing"}, "GET missing", nil, sess)
	require.Equal(t, "nil", resp)
}

func TestPingRespondsPong(t *testing.T) {
	eng := newTestEngine(t)
	ex := New(t.TempDir())
	sess := authedSession(t, eng)

	resp, _ := ex.Execute(eng, query.Command{Kind: query.CmdPing}, "PING", nil, sess)
	require.Equal(t, "PONG", resp)
}

func TestReplicaRejectsWritesExceptReplicaOf(t *testing.T) {
	eng := newTestEngine(t)
	eng.Replication.SetReplicaOf("master-host", 8569)
	ex := New(t.TempDir())
	sess := authedSession(t, eng)

	resp, _ := ex.Execute(eng, query.Command{Kind: query.CmdSet, Key: "k", Value: "v"}, `SET k v`, nil, sess)
	require.Equal(t, "ERROR: READONLY You can't write against a read only replica.", resp)

	resp, _ = ex.Execute(eng, query.Command{Kind: query.CmdReplicaOf, Host: "NO", Port: "ONE"}, "REPLICAOF NO ONE", nil, sess)
	require.Equal(t, "OK", resp)
}

func TestTransactionQueuesThenCommits(t *testing.T) {
	eng := newTestEngine(t)
	ex := New(t.TempDir())
	sess := authedSession(t, eng)

	resp, _ := ex.Execute(eng, query.Command{Kind: query.CmdBegin}, "BEGIN", nil, sess)
	require.Equal(t, "OK", resp)

	resp, _ = ex.Execute(eng, query.Command{Kind: query.CmdSet, Key: "a", Value: "1"}, "SET a 1", nil, sess)
	require.Equal(t, "QUEUED", resp)

	resp, _ = ex.Execute(eng, query.Command{Kind: query.CmdSet, Key: "b", Value: "2"}, "SET b 2", nil, sess)
	require.Equal(t, "QUEUED", resp)

	resp, _ = ex.Execute(eng, query.Command{Kind: query.CmdCommit}, "COMMIT", nil, sess)
	require.Equal(t, "OK Transaction Executed (2 commands)", resp)
	require.False(t, sess.InTx)

	resp, _ = ex.Execute(eng, query.Command{Kind: query.CmdGet, Key: "a"}, "GET a", nil, sess)
	require.Equal(t, "1", resp)
	resp, _ = ex.Execute(eng, query.Command{Kind: query.CmdGet, Key: "b"}, "GET b", nil, sess)
	require.Equal(t, "2", resp)
}

func TestRollbackDiscardsBuffer(t *testing.T) {
	eng := newTestEngine(t)
	ex := New(t.TempDir())
	sess := authedSession(t, eng)

	ex.Execute(eng, query.Command{Kind: query.CmdBegin}, "BEGIN", nil, sess)
	ex.Execute(eng, query.Command{Kind: query.CmdSet, Key: "a", Value: "1"}, "SET a 1", nil, sess)

	resp, _ := ex.Execute(eng, query.Command{Kind: query.CmdRollback}, "ROLLBACK", nil, sess)
	require.Equal(t, "OK", resp)

	resp, _ = ex.Execute(eng, query.Command{Kind: query.CmdGet, Key: "a"}, "GET a", nil, sess)
	require.Equal(t, "nil", resp)
}

func TestAclSetUserReturnsHashForLogSubstitution(t *testing.T) {
	eng := newTestEngine(t)
	ex := New(t.TempDir())
	sess := authedSession(t, eng)

	resp, hash := ex.Execute(eng, query.Command{Kind: query.CmdAclSetUser, Username: "alice", Password: "pw", Rules: []string{"+get"}}, `ACL SETUSER alice "pw" +get`, nil, sess)
	require.Equal(t, "OK", resp)
	require.NotNil(t, hash)
	require.NotEqual(t, "pw", *hash)
}

func TestPermissionDeniedForRestrictedUser(t *testing.T) {
	eng := newTestEngine(t)
	ex := New(t.TempDir())
	sess := authedSession(t, eng)
	ex.Execute(eng, query.Command{Kind: query.CmdAclSetUser, Username: "reader", Password: "pw", Rules: []string{"+get"}}, "", nil, sess)

	readerSess := NewSession("127.0.0.1:2", "test")
	resp, _ := ex.Execute(eng, query.Command{Kind: query.CmdAuth, Username: "reader", Password: "pw"}, "", nil, readerSess)
	require.Equal(t, "OK", resp)

	resp, _ = ex.Execute(eng, query.Command{Kind: query.CmdSet, Key: "k", Value: "v"}, "SET k v", nil, readerSess)
	require.Equal(t, "ERROR: User 'reader' has no permissions for this command", resp)
}
