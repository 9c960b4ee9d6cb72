package security

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unsetsoft/toridb/pkg/query"
)

func TestDefaultUserAuthenticatesWithSecret(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")
	s := New()
	require.True(t, s.Authenticate("default", "secret"))
	require.False(t, s.Authenticate("default", "wrong"))
}

func TestSetUserHashesPlaintextOnce(t *testing.T) {
	s := New()
	hash := s.SetUser("alice", "hunter2", []string{"+get"})
	require.True(t, isBcryptHash(hash))
	require.True(t, s.Authenticate("alice", "hunter2"))

	// Replaying the already-hashed value must not re-hash it.
	hash2 := s.SetUser("alice", hash, []string{"+get"})
	require.Equal(t, hash, hash2)
}

func TestCanExecuteRuleOrder(t *testing.T) {
	all := User{Rules: []string{"+@all"}}
	require.True(t, all.CanExecute(query.CmdDelete))

	denied := User{Rules: []string{"+@all", "-delete"}}
	require.False(t, denied.CanExecute(query.CmdDelete))

	explicit := User{Rules: []string{"+get"}}
	require.True(t, explicit.CanExecute(query.CmdGet))
	require.False(t, explicit.CanExecute(query.CmdSet))

	none := User{}
	require.False(t, none.CanExecute(query.CmdGet))
}

func TestDeleteAndListUsers(t *testing.T) {
	s := New()
	s.SetUser("bob", "pw", []string{"+get"})
	names := s.ListUsers()
	require.Contains(t, names, "default")
	require.Contains(t, names, "bob")

	s.DeleteUser("bob")
	_, ok := s.GetUser("bob")
	require.False(t, ok)
}
