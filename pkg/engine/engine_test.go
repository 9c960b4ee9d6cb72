package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndListClients(t *testing.T) {
	e := New("test", 0)
	e.RegisterClient("127.0.0.1:1111", "default")
	require.Equal(t, 1, e.ClientCount())

	e.KillClient("127.0.0.1:1111")
	require.Equal(t, 0, e.ClientCount())
}

func TestGenerateRewriteCommandsEmptyForFreshEngine(t *testing.T) {
	e := New("test", 0)
	cmds := e.GenerateRewriteCommands()
	require.Empty(t, cmds)
}
