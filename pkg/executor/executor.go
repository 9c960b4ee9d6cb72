package executor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/unsetsoft/toridb/pkg/cluster"
	"github.com/unsetsoft/toridb/pkg/commandlog"
	"github.com/unsetsoft/toridb/pkg/engine"
	"github.com/unsetsoft/toridb/pkg/log"
	"github.com/unsetsoft/toridb/pkg/query"
)

// Executor dispatches parsed commands against a database Engine under a
// Session. DataDir roots SAVE's snapshot file, matching the registry's own
// layout (<DataDir>/<db>_dump.json).
type Executor struct {
	DataDir string
}

// New returns an Executor rooted at dataDir.
func New(dataDir string) *Executor {
	return &Executor{DataDir: dataDir}
}

// Execute runs the full dispatch pipeline for one parsed command and
// returns the response text and an optional side value: for AclSetUser, the
// bcrypt hash the caller should substitute into any out-of-band log text;
// for REPLICAOF, the "_CONNECT_TO_MASTER" marker that tells the connection
// handler to dial the new master (mirrors execute_command's
// (String, Option<String>) return shape).
func (ex *Executor) Execute(eng *engine.Engine, cmd query.Command, rawCmd string, cmdLog *commandlog.Log, sess *Session) (string, *string) {
	if cmd.Kind == query.CmdAuth {
		return ex.handleAuth(eng, cmd, sess)
	}

	if sess.User == nil {
		return "ERROR: Authentication required", nil
	}

	if !sess.User.CanExecute(cmd.Kind) {
		log.Warn(fmt.Sprintf("permission denied: client %s (user '%s') attempted %v", sess.Addr, sess.User.Username, cmd.Kind))
		return fmt.Sprintf("ERROR: User '%s' has no permissions for this command", sess.User.Username), nil
	}

	if key, ok := cmd.GetKey(); ok {
		if !eng.Cluster.OwnsSlot(key) {
			slot := cluster.KeySlot(key)
			if addr, ok := eng.Cluster.GetRedirect(key); ok {
				return fmt.Sprintf("MOVED %d %s", slot, addr), nil
			}
		}
	}

	if !eng.Replication.IsMaster() && cmd.IsWrite() && cmd.Kind != query.CmdReplicaOf {
		return "ERROR: READONLY You can't write against a read only replica.", nil
	}

	switch cmd.Kind {
	case query.CmdBegin:
		return ex.handleBegin(sess)
	case query.CmdRollback:
		return ex.handleRollback(sess)
	case query.CmdCommit:
		return ex.handleCommit(eng, cmdLog, sess)
	}

	if sess.InTx && cmd.IsWrite() {
		sess.TxBuffer = append(sess.TxBuffer, bufferedCommand{cmd: cmd, raw: rawCmd})
		return "QUEUED", nil
	}

	return ex.dispatchAndLog(eng, cmd, rawCmd, cmdLog, sess)
}

func (ex *Executor) handleAuth(eng *engine.Engine, cmd query.Command, sess *Session) (string, *string) {
	username := cmd.Username
	if username == "" {
		username = "default"
	}
	if eng.Security.Authenticate(username, cmd.Password) {
		if u, ok := eng.Security.GetUser(username); ok {
			sess.User = &u
		}
		log.Info(fmt.Sprintf("client %s authenticated as user '%s'", sess.Addr, username))
		return "OK", nil
	}
	log.Warn(fmt.Sprintf("authentication failed for client %s as user '%s'", sess.Addr, username))
	return "ERROR: Invalid password", nil
}

func (ex *Executor) handleBegin(sess *Session) (string, *string) {
	if sess.InTx {
		return "ERROR: Transaction already in progress", nil
	}
	sess.InTx = true
	sess.TxBuffer = nil
	return "OK", nil
}

func (ex *Executor) handleRollback(sess *Session) (string, *string) {
	if !sess.InTx {
		return "ERROR: No transaction in progress", nil
	}
	sess.InTx = false
	sess.TxBuffer = nil
	return "OK", nil
}

// handleCommit applies the buffered transaction under a single hold of the
// engine transaction lock, framing the log entries between BEGIN/COMMIT
// markers per spec.md's recovery state machine (an addition over the Rust
// original, which has no transaction buffering at all).
func (ex *Executor) handleCommit(eng *engine.Engine, cmdLog *commandlog.Log, sess *Session) (string, *string) {
	if !sess.InTx {
		return "ERROR: No transaction in progress", nil
	}

	eng.TxMu.Lock()
	defer eng.TxMu.Unlock()

	appendLog(cmdLog, "BEGIN")
	applied := 0
	for _, bc := range sess.TxBuffer {
		resp, hash := ex.dispatchStore(eng, bc.cmd, cmdLog, sess)
		if strings.HasPrefix(resp, "ERROR") {
			continue
		}
		logText := bc.raw
		if bc.cmd.Kind == query.CmdAclSetUser && hash != nil {
			logText = buildAclSetUserLogText(bc.cmd.Username, *hash, bc.cmd.Rules)
		}
		appendLog(cmdLog, logText)
		eng.Replication.Propagate(logText)
		applied++
	}
	appendLog(cmdLog, "COMMIT")

	sess.InTx = false
	sess.TxBuffer = nil
	return fmt.Sprintf("OK Transaction Executed (%d commands)", applied), nil
}

// dispatchAndLog executes a single non-transaction command under the
// engine's transaction lock (writes only), then logs and propagates it.
func (ex *Executor) dispatchAndLog(eng *engine.Engine, cmd query.Command, rawCmd string, cmdLog *commandlog.Log, sess *Session) (string, *string) {
	if cmd.IsWrite() {
		eng.TxMu.Lock()
		defer eng.TxMu.Unlock()
	}

	resp, hash := ex.dispatchStore(eng, cmd, cmdLog, sess)

	if cmd.IsWrite() && !strings.HasPrefix(resp, "ERROR") {
		logText := rawCmd
		if cmd.Kind == query.CmdAclSetUser && hash != nil {
			logText = buildAclSetUserLogText(cmd.Username, *hash, cmd.Rules)
		}
		appendLog(cmdLog, logText)
		eng.Replication.Propagate(logText)
	}

	return resp, hash
}

func appendLog(cmdLog *commandlog.Log, text string) {
	if cmdLog == nil {
		return
	}
	// Open Question 3: a log-append error is logged and elided from the
	// client response rather than failing the command outright.
	if err := cmdLog.Append(text); err != nil {
		log.Errorf("executor: command log append failed", err)
	}
}

func buildAclSetUserLogText(username, hash string, rules []string) string {
	return fmt.Sprintf("ACL SETUSER %s \"%s\" %s", username, hash, strings.Join(rules, " "))
}

func snapshotPath(ex *Executor, dbName string) string {
	return filepath.Join(ex.DataDir, dbName+"_dump.json")
}
