package executor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/unsetsoft/toridb/pkg/commandlog"
	"github.com/unsetsoft/toridb/pkg/engine"
	"github.com/unsetsoft/toridb/pkg/log"
	"github.com/unsetsoft/toridb/pkg/query"
	"github.com/unsetsoft/toridb/pkg/snapshot"
)

// dispatchStore runs the per-command logic against eng's stores, with no
// auth/permission/logging concerns of its own — those are handled by the
// caller. Mirrors execute_command's big match in executor.rs, one arm per
// Command variant.
func (ex *Executor) dispatchStore(eng *engine.Engine, cmd query.Command, cmdLog *commandlog.Log, sess *Session) (string, *string) {
	switch cmd.Kind {
	case query.CmdReplicaOf:
		return ex.dispatchReplicaOf(eng, cmd)
	case query.CmdPsync:
		return "_PSYNC_OK", nil
	case query.CmdPing:
		return "PONG", nil
	case query.CmdSave:
		return ex.dispatchSave(eng), nil
	case query.CmdRewriteAof:
		return ex.dispatchRewriteAof(eng, cmdLog), nil
	case query.CmdInfo:
		return ex.dispatchInfo(eng), nil
	case query.CmdClusterInfo:
		return eng.Cluster.GetInfo(), nil
	case query.CmdClusterSlots:
		return ex.dispatchClusterSlots(eng), nil
	case query.CmdClusterMeet:
		eng.Cluster.AddNode(cmd.Host + ":" + cmd.Port)
		return "OK", nil
	case query.CmdClusterAddSlots:
		eng.Cluster.AddSlots(cmd.Slots)
		return "OK", nil
	case query.CmdClusterSetSlot:
		eng.Cluster.SetSlotOwner(cmd.Slots[0], cmd.Host+":"+cmd.Port)
		return "OK", nil
	case query.CmdUse:
		if sess.CurrentDB != cmd.DBName {
			log.Info(fmt.Sprintf("client %s switched to database: %s", sess.Addr, cmd.DBName))
			sess.CurrentDB = cmd.DBName
		}
		return "OK", nil

	case query.CmdAclSetUser:
		hash := eng.Security.SetUser(cmd.Username, cmd.Password, cmd.Rules)
		return "OK", &hash
	case query.CmdAclGetUser:
		u, ok := eng.Security.GetUser(cmd.Username)
		if !ok {
			return "ERROR: User not found", nil
		}
		return fmt.Sprintf("username: %s\nrules: %v", u.Username, u.Rules), nil
	case query.CmdAclList:
		return fmt.Sprintf("%v", eng.Security.ListUsers()), nil
	case query.CmdAclDelUser:
		eng.Security.DeleteUser(cmd.Username)
		return "OK", nil

	case query.CmdSet:
		eng.Flexible.Set(cmd.Key, parseJSONOrString(cmd.Value))
		return "OK", nil
	case query.CmdSetEx:
		eng.Flexible.SetWithTTL(cmd.Key, parseJSONOrString(cmd.Value), cmd.TTL)
		return "OK", nil
	case query.CmdGet:
		v, ok := eng.Flexible.Get(cmd.Key)
		if !ok {
			return "nil", nil
		}
		return valueOrString(v), nil
	case query.CmdDel:
		n := eng.Flexible.Del(cmd.Keys...)
		return fmt.Sprintf("(integer) %d", n), nil
	case query.CmdTTL:
		return strconv.FormatInt(eng.Flexible.TTL(cmd.Key), 10), nil
	case query.CmdIncr:
		return strconv.FormatInt(eng.Flexible.Incr(cmd.Key, 1), 10), nil
	case query.CmdDecr:
		return strconv.FormatInt(eng.Flexible.Incr(cmd.Key, -1), 10), nil

	case query.CmdLPush:
		return fmt.Sprintf("(integer) %d", eng.Flexible.LPush(cmd.Key, cmd.Values...)), nil
	case query.CmdRPush:
		return fmt.Sprintf("(integer) %d", eng.Flexible.RPush(cmd.Key, cmd.Values...)), nil
	case query.CmdLPop:
		return formatValues(eng.Flexible.LPop(cmd.Key, popCount(cmd))), nil
	case query.CmdRPop:
		return formatValues(eng.Flexible.RPop(cmd.Key, popCount(cmd))), nil
	case query.CmdLRange:
		return formatValues(eng.Flexible.LRange(cmd.Key, cmd.Start, cmd.Stop)), nil

	case query.CmdHSet:
		isNew := eng.Flexible.HSet(cmd.Key, cmd.Field, cmd.Value)
		if isNew {
			return "(integer) 1", nil
		}
		return "(integer) 0", nil
	case query.CmdHGet:
		v, ok := eng.Flexible.HGet(cmd.Key, cmd.Field)
		if !ok {
			return "nil", nil
		}
		return valueOrString(v), nil
	case query.CmdHGetAll:
		obj, ok := eng.Flexible.HGetAll(cmd.Key)
		if !ok {
			return "{}", nil
		}
		return objectString(obj), nil

	case query.CmdSAdd:
		return fmt.Sprintf("(integer) %d", eng.Flexible.SAdd(cmd.Key, cmd.Values...)), nil
	case query.CmdSMembers:
		return formatValues(eng.Flexible.SMembers(cmd.Key)), nil

	case query.CmdZAdd:
		eng.Flexible.ZAdd(cmd.Key, cmd.Score, cmd.Member)
		return "OK", nil
	case query.CmdZRange:
		return "[" + strings.Join(eng.Flexible.ZRange(cmd.Key, cmd.Start, cmd.Stop), ", ") + "]", nil
	case query.CmdZScore:
		score, ok := eng.Flexible.ZScore(cmd.Key, cmd.Member)
		if !ok {
			return "nil", nil
		}
		return strconv.FormatFloat(score, 'g', -1, 64), nil

	case query.CmdJSONGet:
		v, ok := eng.Flexible.JSONGet(cmd.Key, cmd.Path)
		if !ok {
			return "nil", nil
		}
		return v.String(), nil
	case query.CmdJSONSet:
		var decoded interface{}
		if !isValidJSON(cmd.Value, &decoded) {
			return "ERROR: Invalid JSON value", nil
		}
		ok := eng.Flexible.JSONSet(cmd.Key, cmd.Path, jsonToValue(decoded))
		if ok {
			return "(integer) 1", nil
		}
		return "(integer) 0", nil

	case query.CmdCreateTable:
		if err := eng.Structured.CreateTable(cmd.Table, cmd.Columns); err != nil {
			return "ERROR: " + err.Error(), nil
		}
		return "OK", nil
	case query.CmdAlterTable:
		if err := eng.Structured.AlterTable(cmd.Table, *cmd.AlterOp); err != nil {
			return "ERROR: " + err.Error(), nil
		}
		return "OK", nil
	case query.CmdInsert:
		if _, err := eng.Structured.Insert(cmd.Table, cmd.InsertVal); err != nil {
			return "ERROR: " + err.Error(), nil
		}
		return "OK", nil
	case query.CmdSelect:
		rows, _, err := eng.Structured.Select(cmd.Table, cmd.Selector, cmd.Joins, cmd.Filter, cmd.GroupBy, cmd.Having, cmd.OrderBy, cmd.Limit, cmd.Offset)
		if err != nil {
			return "ERROR: " + err.Error(), nil
		}
		return renderRows(rows), nil
	case query.CmdVectorSearch:
		k := 10
		if cmd.Count != nil {
			k = int(*cmd.Count)
		}
		rows, scores, err := eng.Structured.VectorSearch(cmd.Table, cmd.Field, cmd.Vector, k)
		if err != nil {
			return "ERROR: " + err.Error(), nil
		}
		return renderScoredRows(rows, scores), nil
	case query.CmdUpdate:
		if _, err := eng.Structured.Update(cmd.Table, cmd.Filter, cmd.SetCol, cmd.SetVal); err != nil {
			return "ERROR: " + err.Error(), nil
		}
		return "OK", nil
	case query.CmdDelete:
		if _, err := eng.Structured.Delete(cmd.Table, cmd.Filter); err != nil {
			return "ERROR: " + err.Error(), nil
		}
		return "OK", nil
	case query.CmdCreateIndex:
		if err := eng.Structured.CreateIndex(cmd.Table, cmd.Field); err != nil {
			return "ERROR: " + err.Error(), nil
		}
		return "OK", nil

	case query.CmdClientList:
		return ex.dispatchClientList(eng), nil
	case query.CmdClientKill:
		eng.KillClient(cmd.Addr)
		return "OK", nil

	default:
		return "ERROR: unsupported command", nil
	}
}

func popCount(cmd query.Command) int {
	if cmd.Count != nil {
		return int(*cmd.Count)
	}
	return 1
}

func (ex *Executor) dispatchReplicaOf(eng *engine.Engine, cmd query.Command) (string, *string) {
	if strings.EqualFold(cmd.Host, "NO") && strings.EqualFold(cmd.Port, "ONE") {
		eng.Replication.SetMaster()
		return "OK", nil
	}
	port := cmd.PortNum
	if port == 0 {
		if p, err := strconv.ParseUint(cmd.Port, 10, 16); err == nil {
			port = uint16(p)
		} else {
			return "ERROR: Invalid port", nil
		}
	}
	eng.Replication.SetReplicaOf(cmd.Host, port)
	marker := "_CONNECT_TO_MASTER"
	return "OK", &marker
}

func (ex *Executor) dispatchSave(eng *engine.Engine) string {
	data := snapshot.Build(eng, time.Now().Unix())
	if err := snapshot.Save(data, snapshotPath(ex, eng.DBName)); err != nil {
		return "ERROR: " + err.Error()
	}
	return "OK"
}

// dispatchRewriteAof is fire-and-forget: Log.Rewrite enqueues onto the
// writer goroutine's channel and returns immediately, so a compaction
// failure surfaces only in the server log, not in this response (the
// asynchronous batched-writer design has no synchronous error path back to
// the command that triggered it).
func (ex *Executor) dispatchRewriteAof(eng *engine.Engine, cmdLog *commandlog.Log) string {
	if cmdLog != nil {
		cmdLog.Rewrite(eng.GenerateRewriteCommands())
	}
	return "OK"
}

func (ex *Executor) dispatchInfo(eng *engine.Engine) string {
	role := eng.Replication.GetRoleString()
	return fmt.Sprintf(
		"# Server\r\nversion:0.1.0\r\n\r\n# Clients\r\nconnected_clients:%d\r\nmax_clients:%d\r\n\r\n# Replication\r\n%s\r\nconnected_replicas:%d\r\n",
		eng.ClientCount(), eng.MaxConnections, role, eng.Replication.ReplicaCount())
}

func (ex *Executor) dispatchClusterSlots(eng *engine.Engine) string {
	nodes := eng.Cluster.NodeAddrs()
	var b strings.Builder
	for addr, ranges := range nodes {
		for _, r := range ranges {
			fmt.Fprintf(&b, "%d-%d %s\n", r.Start, r.End, addr)
		}
	}
	if b.Len() == 0 {
		return "0-16383 127.0.0.1:8569 (standalone)\n"
	}
	return b.String()
}

func (ex *Executor) dispatchClientList(eng *engine.Engine) string {
	var b strings.Builder
	for _, c := range eng.Clients() {
		fmt.Fprintf(&b, "addr=%s user=%s age=%ds\n", c.Addr, c.User, int(time.Since(c.ConnectedAt).Seconds()))
	}
	return b.String()
}
