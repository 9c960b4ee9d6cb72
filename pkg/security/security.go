package security

import (
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/unsetsoft/toridb/pkg/query"
)

// User is one ACL entry: a username, a bcrypt password hash, and an ordered
// list of Redis-style permission rules.
type User struct {
	Username string
	Password string // always a bcrypt hash once stored
	Rules    []string
}

// bcryptPrefixes are the hash-identifier prefixes bcrypt.GenerateFromPassword
// produces; used to detect an already-hashed password during log replay.
var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

func isBcryptHash(s string) bool {
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// permissionTag maps a command to the rule name that authorizes it, per the
// table in security.rs's User::can_execute.
func permissionTag(k query.Kind) string {
	switch k {
	case query.CmdReplicaOf, query.CmdPsync:
		return "admin"
	case query.CmdSet:
		return "set"
	case query.CmdGet:
		return "get"
	case query.CmdTTL:
		return "ttl"
	case query.CmdIncr:
		return "incr"
	case query.CmdDecr:
		return "decr"
	case query.CmdLPush:
		return "lpush"
	case query.CmdRPush:
		return "rpush"
	case query.CmdLPop:
		return "lpop"
	case query.CmdRPop:
		return "rpop"
	case query.CmdLRange:
		return "lrange"
	case query.CmdHSet:
		return "hset"
	case query.CmdHGet:
		return "hget"
	case query.CmdHGetAll:
		return "hgetall"
	case query.CmdSAdd:
		return "sadd"
	case query.CmdSMembers:
		return "smembers"
	case query.CmdZAdd:
		return "zadd"
	case query.CmdZRange:
		return "zrange"
	case query.CmdZScore:
		return "zscore"
	case query.CmdJSONGet:
		return "jsonget"
	case query.CmdJSONSet:
		return "jsonset"
	case query.CmdCreateTable:
		return "createtable"
	case query.CmdAlterTable:
		return "altertable"
	case query.CmdInsert:
		return "insert"
	case query.CmdSelect, query.CmdVectorSearch:
		return "select"
	case query.CmdUpdate:
		return "update"
	case query.CmdDelete, query.CmdDel:
		return "delete"
	case query.CmdCreateIndex:
		return "createindex"
	case query.CmdAclSetUser, query.CmdAclList, query.CmdAclGetUser, query.CmdAclDelUser:
		return "acl"
	case query.CmdAuth:
		return "auth"
	case query.CmdPing:
		return "ping"
	case query.CmdSave:
		return "save"
	case query.CmdRewriteAof:
		return "rewriteaof"
	case query.CmdSetEx:
		return "setex"
	case query.CmdClientList, query.CmdClientKill:
		return "client"
	case query.CmdInfo:
		return "info"
	case query.CmdClusterInfo, query.CmdClusterSlots, query.CmdClusterMeet, query.CmdClusterAddSlots:
		return "cluster"
	case query.CmdUse:
		return "use"
	case query.CmdBegin, query.CmdCommit, query.CmdRollback:
		return "transaction"
	default:
		return "unknown"
	}
}

// CanExecute reports whether u is authorized for cmd, per the rule order:
// "+@all" grants everything; an explicit "-tag" denies; an explicit "+tag"
// grants; absent any matching rule, access is denied by default.
func (u *User) CanExecute(k query.Kind) bool {
	tag := permissionTag(k)
	for _, r := range u.Rules {
		if r == "+@all" {
			return true
		}
	}
	for _, r := range u.Rules {
		if r == "-"+tag {
			return false
		}
	}
	for _, r := range u.Rules {
		if r == "+"+tag {
			return true
		}
	}
	return false
}

// Store is the user/ACL registry for one database engine.
type Store struct {
	mu    sync.RWMutex
	users map[string]User
}

// New returns a Store seeded with a "default" superuser. The password comes
// from the DB_PASSWORD environment variable, defaulting to "secret".
func New() *Store {
	s := &Store{users: make(map[string]User)}
	pass := os.Getenv("DB_PASSWORD")
	if pass == "" {
		pass = "secret"
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	hash := "bcrypt_failed"
	if err == nil {
		hash = string(hashed)
	}
	s.users["default"] = User{Username: "default", Password: hash, Rules: []string{"+@all"}}
	return s
}

// Authenticate reports whether password matches the stored hash for username.
func (s *Store) Authenticate(username, password string) bool {
	s.mu.RLock()
	u, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// GetUser returns a copy of a user record.
func (s *Store) GetUser(username string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	return u, ok
}

// SetUser creates or replaces a user. If password is already a bcrypt hash
// (as happens during command-log replay, where the logged text already holds
// the hash rather than the plaintext) it is stored as-is; otherwise it is
// hashed first. Returns the stored hash, for the caller to substitute into
// the command-log/replication text in place of the plaintext password.
func (s *Store) SetUser(username, password string, rules []string) string {
	if isBcryptHash(password) {
		s.mu.Lock()
		s.users[username] = User{Username: username, Password: password, Rules: rules}
		s.mu.Unlock()
		return password
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "error"
	}
	s.mu.Lock()
	s.users[username] = User{Username: username, Password: string(hashed), Rules: rules}
	s.mu.Unlock()
	return string(hashed)
}

// DeleteUser removes a user.
func (s *Store) DeleteUser(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, username)
}

// ListUsers returns all usernames.
func (s *Store) ListUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.users))
	for name := range s.users {
		out = append(out, name)
	}
	return out
}
