// Package flexible implements FlexibleStore, the concurrent key-value plane
// covering strings/counters, lists, hashes, sets, sorted sets, and JSON
// documents, with optional per-key TTL and approximated LRU eviction.
//
// Grounded on _examples/original_source/src/core/flexible.rs.
package flexible

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/unsetsoft/toridb/pkg/value"
)

const defaultMaxKeys = 10000

// evictionSampleSize is the fixed number of candidate entries sampled for
// approximated-LRU eviction; spec.md §4.1 fixes this at 5, not configurable.
const evictionSampleSize = 5

type entry struct {
	value        value.Value
	lastAccessed time.Time
}

type zmember struct {
	score  float64
	member string
}

// Store is the flexible key-value plane for one database engine.
type Store struct {
	mu      sync.RWMutex
	data    map[string]*entry
	expiry  map[string]time.Time
	zsets   map[string][]zmember
	maxKeys int
}

// New returns an empty Store with the given key capacity (<=0 uses the
// default of 10000, matching DB_MAX_KEYS's documented default).
func New(maxKeys int) *Store {
	if maxKeys <= 0 {
		maxKeys = defaultMaxKeys
	}
	return &Store{
		data:    make(map[string]*entry),
		expiry:  make(map[string]time.Time),
		zsets:   make(map[string][]zmember),
		maxKeys: maxKeys,
	}
}

func (s *Store) touch(key string) {
	if e, ok := s.data[key]; ok {
		e.lastAccessed = time.Now()
	}
}

// expireIfNeededLocked reports and lazily removes an expired key. Caller holds s.mu (write).
func (s *Store) expireIfNeededLocked(key string) bool {
	exp, ok := s.expiry[key]
	if !ok {
		return false
	}
	if time.Now().Before(exp) {
		return false
	}
	delete(s.data, key)
	delete(s.expiry, key)
	delete(s.zsets, key)
	return true
}

// evictIfNeededLocked samples up to evictionSampleSize entries and evicts the
// one with the smallest last_accessed, if the store is at capacity and key
// is a genuinely new key. Caller holds s.mu (write).
func (s *Store) evictIfNeededLocked(key string) {
	if _, exists := s.data[key]; exists {
		return
	}
	if len(s.data) < s.maxKeys {
		return
	}
	var victim string
	var victimTime time.Time
	sampled := 0
	for k, e := range s.data {
		if sampled == 0 || e.lastAccessed.Before(victimTime) {
			victim = k
			victimTime = e.lastAccessed
		}
		sampled++
		if sampled >= evictionSampleSize {
			break
		}
	}
	if sampled > 0 {
		delete(s.data, victim)
		delete(s.expiry, victim)
		delete(s.zsets, victim)
	}
}

// Set stores v at key, clearing any existing TTL.
func (s *Store) Set(key string, v value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictIfNeededLocked(key)
	delete(s.expiry, key)
	s.data[key] = &entry{value: v, lastAccessed: time.Now()}
}

// SetWithTTL stores v at key with an expiry ttlSecs in the future.
func (s *Store) SetWithTTL(key string, v value.Value, ttlSecs uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictIfNeededLocked(key)
	s.data[key] = &entry{value: v, lastAccessed: time.Now()}
	s.expiry[key] = time.Now().Add(time.Duration(ttlSecs) * time.Second)
}

// Get returns the value stored at key, or false if missing or expired.
func (s *Store) Get(key string) (value.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expireIfNeededLocked(key) {
		return value.Null(), false
	}
	e, ok := s.data[key]
	if !ok {
		return value.Null(), false
	}
	e.lastAccessed = time.Now()
	return e.value, true
}

// Del removes the given keys, returning the count actually removed.
func (s *Store) Del(keys ...string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, k := range keys {
		s.expireIfNeededLocked(k)
		if _, ok := s.data[k]; ok {
			delete(s.data, k)
			delete(s.expiry, k)
			delete(s.zsets, k)
			count++
		}
	}
	return count
}

// TTL returns remaining whole seconds, -1 if no expiry, or -2 if missing.
func (s *Store) TTL(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expireIfNeededLocked(key) {
		return -2
	}
	if _, ok := s.data[key]; !ok {
		return -2
	}
	exp, ok := s.expiry[key]
	if !ok {
		return -1
	}
	remaining := time.Until(exp)
	if remaining < 0 {
		return 0
	}
	return int64(remaining.Seconds())
}

// Incr adds delta to the integer at key (treating missing/non-integer as 0)
// and returns the new value.
func (s *Store) Incr(key string, delta int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireIfNeededLocked(key)
	var cur int64
	if e, ok := s.data[key]; ok && e.value.Kind() == value.KindInt {
		cur = e.value.AsInt()
	}
	next := cur + delta
	s.evictIfNeededLocked(key)
	s.data[key] = &entry{value: value.Int(next), lastAccessed: time.Now()}
	return next
}

// LPush prepends values one-by-one (so the last argument ends up at index 0).
func (s *Store) LPush(key string, values ...string) int64 {
	return s.pushList(key, values, true)
}

// RPush appends values in argument order.
func (s *Store) RPush(key string, values ...string) int64 {
	return s.pushList(key, values, false)
}

func (s *Store) pushList(key string, values []string, left bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireIfNeededLocked(key)
	var list []value.Value
	if e, ok := s.data[key]; ok && e.value.Kind() == value.KindArray {
		list = append([]value.Value{}, e.value.AsArray()...)
	}
	for _, v := range values {
		item := value.String(v)
		if left {
			list = append([]value.Value{item}, list...)
		} else {
			list = append(list, item)
		}
	}
	s.evictIfNeededLocked(key)
	s.data[key] = &entry{value: value.Array(list), lastAccessed: time.Now()}
	return int64(len(list))
}

// LPop removes and returns up to n elements from the front.
func (s *Store) LPop(key string, n int) []value.Value {
	return s.popList(key, n, true)
}

// RPop removes and returns up to n elements from the back.
func (s *Store) RPop(key string, n int) []value.Value {
	return s.popList(key, n, false)
}

func (s *Store) popList(key string, n int, left bool) []value.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireIfNeededLocked(key)
	e, ok := s.data[key]
	if !ok || e.value.Kind() != value.KindArray {
		return nil
	}
	list := e.value.AsArray()
	if n > len(list) {
		n = len(list)
	}
	if n <= 0 {
		return nil
	}
	var popped []value.Value
	var rest []value.Value
	if left {
		popped = append([]value.Value{}, list[:n]...)
		rest = list[n:]
	} else {
		popped = append([]value.Value{}, list[len(list)-n:]...)
		rest = list[:len(list)-n]
	}
	e.value = value.Array(rest)
	e.lastAccessed = time.Now()
	return popped
}

// LRange returns the inclusive [start,stop] slice, with negative indices
// counting from the tail; returns empty if start>stop after clamping.
func (s *Store) LRange(key string, start, stop int64) []value.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireIfNeededLocked(key)
	e, ok := s.data[key]
	if !ok || e.value.Kind() != value.KindArray {
		return nil
	}
	list := e.value.AsArray()
	n := int64(len(list))
	start = clampIndex(start, n)
	stop = clampIndex(stop, n)
	if start > stop || start >= n || n == 0 {
		return nil
	}
	if stop >= n {
		stop = n - 1
	}
	if start < 0 {
		start = 0
	}
	out := make([]value.Value, stop-start+1)
	copy(out, list[start:stop+1])
	return out
}

func clampIndex(i, n int64) int64 {
	if i < 0 {
		i = n + i
	}
	if i < 0 {
		i = 0
	}
	return i
}

// HSet sets a hash field and reports whether it was a new field.
func (s *Store) HSet(key, field, val string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireIfNeededLocked(key)
	var obj *value.Object
	if e, ok := s.data[key]; ok && e.value.Kind() == value.KindObject {
		obj = e.value.AsObject()
	} else {
		s.evictIfNeededLocked(key)
		obj = value.NewObject()
	}
	_, existed := obj.Get(field)
	obj.Set(field, value.String(val))
	s.data[key] = &entry{value: value.ObjectValue(obj), lastAccessed: time.Now()}
	return !existed
}

// HGet returns a hash field value.
func (s *Store) HGet(key, field string) (value.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireIfNeededLocked(key)
	e, ok := s.data[key]
	if !ok || e.value.Kind() != value.KindObject {
		return value.Null(), false
	}
	e.lastAccessed = time.Now()
	return e.value.AsObject().Get(field)
}

// HGetAll returns the whole hash as an Object value.
func (s *Store) HGetAll(key string) (*value.Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireIfNeededLocked(key)
	e, ok := s.data[key]
	if !ok || e.value.Kind() != value.KindObject {
		return nil, false
	}
	e.lastAccessed = time.Now()
	return e.value.AsObject(), true
}

// SAdd adds members to a set, returning the count newly inserted.
func (s *Store) SAdd(key string, members ...string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireIfNeededLocked(key)
	var list []value.Value
	if e, ok := s.data[key]; ok && e.value.Kind() == value.KindArray {
		list = append([]value.Value{}, e.value.AsArray()...)
	} else {
		s.evictIfNeededLocked(key)
	}
	var added int64
	for _, m := range members {
		mv := value.String(m)
		found := false
		for _, existing := range list {
			if value.Equal(existing, mv) {
				found = true
				break
			}
		}
		if !found {
			list = append(list, mv)
			added++
		}
	}
	s.data[key] = &entry{value: value.Array(list), lastAccessed: time.Now()}
	return added
}

// SMembers returns the set members.
func (s *Store) SMembers(key string) []value.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireIfNeededLocked(key)
	e, ok := s.data[key]
	if !ok || e.value.Kind() != value.KindArray {
		return nil
	}
	e.lastAccessed = time.Now()
	return e.value.AsArray()
}

// ZAdd inserts or updates a sorted-set member's score.
func (s *Store) ZAdd(key string, score float64, member string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := s.zsets[key]
	out := members[:0:0]
	for _, m := range members {
		if m.member != member {
			out = append(out, m)
		}
	}
	out = append(out, zmember{score: score, member: member})
	sort.SliceStable(out, func(i, j int) bool { return out[i].score < out[j].score })
	s.zsets[key] = out
}

// ZRange returns members in score order over the same index conventions as lists.
func (s *Store) ZRange(key string, start, stop int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := s.zsets[key]
	n := int64(len(members))
	start = clampIndex(start, n)
	stop = clampIndex(stop, n)
	if start > stop || start >= n || n == 0 {
		return nil
	}
	if stop >= n {
		stop = n - 1
	}
	if start < 0 {
		start = 0
	}
	out := make([]string, 0, stop-start+1)
	for i := start; i <= stop; i++ {
		out = append(out, members[i].member)
	}
	return out
}

// ZScore returns a member's score.
func (s *Store) ZScore(key, member string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.zsets[key] {
		if m.member == member {
			return m.score, true
		}
	}
	return 0, false
}

// JSONGet walks a "."-separated path (object field or decimal array index)
// and returns the sub-tree found there as a Value.
func (s *Store) JSONGet(key, path string) (value.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireIfNeededLocked(key)
	e, ok := s.data[key]
	if !ok {
		return value.Null(), false
	}
	e.lastAccessed = time.Now()
	cur := e.value
	if path == "" {
		return cur, true
	}
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			continue
		}
		switch cur.Kind() {
		case value.KindObject:
			v, ok := cur.AsObject().Get(seg)
			if !ok {
				return value.Null(), false
			}
			cur = v
		case value.KindArray:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(cur.AsArray()) {
				return value.Null(), false
			}
			cur = cur.AsArray()[idx]
		default:
			return value.Null(), false
		}
	}
	return cur, true
}

// JSONSet sets the value at "."-separated path, creating the leaf field in
// an already-existing parent object; no-ops (returns false) if the parent
// does not resolve to an object.
func (s *Store) JSONSet(key, path string, v value.Value) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireIfNeededLocked(key)
	e, existed := s.data[key]
	if !existed {
		e = &entry{value: value.ObjectValue(value.NewObject()), lastAccessed: time.Now()}
	}
	// A new key is stored only once the set succeeds.
	store := func() {
		if !existed {
			s.evictIfNeededLocked(key)
			s.data[key] = e
		}
	}
	if path == "" {
		e.value = v
		e.lastAccessed = time.Now()
		store()
		return true
	}
	segs := strings.Split(path, ".")
	parent := e.value
	for i := 0; i < len(segs)-1; i++ {
		if parent.Kind() != value.KindObject {
			return false
		}
		next, ok := parent.AsObject().Get(segs[i])
		if !ok {
			return false
		}
		parent = next
	}
	if parent.Kind() != value.KindObject {
		return false
	}
	parent.AsObject().Set(segs[len(segs)-1], v)
	e.lastAccessed = time.Now()
	store()
	return true
}

// Len returns the current number of keys tracked, including expired keys
// that have not yet been lazily removed.
// Matches invariant I2 as a quiescent-point observation.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Export returns a snapshot copy of key -> value for every non-expired key.
func (s *Store) Export() map[string]value.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]value.Value, len(s.data))
	for k := range s.data {
		if s.expireIfNeededLocked(k) {
			continue
		}
		out[k] = s.data[k].value
	}
	return out
}

// ImportFrom hydrates the store from a previously exported map (used by
// snapshot restore).
func (s *Store) ImportFrom(m map[string]value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range m {
		s.data[k] = &entry{value: v, lastAccessed: time.Now()}
	}
}

// DumpCommands yields a canonical sequence of SET/SETEX text commands
// sufficient to rebuild visible state, skipping expired entries.
func (s *Store) DumpCommands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for k, e := range s.data {
		if s.expireIfNeededLocked(k) {
			continue
		}
		text := e.value.String()
		if kind := e.value.Kind(); kind != value.KindString && kind != value.KindBlob {
			// JSON text, so SET's JSON-or-string parsing restores the type.
			if raw, err := e.value.MarshalJSON(); err == nil {
				text = string(raw)
			}
		}
		if exp, ok := s.expiry[k]; ok {
			remaining := time.Until(exp)
			if remaining < 0 {
				remaining = 0
			}
			out = append(out, "SETEX "+quoteIfNeeded(k)+" "+strconv.FormatInt(int64(remaining.Seconds()), 10)+" "+quoteIfNeeded(text))
		} else {
			out = append(out, "SET "+quoteIfNeeded(k)+" "+quoteIfNeeded(text))
		}
	}
	for k, members := range s.zsets {
		for _, m := range members {
			out = append(out, "ZADD "+quoteIfNeeded(k)+" "+strconv.FormatFloat(m.score, 'f', -1, 64)+" "+quoteIfNeeded(m.member))
		}
	}
	return out
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\r\"") {
		escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`).Replace(s)
		return `"` + escaped + `"`
	}
	return s
}
