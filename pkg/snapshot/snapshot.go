// Package snapshot implements whole-engine JSON dump/load, grounded on
// _examples/original_source/src/core/snapshot.rs (SnapshotManager).
package snapshot

import (
	"encoding/json"
	"os"

	"github.com/unsetsoft/toridb/pkg/flexible"
	"github.com/unsetsoft/toridb/pkg/structured"
	"github.com/unsetsoft/toridb/pkg/value"
)

// Data is the serializable shape of one database's full in-memory state.
type Data struct {
	FlexibleData   map[string]value.Value          `json:"flexible_data"`
	StructuredData map[string]structured.TableDump `json:"structured_data"`
	Timestamp      int64                            `json:"timestamp"`
}

// Engine is the minimal surface SnapshotManager needs from a database engine,
// satisfied by pkg/engine.Engine.
type Engine interface {
	FlexibleStore() *flexible.Store
	StructuredStore() *structured.Store
}

// Build collects an engine's current state into a Data value. The caller
// supplies nowUnix (time.Now().Unix()) rather than this package calling the
// clock, keeping the package itself side-effect-free and easy to test.
func Build(eng Engine, nowUnix int64) Data {
	return Data{
		FlexibleData:   eng.FlexibleStore().Export(),
		StructuredData: eng.StructuredStore().Export(),
		Timestamp:      nowUnix,
	}
}

// Save writes a pretty-printed JSON snapshot to path.
func Save(data Data, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// Load reads a JSON snapshot from path.
func Load(path string) (Data, error) {
	var data Data
	raw, err := os.ReadFile(path)
	if err != nil {
		return data, err
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, err
	}
	return data, nil
}

// Restore loads data's contents into eng: the structured plane is replaced
// wholesale, while flexible keys from data are written over the existing
// key set and keys absent from data are kept.
func Restore(eng Engine, data Data) {
	eng.FlexibleStore().ImportFrom(data.FlexibleData)
	eng.StructuredStore().Restore(data.StructuredData)
}

// ToString renders a snapshot as a compact JSON string. Only tests call it;
// replica initial sync streams rewrite commands instead of a snapshot.
func ToString(data Data) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// FromString parses a snapshot previously rendered by ToString.
func FromString(s string) (Data, error) {
	var data Data
	err := json.Unmarshal([]byte(s), &data)
	return data, err
}
