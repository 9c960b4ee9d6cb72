package executor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/unsetsoft/toridb/pkg/value"
)

// parseJSONOrString mirrors executor.rs's Set/SetEx handling: try to parse
// the raw text as JSON, falling back to storing it as a plain string.
func parseJSONOrString(raw string) value.Value {
	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return value.String(raw)
	}
	return jsonToValue(decoded)
}

func jsonToValue(v interface{}) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(t)
	case float64:
		if t == float64(int64(t)) {
			return value.Int(int64(t))
		}
		return value.Float(t)
	case string:
		return value.String(t)
	case []interface{}:
		out := make([]value.Value, len(t))
		for i, e := range t {
			out[i] = jsonToValue(e)
		}
		return value.Array(out)
	case map[string]interface{}:
		obj := value.NewObject()
		for k, e := range t {
			obj.Set(k, jsonToValue(e))
		}
		return value.ObjectValue(obj)
	default:
		return value.Null()
	}
}

func formatValues(vs []value.Value) string {
	if len(vs) == 0 {
		return "[]"
	}
	out := "["
	for i, v := range vs {
		if i > 0 {
			out += ", "
		}
		out += v.String()
	}
	return out + "]"
}

// valueOrString renders a flexible-store value the way GET/HGET respond:
// a String value is returned bare, everything else via its canonical form.
func valueOrString(v value.Value) string {
	if v.Kind() == value.KindString {
		return v.AsString()
	}
	return v.String()
}

func objectString(obj *value.Object) string {
	return value.ObjectValue(obj).String()
}

// isValidJSON reports whether raw parses as JSON, decoding into out.
func isValidJSON(raw string, out *interface{}) bool {
	return json.Unmarshal([]byte(raw), out) == nil
}

// renderRows renders SELECT results the way executor.rs does:
// one bracketed row per line, or "EMPTY" when there are none.
func renderRows(rows [][]value.Value) string {
	if len(rows) == 0 {
		return "EMPTY"
	}
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = formatValues(row)
	}
	return strings.Join(lines, "\n")
}

// renderScoredRows renders VECTOR SEARCH results: one "(score: 0.xxxx) v1 v2
// …" line per row, matching vector_search's documented output format.
func renderScoredRows(rows [][]value.Value, scores []float64) string {
	if len(rows) == 0 {
		return "EMPTY"
	}
	lines := make([]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = v.String()
		}
		lines[i] = fmt.Sprintf("(score: %.4f) %s", scores[i], strings.Join(cells, " "))
	}
	return strings.Join(lines, "\n")
}
