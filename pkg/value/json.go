package value

import (
	"encoding/json"
	"fmt"
)

// FromJSON converts a decoded JSON tree (as produced by encoding/json's
// generic unmarshal into interface{}) into a Value.
func FromJSON(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case float64:
		if t == float64(int64(t)) {
			return Int(int64(t))
		}
		return Float(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i)
		}
		f, _ := t.Float64()
		return Float(f)
	case string:
		return String(t)
	case []interface{}:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = FromJSON(e)
		}
		return Array(out)
	case map[string]interface{}:
		obj := NewObject()
		for k, v := range t {
			obj.Set(k, FromJSON(v))
		}
		return ObjectValue(obj)
	default:
		return Null()
	}
}

// ParseJSON parses a JSON document into a Value, returning Null on failure.
func ParseJSON(text string) Value {
	var raw interface{}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return Null()
	}
	return FromJSON(raw)
}

// ToJSON renders v back to its native JSON representation.
func (v Value) ToJSON() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt, KindDateTime:
		return v.i
	case KindFloat:
		return v.f
	case KindString, KindBlob:
		return v.s
	case KindArray:
		out := make([]interface{}, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.ToJSON()
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, v.obj.Len())
		for _, k := range v.obj.Keys() {
			val, _ := v.obj.Get(k)
			out[k] = val.ToJSON()
		}
		return out
	case KindVector:
		out := make([]interface{}, len(v.vector))
		for i, f := range v.vector {
			out[i] = f
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToJSON())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("value: unmarshal: %w", err)
	}
	*v = FromJSON(raw)
	return nil
}
