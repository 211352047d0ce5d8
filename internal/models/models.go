package models

// Value is a generic decoded JSON value.
// This can be nil, a bool, an integer, a float, a string, an Array or an Object.
type Value = interface{}

// Object represents a JSON object, which is a map of strings to Values.
type Object map[string]Value

// Array represents a JSON array, which is a slice of Values.
type Array []Value

// Tag names one of the primitive shape categories a Value can take.
type Tag string

const (
	Null    Tag = "null"
	Boolean Tag = "boolean"
	Integer Tag = "integer"
	Float   Tag = "float"
	String  Tag = "string"
	ArrayT  Tag = "array"
	ObjectT Tag = "object"

	// Missing is reported for object properties that are absent altogether.
	// It is never the tag of a real value.
	Missing Tag = "missing"
)

// AllTags lists the real tags in canonical order.
var AllTags = []Tag{Null, Boolean, Integer, Float, String, ArrayT, ObjectT}

// ParseTag converts a tag name as written in schema documents into a Tag.
func ParseTag(name string) (Tag, bool) {
	for _, t := range AllTags {
		if string(t) == name {
			return t, true
		}
	}
	return "", false
}

// TagOf reports the runtime tag of v. The second result is false when v is
// not a type that can appear in a decoded tree.
func TagOf(v Value) (Tag, bool) {
	switch v.(type) {
	case nil:
		return Null, true
	case bool:
		return Boolean, true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Integer, true
	case float32, float64:
		return Float, true
	case string:
		return String, true
	case Array, []interface{}:
		return ArrayT, true
	case Object, map[string]interface{}:
		return ObjectT, true
	default:
		return "", false
	}
}

// AsArray returns v as an Array if it is one (plain []interface{} included).
func AsArray(v Value) (Array, bool) {
	switch a := v.(type) {
	case Array:
		return a, true
	case []interface{}:
		return Array(a), true
	}
	return nil, false
}

// AsObject returns v as an Object if it is one (plain map[string]interface{} included).
func AsObject(v Value) (Object, bool) {
	switch o := v.(type) {
	case Object:
		return o, true
	case map[string]interface{}:
		return Object(o), true
	}
	return nil, false
}

// AsInt64 returns the integer held by v widened to int64.
// Unsigned values above the int64 range report false.
func AsInt64(v Value) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return uint64ToInt64(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return uint64ToInt64(n)
	}
	return 0, false
}

func uint64ToInt64(n uint64) (int64, bool) {
	if n > 1<<63-1 {
		return 0, false
	}
	return int64(n), true
}

// AsFloat64 returns the float held by v widened to float64.
func AsFloat64(v Value) (float64, bool) {
	switch f := v.(type) {
	case float32:
		return float64(f), true
	case float64:
		return f, true
	}
	return 0, false
}

// IntermediateRepresentation holds a decoded document together with the
// number of bytes it was decoded from.
type IntermediateRepresentation struct {
	Root        Value
	RootIsArray bool // True if the root of the JSON is an array vs an object
	Size        int
}
