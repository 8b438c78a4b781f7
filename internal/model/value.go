package model

import "strconv"

// Kind identifies the value type of a fluent.
type Kind int

const (
	// KindBool is a boolean-valued fluent.
	KindBool Kind = iota + 1
	// KindInt is an integer-valued fluent. Always int64, never float
	// (floats break deterministic replay).
	KindInt
)

// String returns the kind name used in documents and error messages.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	default:
		return "unknown"
	}
}

// Value is a sealed interface over the two fluent value types.
// Only Bool and Int implement it.
type Value interface {
	value() // Sealed - only these types implement it

	// Kind reports which fluent kind this value belongs to.
	Kind() Kind

	// String renders the value in canonical text form ("true", "-3").
	String() string
}

// Bool is a boolean fluent value.
type Bool bool

func (Bool) value() {}

// Kind returns KindBool.
func (Bool) Kind() Kind { return KindBool }

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// Int is an integer fluent value.
type Int int64

func (Int) value() {}

// Kind returns KindInt.
func (Int) Kind() Kind { return KindInt }

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Equal reports whether two values have the same kind and content.
// A nil on either side is never equal to anything.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return false
	}
	switch av := a.(type) {
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	default:
		return false
	}
}

// ParseValue converts a decoded document scalar into a Value.
// Accepts bool and the integer types produced by the YAML and CUE
// decoders. Floats are rejected - fluents are bool or int64 only.
func ParseValue(raw any) (Value, bool) {
	switch v := raw.(type) {
	case bool:
		return Bool(v), true
	case int:
		return Int(v), true
	case int64:
		return Int(v), true
	case uint64:
		if v > 1<<63-1 {
			return nil, false
		}
		return Int(int64(v)), true
	default:
		return nil, false
	}
}
