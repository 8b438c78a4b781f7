package model

import "strings"

// Key identifies one fluent application: a fluent name plus the ordered
// object arguments it is applied to. Keys are immutable once formed; the
// set of possible keys is the cartesian product of each fluent signature
// over the registered objects of the matching types.
type Key struct {
	Fluent string
	Args   []string
}

// NewKey builds a key from a fluent name and object names.
func NewKey(fluent string, args ...string) Key {
	return Key{Fluent: fluent, Args: args}
}

// String renders the key in canonical form, e.g. "robot_at(r0,p1)".
// The canonical form is used as the map key in the state store and in
// the persisted run log, so it must stay stable.
func (k Key) String() string {
	if len(k.Args) == 0 {
		return k.Fluent + "()"
	}
	var sb strings.Builder
	sb.WriteString(k.Fluent)
	sb.WriteByte('(')
	for i, a := range k.Args {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(a)
	}
	sb.WriteByte(')')
	return sb.String()
}

// EqualKeys reports whether two keys name the same fluent application.
func EqualKeys(a, b Key) bool {
	if a.Fluent != b.Fluent || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if a.Args[i] != b.Args[i] {
			return false
		}
	}
	return true
}
