// Package value implements the tagged recursive value used on every boundary
// of the core: between the core and the host, and between the core and the
// map interpreter. See HostValue / MapValue in the runtime design: a single
// Go type plays both roles since the wire shape is identical.
package value

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind discriminates the variant held by a Value.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindNumber
	KindString
	KindBytes
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Object preserves insertion order end to end, matching the wire contract
// that object keys are emitted and observed in the order they were first
// set. A plain Go map cannot give this guarantee since its iteration order
// is deliberately randomized.
type Object = orderedmap.OrderedMap[string, Value]

// Value is a tagged recursive union. Exactly one of the typed fields is
// meaningful, selected by Kind; constructors below are the only supported
// way to build one so that an invalid combination can't be assembled by
// hand.
type Value struct {
	kind   Kind
	bval   bool
	nval   float64
	sval   string
	bytes  []byte
	arr    []Value
	obj    *Object
}

func None() Value { return Value{kind: KindNone} }

func Bool(b bool) Value { return Value{kind: KindBool, bval: b} }

func Number(n float64) Value { return Value{kind: KindNumber, nval: n} }

func String(s string) Value { return Value{kind: KindString, sval: s} }

func Bytes(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBytes, bytes: cp}
}

func Array(items []Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindArray, arr: cp}
}

// NewObject returns an empty, ready to use object Value.
func NewObject() Value {
	return Value{kind: KindObject, obj: orderedmap.New[string, Value]()}
}

func Object2(om *Object) Value {
	if om == nil {
		om = orderedmap.New[string, Value]()
	}
	return Value{kind: KindObject, obj: om}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNone() bool { return v.kind == KindNone }

func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.bval, true
}

func (v Value) Number() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.nval, true
}

func (v Value) String() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.sval, true
}

func (v Value) Bytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return v.bytes, true
}

func (v Value) Array() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

func (v Value) ObjectVal() (*Object, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// Get returns the value stored at key when v is an Object, or None
// otherwise. The ok result distinguishes an absent key from one whose
// value is itself None.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject || v.obj == nil {
		return None(), false
	}
	return v.obj.Get(key)
}

// Equal compares two values structurally. Bytes compare byte-wise; objects
// compare by key/value pairs regardless of order (order is a serialization
// concern, not an identity one).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNone:
		return true
	case KindBool:
		return a.bval == b.bval
	case KindNumber:
		return a.nval == b.nval
	case KindString:
		return a.sval == b.sval
	case KindBytes:
		if len(a.bytes) != len(b.bytes) {
			return false
		}
		for i := range a.bytes {
			if a.bytes[i] != b.bytes[i] {
				return false
			}
		}
		return true
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.obj == nil || b.obj == nil {
			return a.obj == b.obj
		}
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		for pair := a.obj.Oldest(); pair != nil; pair = pair.Next() {
			bv, ok := b.obj.Get(pair.Key)
			if !ok || !Equal(pair.Value, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
