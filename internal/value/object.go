package value

import orderedmap "github.com/wk8/go-ordered-map/v2"

// ObjectBuilder accumulates key/value pairs in insertion order and produces
// an Object Value. It exists so call sites that build small fixed objects
// (perform input/output envelopes, security secrets) read linearly instead
// of through repeated Set calls on a raw *Object.
type ObjectBuilder struct {
	om *Object
}

func NewObjectBuilder() *ObjectBuilder {
	return &ObjectBuilder{om: orderedmap.New[string, Value]()}
}

func (b *ObjectBuilder) Set(key string, v Value) *ObjectBuilder {
	b.om.Set(key, v)
	return b
}

func (b *ObjectBuilder) Build() Value {
	return Object2(b.om)
}

// Keys returns the object's keys in insertion order, or nil if v is not an
// Object.
func Keys(v Value) []string {
	obj, ok := v.ObjectVal()
	if !ok || obj == nil {
		return nil
	}
	out := make([]string, 0, obj.Len())
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}
