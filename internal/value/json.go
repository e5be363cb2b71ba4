package value

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// bytesKey is the out-of-band marker used to round-trip Bytes values across
// the JSON boundary: {"$bytes": "<base64 std padding>"}. It is never
// ambiguous with a String value, which is never an object.
const bytesKey = "$bytes"

// Marshal serializes v deterministically: object keys are emitted in
// insertion order and Bytes values use the $bytes side-channel rather than
// being silently treated as strings.
//
// The tree is walked with an explicit stack instead of recursion so that a
// pathologically deep Value (however it was constructed) cannot overflow
// the goroutine stack during serialization.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalInto(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// frame represents in-progress emission of a composite value.
type frame struct {
	isObject bool
	pair     *orderedmap.Pair[string, Value]
	items    []Value
	idx      int
	wroteAny bool
}

func marshalInto(buf *bytes.Buffer, root Value) error {
	stack := []*frame{}
	emit := func(v Value) error {
		switch v.kind {
		case KindNone:
			buf.WriteString("null")
		case KindBool:
			if v.bval {
				buf.WriteString("true")
			} else {
				buf.WriteString("false")
			}
		case KindNumber:
			b, err := json.Marshal(v.nval)
			if err != nil {
				return err
			}
			buf.Write(b)
		case KindString:
			b, err := json.Marshal(v.sval)
			if err != nil {
				return err
			}
			buf.Write(b)
		case KindBytes:
			buf.WriteByte('{')
			b, _ := json.Marshal(bytesKey)
			buf.Write(b)
			buf.WriteByte(':')
			enc, _ := json.Marshal(base64.StdEncoding.EncodeToString(v.bytes))
			buf.Write(enc)
			buf.WriteByte('}')
		case KindArray:
			buf.WriteByte('[')
			stack = append(stack, &frame{items: v.arr})
		case KindObject:
			buf.WriteByte('{')
			var first *orderedmap.Pair[string, Value]
			if v.obj != nil {
				first = v.obj.Oldest()
			}
			stack = append(stack, &frame{isObject: true, pair: first})
		default:
			return fmt.Errorf("value: marshal: unknown kind %v", v.kind)
		}
		return nil
	}

	if err := emit(root); err != nil {
		return err
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.isObject {
			if top.pair == nil {
				buf.WriteByte('}')
				stack = stack[:len(stack)-1]
				continue
			}
			if top.wroteAny {
				buf.WriteByte(',')
			}
			top.wroteAny = true
			kb, _ := json.Marshal(top.pair.Key)
			buf.Write(kb)
			buf.WriteByte(':')
			val := top.pair.Value
			top.pair = top.pair.Next()
			if err := emit(val); err != nil {
				return err
			}
			continue
		}

		if top.idx >= len(top.items) {
			buf.WriteByte(']')
			stack = stack[:len(stack)-1]
			continue
		}
		if top.wroteAny {
			buf.WriteByte(',')
		}
		top.wroteAny = true
		val := top.items[top.idx]
		top.idx++
		if err := emit(val); err != nil {
			return err
		}
	}

	return nil
}

// MarshalJSON lets Value be embedded directly in encoding/json structs (the
// message-exchange envelopes do this for map_input/map_vars/map_secrets and
// similar fields).
func (v Value) MarshalJSON() ([]byte, error) {
	return Marshal(v)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Unmarshal(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Unmarshal parses JSON bytes into a Value, preserving object key order and
// recognizing the $bytes side-channel. Parsing walks an explicit stack of
// in-progress composites driven by json.Decoder's token stream rather than
// recursing, for the same overflow-avoidance reason as Marshal.
func Unmarshal(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return None(), err
	}
	if _, err := dec.Token(); err == nil {
		return None(), fmt.Errorf("value: unmarshal: trailing data after top-level value")
	}
	return v, nil
}

type decodeFrame struct {
	isObject bool
	obj      *Object
	items    []Value
	pendKey  string
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return None(), err
	}
	return finishValue(dec, tok)
}

func finishValue(dec *json.Decoder, tok json.Token) (Value, error) {
	root, composite, err := startValue(tok)
	if err != nil {
		return None(), err
	}
	if composite == nil {
		return root, nil
	}

	var result Value
	attach := func(stack []*decodeFrame, finished Value) {
		if len(stack) == 0 {
			result = finished
			return
		}
		top := stack[len(stack)-1]
		if top.isObject {
			top.obj.Set(top.pendKey, finished)
			top.pendKey = ""
			return
		}
		top.items = append(top.items, finished)
	}

	stack := []*decodeFrame{composite}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.isObject {
			tok, err := dec.Token()
			if err != nil {
				return None(), err
			}
			if delim, ok := tok.(json.Delim); ok && delim == '}' {
				finished := objectToValue(top.obj)
				stack = stack[:len(stack)-1]
				attach(stack, finished)
				continue
			}
			key, ok := tok.(string)
			if !ok {
				return None(), fmt.Errorf("value: unmarshal: expected object key, got %v", tok)
			}
			vtok, err := dec.Token()
			if err != nil {
				return None(), err
			}
			child, childComposite, err := startValue(vtok)
			if err != nil {
				return None(), err
			}
			if childComposite == nil {
				top.obj.Set(key, child)
				continue
			}
			top.pendKey = key
			stack = append(stack, childComposite)
			continue
		}

		// array frame
		tok, err := dec.Token()
		if err != nil {
			return None(), err
		}
		if delim, ok := tok.(json.Delim); ok && delim == ']' {
			finished := Array(top.items)
			stack = stack[:len(stack)-1]
			attach(stack, finished)
			continue
		}
		child, childComposite, err := startValue(tok)
		if err != nil {
			return None(), err
		}
		if childComposite == nil {
			top.items = append(top.items, child)
			continue
		}
		stack = append(stack, childComposite)
	}

	return result, nil
}

// startValue interprets a single decoder token. For scalars it returns the
// finished Value directly. For '{' or '[' it returns a fresh decodeFrame to
// push, signalling the caller to keep decoding the composite's children.
func startValue(tok json.Token) (Value, *decodeFrame, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return None(), &decodeFrame{isObject: true, obj: orderedmap.New[string, Value]()}, nil
		case '[':
			return None(), &decodeFrame{items: []Value{}}, nil
		default:
			return None(), nil, fmt.Errorf("value: unmarshal: unexpected delimiter %v", t)
		}
	case nil:
		return None(), nil, nil
	case bool:
		return Bool(t), nil, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return None(), nil, err
		}
		return Number(f), nil, nil
	case string:
		return String(t), nil, nil
	default:
		return None(), nil, fmt.Errorf("value: unmarshal: unsupported token %T", tok)
	}
}

// objectToValue converts a decoded object frame into a Value, unwrapping the
// $bytes side-channel when that is the object's exact shape.
func objectToValue(obj *Object) Value {
	if obj.Len() == 1 {
		if pair := obj.Oldest(); pair.Key == bytesKey {
			if s, ok := pair.Value.String(); ok {
				if raw, err := base64.StdEncoding.DecodeString(s); err == nil {
					return Bytes(raw)
				}
			}
		}
	}
	return Object2(obj)
}
