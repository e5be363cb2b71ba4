package bridge

import (
	"context"
	"net/url"
	"strings"

	"github.com/oneclient/core-go/internal/value"
)

// recordToURLEncoded implements record_to_urlencoded(obj) -> string: obj
// maps string keys to arrays of strings, emitted as
// application/x-www-form-urlencoded with repeated keys, preserving both key
// insertion order and within-key element order. Non-string values are a
// bridge type error.
func recordToURLEncoded(_ context.Context, args []value.Value) (value.Value, error) {
	if err := wantArgs("record_to_urlencoded", args, 1); err != nil {
		return value.None(), err
	}
	obj, ok := args[0].ObjectVal()
	if !ok {
		return value.None(), &TypeError{Func: "record_to_urlencoded", Want: "object", Got: args[0].Kind().String()}
	}

	var b strings.Builder
	first := true
	if obj != nil {
		for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
			items, ok := pair.Value.Array()
			if !ok {
				return value.None(), &TypeError{Func: "record_to_urlencoded", Want: "array of strings", Got: pair.Value.Kind().String()}
			}
			for _, item := range items {
				s, ok := item.String()
				if !ok {
					return value.None(), &TypeError{Func: "record_to_urlencoded", Want: "string element", Got: item.Kind().String()}
				}
				if !first {
					b.WriteByte('&')
				}
				first = false
				b.WriteString(url.QueryEscape(pair.Key))
				b.WriteByte('=')
				b.WriteString(url.QueryEscape(s))
			}
		}
	}
	return value.String(b.String()), nil
}
