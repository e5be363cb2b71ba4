// Package perform implements the perform pipeline: the state machine that
// turns one host-provided perform-input into a perform-output, driving the
// security engine, provider/map registry, and interpreter bridge in between.
package perform

import "github.com/oneclient/core-go/internal/value"

// Result is the outcome of classifying a map's evaluated return value (step
// 7). Exactly one of Ok/Err is meaningful, selected by IsErr; a runtime
// failure never reaches Result at all — Run sends it to the host as a
// perform-output Err carrying the exception's code and message.
type Result struct {
	Value value.Value
	IsErr bool
}

func Ok(v value.Value) Result  { return Result{Value: v} }
func Err(v value.Value) Result { return Result{Value: v, IsErr: true} }
