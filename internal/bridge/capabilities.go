package bridge

import (
	"context"
	"encoding/base64"
	"strconv"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"github.com/oneclient/core-go/internal/streams"
	"github.com/oneclient/core-go/internal/value"
)

// MessageHandler routes a message_exchange capability call into the core's
// internal message handler by kind. Unlike stream_read/write/close, which
// forward straight to the host, message_exchange requests (e.g. http-fetch)
// may need core-side processing — applying the resolved security map to an
// outgoing HttpRequest — before anything reaches the host transport.
type MessageHandler interface {
	Handle(ctx context.Context, req []byte) ([]byte, error)
}

// Dependencies are the concrete collaborators capabilities forward into: the
// stream registry (4.D) and the internal message handler (4.B, possibly
// security-augmented). The logger is the shared logrus instance so
// printDebug/print flow through the same event buffers as everything else.
type Dependencies struct {
	Streams *streams.Registry
	Handler MessageHandler
	Logger  *log.Logger
}

func printDebug(deps Dependencies) HostFunc {
	return func(_ context.Context, args []value.Value) (value.Value, error) {
		fields := make(log.Fields, len(args))
		for i, a := range args {
			fields[strconv.Itoa(i)] = formatForDebug(a)
		}
		deps.logger().WithFields(fields).Debug("printDebug")
		return value.None(), nil
	}
}

func print_(deps Dependencies) HostFunc {
	return func(_ context.Context, args []value.Value) (value.Value, error) {
		if err := wantArgs("print", args, 1); err != nil {
			return value.None(), err
		}
		msg, err := wantString("print", args[0])
		if err != nil {
			return value.None(), err
		}
		deps.logger().WithField("target", "user").Info(msg)
		return value.None(), nil
	}
}

// formatForDebug renders a Value for human inspection in printDebug output.
func formatForDebug(v value.Value) any {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.String()
		return s
	case value.KindNumber:
		n, _ := v.Number()
		return n
	case value.KindBool:
		b, _ := v.Bool()
		return b
	case value.KindNone:
		return nil
	default:
		enc, err := value.Marshal(v)
		if err != nil {
			return "<unencodable>"
		}
		return string(enc)
	}
}

func bytesToUTF8(_ context.Context, args []value.Value) (value.Value, error) {
	if err := wantArgs("bytes_to_utf8", args, 1); err != nil {
		return value.None(), err
	}
	b, err := wantBytes("bytes_to_utf8", args[0])
	if err != nil {
		return value.None(), err
	}
	if !utf8.Valid(b) {
		return value.None(), &TypeError{Func: "bytes_to_utf8", Want: "valid UTF-8 bytes", Got: "invalid UTF-8"}
	}
	return value.String(string(b)), nil
}

func utf8ToBytes(_ context.Context, args []value.Value) (value.Value, error) {
	if err := wantArgs("utf8_to_bytes", args, 1); err != nil {
		return value.None(), err
	}
	s, err := wantString("utf8_to_bytes", args[0])
	if err != nil {
		return value.None(), err
	}
	return value.Bytes([]byte(s)), nil
}

func bytesToBase64(_ context.Context, args []value.Value) (value.Value, error) {
	if err := wantArgs("bytes_to_base64", args, 1); err != nil {
		return value.None(), err
	}
	b, err := wantBytes("bytes_to_base64", args[0])
	if err != nil {
		return value.None(), err
	}
	return value.String(base64.StdEncoding.EncodeToString(b)), nil
}

func base64ToBytes(_ context.Context, args []value.Value) (value.Value, error) {
	if err := wantArgs("base64_to_bytes", args, 1); err != nil {
		return value.None(), err
	}
	s, err := wantString("base64_to_bytes", args[0])
	if err != nil {
		return value.None(), err
	}
	decoded, decErr := base64.StdEncoding.DecodeString(s)
	if decErr != nil {
		return value.None(), &TypeError{Func: "base64_to_bytes", Want: "valid base64", Got: "invalid input"}
	}
	return value.Bytes(decoded), nil
}

func messageExchange(deps Dependencies) HostFunc {
	return func(ctx context.Context, args []value.Value) (value.Value, error) {
		if err := wantArgs("message_exchange", args, 1); err != nil {
			return value.None(), err
		}
		req, err := wantString("message_exchange", args[0])
		if err != nil {
			return value.None(), err
		}
		resp, err := deps.Handler.Handle(ctx, []byte(req))
		if err != nil {
			return value.None(), err
		}
		return value.String(string(resp)), nil
	}
}

func streamRead(deps Dependencies) HostFunc {
	return func(ctx context.Context, args []value.Value) (value.Value, error) {
		if err := wantArgs("stream_read", args, 2); err != nil {
			return value.None(), err
		}
		handle, err := wantNumber("stream_read", args[0])
		if err != nil {
			return value.None(), err
		}
		maxLen, err := wantNumber("stream_read", args[1])
		if err != nil {
			return value.None(), err
		}
		data, err := deps.Streams.Read(ctx, uint32(handle), int(maxLen))
		if err != nil {
			return value.None(), err
		}
		return value.Bytes(data), nil
	}
}

func streamWrite(deps Dependencies) HostFunc {
	return func(ctx context.Context, args []value.Value) (value.Value, error) {
		if err := wantArgs("stream_write", args, 2); err != nil {
			return value.None(), err
		}
		handle, err := wantNumber("stream_write", args[0])
		if err != nil {
			return value.None(), err
		}
		buf, err := wantBytes("stream_write", args[1])
		if err != nil {
			return value.None(), err
		}
		count, err := deps.Streams.Write(ctx, uint32(handle), buf)
		if err != nil {
			return value.None(), err
		}
		return value.Number(float64(count)), nil
	}
}

func streamClose(deps Dependencies) HostFunc {
	return func(ctx context.Context, args []value.Value) (value.Value, error) {
		if err := wantArgs("stream_close", args, 1); err != nil {
			return value.None(), err
		}
		handle, err := wantNumber("stream_close", args[0])
		if err != nil {
			return value.None(), err
		}
		if err := deps.Streams.Close(ctx, uint32(handle)); err != nil {
			return value.None(), err
		}
		return value.None(), nil
	}
}

func (d Dependencies) logger() *log.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return log.StandardLogger()
}
