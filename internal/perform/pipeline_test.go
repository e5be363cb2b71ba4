package perform

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/oneclient/core-go/internal/exchange"
	"github.com/oneclient/core-go/internal/security"
	"github.com/oneclient/core-go/internal/value"
)

func TestClassifyAndEmitEncodesOkResult(t *testing.T) {
	var sent []byte
	tr := exchange.TransportFunc(func(_ context.Context, req []byte) ([]byte, error) {
		sent = req
		return []byte(`{"kind":"ok"}`), nil
	})
	hostEx := exchange.New(tr)

	result := value.NewObjectBuilder().Set("Ok", value.String("hello")).Build()
	if err := classifyAndEmit(context.Background(), hostEx, result); err != nil {
		t.Fatalf("classifyAndEmit: %v", err)
	}

	want := `{"kind":"perform-output","map_result":{"Ok":"hello"}}`
	if string(sent) != want {
		t.Fatalf("got %s, want %s", sent, want)
	}
}

func TestClassifyAndEmitEncodesErrResult(t *testing.T) {
	var sent []byte
	tr := exchange.TransportFunc(func(_ context.Context, req []byte) ([]byte, error) {
		sent = req
		return []byte(`{"kind":"ok"}`), nil
	})
	hostEx := exchange.New(tr)

	result := value.NewObjectBuilder().Set("Err", value.String("bad input")).Build()
	if err := classifyAndEmit(context.Background(), hostEx, result); err != nil {
		t.Fatalf("classifyAndEmit: %v", err)
	}
	want := `{"kind":"perform-output","map_result":{"Err":"bad input"}}`
	if string(sent) != want {
		t.Fatalf("got %s, want %s", sent, want)
	}
}

func TestClassifyAndEmitRejectsShapelessResult(t *testing.T) {
	var sent []byte
	tr := exchange.TransportFunc(func(_ context.Context, req []byte) ([]byte, error) {
		sent = req
		return []byte(`{"kind":"ok"}`), nil
	})
	hostEx := exchange.New(tr)

	if err := classifyAndEmit(context.Background(), hostEx, value.String("not ok or err")); err != nil {
		t.Fatalf("classifyAndEmit should swallow the send error: %v", err)
	}

	var decoded struct {
		MapResult struct {
			Err *json.RawMessage `json:"Err"`
		} `json:"map_result"`
	}
	if err := json.Unmarshal(sent, &decoded); err != nil {
		t.Fatalf("decode sent request: %v", err)
	}
	if decoded.MapResult.Err == nil {
		t.Fatal("expected an exception encoded as a perform-output Err")
	}
}

func TestPerformOutputSendFailureIsLoggedNotPropagated(t *testing.T) {
	tr := exchange.TransportFunc(func(_ context.Context, _ []byte) ([]byte, error) {
		return nil, context.DeadlineExceeded
	})
	hostEx := exchange.New(tr)

	result := value.NewObjectBuilder().Set("Ok", value.Bool(true)).Build()
	if err := classifyAndEmit(context.Background(), hostEx, result); err != nil {
		t.Fatalf("transport failure on perform-output must not propagate: %v", err)
	}
}

func TestMergeParamsCallerVarsOverrideDefaults(t *testing.T) {
	def := "https://default.example.com"
	params := []rawParam{{Name: "base_url", Default: &def}}
	callerVars := value.NewObjectBuilder().Set("base_url", value.String("https://override.example.com")).Build()

	merged := mergeParams(params, callerVars)
	got, ok := merged.Get("base_url")
	if !ok {
		t.Fatal("base_url missing from merged vars")
	}
	s, _ := got.String()
	if s != "https://override.example.com" {
		t.Fatalf("caller var did not override default: %q", s)
	}
}

func TestMergeParamsKeepsDefaultWhenCallerOmits(t *testing.T) {
	def := "https://default.example.com"
	params := []rawParam{{Name: "base_url", Default: &def}}
	merged := mergeParams(params, value.NewObject())

	got, ok := merged.Get("base_url")
	if !ok {
		t.Fatal("expected default to survive merge")
	}
	s, _ := got.String()
	if s != def {
		t.Fatalf("got %q, want default %q", s, def)
	}
}

func TestDeriveResolvedSecretsExtractsByScheme(t *testing.T) {
	schemes := []security.Scheme{
		{Kind: security.SchemeBasic, ID: "b"},
		{Kind: security.SchemeApiKey, ID: "k"},
	}
	secrets := value.NewObjectBuilder().
		Set("b", value.NewObjectBuilder().Set("username", value.String("u")).Set("password", value.String("p")).Build()).
		Set("k", value.NewObjectBuilder().Set("apikey", value.String("abc")).Build()).
		Build()

	resolved := deriveResolvedSecrets(schemes, secrets)
	if resolved["b"].Username != "u" || resolved["b"].Password != "p" {
		t.Fatalf("unexpected basic secret: %+v", resolved["b"])
	}
	if resolved["k"].ApiKey != "abc" {
		t.Fatalf("unexpected api key secret: %+v", resolved["k"])
	}
}

func TestParseProviderDecodesSchemesAndParams(t *testing.T) {
	raw := []byte(`{
		"security_schemes": [
			{"type":"apiKey","id":"k","in":"header","name":"X-K"},
			{"type":"http","scheme":"basic","id":"b"},
			{"type":"http","scheme":"bearer","id":"t","bearerFormat":"JWT"}
		],
		"parameters": [{"name":"base_url","default":"https://api.example.com"}]
	}`)

	schemes, params, err := ParseProvider(raw)
	if err != nil {
		t.Fatalf("ParseProvider: %v", err)
	}
	if len(schemes) != 3 {
		t.Fatalf("expected 3 schemes, got %d", len(schemes))
	}
	if schemes[0].Kind != security.SchemeApiKey || schemes[0].In != security.InHeader {
		t.Fatalf("unexpected apiKey scheme: %+v", schemes[0])
	}
	if schemes[2].Kind != security.SchemeBearer || schemes[2].BearerFormat != "JWT" {
		t.Fatalf("unexpected bearer scheme: %+v", schemes[2])
	}
	if len(params) != 1 || params[0].Name != "base_url" || *params[0].Default != "https://api.example.com" {
		t.Fatalf("unexpected params: %+v", params)
	}
}
