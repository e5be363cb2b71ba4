package security

import (
	"errors"
	"strings"
	"testing"

	"github.com/oneclient/core-go/internal/value"
)

func secretsOf(entries ...[2]any) value.Value {
	b := value.NewObjectBuilder()
	for _, e := range entries {
		b.Set(e[0].(string), e[1].(value.Value))
	}
	return b.Build()
}

func TestBasicAuthHeader(t *testing.T) {
	schemes := []Scheme{{Kind: SchemeBasic, ID: "b"}}
	secrets := secretsOf([2]any{"b", value.NewObjectBuilder().
		Set("username", value.String("aladdin")).
		Set("password", value.String("opensesame")).
		Build()})

	m, err := Prepare(schemes, secrets)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	req := &HttpRequest{Security: "b"}
	secret := ResolvedSecret{Username: "aladdin", Password: "opensesame"}
	if err := Resolve(m, secret, req); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	got, ok := req.Headers.Get("Authorization")
	if !ok {
		t.Fatal("Authorization header missing")
	}
	want := "Basic YWxhZGRpbjpvcGVuc2VzYW1l"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestApiKeyInNestedBody(t *testing.T) {
	schemes := []Scheme{{Kind: SchemeApiKey, ID: "k", In: InBody, Name: "/auth/token", BodyType: BodyTypeJSON}}
	secrets := secretsOf([2]any{"k", value.NewObjectBuilder().Set("apikey", value.String("NEW")).Build()})

	m, err := Prepare(schemes, secrets)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	req := &HttpRequest{Security: "k", Body: []byte(`{"auth":{"token":"old"},"x":1}`)}
	if err := Resolve(m, ResolvedSecret{ApiKey: "NEW"}, req); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := `{"auth":{"token":"NEW"},"x":1}`
	if string(req.Body) != want {
		t.Fatalf("got %s, want %s", req.Body, want)
	}
}

func TestDeferredMisconfiguration(t *testing.T) {
	schemes := []Scheme{{Kind: SchemeApiKey, ID: "k", In: InHeader, Name: "X-K"}}
	secrets := value.NewObject()

	m, err := Prepare(schemes, secrets)
	if err != nil {
		t.Fatalf("Prepare should succeed with deferred sentinel: %v", err)
	}

	req := &HttpRequest{Security: "k"}
	err = Resolve(m, ResolvedSecret{}, req)
	if err == nil {
		t.Fatal("expected InvalidSecurityConfiguration error")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
	if !contains(cfgErr.Message, "not empty value") {
		t.Fatalf("error message %q does not mention deferred expectation", cfgErr.Message)
	}

	unsecured := &HttpRequest{}
	if err := Resolve(m, ResolvedSecret{}, unsecured); err != nil {
		t.Fatalf("request with no security id must succeed unchanged: %v", err)
	}
}

func TestShapeMismatchFailsPrepare(t *testing.T) {
	schemes := []Scheme{{Kind: SchemeBearer, ID: "t"}}
	secrets := secretsOf([2]any{"t", value.NewObjectBuilder().Set("apikey", value.String("x")).Build()})

	_, err := Prepare(schemes, secrets)
	if err == nil {
		t.Fatal("expected shape error")
	}
	var shapeErrs ShapeErrors
	if !errors.As(err, &shapeErrs) {
		t.Fatalf("expected ShapeErrors, got %T", err)
	}
	if shapeErrs[0].ID != "t" {
		t.Fatalf("unexpected shape error: %+v", shapeErrs)
	}
	if !contains(shapeErrs[0].Reason, "token: String") {
		t.Fatalf("reason %q does not name expected shape", shapeErrs[0].Reason)
	}
}

func TestBearerHeaderOmitsBearerFormat(t *testing.T) {
	schemes := []Scheme{{Kind: SchemeBearer, ID: "t", BearerFormat: "JWT"}}
	secrets := secretsOf([2]any{"t", value.NewObjectBuilder().Set("token", value.String("abc")).Build()})

	m, err := Prepare(schemes, secrets)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	req := &HttpRequest{Security: "t"}
	if err := Resolve(m, ResolvedSecret{Token: "abc"}, req); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	got, _ := req.Headers.Get("Authorization")
	if got != "Bearer abc" {
		t.Fatalf("got %q", got)
	}
}

func TestApiKeyInPathAndQuery(t *testing.T) {
	schemes := []Scheme{
		{Kind: SchemeApiKey, ID: "path", In: InPath, Name: "id"},
		{Kind: SchemeApiKey, ID: "query", In: InQuery, Name: "api_key"},
	}
	secrets := secretsOf(
		[2]any{"path", value.NewObjectBuilder().Set("apikey", value.String("p1")).Build()},
		[2]any{"query", value.NewObjectBuilder().Set("apikey", value.String("q1")).Build()},
	)
	m, err := Prepare(schemes, secrets)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	req := &HttpRequest{Security: "path", URL: "https://example.com/users/{id}"}
	if err := Resolve(m, ResolvedSecret{ApiKey: "p1"}, req); err != nil {
		t.Fatalf("Resolve path: %v", err)
	}
	if req.URL != "https://example.com/users/p1" {
		t.Fatalf("got %q", req.URL)
	}

	req2 := &HttpRequest{Security: "query"}
	if err := Resolve(m, ResolvedSecret{ApiKey: "q1"}, req2); err != nil {
		t.Fatalf("Resolve query: %v", err)
	}
	if got, _ := req2.Query.Get("api_key"); got != "q1" {
		t.Fatalf("got %q", got)
	}
}

func TestApiKeyBodyMissingBodyTypeErrors(t *testing.T) {
	schemes := []Scheme{{Kind: SchemeApiKey, ID: "k", In: InBody, Name: "token"}}
	secrets := secretsOf([2]any{"k", value.NewObjectBuilder().Set("apikey", value.String("x")).Build()})
	m, err := Prepare(schemes, secrets)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	req := &HttpRequest{Security: "k", Body: []byte(`{}`)}
	err = Resolve(m, ResolvedSecret{ApiKey: "x"}, req)
	if err == nil || !contains(err.Error(), "Missing body type") {
		t.Fatalf("expected Missing body type error, got %v", err)
	}
}

func TestApiKeyBodyEmptyBodyErrors(t *testing.T) {
	schemes := []Scheme{{Kind: SchemeApiKey, ID: "k", In: InBody, Name: "token", BodyType: BodyTypeJSON}}
	secrets := secretsOf([2]any{"k", value.NewObjectBuilder().Set("apikey", value.String("x")).Build()})
	m, err := Prepare(schemes, secrets)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	req := &HttpRequest{Security: "k"}
	err = Resolve(m, ResolvedSecret{ApiKey: "x"}, req)
	if err == nil || !contains(err.Error(), "empty") {
		t.Fatalf("expected empty body error, got %v", err)
	}
}

func TestApiKeyBodyNonObjectInteriorErrors(t *testing.T) {
	schemes := []Scheme{{Kind: SchemeApiKey, ID: "k", In: InBody, Name: "/auth/token", BodyType: BodyTypeJSON}}
	secrets := secretsOf([2]any{"k", value.NewObjectBuilder().Set("apikey", value.String("x")).Build()})
	m, err := Prepare(schemes, secrets)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	req := &HttpRequest{Security: "k", Body: []byte(`{"auth":"not-an-object"}`)}
	err = Resolve(m, ResolvedSecret{ApiKey: "x"}, req)
	if err == nil || !contains(err.Error(), "auth") {
		t.Fatalf("expected error naming offending prefix, got %v", err)
	}
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
