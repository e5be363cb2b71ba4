package security

import (
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/oneclient/core-go/internal/value"
)

// bodyFixture bundles the request body and the expected post-Resolve body
// for the nested api-key-in-body scenario as a single txtar archive, so the
// "before" and "after" documents stay next to each other in one readable
// block instead of two separate literals.
var bodyFixture = []byte(`
-- request.json --
{"auth":{"token":"placeholder"},"meta":{"trace":"abc"}}
-- want.json --
{"auth":{"token":"s3cr3t"},"meta":{"trace":"abc"}}
`)

func TestResolveApiKeyBodyMatchesTxtarFixture(t *testing.T) {
	archive := txtar.Parse(bodyFixture)
	req := &HttpRequest{
		Security: "k",
		Body:     fileContents(t, archive, "request.json"),
	}

	schemes := []Scheme{{Kind: SchemeApiKey, ID: "k", In: InBody, Name: "/auth/token", BodyType: BodyTypeJSON}}
	secrets := secretsOf([2]any{"k", value.NewObjectBuilder().Set("apikey", value.String("s3cr3t")).Build()})

	m, err := Prepare(schemes, secrets)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := Resolve(m, ResolvedSecret{ApiKey: "s3cr3t"}, req); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := fileContents(t, archive, "want.json")
	if string(req.Body) != string(want) {
		t.Fatalf("got %s, want %s", req.Body, want)
	}
}

func fileContents(t *testing.T, archive *txtar.Archive, name string) []byte {
	t.Helper()
	for _, f := range archive.Files {
		if f.Name == name {
			return f.Data
		}
	}
	t.Fatalf("fixture file %q not found in archive", name)
	return nil
}
