package security

import (
	"fmt"

	"github.com/oneclient/core-go/internal/value"
)

// Entry is one resolved SecurityMap slot: either a usable Security
// description or a deferred Misconfigured sentinel.
type Entry struct {
	Misconfigured bool
	Expected      string // set when Misconfigured; human-readable expected shape

	Scheme Scheme // the originating declaration, always set
}

// Map holds one Entry per declared scheme id. Every declared scheme appears
// exactly once; missing secrets become a deferred sentinel rather than a
// prepare-time failure.
type Map struct {
	entries map[string]Entry
}

func (m *Map) Lookup(id string) (Entry, bool) {
	e, ok := m.entries[id]
	return e, ok
}

// ShapeError is one secret whose shape didn't match its scheme's expected
// fields. Prepare collects all of these and fails only if any exist.
type ShapeError struct {
	ID     string
	Reason string
}

func (e ShapeError) Error() string {
	return fmt.Sprintf("security: secret %q: %s", e.ID, e.Reason)
}

// ShapeErrors is the error type returned by Prepare when one or more secrets
// exist but don't match their scheme's expected shape.
type ShapeErrors []ShapeError

func (e ShapeErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("security: %d secrets had the wrong shape (first: %s)", len(e), e[0].Error())
}

// Prepare builds a Map from the provider's declared schemes and the
// usecase's secrets value (expected shape: an object of id -> {fields}).
// Absent secrets become deferred Misconfigured sentinels so maps that never
// exercise the scheme still succeed; present-but-malformed secrets are
// collected and fail the whole prepare.
func Prepare(schemes []Scheme, secrets value.Value) (*Map, error) {
	m := &Map{entries: make(map[string]Entry, len(schemes))}
	var shapeErrs ShapeErrors

	for _, scheme := range schemes {
		secret, ok := secrets.Get(scheme.ID)
		if !ok {
			m.entries[scheme.ID] = Entry{
				Misconfigured: true,
				Expected:      "not empty value",
				Scheme:        scheme,
			}
			continue
		}

		expected, reason := validateShape(scheme, secret)
		if reason != "" {
			shapeErrs = append(shapeErrs, ShapeError{ID: scheme.ID, Reason: reason})
			continue
		}
		_ = expected
		m.entries[scheme.ID] = Entry{Scheme: scheme}
	}

	if len(shapeErrs) > 0 {
		return nil, shapeErrs
	}
	return m, nil
}

// validateShape checks secret against the shape scheme.Kind requires. On
// mismatch it returns a human-readable reason; on success it returns "".
func validateShape(scheme Scheme, secret value.Value) (expectedShape string, reason string) {
	switch scheme.Kind {
	case SchemeApiKey:
		expectedShape = "{ apikey: String }"
		if _, ok := stringField(secret, "apikey"); !ok {
			return expectedShape, fmt.Sprintf("expected %s", expectedShape)
		}
	case SchemeBasic:
		expectedShape = "{ username: String, password: String }"
		_, okU := stringField(secret, "username")
		_, okP := stringField(secret, "password")
		if !okU || !okP {
			return expectedShape, fmt.Sprintf("expected %s", expectedShape)
		}
	case SchemeBearer:
		expectedShape = "{ token: String }"
		if _, ok := stringField(secret, "token"); !ok {
			return expectedShape, fmt.Sprintf("expected %s", expectedShape)
		}
	}
	return expectedShape, ""
}

func stringField(v value.Value, key string) (string, bool) {
	field, ok := v.Get(key)
	if !ok {
		return "", false
	}
	return field.String()
}
