package security

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ConfigError reports a request whose declared security id cannot be
// resolved: missing from the map, or resolved to a deferred Misconfigured
// sentinel.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

// ResolvedSecret carries the concrete secret values a successful Prepare
// validated were present for one scheme id. Map/Entry intentionally retain
// only shape and deferred status, not the payload, so the caller (perform
// pipeline) passes the secret back in at resolve time.
type ResolvedSecret struct {
	Username string
	Password string
	Token    string
	ApiKey   string
}

// Resolve mutates req in place according to the scheme bound to req.Security
// in m, using secret for the concrete value. A request with no security id
// is left untouched.
func Resolve(m *Map, secret ResolvedSecret, req *HttpRequest) error {
	if req.Security == "" {
		return nil
	}
	entry, ok := m.Lookup(req.Security)
	if !ok {
		return &ConfigError{Message: fmt.Sprintf("Security configuration for %s is missing", req.Security)}
	}
	if entry.Misconfigured {
		return &ConfigError{Message: fmt.Sprintf("Security configuration for %s is misconfigured: expected %s", req.Security, entry.Expected)}
	}

	switch entry.Scheme.Kind {
	case SchemeBasic:
		req.Headers.Add("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(secret.Username+":"+secret.Password)))
		return nil
	case SchemeBearer:
		req.Headers.Add("Authorization", "Bearer "+secret.Token)
		return nil
	case SchemeApiKey:
		return applyApiKey(entry.Scheme, secret.ApiKey, req)
	default:
		return fmt.Errorf("security: unknown scheme kind %v", entry.Scheme.Kind)
	}
}

func applyApiKey(scheme Scheme, apikey string, req *HttpRequest) error {
	switch scheme.In {
	case InHeader:
		req.Headers.Add(scheme.Name, apikey)
		return nil
	case InPath:
		req.URL = strings.ReplaceAll(req.URL, "{"+scheme.Name+"}", apikey)
		return nil
	case InQuery:
		req.Query.Add(scheme.Name, apikey)
		return nil
	case InBody:
		return applyApiKeyBody(scheme, apikey, req)
	default:
		return fmt.Errorf("security: unknown ApiKey placement %q", scheme.In)
	}
}

func applyApiKeyBody(scheme Scheme, apikey string, req *HttpRequest) error {
	if scheme.BodyType != BodyTypeJSON {
		return fmt.Errorf("Missing body type")
	}
	if len(req.Body) == 0 {
		return fmt.Errorf("Api key placement is set to body but the body is empty")
	}

	segments, err := bodyKeyPath(scheme.Name)
	if err != nil {
		return err
	}

	// Validate that every interior node on the path is a JSON object before
	// writing the leaf, naming the offending prefix on mismatch.
	prefix := ""
	for i := 0; i < len(segments)-1; i++ {
		if prefix == "" {
			prefix = segments[i]
		} else {
			prefix = prefix + "." + segments[i]
		}
		res := gjson.GetBytes(req.Body, prefix)
		if res.Exists() && !res.IsObject() {
			return fmt.Errorf("security: body path %q is not a JSON object", strings.ReplaceAll(prefix, ".", "/"))
		}
	}

	sjsonPath := strings.Join(segments, ".")
	updated, err := sjson.SetBytes(req.Body, sjsonPath, apikey)
	if err != nil {
		return fmt.Errorf("security: setting body key %q: %w", scheme.Name, err)
	}
	req.Body = updated
	return nil
}

// bodyKeyPath splits an ApiKey{in: Body} name into sjson/gjson path
// segments. A name beginning with "/" is a leading-slash-only variant of
// JSON Pointer split on "/" with empties discarded and no escape handling;
// otherwise the whole name is one key.
func bodyKeyPath(name string) ([]string, error) {
	var segments []string
	if strings.HasPrefix(name, "/") {
		for _, part := range strings.Split(name, "/") {
			if part != "" {
				segments = append(segments, part)
			}
		}
	} else {
		segments = []string{name}
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("security: empty body key path")
	}
	return segments, nil
}
