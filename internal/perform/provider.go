package perform

import (
	"encoding/json"
	"fmt"

	"github.com/oneclient/core-go/internal/security"
)

// providerJSON is the subset of a provider.json document the pipeline
// consumes: declared security schemes and default-bearing parameters.
// Unlike the value/HostValue boundary, this is host-authored configuration
// the core only ever reads structurally, so a plain encoding/json decode
// (rather than value.Unmarshal) is the right tool here.
type providerJSON struct {
	SecuritySchemes []rawScheme `json:"security_schemes"`
	Parameters      []rawParam  `json:"parameters"`
}

type rawScheme struct {
	Type         string `json:"type"`
	Scheme       string `json:"scheme"` // for type=="http": "basic" | "bearer"
	ID           string `json:"id"`
	In           string `json:"in"`   // for type=="apiKey"
	Name         string `json:"name"` // for type=="apiKey"
	BodyType     string `json:"bodyType"`
	BearerFormat string `json:"bearerFormat"`
}

type rawParam struct {
	Name    string  `json:"name"`
	Default *string `json:"default"`
}

// ParseProvider decodes a provider.json document into its security schemes
// and its parameters that declare a default value.
func ParseProvider(raw []byte) ([]security.Scheme, []rawParam, error) {
	var doc providerJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("perform: parse provider.json: %w", err)
	}

	schemes := make([]security.Scheme, 0, len(doc.SecuritySchemes))
	for _, rs := range doc.SecuritySchemes {
		scheme, err := toScheme(rs)
		if err != nil {
			return nil, nil, err
		}
		schemes = append(schemes, scheme)
	}

	return schemes, doc.Parameters, nil
}

func toScheme(rs rawScheme) (security.Scheme, error) {
	switch rs.Type {
	case "apiKey":
		bodyType := security.BodyTypeNone
		if rs.BodyType == "json" || rs.BodyType == "Json" {
			bodyType = security.BodyTypeJSON
		}
		return security.Scheme{
			Kind:     security.SchemeApiKey,
			ID:       rs.ID,
			In:       security.ApiKeyIn(rs.In),
			Name:     rs.Name,
			BodyType: bodyType,
		}, nil
	case "http":
		switch rs.Scheme {
		case "basic":
			return security.Scheme{Kind: security.SchemeBasic, ID: rs.ID}, nil
		case "bearer":
			return security.Scheme{Kind: security.SchemeBearer, ID: rs.ID, BearerFormat: rs.BearerFormat}, nil
		default:
			return security.Scheme{}, fmt.Errorf("perform: provider.json: unknown http scheme %q", rs.Scheme)
		}
	default:
		return security.Scheme{}, fmt.Errorf("perform: provider.json: unknown security scheme type %q", rs.Type)
	}
}
