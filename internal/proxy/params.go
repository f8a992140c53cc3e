package proxy

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Params holds the validated query parameters for one proxy invocation.
type Params map[string]string

// Validate extracts the declared parameters from a query string, trimming
// whitespace. Required parameters that are missing or empty after trimming
// are reported together in a single ValidationError.
func Validate(query url.Values, required ...string) (Params, error) {
	params := make(Params, len(required))
	missing := []string{}

	for _, name := range required {
		value := strings.TrimSpace(query.Get(name))
		if value == "" {
			missing = append(missing, name)
			continue
		}
		params[name] = value
	}

	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	return params, nil
}

// Optional adds a non-required parameter to the set, falling back to a
// default when absent or empty.
func (p Params) Optional(query url.Values, name, fallback string) {
	value := strings.TrimSpace(query.Get(name))
	if value == "" {
		value = fallback
	}
	p[name] = value
}

// foldMarks strips combining marks after canonical decomposition, so that
// "Björk" and "Bjork" derive the same cache key.
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Key derives a deterministic cache key from input parameters: each part
// is lower-cased, diacritic-folded and URL-encoded, then the parts are
// joined with a fixed delimiter.
func Key(parts ...string) string {
	encoded := make([]string, 0, len(parts))
	for _, part := range parts {
		folded, _, err := transform.String(foldMarks, part)
		if err != nil {
			// Fold failures leave the part as-is; the key is still
			// deterministic for the same input.
			folded = part
		}
		encoded = append(encoded, url.QueryEscape(strings.ToLower(folded)))
	}
	return strings.Join(encoded, "_")
}
