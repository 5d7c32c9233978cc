package checkend

// Redacted sensitive values are replaced with this marker rather than
// removed, so the scrubbed key remains visible on the server.
const filteredValue = "[FILTERED]"

// Nested maps deeper than this pass through untouched. Guards against
// cyclic structures.
const maxSanitizeDepth = 8

var defaultSensitiveKeys = []string{
	"password",
	"password_confirmation",
	"secret",
	"token",
	"api_key",
	"access_token",
	"refresh_token",
	"authorization",
	"cookie",
	"credit_card",
	"cvv",
	"ssn",
	"session",
}

// sanitizer redacts configured sensitive keys from notice metadata bags.
// Matching is a case-sensitive exact key comparison.
type sanitizer struct {
	keys map[string]struct{}
}

// newSanitizer builds a sanitizer over the default key set extended with
// extra keys.
func newSanitizer(extra []string) *sanitizer {
	keys := make(map[string]struct{}, len(defaultSensitiveKeys)+len(extra))
	for _, k := range defaultSensitiveKeys {
		keys[k] = struct{}{}
	}
	for _, k := range extra {
		keys[k] = struct{}{}
	}
	return &sanitizer{keys: keys}
}

// sanitize returns a copy of data with sensitive values redacted, recursing
// into nested string-keyed maps. Arrays and scalars pass through unchanged.
// It never fails: values it cannot inspect are returned as-is.
func (s *sanitizer) sanitize(data Context) Context {
	if data == nil {
		return nil
	}
	return s.sanitizeMap(data, 0)
}

func (s *sanitizer) sanitizeMap(data map[string]interface{}, depth int) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for key, value := range data {
		if _, sensitive := s.keys[key]; sensitive {
			out[key] = filteredValue
			continue
		}
		out[key] = s.sanitizeValue(value, depth+1)
	}
	return out
}

func (s *sanitizer) sanitizeValue(value interface{}, depth int) interface{} {
	if depth >= maxSanitizeDepth {
		return value
	}
	switch nested := value.(type) {
	case Context:
		return Context(s.sanitizeMap(nested, depth))
	case map[string]interface{}:
		return s.sanitizeMap(nested, depth)
	default:
		return value
	}
}
