package gate

import (
	"encoding/json"
	"regexp"
	"strings"
)

// bareValueRe matches an unquoted word-like value following a colon,
// e.g. the cardiomyopathy in {"name":cardiomyopathy}. Hosts that build
// parameter strings by interpolation produce these routinely.
var bareValueRe = regexp.MustCompile(`(:\s*)([A-Za-z_][A-Za-z0-9_\-]*)(\s*[,}\]])`)

// ParseParams parses loosely-formatted parameter text into bound
// parameters. Strict JSON is tried first; on failure a single repair
// pass quotes bare word-like values and parsing is retried. Empty text
// yields an empty parameter map.
func ParseParams(text string) (map[string]any, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return map[string]any{}, nil
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(trimmed), &out); err == nil {
		return out, nil
	}

	repaired := repairBareValues(trimmed)
	if err := json.Unmarshal([]byte(repaired), &out); err == nil {
		return out, nil
	}

	return nil, errf(KindMalformedParameters,
		"could not parse parameters %q (best-effort repair %q also failed)", trimmed, repaired)
}

// ParseParamsRaw accepts the wire form of the parameters field, which
// may be a JSON object or a JSON string containing one. Both parse to
// the same map.
func ParseParamsRaw(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return ParseParams(asString)
	}
	return ParseParams(string(raw))
}

// repairBareValues quotes unquoted word-like values. JSON literals
// (true, false, null) are left alone so their types survive.
func repairBareValues(s string) string {
	return bareValueRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := bareValueRe.FindStringSubmatch(m)
		switch sub[2] {
		case "true", "false", "null":
			return m
		}
		return sub[1] + `"` + sub[2] + `"` + sub[3]
	})
}
