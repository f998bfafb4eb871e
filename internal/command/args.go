package command

import "strings"

// NormalizeArgs coerces loosely-typed tool arguments into a flat
// string-keyed map.
//
// Upstream tool-calling clients pass argument blobs in several shapes:
//
//   - a delimited string: "a=1,b=2" or "a:1&b:2" — pairs split on ","
//     if present else "&", each pair on "=" if present else ":"
//   - a single-key wrapper: {"kwargs": M} — unwrapped to M
//   - an ordinary mapping — passed through
//
// Anything else (including nil) normalises to an empty map. Pairs
// without a recognised key/value separator are skipped.
func NormalizeArgs(args any) map[string]any {
	switch v := args.(type) {
	case nil:
		return map[string]any{}
	case string:
		return parseArgString(v)
	case map[string]any:
		if inner, ok := unwrapKwargs(v); ok {
			return inner
		}
		return v
	default:
		return map[string]any{}
	}
}

// parseArgString splits a delimited argument string into a flat map.
func parseArgString(s string) map[string]any {
	parsed := map[string]any{}

	sep := "&"
	if strings.Contains(s, ",") {
		sep = ","
	}

	for _, pair := range strings.Split(s, sep) {
		var key, value string
		switch {
		case strings.Contains(pair, "="):
			key, value, _ = strings.Cut(pair, "=")
		case strings.Contains(pair, ":"):
			key, value, _ = strings.Cut(pair, ":")
		default:
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		parsed[key] = strings.TrimSpace(value)
	}

	return parsed
}

// unwrapKwargs unwraps the {"kwargs": M} convention used by some
// tool-calling clients. Only a single-key map with a mapping value
// qualifies.
func unwrapKwargs(m map[string]any) (map[string]any, bool) {
	if len(m) != 1 {
		return nil, false
	}
	inner, ok := m["kwargs"].(map[string]any)
	return inner, ok
}
