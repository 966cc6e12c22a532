package enrich

import "strings"

// parseReply splits a structured "Key: Value" reply into a field map. Keys
// are trimmed, lower-cased and have spaces replaced by underscores so minor
// formatting drift in the reply does not break lookups. Lines without a
// colon are ignored.
func parseReply(text string) map[string]string {
	fields := make(map[string]string)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}

		key := normalizeKey(line[:idx])
		if key == "" {
			continue
		}

		fields[key] = normalizeValue(line[idx+1:])
	}

	return fields
}

// normalizeKey strips stray list and emphasis markup the model sometimes
// wraps keys in ("**Translation**", "- Gender") before normalizing.
func normalizeKey(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*-•# \t")
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, " ", "_")
}

func normalizeValue(s string) string {
	s = strings.TrimSpace(s)
	// The prompt shows placeholders in brackets and some replies echo them
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	return strings.TrimSpace(s)
}

// getField returns the value for a normalized key, defaulting missing or
// empty fields to the sentinel.
func getField(fields map[string]string, key string) string {
	if v, ok := fields[key]; ok && v != "" {
		return v
	}
	return Sentinel
}
