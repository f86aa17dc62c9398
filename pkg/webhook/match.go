package webhook

import "strings"

// MatchEvent reports whether an event type matches any of the subscription
// patterns. Three pattern forms are supported:
//
//   - "*" matches every event type
//   - "payment.success" matches exactly
//   - "payment.*" matches any event type starting with "payment."
func MatchEvent(patterns []string, eventType string) bool {
	for _, pattern := range patterns {
		if matchPattern(pattern, eventType) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, eventType string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(eventType, prefix)
	}
	return pattern == eventType
}
