package domain

import "strings"

// normalizeToken upper-cases a raw token and replaces spaces with underscores
// so "live classes" can line up with LIVE_CLASSES.
func normalizeToken(token string) string {
	upper := strings.ToUpper(strings.TrimSpace(token))
	return strings.ReplaceAll(upper, " ", "_")
}

// matchEnum resolves a raw token against a list of enum values.
// Exact match wins first. Otherwise the token is accepted when it is a
// substring of an enum value or the enum value is a substring of the token,
// taking the first enum value that matches. Tokens matching nothing are
// dropped by the caller.
func matchEnum(token string, values []string) (string, bool) {
	normalized := normalizeToken(token)
	if normalized == "" {
		return "", false
	}

	for _, value := range values {
		if normalized == value {
			return value, true
		}
	}

	for _, value := range values {
		if strings.Contains(value, normalized) || strings.Contains(normalized, value) {
			return value, true
		}
	}

	return "", false
}

// ParseInterests resolves a comma-separated interest string into enum values.
// Unknown tokens are silently dropped.
func ParseInterests(raw string) []InterestType {
	matched := parseList(raw, interestValues())
	result := make([]InterestType, 0, len(matched))
	for _, value := range matched {
		result = append(result, InterestType(value))
	}
	return result
}

// ParsePreferences resolves a comma-separated preference string into enum values.
func ParsePreferences(raw string) []PreferenceType {
	matched := parseList(raw, preferenceValues())
	result := make([]PreferenceType, 0, len(matched))
	for _, value := range matched {
		result = append(result, PreferenceType(value))
	}
	return result
}

// FilterInterests keeps only exact enum members from an already-split list.
// Array input gets no fuzzy repair; invalid entries are dropped.
func FilterInterests(values []string) []InterestType {
	result := make([]InterestType, 0, len(values))
	seen := map[InterestType]bool{}
	for _, value := range values {
		for _, known := range AllInterests() {
			if InterestType(value) == known && !seen[known] {
				seen[known] = true
				result = append(result, known)
				break
			}
		}
	}
	return result
}

// FilterPreferences keeps only exact enum members from an already-split list.
func FilterPreferences(values []string) []PreferenceType {
	result := make([]PreferenceType, 0, len(values))
	seen := map[PreferenceType]bool{}
	for _, value := range values {
		for _, known := range AllPreferences() {
			if PreferenceType(value) == known && !seen[known] {
				seen[known] = true
				result = append(result, known)
				break
			}
		}
	}
	return result
}

// parseList resolves each comma-separated token and deduplicates the result:
// distinct raw tokens ("live", "live classes") can land on the same enum
// value, and the stored sets carry a uniqueness constraint.
func parseList(raw string, values []string) []string {
	var result []string
	seen := map[string]bool{}
	for _, token := range strings.Split(raw, ",") {
		if matched, ok := matchEnum(token, values); ok && !seen[matched] {
			seen[matched] = true
			result = append(result, matched)
		}
	}
	return result
}

func interestValues() []string {
	interests := AllInterests()
	values := make([]string, len(interests))
	for i, interest := range interests {
		values[i] = string(interest)
	}
	return values
}

func preferenceValues() []string {
	preferences := AllPreferences()
	values := make([]string, len(preferences))
	for i, preference := range preferences {
		values[i] = string(preference)
	}
	return values
}
