package main

import "strings"

// ParseAPIKeys splits a comma-separated list of API keys, trimming
// whitespace around each one.
func ParseAPIKeys(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	keys := make([]string, len(parts))
	for i, p := range parts {
		keys[i] = strings.TrimSpace(p)
	}
	return keys
}
