// Package strings holds small string helpers shared by the registrar code.
package strings

import (
	"strings"
)

// NormalizeHostname lowercases a DNS name and strips surrounding space and the
// trailing root dot.
func NormalizeHostname(h string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(h)), ".")
}

// UniqueHostnames normalizes each name and keeps the first occurrence of
// every non-empty result, in input order. A nil input stays nil.
func UniqueHostnames(hosts []string) []string {
	if hosts == nil {
		return nil
	}
	out := hosts[:0:0]
	seen := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		n := NormalizeHostname(h)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
