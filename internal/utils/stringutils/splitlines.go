package stringutils

import "strings"

// SplitLines splits s into lines. A trailing newline does not produce a final
// empty line, and an empty string has no lines at all.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
