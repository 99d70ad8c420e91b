package util

// Truncate shortens s to at most n runes and appends "..." when anything
// was cut. It never splits a multi-byte character.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + "..."
		}
		count++
	}
	return s
}
