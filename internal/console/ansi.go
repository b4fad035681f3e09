package console

import "regexp"

// ansiPattern matches CSI sequences, OSC titles, and stray two-byte
// escapes, the escape vocabulary external scanners actually emit.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b\][^\a\x1b]*(\a|\x1b\\)|\x1b[@-Z\\-_]`)

// StripANSI removes terminal escape sequences and carriage returns so
// captured tool output can be re-wrapped cleanly.
func StripANSI(s string) string {
	s = ansiPattern.ReplaceAllString(s, "")
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\r' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
