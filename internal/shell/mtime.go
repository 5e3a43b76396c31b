package shell

import "os"

// IsNewer reports whether a was modified after b. It is false when either
// file is missing.
func IsNewer(a, b string) bool {
	sa, err := os.Stat(a)
	if err != nil {
		return false
	}
	sb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return sa.ModTime().After(sb.ModTime())
}

// ModTime compares files by modification time.
type ModTime struct{}

func (ModTime) IsNewer(a, b string) bool { return IsNewer(a, b) }
