// Package clipboard puts the called numbers on the system clipboard so the
// operator can paste them into a chat or a results sheet.
package clipboard

import (
	"strconv"
	"strings"

	cb "github.com/atotto/clipboard"
)

// Write is the clipboard backend. Tests replace it.
var Write = cb.WriteAll

func Copy(text string) error {
	return Write(text)
}

// FormatNumbers joins numbers in call order, e.g. "5, 12, 34".
func FormatNumbers(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

// CopyNumbers copies the called numbers and returns the copied text.
func CopyNumbers(ns []int) (string, error) {
	text := FormatNumbers(ns)
	return text, Copy(text)
}
