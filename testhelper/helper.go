package testhelper

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// TrimIndent strips the leading line break of a raw string literal and removes
// the indentation of its first line from every line. A trailing line holding
// only indentation is dropped.
func TrimIndent(t *testing.T, src string) string {
	t.Helper()

	lines := strings.Split(strings.TrimPrefix(src, "\n"), "\n")
	if len(lines) == 0 {
		return ""
	}

	first := lines[0]
	indent := first[:len(first)-len(strings.TrimLeft(first, " \t"))]

	if last := lines[len(lines)-1]; strings.TrimSpace(last) == "" {
		lines[len(lines)-1] = ""
	}

	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, indent)
	}

	return strings.Join(lines, "\n")
}

// Cursor removes the first "|" marker from src and returns the remaining text
// with the 0-based line and rune column where the marker stood.
func Cursor(t *testing.T, src string) (text string, line, column int) {
	t.Helper()

	index := strings.Index(src, "|")
	if index < 0 {
		t.Fatalf("no cursor marker in %q", src)
	}

	before := src[:index]
	line = strings.Count(before, "\n")
	column = utf8.RuneCountInString(before[strings.LastIndex(before, "\n")+1:])

	return before + src[index+1:], line, column
}
