package testhelper

import (
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
)

// GetCaller names a table-driven case after the line that declared it, as
// " (file.go:42)". Parse failures then point back at the failing row.
func GetCaller(tb testing.TB) string {
	tb.Helper()

	pcs := make([]uintptr, 1)
	if runtime.Callers(2, pcs) == 0 {
		return " (unknown)"
	}

	frame, _ := runtime.CallersFrames(pcs).Next()
	if frame.File == "" {
		return " (unknown)"
	}

	return " (" + filepath.Base(frame.File) + ":" + strconv.Itoa(frame.Line) + ")"
}
