package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)

	return code, stdout.String(), stderr.String()
}

func TestVersion(t *testing.T) {
	t.Chdir(t.TempDir())

	code, stdout, _ := runCLI(t, "", "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "scrapbook v0.1.0\n", stdout)
}

func TestParseFromStdin(t *testing.T) {
	t.Chdir(t.TempDir())

	code, stdout, _ := runCLI(t, "db.a.find({x: 1})\ndb.b.insertOne({})", "--no-color", "parse", "--filter", `kind == "read"`)
	assert.Equal(t, 0, code)
	assert.Equal(t, "<stdin>:1:1 db.a.find()\n  arg 1: {x: 1}\n", stdout)
}

func TestParseRejectsBrokenFilter(t *testing.T) {
	t.Chdir(t.TempDir())

	code, _, stderr := runCLI(t, "db.a.find()", "parse", "--filter", "name ==")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid filter expression")
}

func TestCheck(t *testing.T) {
	t.Chdir(t.TempDir())

	code, stdout, stderr := runCLI(t, "db.a.find(#)", "--no-color", "check")
	assert.Equal(t, 1, code)
	assert.Equal(t, "<stdin>:1:11: unexpected character \"#\"\n", stdout)
	assert.Contains(t, stderr, "scrapbook has errors")

	code, stdout, _ = runCLI(t, "db.a.find()", "check")
	assert.Equal(t, 0, code)
	assert.Equal(t, "", stdout)
}

func TestCheckWithoutFailOnError(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scrapbook.yaml"), []byte("check:\n  fail_on_error: false\n"), 0o644))

	code, stdout, _ := runCLI(t, "db.a.find(#)", "--format", "json", "check")
	assert.Equal(t, 0, code)

	var diagnostics []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &diagnostics))
	assert.Equal(t, 1, len(diagnostics))
	assert.Equal[any](t, "<stdin>", diagnostics[0]["source"])
}

func TestLocateInMarkdown(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	markdown := "# Book\n\n```mongo\ndb.a.find()\ndb.b.countDocuments()\n```\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "book.md"), []byte(markdown), 0o644))

	code, stdout, _ := runCLI(t, "", "--no-color", "locate", "book.md", "--line", "5", "--column", "6")
	assert.Equal(t, 0, code)
	assert.Equal(t, "book.md:5:1 db.b.countDocuments()\n", stdout)

	code, _, stderr := runCLI(t, "", "locate", "book.md", "--line", "1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no command at position")

	code, _, stderr = runCLI(t, "", "locate", "book.md", "--line", "0")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "line and column start at 1")
}

func TestPlan(t *testing.T) {
	t.Chdir(t.TempDir())

	code, stdout, _ := runCLI(t, "db.a.find({x: 1})\ndb.a.drop()", "--format", "json", "plan")
	require.Equal(t, 0, code)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Equal(t, 2, len(entries))
	assert.Equal[any](t, "find", entries[0]["operation"].(map[string]any)["method"])
	assert.Contains(t, entries[1]["skipped"].(string), "dangerous operation")

	code, stdout, _ = runCLI(t, "db.a.drop()", "--format", "json", "plan", "--allow-dangerous")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `"method": "drop"`)
}

func TestUnknownFormat(t *testing.T) {
	t.Chdir(t.TempDir())

	code, _, stderr := runCLI(t, "", "--format", "xml", "parse")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unsupported output format")
}

func TestMissingExplicitConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	code, _, stderr := runCLI(t, "", "--config", "nope.yaml", "version")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "configuration file not found")
}
