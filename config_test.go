package scrapbook

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/scrapbook/formatter"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	err := os.WriteFile(path, []byte(content), 0o644)
	assert.NoError(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	config, err := LoadConfig("")
	assert.NoError(t, err)

	assert.Equal(t, formatter.FormatText, config.Format())
	assert.True(t, config.Colored())
	assert.True(t, config.FailOnError())
	assert.Equal(t, []string{"mongo", "mongodb", "javascript", "js"}, config.Markdown.Languages)
	assert.Equal(t, time.Duration(0), config.PlanOptions(nil).Timeout)
}

func TestLoadConfigExplicitMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadConfig("missing.yaml")
	assert.True(t, errors.Is(err, ErrConfigFileNotFound))
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFile(t, filepath.Join(dir, "scrapbook.yaml"), `
output:
  format: yaml
  color: false
markdown:
  languages: [Mongo, mongosh]
check:
  fail_on_error: false
plan:
  allow_unknown: true
  allow_dangerous: true
  timeout: 5s
  filter: kind == "read"
`)

	config, err := LoadConfig("")
	assert.NoError(t, err)

	assert.Equal(t, formatter.FormatYAML, config.Format())
	assert.False(t, config.Colored())
	assert.False(t, config.FailOnError())
	assert.Equal(t, []string{"mongo", "mongosh"}, config.Markdown.Languages)
	assert.Equal(t, `kind == "read"`, config.Plan.Filter)

	options := config.PlanOptions(nil)
	assert.True(t, options.AllowUnknown)
	assert.True(t, options.AllowDangerous)
	assert.Equal(t, 5*time.Second, options.Timeout)
}

func TestLoadConfigExpandsEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	t.Setenv("SCRAPBOOK_FORMAT", "json")
	t.Cleanup(func() { os.Unsetenv("SCRAPBOOK_TIMEOUT") })
	writeFile(t, filepath.Join(dir, ".env"), "SCRAPBOOK_TIMEOUT=250ms\nSCRAPBOOK_FORMAT=yaml\n")
	writeFile(t, filepath.Join(dir, "custom.yaml"), `
output:
  format: ${SCRAPBOOK_FORMAT}
plan:
  timeout: $SCRAPBOOK_TIMEOUT
`)

	config, err := LoadConfig("custom.yaml")
	assert.NoError(t, err)

	// variables already set win over .env
	assert.Equal(t, formatter.FormatJSON, config.Format())
	assert.Equal(t, 250*time.Millisecond, config.PlanOptions(nil).Timeout)
}

func TestLoadConfigEnvNextToConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(t.TempDir())

	writeFile(t, filepath.Join(dir, ".env"), "SCRAPBOOK_NESTED_FORMAT=json\n")
	writeFile(t, filepath.Join(dir, "scrapbook.yaml"), "output:\n  format: ${SCRAPBOOK_NESTED_FORMAT}\n")

	t.Cleanup(func() { os.Unsetenv("SCRAPBOOK_NESTED_FORMAT") })

	config, err := LoadConfig(filepath.Join(dir, "scrapbook.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, formatter.FormatJSON, config.Format())
}
