package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/lcovhtml/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, "version: 1\nreport:\n  name: Storefront\n  input: test/**/lcov.info\n  output: public/coverage\n")

	cfg, err := Loader{}.Load(path)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportConfig{
		Name:   "Storefront",
		Input:  "test/**/lcov.info",
		Output: "public/coverage",
	}, cfg)
}

func TestLoadBadgeStyle(t *testing.T) {
	cfg, err := Loader{}.Load(writeConfig(t, "report:\n  badge_style: flat-square\n"))
	require.NoError(t, err)
	assert.Equal(t, domain.BadgeStyleFlatSquare, cfg.BadgeStyle)
}

func TestLoadPartialConfig(t *testing.T) {
	path := writeConfig(t, "report:\n  name: Only Name\n")

	cfg, err := Loader{}.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Only Name", cfg.Name)
	assert.Empty(t, cfg.Input)
	assert.Empty(t, cfg.Output)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Loader{}.Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, domain.ReportConfig{}, cfg)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Loader{}.Load(writeConfig(t, "report: [unclosed\n"))
	assert.Error(t, err)
}

func TestLoadUnknownField(t *testing.T) {
	_, err := Loader{}.Load(writeConfig(t, "report:\n  title: typo\n"))
	assert.Error(t, err)
}

func TestLoadUnsupportedVersion(t *testing.T) {
	_, err := Loader{}.Load(writeConfig(t, "version: 2\n"))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Loader{}.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExists(t *testing.T) {
	ok, err := Loader{}.Exists(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Loader{}.Exists(writeConfig(t, "version: 1\n"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := domain.DefaultReportConfig()
	cfg.Root = "/ignored"

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, cfg))
	assert.Contains(t, buf.String(), "version: 1")
	assert.Contains(t, buf.String(), "name: My WebApp")
	assert.NotContains(t, buf.String(), "/ignored")

	loaded, err := Loader{}.Load(writeConfig(t, buf.String()))
	require.NoError(t, err)
	cfg.Root = ""
	assert.Equal(t, cfg, loaded)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	cfg := domain.ReportConfig{Name: "First"}

	require.NoError(t, WriteFile(path, cfg, false))
	assert.ErrorIs(t, WriteFile(path, domain.ReportConfig{Name: "Second"}, false), os.ErrExist)

	loaded, err := Loader{}.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "First", loaded.Name)

	require.NoError(t, WriteFile(path, domain.ReportConfig{Name: "Second"}, true))
	loaded, err = Loader{}.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Second", loaded.Name)
}
