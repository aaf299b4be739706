package domain

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultReportConfig(t *testing.T) {
	cfg := DefaultReportConfig()

	assert.Equal(t, "My WebApp", cfg.Name)
	assert.Equal(t, "test/**/coverage.info", cfg.Input)
	assert.Equal(t, ".coverage", cfg.Output)
	assert.Equal(t, "flat", cfg.BadgeStyle)
	assert.Empty(t, cfg.Root)
}

func TestReportConfigValidate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		cfg := DefaultReportConfig()
		cfg.Root = "/repo"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing root fails", func(t *testing.T) {
		err := DefaultReportConfig().Validate()
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.ErrorIs(t, err, ErrEmptyRoot)
	})

	t.Run("blank name fails", func(t *testing.T) {
		cfg := DefaultReportConfig()
		cfg.Root = "/repo"
		cfg.Name = "   "
		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("unknown badge style fails", func(t *testing.T) {
		cfg := DefaultReportConfig()
		cfg.Root = "/repo"
		cfg.BadgeStyle = "rounded"
		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.ErrorIs(t, err, ErrBadgeStyle)

		cfg.BadgeStyle = ""
		assert.NoError(t, cfg.Validate())
	})

	t.Run("reports every missing field", func(t *testing.T) {
		err := ReportConfig{}.Validate()
		assert.ErrorIs(t, err, ErrEmptyName)
		assert.ErrorIs(t, err, ErrEmptyPattern)
		assert.ErrorIs(t, err, ErrEmptyOutput)
		assert.ErrorIs(t, err, ErrEmptyRoot)
	})
}

func TestReportConfigMerge(t *testing.T) {
	base := DefaultReportConfig()
	merged := base.Merge(ReportConfig{Name: "Other", Root: "/repo"})

	assert.Equal(t, "Other", merged.Name)
	assert.Equal(t, "/repo", merged.Root)
	assert.Equal(t, base.Input, merged.Input)
	assert.Equal(t, base.Output, merged.Output)
	assert.Equal(t, BadgeStyleFlat, merged.BadgeStyle)

	merged = merged.Merge(ReportConfig{BadgeStyle: BadgeStyleFlatSquare})
	assert.Equal(t, BadgeStyleFlatSquare, merged.BadgeStyle)
}

func TestReportConfigOutputPath(t *testing.T) {
	cfg := ReportConfig{Root: filepath.FromSlash("/repo"), Output: ".coverage"}
	assert.Equal(t, filepath.Join(filepath.FromSlash("/repo"), ".coverage"), cfg.OutputPath())

	abs, err := filepath.Abs(filepath.Join("out", "report"))
	assert.NoError(t, err)
	cfg.Output = abs
	assert.Equal(t, abs, cfg.OutputPath())
}
