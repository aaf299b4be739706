// Package config reads and writes the optional .lcovhtml.yaml file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/lcovhtml/internal/domain"
)

// DefaultPath is looked up relative to the root when no --config is given.
const DefaultPath = ".lcovhtml.yaml"

// CurrentVersion is the only config schema version understood.
const CurrentVersion = 1

var ErrUnsupportedVersion = errors.New("unsupported config version")

type Loader struct{}

type fileConfig struct {
	Version int        `yaml:"version"`
	Report  fileReport `yaml:"report"`
}

type fileReport struct {
	Name       string `yaml:"name,omitempty"`
	Input      string `yaml:"input,omitempty"`
	Output     string `yaml:"output,omitempty"`
	BadgeStyle string `yaml:"badge_style,omitempty"`
}

func (l Loader) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Load reads a config file. Unknown keys are rejected; an empty file yields
// an empty configuration.
func (l Loader) Load(path string) (domain.ReportConfig, error) {
	raw, err := os.ReadFile(path) // #nosec G304 - path comes from the --config flag
	if err != nil {
		return domain.ReportConfig{}, err
	}

	var cfg fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return domain.ReportConfig{}, err
	}

	if cfg.Version == 0 {
		cfg.Version = CurrentVersion
	}
	if cfg.Version != CurrentVersion {
		return domain.ReportConfig{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, cfg.Version)
	}

	return domain.ReportConfig{
		Name:       cfg.Report.Name,
		Input:      cfg.Report.Input,
		Output:     cfg.Report.Output,
		BadgeStyle: cfg.Report.BadgeStyle,
	}, nil
}

// Write encodes cfg as YAML. Root is never persisted.
func Write(w io.Writer, cfg domain.ReportConfig) error {
	out := fileConfig{
		Version: CurrentVersion,
		Report: fileReport{
			Name:       cfg.Name,
			Input:      cfg.Input,
			Output:     cfg.Output,
			BadgeStyle: cfg.BadgeStyle,
		},
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

// WriteFile writes cfg to path, refusing to replace an existing file unless force is set.
func WriteFile(path string, cfg domain.ReportConfig, force bool) error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o644) // #nosec G302 G304 - config is meant to be committed
	if err != nil {
		return err
	}
	if err := Write(file, cfg); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
