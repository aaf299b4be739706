package domain

import (
	"errors"
	"path"
	"strings"
)

// ErrUnsafeArtifactPath is returned when an artifact path would escape the output directory.
var ErrUnsafeArtifactPath = errors.New("artifact path escapes output directory")

// Report is the merged coverage of one task run.
type Report struct {
	Name       string
	SourceRoot string
	Inputs     []string
	Files      []FileCoverage
	Totals     Summary
	// BadgeStyle is one of the BadgeStyle* constants; empty means flat.
	BadgeStyle string
}

// NewReport merges the per-input file sets and computes totals.
func NewReport(name, sourceRoot string, inputs []string, sets ...[]FileCoverage) Report {
	files := MergeFiles(sets...)
	var totals Summary
	for _, f := range files {
		totals = totals.Add(f.Summary())
	}
	return Report{
		Name:       name,
		SourceRoot: sourceRoot,
		Inputs:     append([]string(nil), inputs...),
		Files:      files,
		Totals:     totals,
	}
}

// Artifact is one rendered output file.
type Artifact struct {
	// Path is slash-separated and relative to the output directory.
	Path string
	Data []byte
}

// ValidateArtifactPath rejects absolute paths and paths containing "..".
func ValidateArtifactPath(p string) error {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return ErrUnsafeArtifactPath
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return ErrUnsafeArtifactPath
	}
	return nil
}
