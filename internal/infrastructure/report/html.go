// Package report renders merged lcov coverage as a static HTML site and
// prints run summaries for the CLI.
package report

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/felixgeelhaar/lcovhtml/internal/domain"
	"github.com/felixgeelhaar/lcovhtml/internal/infrastructure/badge"
	"github.com/felixgeelhaar/lcovhtml/internal/pathutil"
)

// Artifact names relative to the output directory.
const (
	IndexPage = "index.html"
	BadgeFile = "badge.svg"
	FilesDir  = "files"
)

const (
	timestampLayout = "2006-01-02 15:04:05 UTC"
	maxSourceSize   = 4 * 1024 * 1024
)

// Renderer implements application.Renderer.
type Renderer struct {
	// Now stamps generated pages. Defaults to time.Now.
	Now func() time.Time
}

// NewRenderer creates a renderer using the wall clock.
func NewRenderer() *Renderer {
	return &Renderer{Now: time.Now}
}

type statView struct {
	Label   string
	Covered int
	Total   int
	Percent float64
	Text    string
	Class   string
}

type fileRow struct {
	Path      string
	Page      string
	Lines     statView
	Functions statView
	Branches  statView
}

type indexData struct {
	Name      string
	Timestamp string
	Totals    []statView
	Inputs    []string
	Files     []fileRow
}

type functionRow struct {
	Name string
	Line int
	Hits int
}

type lineRow struct {
	Number   int
	Hits     string
	Branches string
	Class    string
	Source   string
}

type fileData struct {
	Name        string
	Path        string
	Index       string
	Timestamp   string
	Totals      []statView
	Functions   []functionRow
	Rows        []lineRow
	SourceShown bool
}

// Render produces one page per source file, the badge and the index page,
// in that order.
func (r *Renderer) Render(rep domain.Report) ([]domain.Artifact, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	timestamp := now().UTC().Format(timestampLayout)

	names := newPageNames()
	rows := make([]fileRow, 0, len(rep.Files))
	artifacts := make([]domain.Artifact, 0, len(rep.Files)+2)

	for _, fc := range rep.Files {
		page := FilesDir + "/" + names.assign(fc.Path)
		summary := fc.Summary()

		data := r.fileData(rep, fc, summary, timestamp)
		html, err := execute("file", data)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", page, err)
		}
		artifacts = append(artifacts, domain.Artifact{Path: page, Data: html})

		rows = append(rows, fileRow{
			Path:      fc.Path,
			Page:      page,
			Lines:     view("Lines", summary.Lines),
			Functions: view("Functions", summary.Functions),
			Branches:  view("Branches", summary.Branches),
		})
	}

	svg, err := badge.Render(badge.Options{Label: badge.DefaultLabel, Stat: rep.Totals.Lines, Style: badge.Style(rep.BadgeStyle)})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", BadgeFile, err)
	}
	artifacts = append(artifacts, domain.Artifact{Path: BadgeFile, Data: svg})

	index, err := execute("index", indexData{
		Name:      rep.Name,
		Timestamp: timestamp,
		Totals:    views(rep.Totals),
		Inputs:    rep.Inputs,
		Files:     rows,
	})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", IndexPage, err)
	}
	artifacts = append(artifacts, domain.Artifact{Path: IndexPage, Data: index})

	return artifacts, nil
}

func (r *Renderer) fileData(rep domain.Report, fc domain.FileCoverage, summary domain.Summary, timestamp string) fileData {
	data := fileData{
		Name:      rep.Name,
		Path:      fc.Path,
		Index:     "../" + IndexPage,
		Timestamp: timestamp,
		Totals:    views(summary),
	}
	for _, fn := range fc.SortedFunctions() {
		data.Functions = append(data.Functions, functionRow{Name: fn.Name, Line: fn.Line, Hits: fn.Hits})
	}

	branches := fc.BranchesByLine()
	source := readSource(rep.SourceRoot, fc.Path)
	if source != nil {
		data.SourceShown = true
		data.Rows = make([]lineRow, 0, len(source))
		for i, text := range source {
			data.Rows = append(data.Rows, row(fc, branches, i+1, text))
		}
		// Instrumented lines past the end of the source file are still listed.
		for _, n := range fc.SortedLines() {
			if n > len(source) {
				data.Rows = append(data.Rows, row(fc, branches, n, ""))
			}
		}
		return data
	}

	lines := fc.SortedLines()
	data.Rows = make([]lineRow, 0, len(lines))
	for _, n := range lines {
		data.Rows = append(data.Rows, row(fc, branches, n, ""))
	}
	return data
}

func row(fc domain.FileCoverage, branches map[int][]domain.Branch, n int, source string) lineRow {
	lr := lineRow{Number: n, Source: source}
	if hits, ok := fc.Lines[n]; ok {
		lr.Hits = strconv.Itoa(hits)
		lr.Class = "uncovered"
		if hits > 0 {
			lr.Class = "covered"
		}
	}
	if brs := branches[n]; len(brs) > 0 {
		taken := 0
		for _, b := range brs {
			if b.Executed() {
				taken++
			}
		}
		lr.Branches = fmt.Sprintf("%d/%d", taken, len(brs))
	}
	return lr
}

// readSource returns the lines of a source file under root, or nil when it
// cannot be shown.
func readSource(root, file string) []string {
	if root == "" {
		return nil
	}
	p, err := pathutil.Within(root, file)
	if err != nil {
		return nil
	}
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() || info.Size() > maxSourceSize {
		return nil
	}
	content, err := os.ReadFile(p) // #nosec G304 - path is contained in root
	if err != nil || !utf8.Valid(content) {
		return nil
	}
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{}
	}
	return strings.Split(text, "\n")
}

func execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func views(s domain.Summary) []statView {
	return []statView{
		view("Lines", s.Lines),
		view("Functions", s.Functions),
		view("Branches", s.Branches),
	}
}

func view(label string, stat domain.CoverageStat) statView {
	return statView{
		Label:   label,
		Covered: stat.Covered,
		Total:   stat.Total,
		Percent: stat.PercentRounded(),
		Text:    badge.FormatPercent(stat),
		Class:   level(stat),
	}
}

// level maps a stat to the pass/warn/fail CSS classes.
func level(stat domain.CoverageStat) string {
	if stat.IsEmpty() {
		return ""
	}
	switch p := stat.PercentRounded(); {
	case p >= 80:
		return "pass"
	case p >= 50:
		return "warn"
	default:
		return "fail"
	}
}
