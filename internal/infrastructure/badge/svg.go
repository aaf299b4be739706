// Package badge renders shields-style SVG coverage badges.
package badge

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/felixgeelhaar/lcovhtml/internal/domain"
)

type Style string

const (
	StyleFlat       Style = "flat"
	StyleFlatSquare Style = "flat-square"
)

// DefaultLabel is used when Options.Label is empty.
const DefaultLabel = "coverage"

type Options struct {
	Label string
	Stat  domain.CoverageStat
	Style Style
}

const svgTemplate = `<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="20" role="img" aria-label="{{.Label}}: {{.ValueText}}">
  <title>{{.Label}}: {{.ValueText}}</title>
  <linearGradient id="s" x2="0" y2="100%">
    <stop offset="0" stop-color="#bbb" stop-opacity=".1"/>
    <stop offset="1" stop-opacity=".1"/>
  </linearGradient>
  <clipPath id="r">
    <rect width="{{.Width}}" height="20" rx="{{.Rx}}" fill="#fff"/>
  </clipPath>
  <g clip-path="url(#r)">
    <rect width="{{.LabelWidth}}" height="20" fill="#555"/>
    <rect x="{{.LabelWidth}}" width="{{.ValueWidth}}" height="20" fill="{{.Color}}"/>
    <rect width="{{.Width}}" height="20" fill="url(#s)"/>
  </g>
  <g fill="#fff" text-anchor="middle" font-family="Verdana,Geneva,DejaVu Sans,sans-serif" text-rendering="geometricPrecision" font-size="110">
    <text aria-hidden="true" x="{{.LabelX}}" y="150" fill="#010101" fill-opacity=".3" transform="scale(.1)" textLength="{{.LabelTextWidth}}">{{.Label}}</text>
    <text x="{{.LabelX}}" y="140" transform="scale(.1)" fill="#fff" textLength="{{.LabelTextWidth}}">{{.Label}}</text>
    <text aria-hidden="true" x="{{.ValueX}}" y="150" fill="#010101" fill-opacity=".3" transform="scale(.1)" textLength="{{.ValueTextWidth}}">{{.ValueText}}</text>
    <text x="{{.ValueX}}" y="140" transform="scale(.1)" fill="#fff" textLength="{{.ValueTextWidth}}">{{.ValueText}}</text>
  </g>
</svg>
`

var svg = template.Must(template.New("badge").Parse(svgTemplate))

type templateData struct {
	Label          string
	ValueText      string
	Color          string
	Width          int
	LabelWidth     int
	ValueWidth     int
	LabelX         int
	ValueX         int
	LabelTextWidth int
	ValueTextWidth int
	Rx             int
}

// Generate writes the badge for opts to w.
func Generate(w io.Writer, opts Options) error {
	if opts.Style == "" {
		opts.Style = StyleFlat
	}
	if opts.Label == "" {
		opts.Label = DefaultLabel
	}

	valueText := FormatPercent(opts.Stat)
	color := ColorFor(opts.Stat)

	// Approximate Verdana 11px glyph width.
	labelWidth := len(opts.Label)*7 + 10
	valueWidth := len(valueText)*7 + 10

	rx := 3
	if opts.Style == StyleFlatSquare {
		rx = 0
	}

	data := templateData{
		Label:          opts.Label,
		ValueText:      valueText,
		Color:          color,
		Width:          labelWidth + valueWidth,
		LabelWidth:     labelWidth,
		ValueWidth:     valueWidth,
		LabelX:         labelWidth * 5,
		ValueX:         (labelWidth*2 + valueWidth) * 5,
		LabelTextWidth: len(opts.Label) * 70,
		ValueTextWidth: len(valueText) * 70,
		Rx:             rx,
	}
	if err := svg.Execute(w, data); err != nil {
		return fmt.Errorf("render badge: %w", err)
	}
	return nil
}

// Render returns the badge bytes.
func Render(opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Generate(&buf, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatPercent renders a stat as "85.5%", "100%" or "n/a" when nothing is instrumented.
func FormatPercent(stat domain.CoverageStat) string {
	if stat.IsEmpty() {
		return "n/a"
	}
	p := stat.PercentRounded()
	if p == float64(int(p)) {
		return fmt.Sprintf("%.0f%%", p)
	}
	return fmt.Sprintf("%.1f%%", p)
}

// ColorFor picks the badge color for a stat.
func ColorFor(stat domain.CoverageStat) string {
	if stat.IsEmpty() {
		return "#9f9f9f"
	}
	p := stat.PercentRounded()
	switch {
	case p >= 90:
		return "#4c1"
	case p >= 75:
		return "#97ca00"
	case p >= 60:
		return "#dfb317"
	default:
		return "#e05d44"
	}
}
