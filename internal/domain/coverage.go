package domain

import (
	"math"
	"sort"
)

// CoverageStat summarizes covered vs total items (lines, functions or branches).
type CoverageStat struct {
	Covered int `json:"covered"`
	Total   int `json:"total"`
}

// Percent returns the coverage percentage as a raw float64.
func (c CoverageStat) Percent() float64 {
	if c.Total == 0 {
		return 0
	}
	return (float64(c.Covered) / float64(c.Total)) * 100
}

// PercentRounded returns the coverage percentage rounded to one decimal place.
func (c CoverageStat) PercentRounded() float64 {
	return Round1(c.Percent())
}

// IsEmpty returns true if there is nothing to cover.
func (c CoverageStat) IsEmpty() bool {
	return c.Total == 0
}

// Add returns the sum of two stats.
func (c CoverageStat) Add(other CoverageStat) CoverageStat {
	return CoverageStat{Covered: c.Covered + other.Covered, Total: c.Total + other.Total}
}

// Round1 rounds a float64 to one decimal place.
// This is the standard rounding function used for coverage percentages.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Summary groups line, function and branch coverage.
type Summary struct {
	Lines     CoverageStat `json:"lines"`
	Functions CoverageStat `json:"functions"`
	Branches  CoverageStat `json:"branches"`
}

// Add returns the element-wise sum of two summaries.
func (s Summary) Add(other Summary) Summary {
	return Summary{
		Lines:     s.Lines.Add(other.Lines),
		Functions: s.Functions.Add(other.Functions),
		Branches:  s.Branches.Add(other.Branches),
	}
}

// Function is a named function record within a source file.
type Function struct {
	Name    string
	Line    int
	EndLine int
	Hits    int
}

// BranchKey identifies a branch by its line, block and branch number.
type BranchKey struct {
	Line   int
	Block  int
	Branch string
}

// Branch records how often a branch was taken. Taken is -1 when the
// enclosing block was never executed (lcov "-").
type Branch struct {
	BranchKey
	Taken int
}

// Executed reports whether the branch was taken at least once.
func (b Branch) Executed() bool {
	return b.Taken > 0
}

// FileCoverage holds the coverage data of one source file.
type FileCoverage struct {
	Path      string
	Lines     map[int]int
	Functions map[string]Function
	Branches  map[BranchKey]Branch
}

// NewFileCoverage creates an empty record for the given source path.
func NewFileCoverage(path string) FileCoverage {
	return FileCoverage{
		Path:      path,
		Lines:     make(map[int]int),
		Functions: make(map[string]Function),
		Branches:  make(map[BranchKey]Branch),
	}
}

// Summary computes line, function and branch stats for the file.
func (f FileCoverage) Summary() Summary {
	var s Summary
	for _, hits := range f.Lines {
		s.Lines.Total++
		if hits > 0 {
			s.Lines.Covered++
		}
	}
	for _, fn := range f.Functions {
		s.Functions.Total++
		if fn.Hits > 0 {
			s.Functions.Covered++
		}
	}
	for _, br := range f.Branches {
		s.Branches.Total++
		if br.Executed() {
			s.Branches.Covered++
		}
	}
	return s
}

// SortedLines returns the instrumented line numbers in ascending order.
func (f FileCoverage) SortedLines() []int {
	lines := make([]int, 0, len(f.Lines))
	for line := range f.Lines {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

// SortedFunctions returns functions ordered by line, then name.
func (f FileCoverage) SortedFunctions() []Function {
	fns := make([]Function, 0, len(f.Functions))
	for _, fn := range f.Functions {
		fns = append(fns, fn)
	}
	sort.Slice(fns, func(i, j int) bool {
		if fns[i].Line != fns[j].Line {
			return fns[i].Line < fns[j].Line
		}
		return fns[i].Name < fns[j].Name
	})
	return fns
}

// SortedBranches returns branches ordered by line, block and branch id.
func (f FileCoverage) SortedBranches() []Branch {
	brs := make([]Branch, 0, len(f.Branches))
	for _, br := range f.Branches {
		brs = append(brs, br)
	}
	sort.Slice(brs, func(i, j int) bool {
		a, b := brs[i], brs[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Block != b.Block {
			return a.Block < b.Block
		}
		return a.Branch < b.Branch
	})
	return brs
}

// BranchesByLine groups branches by line, each group in block and branch order.
func (f FileCoverage) BranchesByLine() map[int][]Branch {
	out := make(map[int][]Branch)
	for _, br := range f.SortedBranches() {
		out[br.Line] = append(out[br.Line], br)
	}
	return out
}

// MergeInto adds other's counts into f. Both must describe the same path.
//
// Line and function hits are summed. Branch taken-counts are summed, where a
// never-executed block (-1) counts as zero unless both sides are -1.
func (f *FileCoverage) MergeInto(other FileCoverage) {
	if f.Lines == nil {
		f.Lines = make(map[int]int)
	}
	if f.Functions == nil {
		f.Functions = make(map[string]Function)
	}
	if f.Branches == nil {
		f.Branches = make(map[BranchKey]Branch)
	}
	for line, hits := range other.Lines {
		f.Lines[line] += hits
	}
	for name, fn := range other.Functions {
		existing, ok := f.Functions[name]
		if !ok {
			f.Functions[name] = fn
			continue
		}
		existing.Hits += fn.Hits
		if existing.Line == 0 {
			existing.Line = fn.Line
		}
		if existing.EndLine == 0 {
			existing.EndLine = fn.EndLine
		}
		f.Functions[name] = existing
	}
	for key, br := range other.Branches {
		existing, ok := f.Branches[key]
		if !ok {
			f.Branches[key] = br
			continue
		}
		existing.Taken = addTaken(existing.Taken, br.Taken)
		f.Branches[key] = existing
	}
}

func addTaken(a, b int) int {
	if a < 0 && b < 0 {
		return -1
	}
	return max(a, 0) + max(b, 0)
}

// MergeFiles combines file records by path, summing overlapping records.
// The result is sorted by path.
func MergeFiles(sets ...[]FileCoverage) []FileCoverage {
	byPath := make(map[string]*FileCoverage)
	for _, set := range sets {
		for _, fc := range set {
			existing, ok := byPath[fc.Path]
			if !ok {
				merged := NewFileCoverage(fc.Path)
				existing = &merged
				byPath[fc.Path] = existing
			}
			existing.MergeInto(fc)
		}
	}

	out := make([]FileCoverage, 0, len(byPath))
	for _, fc := range byPath {
		out = append(out, *fc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
