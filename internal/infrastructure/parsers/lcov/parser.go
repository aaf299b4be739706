// Package lcov implements a strict parser for the LCOV tracefile format.
//
// LCOV tracefiles are produced by:
//   - nyc/c8/Jest/Karma (JavaScript/TypeScript)
//   - pytest-cov (Python)
//   - GCC/LLVM gcov via lcov/geninfo
//   - Ruby, PHP and Rust coverage tools
//
// Unknown tags, malformed numbers and data outside a source-file section are
// rejected so that a corrupt tracefile fails loudly instead of rendering an
// empty report.
package lcov

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/lcovhtml/internal/domain"
)

var (
	// ErrInvalid is wrapped by every parse failure.
	ErrInvalid = errors.New("invalid lcov data")
	// ErrNoRecords is returned for input without any SF record.
	ErrNoRecords = fmt.Errorf("%w: no source file records", ErrInvalid)
)

const maxLineSize = 4 * 1024 * 1024

// ParseError locates a malformed line.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrInvalid }

// Parser implements application.CoverageParser for LCOV.
type Parser struct{}

// New creates a new LCOV parser.
func New() *Parser {
	return &Parser{}
}

// Parse reads LCOV data and returns one record per source file, sorted by path.
// Records repeated for the same source file are merged.
func (p *Parser) Parse(name string, r io.Reader) ([]domain.FileCoverage, error) {
	st := &state{name: name}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		st.lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := st.handle(line); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: scan lcov data: %w", name, err)
	}

	// A final record without end_of_record is accepted.
	if st.current != nil {
		st.closeRecord()
	}
	if !st.sawSource {
		return nil, fmt.Errorf("%s: %w", name, ErrNoRecords)
	}
	return domain.MergeFiles(st.records), nil
}

type state struct {
	name      string
	lineNo    int
	sawSource bool
	current   *domain.FileCoverage
	leaders   map[int]domain.Function
	records   []domain.FileCoverage
}

func (s *state) fail(format string, args ...any) error {
	return &ParseError{File: s.name, Line: s.lineNo, Msg: fmt.Sprintf(format, args...)}
}

func (s *state) closeRecord() {
	s.records = append(s.records, *s.current)
	s.current = nil
	s.leaders = nil
}

func (s *state) handle(line string) error {
	if line == "end_of_record" {
		if s.current == nil {
			return s.fail("end_of_record without SF")
		}
		s.closeRecord()
		return nil
	}

	tag, value, ok := strings.Cut(line, ":")
	if !ok {
		return s.fail("expected TAG:value, got %q", line)
	}

	switch tag {
	case "TN", "VER":
		return nil
	case "SF":
		return s.startRecord(value)
	}

	if s.current == nil {
		return s.fail("%s record outside of SF section", tag)
	}

	switch tag {
	case "DA":
		return s.lineData(value)
	case "FN":
		return s.function(value)
	case "FNDA":
		return s.functionData(value)
	case "FNL":
		return s.functionLeader(value)
	case "FNA":
		return s.functionAlias(value)
	case "BRDA":
		return s.branchData(value)
	case "LF", "LH", "FNF", "FNH", "BRF", "BRH":
		// Summary counts are recomputed from the detail records.
		_, err := s.count(tag, value)
		return err
	default:
		return s.fail("unknown record type %q", tag)
	}
}

func (s *state) startRecord(value string) error {
	if s.current != nil {
		return s.fail("SF before end_of_record of %s", s.current.Path)
	}
	path := strings.TrimSpace(value)
	if path == "" {
		return s.fail("empty SF path")
	}
	fc := domain.NewFileCoverage(path)
	s.current = &fc
	s.sawSource = true
	return nil
}

// DA:<line>,<count>[,<checksum>]
func (s *state) lineData(value string) error {
	parts := strings.Split(value, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return s.fail("DA expects line,count[,checksum]")
	}
	line, err := s.lineNumber("DA", parts[0])
	if err != nil {
		return err
	}
	hits, err := s.count("DA", parts[1])
	if err != nil {
		return err
	}
	s.current.Lines[line] += hits
	return nil
}

// FN:<line>[,<end line>],<name>
func (s *state) function(value string) error {
	first, rest, ok := strings.Cut(value, ",")
	if !ok || rest == "" {
		return s.fail("FN expects line[,end],name")
	}
	line, err := s.lineNumber("FN", first)
	if err != nil {
		return err
	}
	end := 0
	if second, name, ok := strings.Cut(rest, ","); ok && name != "" {
		if n, err := strconv.Atoi(second); err == nil && n > 0 {
			end = n
			rest = name
		}
	}
	s.addFunction(domain.Function{Name: rest, Line: line, EndLine: end})
	return nil
}

// FNDA:<count>,<name>
func (s *state) functionData(value string) error {
	countText, name, ok := strings.Cut(value, ",")
	if !ok || name == "" {
		return s.fail("FNDA expects count,name")
	}
	hits, err := s.count("FNDA", countText)
	if err != nil {
		return err
	}
	fn := s.current.Functions[name]
	fn.Name = name
	fn.Hits += hits
	s.current.Functions[name] = fn
	return nil
}

// FNL:<index>,<line>[,<end line>]
func (s *state) functionLeader(value string) error {
	parts := strings.Split(value, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return s.fail("FNL expects index,line[,end]")
	}
	index, err := s.count("FNL", parts[0])
	if err != nil {
		return err
	}
	line, err := s.lineNumber("FNL", parts[1])
	if err != nil {
		return err
	}
	fn := domain.Function{Line: line}
	if len(parts) == 3 {
		if fn.EndLine, err = s.lineNumber("FNL", parts[2]); err != nil {
			return err
		}
	}
	if s.leaders == nil {
		s.leaders = make(map[int]domain.Function)
	}
	s.leaders[index] = fn
	return nil
}

// FNA:<index>,<count>,<name>
func (s *state) functionAlias(value string) error {
	parts := strings.SplitN(value, ",", 3)
	if len(parts) != 3 || parts[2] == "" {
		return s.fail("FNA expects index,count,name")
	}
	index, err := s.count("FNA", parts[0])
	if err != nil {
		return err
	}
	hits, err := s.count("FNA", parts[1])
	if err != nil {
		return err
	}
	leader, ok := s.leaders[index]
	if !ok {
		return s.fail("FNA references unknown FNL index %d", index)
	}
	leader.Name = parts[2]
	leader.Hits = hits
	s.addFunction(leader)
	return nil
}

func (s *state) addFunction(fn domain.Function) {
	existing, ok := s.current.Functions[fn.Name]
	if ok {
		fn.Hits += existing.Hits
	}
	s.current.Functions[fn.Name] = fn
}

// BRDA:<line>,[e]<block>,<branch>,<taken|->
func (s *state) branchData(value string) error {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return s.fail("BRDA expects line,block,branch,taken")
	}
	line, err := s.lineNumber("BRDA", parts[0])
	if err != nil {
		return err
	}
	block, err := s.count("BRDA", strings.TrimPrefix(parts[1], "e"))
	if err != nil {
		return err
	}
	if parts[2] == "" {
		return s.fail("BRDA has empty branch id")
	}
	taken := -1
	if parts[3] != "-" {
		if taken, err = s.count("BRDA", parts[3]); err != nil {
			return err
		}
	}

	key := domain.BranchKey{Line: line, Block: block, Branch: parts[2]}
	if existing, ok := s.current.Branches[key]; ok {
		switch {
		case existing.Taken < 0:
			existing.Taken = taken
		case taken > 0:
			existing.Taken += taken
		}
		s.current.Branches[key] = existing
		return nil
	}
	s.current.Branches[key] = domain.Branch{BranchKey: key, Taken: taken}
	return nil
}

func (s *state) lineNumber(tag, text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 {
		return 0, s.fail("%s has invalid line number %q", tag, text)
	}
	return n, nil
}

func (s *state) count(tag, text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 0 {
		return 0, s.fail("%s has invalid count %q", tag, text)
	}
	return n, nil
}
