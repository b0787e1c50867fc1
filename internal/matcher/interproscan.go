package matcher

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var ErrParse = errors.New("malformed annotation row")

const (
	colProtein   = 0
	colSignature = 4
	colStart     = 6
	colStop      = 7
	colScore     = 8

	minColumns = colSignature + 1
)

// RowError describes an annotation row that was skipped.
type RowError struct {
	Line   int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

func (e *RowError) Unwrap() error {
	return ErrParse
}

// Result is the outcome of parsing one annotation file. Skipped rows are
// reported rather than returned as an error.
type Result struct {
	Sample  string
	Set     *MatchSet
	Rows    int
	Skipped []*RowError
}

// ParseInterProScan reads InterProScan TSV output. Only a failure to read
// the stream is returned as an error.
func ParseInterProScan(r io.Reader) (*Result, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	result := &Result{}
	var matches []Match
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		result.Rows++

		columns := strings.Split(line, "\t")
		if len(columns) < minColumns {
			result.Skipped = append(result.Skipped, &RowError{
				Line:   lineNo,
				Reason: fmt.Sprintf("expected at least %d columns, found %d", minColumns, len(columns)),
			})
			continue
		}

		match := Match{
			ProteinID:   strings.TrimSpace(columns[colProtein]),
			SignatureID: strings.TrimSpace(columns[colSignature]),
		}
		if match.ProteinID == "" || match.SignatureID == "" {
			result.Skipped = append(result.Skipped, &RowError{Line: lineNo, Reason: "empty protein or signature accession"})
			continue
		}
		match.Start = optionalInt(columns, colStart)
		match.Stop = optionalInt(columns, colStop)
		match.Score = optionalScore(columns, colScore)
		matches = append(matches, match)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading annotation rows: %w", err)
	}

	result.Set = NewDetailedMatchSet(matches, nil)
	return result, nil
}

// ParseInterProScanFile parses one annotation file and names the sample
// after it.
func ParseInterProScanFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening annotation file: %w", err)
	}
	defer f.Close()

	result, err := ParseInterProScan(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	result.Sample = SampleName(path)
	return result, nil
}

// ParseWithSequences parses an annotation file and attaches the sequences of
// matched proteins read from a FASTA file. Proteins missing from the FASTA
// file are kept without a sequence.
func ParseWithSequences(annotationPath, fastaPath string) (*Result, error) {
	result, err := ParseInterProScanFile(annotationPath)
	if err != nil {
		return nil, err
	}
	sequences, err := ReadFASTAFile(fastaPath)
	if err != nil {
		return nil, err
	}
	result.Set = NewDetailedMatchSet(result.Set.matches, sequences)
	return result, nil
}

// SampleName is the file name without directory or extension.
func SampleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SequencePathFor finds the FASTA file that accompanies an annotation file:
// the same path with a .faa extension, or .fasta when that is missing.
func SequencePathFor(annotationPath string) (string, error) {
	stem := strings.TrimSuffix(annotationPath, filepath.Ext(annotationPath))
	for _, ext := range []string{".faa", ".fasta"} {
		candidate := stem + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no .faa or .fasta file next to %s: %w", annotationPath, os.ErrNotExist)
}

func optionalInt(columns []string, index int) int {
	if index >= len(columns) {
		return 0
	}
	value, err := strconv.Atoi(strings.TrimSpace(columns[index]))
	if err != nil {
		return 0
	}
	return value
}

func optionalScore(columns []string, index int) *float64 {
	if index >= len(columns) {
		return nil
	}
	raw := strings.TrimSpace(columns[index])
	if raw == "" || raw == "-" {
		return nil
	}
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &score
}
