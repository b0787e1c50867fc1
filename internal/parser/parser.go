package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"micromeda/internal/graph"
)

const (
	blockTerminator = "//"
	stepSeparator   = "--"
)

type record struct {
	marker  string
	content string
	line    int
}

// ParseFile parses a genome properties flat file into a property graph.
func ParseFile(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	g, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return g, nil
}

func Parse(r io.Reader) (*graph.Graph, error) {
	properties, err := ParseProperties(r)
	if err != nil {
		return nil, err
	}
	return graph.Build(properties...)
}

// ParseProperties parses every block of the catalog without resolving
// inter-property references.
func ParseProperties(r io.Reader) ([]*graph.Property, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var (
		properties []*graph.Property
		block      []record
		lineNo     int
		blockStart = 1
	)

	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		property, err := parseBlock(unwrap(block), blockStart)
		if err != nil {
			return err
		}
		properties = append(properties, property)
		block = block[:0]
		return nil
	}

	for sc.Scan() {
		lineNo++
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == blockTerminator {
			if err := flush(); err != nil {
				return nil, err
			}
			blockStart = lineNo + 1
			continue
		}
		if trimmed == "" {
			continue
		}
		block = append(block, splitLine(line, lineNo))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return properties, nil
}

func splitLine(line string, lineNo int) record {
	marker, content, _ := strings.Cut(line, "  ")
	return record{
		marker:  strings.TrimSpace(marker),
		content: strings.TrimSpace(content),
		line:    lineNo,
	}
}

// unwrap joins runs of the same marker (records wrap at 80 columns). EV and
// RQ lines are kept separate because each one is meaningful on its own.
func unwrap(block []record) []record {
	out := make([]record, 0, len(block))
	for _, rec := range block {
		n := len(out)
		if n > 0 && out[n-1].marker == rec.marker && rec.marker != "EV" && rec.marker != "RQ" && rec.marker != stepSeparator {
			out[n-1].content = strings.TrimSpace(out[n-1].content + " " + rec.content)
			continue
		}
		out = append(out, rec)
	}
	return out
}

func parseBlock(records []record, startLine int) (*graph.Property, error) {
	property := &graph.Property{}

	var (
		literature []record
		databases  []record
		steps      [][]record
		inSteps    bool
	)

	for _, rec := range records {
		if rec.marker == stepSeparator {
			inSteps = true
			steps = append(steps, nil)
			continue
		}
		if inSteps {
			steps[len(steps)-1] = append(steps[len(steps)-1], rec)
			continue
		}

		switch rec.marker {
		case "AC":
			property.ID = rec.content
		case "DE":
			property.Name = rec.content
		case "TP":
			property.Type = rec.content
		case "TH":
			threshold, err := strconv.Atoi(rec.content)
			if err != nil || threshold < 0 {
				return nil, fmt.Errorf("%w: line %d: invalid threshold %q", graph.ErrStructure, rec.line, rec.content)
			}
			property.Threshold = threshold
		case "PN":
			property.DeclaredParents = splitIdentifiers(rec.content)
		case "CC":
			property.Description = rec.content
		case "**":
			property.PrivateNotes = rec.content
		case "RN", "RM", "RT", "RA", "RL":
			literature = append(literature, rec)
		case "DC", "DR":
			databases = append(databases, rec)
		}
	}

	if property.ID == "" {
		return nil, fmt.Errorf("%w: block starting at line %d has no accession", graph.ErrStructure, startLine)
	}

	var err error
	if property.References, err = parseLiterature(literature); err != nil {
		return nil, fmt.Errorf("%s: %w", property.ID, err)
	}
	property.Databases = parseDatabases(databases)

	for _, stepRecords := range steps {
		parsed, err := parseSteps(stepRecords)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", property.ID, err)
		}
		property.Steps = append(property.Steps, parsed...)
	}

	return property, nil
}

func parseLiterature(records []record) ([]graph.LiteratureReference, error) {
	var (
		refs    []graph.LiteratureReference
		current graph.LiteratureReference
		seen    = make(map[string]bool)
	)

	for _, rec := range records {
		if seen[rec.marker] {
			refs = append(refs, current)
			current = graph.LiteratureReference{}
			seen = make(map[string]bool)
		}
		seen[rec.marker] = true

		switch rec.marker {
		case "RN":
			number, err := strconv.Atoi(strings.Trim(rec.content, "[]"))
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: invalid reference number %q", graph.ErrStructure, rec.line, rec.content)
			}
			current.Number = number
		case "RM":
			pubmed, err := strconv.Atoi(rec.content)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: invalid PubMed id %q", graph.ErrStructure, rec.line, rec.content)
			}
			current.PubMedID = pubmed
		case "RT":
			current.Title = rec.content
		case "RA":
			current.Authors = rec.content
		case "RL":
			current.Journal = rec.content
		}
	}
	if len(seen) > 0 {
		refs = append(refs, current)
	}
	return refs, nil
}

func parseDatabases(records []record) []graph.DatabaseReference {
	var (
		refs    []graph.DatabaseReference
		current graph.DatabaseReference
		seen    = make(map[string]bool)
	)

	for _, rec := range records {
		if seen[rec.marker] {
			refs = append(refs, current)
			current = graph.DatabaseReference{}
			seen = make(map[string]bool)
		}
		seen[rec.marker] = true

		switch rec.marker {
		case "DC":
			current.Title = rec.content
		case "DR":
			fields := splitIdentifiers(rec.content)
			if len(fields) > 0 {
				current.Database = fields[0]
				current.RecordIDs = fields[1:]
			}
		}
	}
	if len(seen) > 0 {
		refs = append(refs, current)
	}
	return refs
}

// parseSteps handles the records between two step separators. Normally that
// is one step, but an SN marker always opens a new one.
func parseSteps(records []record) ([]graph.Step, error) {
	var (
		steps   []graph.Step
		current []record
		number  = -1
		snLine  int
	)

	flush := func() error {
		if number < 0 && len(current) == 0 {
			return nil
		}
		if number < 0 {
			return fmt.Errorf("%w: line %d: step has no number", graph.ErrStructure, current[0].line)
		}
		elements, err := parseElements(current)
		if err != nil {
			return err
		}
		steps = append(steps, graph.Step{Number: number, Elements: elements})
		return nil
	}

	for _, rec := range records {
		if rec.marker != "SN" {
			current = append(current, rec)
			continue
		}
		if number >= 0 || len(current) > 0 {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		n, err := strconv.Atoi(rec.content)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: line %d: invalid step number %q", graph.ErrStructure, rec.line, rec.content)
		}
		number, snLine, current = n, rec.line, nil
	}
	if err := flush(); err != nil {
		return nil, fmt.Errorf("step at line %d: %w", snLine, err)
	}
	return steps, nil
}

// parseElements groups step records into functional elements. A repeated
// ID, DN or RQ marker starts the next element; EV and TG lines belong to the
// element being read.
func parseElements(records []record) ([]graph.FunctionalElement, error) {
	var (
		elements []graph.FunctionalElement
		current  graph.FunctionalElement
		seen     = make(map[string]bool)
		evidence []record
		started  bool
	)

	flush := func() {
		current.Evidence = parseEvidence(evidence)
		if current.Name == "" {
			current.Name = current.ID
		}
		elements = append(elements, current)
		current = graph.FunctionalElement{}
		seen = make(map[string]bool)
		evidence = nil
	}

	for _, rec := range records {
		switch rec.marker {
		case "ID", "DN", "RQ":
			if seen[rec.marker] {
				flush()
			}
			seen[rec.marker] = true
			started = true
			switch rec.marker {
			case "ID":
				current.ID = rec.content
			case "DN":
				current.Name = rec.content
			case "RQ":
				required, err := strconv.Atoi(rec.content)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: invalid required flag %q", graph.ErrStructure, rec.line, rec.content)
				}
				current.Required = required == 1
			}
		case "EV", "TG":
			evidence = append(evidence, rec)
			started = true
		}
	}
	if started {
		flush()
	}
	return elements, nil
}

// parseEvidence pairs EV lines with the TG line that follows them.
func parseEvidence(records []record) []graph.Evidence {
	var (
		out []graph.Evidence
		ev  string
		tg  string
		has = make(map[string]bool)
	)

	flush := func() {
		out = append(out, buildEvidence(ev, tg)...)
		ev, tg = "", ""
		has = make(map[string]bool)
	}

	for _, rec := range records {
		if has[rec.marker] {
			flush()
		}
		has[rec.marker] = true
		if rec.marker == "EV" {
			ev = rec.content
		} else {
			tg = rec.content
		}
	}
	if len(has) > 0 {
		flush()
	}
	return out
}

// buildEvidence turns one EV/TG pair into evidence entries. Each referenced
// property becomes its own entry so that every reference is an alternative.
func buildEvidence(ev, tg string) []graph.Evidence {
	var (
		signatures []string
		properties []string
		sufficient bool
	)
	for _, identifier := range splitIdentifiers(ev) {
		switch {
		case strings.EqualFold(identifier, "sufficient"):
			sufficient = true
		case graph.IsPropertyID(identifier):
			properties = append(properties, identifier)
		default:
			signatures = append(signatures, identifier)
		}
	}
	goTerms := splitIdentifiers(tg)

	if len(properties) == 0 {
		return []graph.Evidence{{Signatures: signatures, GOTerms: goTerms, Sufficient: sufficient}}
	}
	out := make([]graph.Evidence, 0, len(properties))
	for _, id := range properties {
		out = append(out, graph.Evidence{PropertyRef: id, GOTerms: goTerms, Sufficient: sufficient})
	}
	return out
}

func splitIdentifiers(content string) []string {
	fields := strings.FieldsFunc(content, func(r rune) bool {
		return r == ';' || r == ' ' || r == '\t' || r == ','
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}
