package matcher

import (
	"sort"
)

// Match is one protein-to-signature hit. Score is nil when the annotation
// tool reported none.
type Match struct {
	ProteinID   string
	SignatureID string
	Score       *float64
	Start       int
	Stop        int
}

type matchKey struct {
	protein   string
	signature string
	score     float64
	hasScore  bool
	start     int
	stop      int
}

func (m Match) key() matchKey {
	k := matchKey{protein: m.ProteinID, signature: m.SignatureID, start: m.Start, stop: m.Stop}
	if m.Score != nil {
		k.score, k.hasScore = *m.Score, true
	}
	return k
}

// MatchSet is the evidence observed for one sample: the distinct matched
// signature accessions, the match rows behind them and, when a sequence
// source was supplied, the sequences of the matched proteins. A MatchSet is
// not modified after construction.
type MatchSet struct {
	signatures map[string]struct{}
	matches    []Match
	sequences  map[string]string
}

// NewMatchSet builds a set holding only signature accessions.
func NewMatchSet(signatures ...string) *MatchSet {
	ms := &MatchSet{signatures: make(map[string]struct{}, len(signatures))}
	for _, signature := range signatures {
		if signature != "" {
			ms.signatures[signature] = struct{}{}
		}
	}
	return ms
}

// NewDetailedMatchSet builds a set from match rows and the sequences of the
// matched proteins. Duplicate rows are collapsed and sequences of proteins
// without a match are dropped.
func NewDetailedMatchSet(matches []Match, sequences map[string]string) *MatchSet {
	ms := &MatchSet{signatures: make(map[string]struct{})}
	seen := make(map[matchKey]struct{}, len(matches))
	proteins := make(map[string]struct{})
	for _, m := range matches {
		if m.ProteinID == "" || m.SignatureID == "" {
			continue
		}
		if _, dup := seen[m.key()]; dup {
			continue
		}
		seen[m.key()] = struct{}{}
		ms.matches = append(ms.matches, m)
		ms.signatures[m.SignatureID] = struct{}{}
		proteins[m.ProteinID] = struct{}{}
	}
	if len(sequences) > 0 {
		ms.sequences = make(map[string]string)
		for protein, sequence := range sequences {
			if _, ok := proteins[protein]; ok {
				ms.sequences[protein] = sequence
			}
		}
	}
	return ms
}

func (m *MatchSet) Has(signature string) bool {
	_, ok := m.signatures[signature]
	return ok
}

func (m *MatchSet) Len() int {
	return len(m.signatures)
}

// Signatures returns the matched accessions in sorted order.
func (m *MatchSet) Signatures() []string {
	out := make([]string, 0, len(m.signatures))
	for signature := range m.signatures {
		out = append(out, signature)
	}
	sort.Strings(out)
	return out
}

// Matches returns the match rows ordered by protein, signature and start.
func (m *MatchSet) Matches() []Match {
	out := append([]Match(nil), m.matches...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ProteinID != b.ProteinID {
			return a.ProteinID < b.ProteinID
		}
		if a.SignatureID != b.SignatureID {
			return a.SignatureID < b.SignatureID
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.Stop < b.Stop
	})
	return out
}

// MatchesFor returns the match rows for one signature accession.
func (m *MatchSet) MatchesFor(signature string) []Match {
	var out []Match
	for _, match := range m.Matches() {
		if match.SignatureID == signature {
			out = append(out, match)
		}
	}
	return out
}

func (m *MatchSet) Sequence(protein string) (string, bool) {
	sequence, ok := m.sequences[protein]
	return sequence, ok
}

func (m *MatchSet) HasSequences() bool {
	return len(m.sequences) > 0
}

// Sequences returns a copy of the protein id to sequence map.
func (m *MatchSet) Sequences() map[string]string {
	out := make(map[string]string, len(m.sequences))
	for protein, sequence := range m.sequences {
		out[protein] = sequence
	}
	return out
}

// Detailed reports whether the set retains match rows, which is what
// distinguishes the with-matches cache variant.
func (m *MatchSet) Detailed() bool {
	return len(m.matches) > 0 || len(m.sequences) > 0
}
