package matcher

import (
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const annotations = "" +
	"protein_1\tmd5\t334\tPfam\tPF01993\tMethylene-tetrahydromethanopterin dehydrogenase\t3\t280\t1.2E-45\tT\t06-10-2018\n" +
	"protein_1\tmd5\t334\tPfam\tPF01993\tMethylene-tetrahydromethanopterin dehydrogenase\t3\t280\t1.2E-45\tT\t06-10-2018\n" +
	"protein_1\tmd5\t334\tTIGRFAM\tTIGR03564\tLLM family\t10\t300\t-\tT\t06-10-2018\n" +
	"protein_2\tmd5\t120\tTIGRFAM\tTIGR03564\tLLM family\tnot-a-number\t90\tbad\tT\t06-10-2018\n" +
	"\n" +
	"protein_3\tmd5\t120\n" +
	"\tmd5\t120\tPfam\tPF00001\n"

const sequences = `>protein_1 F420-dependent dehydrogenase
MKVLIIGAGG
ALLAKQ
>protein_2
MSTNPKPQRK
>protein_9 unmatched
MMMM
`

func TestParseInterProScan(t *testing.T) {
	result, err := ParseInterProScan(strings.NewReader(annotations))
	require.NoError(t, err)

	assert.Equal(t, 6, result.Rows)
	assert.Equal(t, []string{"PF01993", "TIGR03564"}, result.Set.Signatures())
	assert.True(t, result.Set.Has("PF01993"))
	assert.False(t, result.Set.Has("PF00001"))

	matches := result.Set.Matches()
	require.Len(t, matches, 3, "duplicate rows collapse")
	assert.Equal(t, "protein_1", matches[0].ProteinID)
	require.NotNil(t, matches[0].Score)
	assert.InDelta(t, 1.2e-45, *matches[0].Score, 1e-50)
	assert.Equal(t, 3, matches[0].Start)
	assert.Equal(t, 280, matches[0].Stop)
	assert.Nil(t, matches[1].Score, "dash means no score")

	assert.Equal(t, "protein_2", matches[2].ProteinID)
	assert.Equal(t, 0, matches[2].Start, "bad optional column is dropped")
	assert.Nil(t, matches[2].Score)

	require.Len(t, result.Skipped, 2)
	assert.Equal(t, 6, result.Skipped[0].Line)
	assert.Equal(t, 7, result.Skipped[1].Line)
	for _, skipped := range result.Skipped {
		assert.True(t, errors.Is(skipped, ErrParse))
	}
}

func TestReadFASTA(t *testing.T) {
	records, err := ReadFASTA(strings.NewReader(sequences))
	require.NoError(t, err)

	assert.Len(t, records, 3)
	assert.Equal(t, "MKVLIIGAGGALLAKQ", records["protein_1"])
	assert.Equal(t, "MSTNPKPQRK", records["protein_2"])
}

func TestReadFASTAFileGzip(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte(sequences))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	path := filepath.Join(t.TempDir(), "sample.faa.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	records, err := ReadFASTAFile(path)
	require.NoError(t, err)
	assert.Equal(t, "MKVLIIGAGGALLAKQ", records["protein_1"])
}

func TestParseWithSequences(t *testing.T) {
	dir := t.TempDir()
	tsv := filepath.Join(dir, "C_chlorochromatii_CaD3.tsv")
	require.NoError(t, os.WriteFile(tsv, []byte(annotations), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "C_chlorochromatii_CaD3.fasta"), []byte(sequences), 0o644))

	fasta, err := SequencePathFor(tsv)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "C_chlorochromatii_CaD3.fasta"), fasta)

	result, err := ParseWithSequences(tsv, fasta)
	require.NoError(t, err)
	assert.Equal(t, "C_chlorochromatii_CaD3", result.Sample)
	assert.True(t, result.Set.Detailed())
	assert.True(t, result.Set.HasSequences())

	sequence, ok := result.Set.Sequence("protein_1")
	require.True(t, ok)
	assert.Equal(t, "MKVLIIGAGGALLAKQ", sequence)

	_, ok = result.Set.Sequence("protein_9")
	assert.False(t, ok, "unmatched proteins are not retained")
}

func TestSequencePathPrefersFaa(t *testing.T) {
	dir := t.TempDir()
	tsv := filepath.Join(dir, "sample.tsv")
	for _, name := range []string{"sample.faa", "sample.fasta"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(sequences), 0o644))
	}

	path, err := SequencePathFor(tsv)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sample.faa"), path)

	_, err = SequencePathFor(filepath.Join(dir, "other.tsv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMissingSequenceIsNotFatal(t *testing.T) {
	set := NewDetailedMatchSet([]Match{{ProteinID: "protein_4", SignatureID: "PF00001"}}, map[string]string{"protein_1": "MK"})

	assert.True(t, set.Has("PF00001"))
	assert.False(t, set.HasSequences())
	_, ok := set.Sequence("protein_4")
	assert.False(t, ok)
}

func TestWriteFASTA(t *testing.T) {
	var buf bytes.Buffer
	long := strings.Repeat("A", 85)
	err := WriteFASTA(&buf, []string{"b", "a", "missing"}, map[string]string{"a": "MK", "b": long})
	require.NoError(t, err)

	assert.Equal(t, ">b\n"+strings.Repeat("A", 80)+"\nAAAAA\n>a\nMK\n", buf.String())
}

func TestSampleName(t *testing.T) {
	assert.Equal(t, "genome_A", SampleName("/data/runs/genome_A.tsv"))
	assert.Equal(t, "genome_B", SampleName("genome_B"))
}
