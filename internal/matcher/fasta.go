package matcher

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadFASTA reads protein records keyed by the first whitespace-delimited
// token of each header. A later record with the same id replaces the earlier
// one.
func ReadFASTA(r io.Reader) (map[string]string, error) {
	br := bufio.NewReader(r)
	sequences := make(map[string]string)

	var (
		id  string
		buf bytes.Buffer
	)
	flush := func() {
		if id != "" {
			sequences[id] = buf.String()
		}
		buf.Reset()
	}

	for {
		line, err := br.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("reading fasta: %w", err)
		}
		line = bytes.TrimRight(line, "\r\n")
		if len(line) > 0 && line[0] == '>' {
			flush()
			fields := strings.Fields(string(line[1:]))
			id = ""
			if len(fields) > 0 {
				id = fields[0]
			}
		} else if id != "" {
			buf.Write(bytes.TrimSpace(line))
		}
		if err == io.EOF {
			break
		}
	}
	flush()
	return sequences, nil
}

// ReadFASTAFile reads a FASTA file, transparently decompressing .gz files.
func ReadFASTAFile(path string) (map[string]string, error) {
	rc, err := openSequenceFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening sequence file: %w", err)
	}
	defer rc.Close()

	sequences, err := ReadFASTA(rc)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return sequences, nil
}

// WriteFASTA writes one record per id in the given order, wrapping sequence
// lines at 80 columns.
func WriteFASTA(w io.Writer, ids []string, sequences map[string]string) error {
	bw := bufio.NewWriter(w)
	for _, id := range ids {
		sequence, ok := sequences[id]
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(bw, ">%s\n", id); err != nil {
			return err
		}
		for len(sequence) > 0 {
			n := min(80, len(sequence))
			if _, err := fmt.Fprintln(bw, sequence[:n]); err != nil {
				return err
			}
			sequence = sequence[n:]
		}
	}
	return bw.Flush()
}

func openSequenceFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return struct {
		io.Reader
		io.Closer
	}{Reader: gr, Closer: f}, nil
}
