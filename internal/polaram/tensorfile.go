package polaram

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LabeledMatrix is one "! label" entry of a matrix file.
type LabeledMatrix struct {
	Head string
	Rows [][]float64
}

// MuellerSample is one mode of a Mueller matrix file.
type MuellerSample struct {
	Head string
	M    Mat4
}

// ParseMatrices reads "! label" entries of n×n numbers. Lines starting with
// '#' and blank lines are skipped. Any malformed entry fails the whole read.
func ParseMatrices(r io.Reader, n int) ([]LabeledMatrix, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: matrix size must be positive, got %d", ErrInvalidParameter, n)
	}
	var (
		out  []LabeledMatrix
		cur  *LabeledMatrix
		seen = make(map[string]int)
		line int
		open int // line of the current "!" header
	)
	closeEntry := func() error {
		if cur == nil {
			return nil
		}
		if len(cur.Rows) != n {
			return fmt.Errorf("%w: line %d: entry %q has %d rows, want %d", ErrMalformedTensorEntry, open, cur.Head, len(cur.Rows), n)
		}
		out = append(out, *cur)
		cur = nil
		return nil
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if strings.HasPrefix(text, "!") {
			if err := closeEntry(); err != nil {
				return nil, err
			}
			head := strings.TrimSpace(strings.TrimPrefix(text, "!"))
			if head == "" {
				return nil, fmt.Errorf("%w: line %d: empty label", ErrMalformedTensorEntry, line)
			}
			if prev, dup := seen[head]; dup {
				return nil, fmt.Errorf("%w: line %d: label %q already used on line %d", ErrMalformedTensorEntry, line, head, prev)
			}
			seen[head] = line
			cur, open = &LabeledMatrix{Head: head}, line
			continue
		}
		if cur == nil {
			return nil, fmt.Errorf("%w: line %d: data before the first \"!\" label", ErrMalformedTensorEntry, line)
		}
		fields := strings.Fields(text)
		if len(fields) != n {
			return nil, fmt.Errorf("%w: line %d: %d values, want %d", ErrMalformedTensorEntry, line, len(fields), n)
		}
		if len(cur.Rows) == n {
			return nil, fmt.Errorf("%w: line %d: entry %q has more than %d rows", ErrMalformedTensorEntry, line, cur.Head, n)
		}
		row := make([]float64, n)
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil || !isFinite(v) {
				return nil, fmt.Errorf("%w: line %d: bad number %q", ErrMalformedTensorEntry, line, f)
			}
			row[i] = v
		}
		cur.Rows = append(cur.Rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read matrices: %w", err)
	}
	if err := closeEntry(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrMalformedTensorEntry)
	}
	return out, nil
}

// ParseTensors reads raman tensors (3×3 entries).
func ParseTensors(r io.Reader) ([]RamanTensor, error) {
	ms, err := ParseMatrices(r, 3)
	if err != nil {
		return nil, err
	}
	out := make([]RamanTensor, len(ms))
	for i, m := range ms {
		out[i].Head = m.Head
		for r := 0; r < 3; r++ {
			copy(out[i].M.M[r][:], m.Rows[r])
		}
	}
	return out, nil
}

// ParseMuellerMatrices reads 4×4 Mueller matrices.
func ParseMuellerMatrices(r io.Reader) ([]MuellerSample, error) {
	ms, err := ParseMatrices(r, 4)
	if err != nil {
		return nil, err
	}
	out := make([]MuellerSample, len(ms))
	for i, m := range ms {
		out[i].Head = m.Head
		for r := 0; r < 4; r++ {
			copy(out[i].M.M[r][:], m.Rows[r])
		}
	}
	return out, nil
}

func ReadTensorFile(path string) ([]RamanTensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ts, err := ParseTensors(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ts, nil
}

func ReadMuellerFile(path string) ([]MuellerSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ms, err := ParseMuellerMatrices(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ms, nil
}

// WriteMatrices writes a '#' header block followed by the entries in the
// format ParseMatrices reads back.
func WriteMatrices(w io.Writer, header []string, entries []LabeledMatrix) error {
	bw := bufio.NewWriter(w)
	for _, h := range header {
		for _, l := range strings.Split(h, "\n") {
			fmt.Fprintf(bw, "# %s\n", l)
		}
	}
	for _, e := range entries {
		fmt.Fprintf(bw, "\n! %s\n", e.Head)
		for _, row := range e.Rows {
			for i, v := range row {
				if i > 0 {
					bw.WriteByte(' ')
				}
				bw.WriteString(strconv.FormatFloat(v, 'e', 10, 64))
			}
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// WriteMatrixFile writes entries to path atomically (temp file + rename).
func WriteMatrixFile(path string, header []string, entries []LabeledMatrix) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if err := WriteMatrices(tmp, header, entries); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// MuellerEntries and TensorEntries turn running means into writable entries.
func MuellerEntries(means []RunningMean) []LabeledMatrix {
	out := make([]LabeledMatrix, len(means))
	for i, m := range means {
		out[i] = LabeledMatrix{Head: m.Head, Rows: m.Mueller.Rows()}
	}
	return out
}

func TensorEntries(means []RunningMean) []LabeledMatrix {
	out := make([]LabeledMatrix, len(means))
	for i, m := range means {
		out[i] = LabeledMatrix{Head: m.Head, Rows: m.Tensor.Rows()}
	}
	return out
}

// sidecarPath derives "<stem><suffix>" next to path, e.g. out.txt -> out.tensors.txt.
func sidecarPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix
}
