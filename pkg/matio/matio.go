// Package matio reads and writes dense matrices as whitespace-separated
// text, one matrix row per line.
//
// Values are written with the shortest representation that parses back to
// the same value at the requested bit size, so a matrix written with
// bitSize 32 and read back into float32 is bit-identical.
package matio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/gpr/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Write writes m to w with one row per line.
func Write(w io.Writer, m mat.Matrix, bitSize int) error {
	bw := bufio.NewWriter(w)
	r, c := m.Dims()
	buf := make([]byte, 0, 32)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if j > 0 {
				if err := bw.WriteByte(' '); err != nil {
					return errors.Wrap(err, "matio: write")
				}
			}
			buf = strconv.AppendFloat(buf[:0], m.At(i, j), 'g', -1, bitSize)
			if _, err := bw.Write(buf); err != nil {
				return errors.Wrap(err, "matio: write")
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return errors.Wrap(err, "matio: write")
		}
	}
	return errors.Wrap(bw.Flush(), "matio: flush")
}

// Read parses a matrix written by Write. Blank lines are skipped; every
// other line must have the same number of fields. An input with no rows
// yields a nil matrix.
func Read(r io.Reader, bitSize int) (*mat.Dense, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)

	var (
		data []float64
		rows int
		cols int
		line int
	)
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if rows == 0 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, errors.Newf("matio: line %d has %d columns, want %d", line, len(fields), cols)
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, bitSize)
			if err != nil {
				return nil, errors.Wrapf(err, "matio: line %d", line)
			}
			data = append(data, v)
		}
		rows++
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "matio: read")
	}
	if rows == 0 {
		return nil, nil
	}
	return mat.NewDense(rows, cols, data), nil
}

// WriteFile writes m to path, replacing any existing file.
func WriteFile(path string, m mat.Matrix, bitSize int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "matio: create %s", path)
	}
	if err := Write(f, m, bitSize); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "matio: close %s", path)
}

// ReadFile reads a matrix from path.
func ReadFile(path string, bitSize int) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "matio: open %s", path)
	}
	defer f.Close()
	m, err := Read(f, bitSize)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return m, nil
}

// Shape formats the dimensions of m for log and error messages.
func Shape(m *mat.Dense) string {
	if m == nil {
		return "0x0"
	}
	r, c := m.Dims()
	return fmt.Sprintf("%dx%d", r, c)
}
