package gp

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/gpr/core/model"
	"github.com/YuminosukeSato/gpr/kernel"
	"github.com/YuminosukeSato/gpr/pkg/errors"
	"github.com/YuminosukeSato/gpr/pkg/log"
	"github.com/YuminosukeSato/gpr/pkg/matio"
	"gonum.org/v1/gonum/mat"
)

// Companion file suffixes of a saved model.
const (
	RegressionVectorsSuffix = "-RegressionVectors.txt"
	CoreMatrixSuffix        = "-CoreMatrix.txt"
	SampleVectorsSuffix     = "-SampleVectors.txt"
	LabelVectorsSuffix      = "-LabelVectors.txt"
	ParameterFileSuffix     = "-ParameterFile.txt"
)

// Files returns the five companion file names for prefix in the order
// regression vectors, core matrix, sample vectors, label vectors, parameters.
func Files(prefix string) [5]string {
	return [5]string{
		prefix + RegressionVectorsSuffix,
		prefix + CoreMatrixSuffix,
		prefix + SampleVectorsSuffix,
		prefix + LabelVectorsSuffix,
		prefix + ParameterFileSuffix,
	}
}

// rename is replaced in tests to simulate filesystem failures.
var rename = os.Rename

// Save は学習済みモデルを prefix で始まる5つのファイルに書き出す
//
// 各ファイルは一時ファイルに書いてから置き換える。既存のファイルは退避して
// おき、途中で失敗した場合は書き込み済みのファイルを戻して一時ファイルを
// 削除するため、既存のファイル一式は変更されない。
func (g *GaussianProcess[T]) Save(prefix string) error {
	if err := g.state.RequireTrained(modelName, "Save"); err != nil {
		return err
	}
	files := Files(prefix)
	logger := g.logger.With(log.OperationKey, log.OperationSave, log.PathKey, prefix)
	if g.debug {
		logger.Debug("writing gaussian process", "files", strings.Join(files[:], " "))
	}

	for _, path := range files {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			err := errors.NewValidationError("path", "is a directory", path)
			g.logFailure(logger, "save failed", err)
			return err
		}
	}

	bits := kernel.BitSize[T]()
	writers := [5]func(io.Writer) error{
		func(w io.Writer) error { return matio.Write(w, g.regression, bits) },
		func(w io.Writer) error { return matio.Write(w, g.core, bits) },
		func(w io.Writer) error { return matio.Write(w, columns(g.samples, g.InputDim()), bits) },
		func(w io.Writer) error { return matio.Write(w, columns(g.labels, g.OutputDim()), bits) },
		func(w io.Writer) error { _, err := io.WriteString(w, g.parameterLine()+"\n"); return err },
	}

	temps := make([]string, 0, len(files))
	for i, path := range files {
		tmp, err := writeTemp(path, writers[i])
		if err != nil {
			removeAll(temps)
			g.logFailure(logger, "save failed", err)
			return err
		}
		temps = append(temps, tmp)
	}
	if err := commit(files[:], temps); err != nil {
		g.logFailure(logger, "save failed", err)
		return err
	}
	return nil
}

// commit moves every temp file onto its target. Existing targets are first
// moved aside; if any step fails the targets replaced so far are restored.
func commit(files, temps []string) error {
	backups := make([]string, len(files))
	done := 0
	rollback := func() {
		for i := done - 1; i >= 0; i-- {
			if backups[i] != "" {
				os.Rename(backups[i], files[i])
			} else {
				os.Remove(files[i])
			}
		}
		removeAll(temps[done:])
		if done < len(files) && backups[done] != "" {
			os.Rename(backups[done], files[done])
		}
	}

	for i, path := range files {
		if _, err := os.Stat(path); err == nil {
			backup := temps[i] + ".bak"
			if err := rename(path, backup); err != nil {
				rollback()
				return errors.Wrapf(err, "GaussianProcess.Save: back up %s", path)
			}
			backups[i] = backup
		}
		if err := rename(temps[i], path); err != nil {
			rollback()
			return errors.Wrapf(err, "GaussianProcess.Save: rename %s", path)
		}
		done++
	}
	for _, b := range backups {
		if b != "" {
			os.Remove(b)
		}
	}
	return nil
}

func removeAll(paths []string) {
	for _, p := range paths {
		os.Remove(p)
	}
}

func writeTemp(path string, write func(io.Writer) error) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return "", errors.Wrapf(err, "GaussianProcess.Save: create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", errors.Wrapf(err, "GaussianProcess.Save: write %s", path)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", errors.Wrapf(err, "GaussianProcess.Save: close %s", path)
	}
	return f.Name(), nil
}

// parameterLine formats
//
//	<tag> <count> <params...> <sigma> <inputDim> <outputDim> <debug>
//
// with every scalar at the full precision of T.
func (g *GaussianProcess[T]) parameterLine() string {
	bits := kernel.BitSize[T]()
	params := g.kernel.Parameters()
	fields := make([]string, 0, len(params)+6)
	fields = append(fields, g.kernel.Tag(), strconv.Itoa(len(params)))
	for _, p := range params {
		fields = append(fields, strconv.FormatFloat(float64(p), 'g', -1, bits))
	}
	debug := "0"
	if g.debug {
		debug = "1"
	}
	fields = append(fields,
		strconv.FormatFloat(float64(g.sigma), 'g', -1, bits),
		strconv.Itoa(g.InputDim()),
		strconv.Itoa(g.OutputDim()),
		debug,
	)
	return strings.Join(fields, " ")
}

// columns stacks vectors as the columns of a dim×len(vs) matrix.
func columns[T kernel.Float](vs [][]T, dim int) *mat.Dense {
	m := mat.NewDense(dim, len(vs), nil)
	for j, v := range vs {
		for i, x := range v {
			m.Set(i, j, float64(x))
		}
	}
	return m
}

// fromColumns is the inverse of columns.
func fromColumns[T kernel.Float](m *mat.Dense) [][]T {
	rows, cols := m.Dims()
	vs := make([][]T, cols)
	for j := range vs {
		v := make([]T, rows)
		for i := range v {
			v[i] = T(m.At(i, j))
		}
		vs[j] = v
	}
	return vs
}

type parameters[T kernel.Float] struct {
	tag       string
	params    []T
	sigma     T
	inputDim  int
	outputDim int
	debug     bool
}

func parseParameterFile[T kernel.Float](path string) (*parameters[T], error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "GaussianProcess.Load: read %s", path)
	}
	corrupt := func(reason string) error {
		return errors.NewCorruptFileError("GaussianProcess.Load", path, reason)
	}

	line, _, _ := bytes.Cut(raw, []byte("\n"))
	fields := strings.Fields(string(line))
	if len(fields) < 2 {
		return nil, corrupt("missing kernel type or parameter count on the first line")
	}
	count, err := strconv.Atoi(fields[1])
	if err != nil || count < 0 {
		return nil, corrupt("invalid parameter count " + strconv.Quote(fields[1]))
	}
	if want := 2 + count + 4; len(fields) != want {
		return nil, corrupt("expected " + strconv.Itoa(want) + " fields, got " + strconv.Itoa(len(fields)))
	}

	bits := kernel.BitSize[T]()
	p := &parameters[T]{tag: fields[0], params: make([]T, count)}
	for i := 0; i < count; i++ {
		v, err := strconv.ParseFloat(fields[2+i], bits)
		if err != nil {
			return nil, corrupt("invalid kernel parameter " + strconv.Quote(fields[2+i]))
		}
		p.params[i] = T(v)
	}
	rest := fields[2+count:]
	sigma, err := strconv.ParseFloat(rest[0], bits)
	if err != nil {
		return nil, corrupt("invalid sigma " + strconv.Quote(rest[0]))
	}
	p.sigma = T(sigma)
	if p.inputDim, err = strconv.Atoi(rest[1]); err != nil || p.inputDim < 0 {
		return nil, corrupt("invalid input dimension " + strconv.Quote(rest[1]))
	}
	if p.outputDim, err = strconv.Atoi(rest[2]); err != nil || p.outputDim < 0 {
		return nil, corrupt("invalid output dimension " + strconv.Quote(rest[2]))
	}
	if p.debug, err = strconv.ParseBool(rest[3]); err != nil {
		return nil, corrupt("invalid debug flag " + strconv.Quote(rest[3]))
	}
	return p, nil
}

// Load は prefix で始まる5つのファイルからモデルを復元する
//
// すべてのファイルを読み込んで検証してから状態を置き換えるため、失敗した
// 場合はモデルを変更しない。読み込んだ状態は学習済みとして扱い、再計算は
// しない。逆行列の計算方法とロガーは保存されないので現在の設定を保つ。
func (g *GaussianProcess[T]) Load(prefix string) error {
	files := Files(prefix)
	logger := g.logger.With(log.OperationKey, log.OperationLoad, log.PathKey, prefix)
	if g.debug {
		logger.Debug("loading gaussian process", "files", strings.Join(files[:], " "))
	}

	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return errors.NewFileNotFoundError("GaussianProcess.Load", path)
		}
	}

	p, err := parseParameterFile[T](files[4])
	if err != nil {
		return err
	}
	k, err := g.registry.Resolve(p.tag, p.params)
	if err != nil {
		g.logFailure(logger, "kernel not recognized", err, log.KernelKey, p.tag)
		return errors.Wrapf(err, "GaussianProcess.Load: %s", files[4])
	}

	bits := kernel.BitSize[T]()
	var ms [4]*mat.Dense
	for i := range ms {
		m, err := matio.ReadFile(files[i], bits)
		if err != nil {
			return errors.NewCorruptFileError("GaussianProcess.Load", files[i], err.Error())
		}
		if m == nil {
			return errors.NewCorruptFileError("GaussianProcess.Load", files[i], "empty matrix")
		}
		ms[i] = m
	}
	regression, core, sampleCols, labelCols := ms[0], ms[1], ms[2], ms[3]

	_, n := sampleCols.Dims()
	shapes := [4]struct {
		file       string
		rows, cols int
	}{
		{files[0], n, p.outputDim},
		{files[1], n, n},
		{files[2], p.inputDim, n},
		{files[3], p.outputDim, n},
	}
	for i, want := range shapes {
		r, c := ms[i].Dims()
		if r != want.rows || c != want.cols {
			return errors.NewCorruptFileError("GaussianProcess.Load", want.file,
				"matrix is "+matio.Shape(ms[i])+", want "+strconv.Itoa(want.rows)+"x"+strconv.Itoa(want.cols))
		}
	}

	g.kernel = k
	g.sigma = p.sigma
	g.debug = p.debug
	g.regression = regression
	g.core = core
	g.samples = fromColumns[T](sampleCols)
	g.labels = fromColumns[T](labelCols)
	g.state.SetState(model.ModelState{
		Trained:   true,
		InputDim:  p.inputDim,
		OutputDim: p.outputDim,
		NSamples:  n,
	})

	if g.debug {
		logger.Debug("loaded gaussian process", log.SamplesKey, n, log.KernelKey, k.Tag())
	}
	return nil
}
