// LPI - A numerical core for lag profile inversion of incoherent-scatter radar data.
// Copyright (C) 2024 lpi contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// lpi-window accumulates the normal equations of a lag profile
// inversion over one or more .gdf voltage files. The file set is cut
// into fixed-length integration windows, each window is processed
// independently in its own goroutine (windows share nothing but the
// read-only parameters), and the per-window Fisher matrices are summed
// into one normal-equations pair per lag, written out as packed binary
// plus a YAML manifest. Solving the equations for ACF estimates is
// left to downstream tools.
package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ilkkavir/lpi/accum"
	"github.com/ilkkavir/lpi/clutter"
	"github.com/ilkkavir/lpi/gdf"
	"github.com/ilkkavir/lpi/iqbuf"
	"github.com/ilkkavir/lpi/lag"
	"github.com/ilkkavir/lpi/power"
	"github.com/ilkkavir/lpi/signal"
	"github.com/ilkkavir/lpi/theory"
)

// theoryBatch is how many samples one TheoryRows call covers. The row
// buffers are sized (theoryBatch+1)*(nranges+1), so this bounds the
// per-lag working set no matter how long the window is.
const theoryBatch = 4096

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "lpi-window",
})

// windowResult carries one window's accumulated equations for one lag
// back to the collector.
type windowResult struct {
	window int
	lag    int
	fish   accum.Fisher
	nRows  int
}

func main() {
	if err := config.Parse(); err != nil {
		logger.Fatal("bad invocation", "err", err)
	}
	if config.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	logger.Debug("starting", "config", config.String())

	spans, total, err := fileSpans(config.Files)
	if err != nil {
		logger.Fatal("scanning inputs", "err", err)
	}

	nWindows := (total + config.Window - 1) / config.Window
	logger.Info("accumulating", "samples", total, "windows", nWindows, "lags", len(config.Params.Lags))

	results := make(chan windowResult)
	var wg sync.WaitGroup
	for w := 0; w < nWindows; w++ {
		first := w * config.Window
		last := first + config.Window - 1
		if last > total-1 {
			last = total - 1
		}

		wg.Add(1)
		go func(w, first, last int) {
			defer wg.Done()
			processWindow(w, sliceSpans(spans, first, last), results)
		}(w, first, last)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	merged := make(map[int]accum.Fisher, len(config.Params.Lags))
	rowCounts := make(map[int]int, len(config.Params.Lags))
	for res := range results {
		acc, ok := merged[res.lag]
		if !ok {
			acc = accum.NewFisher(res.fish.N)
			merged[res.lag] = acc
		}
		for i := range acc.Q {
			acc.Q[i] += res.fish.Q[i]
		}
		for i := range acc.Y {
			acc.Y[i] += res.fish.Y[i]
		}
		rowCounts[res.lag] += res.nRows
		logger.Debug("window merged", "window", res.window, "lag", res.lag, "rows", res.nRows)
	}

	if err := writeResults(merged, rowCounts); err != nil {
		logger.Fatal("writing results", "err", err)
	}
	logger.Info("done", "output", config.outputDir)
}

// processWindow runs the full pipeline over one integration window and
// sends one result per lag that produced rows; a lag without rows is
// logged and skipped. Load and preparation failures are logged and the
// window is dropped; the remaining windows still contribute.
func processWindow(w int, spans []gdf.FileSpan, results chan<- windowResult) {
	wlog := logger.With("window", w)

	raw, ok, err := gdf.Read(spans, config.BigEndian)
	if !ok {
		wlog.Error("load failed, window dropped", "err", err)
		return
	}

	ppsCount := 0
	for _, p := range raw.PPS {
		if iqbuf.Truthy(p) {
			ppsCount++
		}
	}
	wlog.Debug("loaded", "samples", raw.N, "pps", ppsCount)

	p := config.Params

	// The transmitter stream keeps the TX marker; the receiver stream
	// is usable exactly where the transmitter is silent.
	txRaw := iqbuf.Buf{Samples: raw.Samples, Marker: raw.TX, N: raw.N}
	rxMark := make([]int32, raw.N)
	for k, t := range raw.TX {
		if t == 0 {
			rxMark[k] = 1
		}
	}
	rxRaw := iqbuf.Buf{Samples: raw.Samples, Marker: rxMark, N: raw.N}

	tx, ok := signal.PrepareData(txRaw, p.Prepare())
	if !ok {
		wlog.Error("transmitter stream preparation failed, window dropped")
		return
	}
	rx, ok := signal.PrepareData(rxRaw, p.Prepare())
	if !ok {
		wlog.Error("receiver stream preparation failed, window dropped")
		return
	}

	if p.Clutter.Enabled {
		suppressClutter(wlog, tx, rx, p.Clutter.RMin, p.Clutter.RMax)
	}

	pd := power.AveragePower(rx.Samples, tx.Marker, rx.Marker, p.MaxRange, p.NMinAve)
	wlog.Debug("power estimated", "quality", pd[0])

	for _, l := range p.Lags {
		fish, nRows, ok := accumulateLag(tx, rx, pd, l, p)
		if !ok {
			wlog.Warn("no usable samples", "lag", l)
			continue
		}
		results <- windowResult{window: w, lag: l, fish: fish, nRows: nRows}
	}
}

// accumulateLag builds the lagged-product, ambiguity and variance
// streams for one lag and folds every theory-row batch into a fresh
// Fisher accumulator.
func accumulateLag(tx, rx iqbuf.Buf, pd []float64, l int, p Params) (accum.Fisher, int, bool) {
	prod, _ := lag.NewLaggedProduct(rx, rx, l)
	if p.NCode > 1 {
		power.AverageProfile(prod, p.NCode)
	}
	amb, _ := lag.NewRangeAmbiguity(tx, tx, l)

	rvar := make([]float64, len(pd))
	n, _ := lag.RealProduct(pd, pd, l, rvar)
	rvar = rvar[:n]
	for k, v := range rvar {
		if !(v > 0) {
			rvar[k] = 1
		}
	}

	nData := prod.N
	if amb.N < nData {
		nData = amb.N
	}
	if len(rvar) < nData {
		nData = len(rvar)
	}

	nRanges := len(p.RangeGate) - 1
	width := nRanges + 1
	fish := accum.NewFisher(width)

	aRows := make([]complex128, (theoryBatch+1)*width)
	iRows := make([]int32, (theoryBatch+1)*width)
	mVec := make([]complex128, theoryBatch+1)
	mVar := make([]float64, theoryBatch+1)

	totalRows := 0
	nCur := 0
	for nCur < nData {
		nEnd := nCur + theoryBatch
		if nEnd > nData {
			nEnd = nData
		}
		nRows, ok := theory.TheoryRows(amb, prod, rvar, nData, &nCur, nEnd,
			p.RangeGate, nRanges, aRows, iRows, mVec, mVar, p.Background, p.RemoteRx)
		if !ok {
			continue
		}
		batch := theory.RowBatch{
			ARows:   aRows[:nRows*width],
			IRows:   iRows[:nRows*width],
			M:       mVec[:nRows],
			Var:     mVar[:nRows],
			NRanges: nRanges,
		}
		accum.FishsAdd(fish, batch)
		totalRows += nRows
	}

	return fish, totalRows, totalRows > 0
}

// suppressClutter measures the clutter normal equations over the
// configured near-range window and subtracts a matched-filter estimate
// of the clutter profile from the receiver stream in place. The
// diagonal estimate stands in for the full solver, which lives
// downstream of this tool.
func suppressClutter(wlog *log.Logger, tx, rx iqbuf.Buf, rmin, rmax int) {
	nx := rmax - rmin + 1
	fish := accum.NewFisher(nx)

	nr, ok := clutter.Measure(tx, rx, rmin, rmax, fish)
	if !ok || nr == 0 {
		wlog.Warn("clutter measurement produced no rows, skipping subtraction")
		return
	}

	profile := make([]complex128, nx)
	for j := 0; j < nx; j++ {
		d := real(fish.Q[fish.QIndex(j, j)])
		if d > 0 {
			profile[j] = complex(real(fish.Y[j])/d, imag(fish.Y[j])/d)
		}
	}

	ns, _ := clutter.Subtract(tx, rx, rmin, rmax, profile)
	wlog.Debug("clutter suppressed", "rows", nr, "corrected", ns)
}

// fileSpans stats every input file and returns one whole-file span per
// file plus the total sample count.
func fileSpans(paths []string) ([]gdf.FileSpan, int, error) {
	spans := make([]gdf.FileSpan, 0, len(paths))
	total := 0
	for _, path := range paths {
		fi, err := os.Stat(path)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "stat %s", path)
		}
		n := int(fi.Size() / 4)
		if n == 0 {
			return nil, 0, errors.Errorf("%s holds no complete samples", path)
		}
		spans = append(spans, gdf.FileSpan{Path: path, IStart: 0, IEnd: n - 1})
		total += n
	}
	return spans, total, nil
}

// sliceSpans cuts the global inclusive sample range [first, last] out
// of the concatenated file spans.
func sliceSpans(spans []gdf.FileSpan, first, last int) []gdf.FileSpan {
	var out []gdf.FileSpan
	base := 0
	for _, sp := range spans {
		n := sp.IEnd - sp.IStart + 1
		lo, hi := first-base, last-base
		base += n
		if hi < 0 || lo >= n {
			continue
		}
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}
		out = append(out, gdf.FileSpan{Path: sp.Path, IStart: sp.IStart + lo, IEnd: sp.IStart + hi})
	}
	return out
}

// manifest describes the binary files writeResults produces.
type manifest struct {
	NRanges int            `yaml:"nranges"`
	Lags    []manifestLag  `yaml:"lags"`
	Params  map[string]any `yaml:"params"`
}

type manifestLag struct {
	Lag   int    `yaml:"lag"`
	File  string `yaml:"file"`
	NRows int    `yaml:"nrows"`
}

// writeResults dumps each lag's packed upper-triangular Q followed by
// Y as little-endian float64 (re, im) pairs, and a YAML manifest
// naming the files.
func writeResults(merged map[int]accum.Fisher, rowCounts map[int]int) error {
	m := manifest{
		NRanges: len(config.Params.RangeGate) - 1,
		Params: map[string]any{
			"rangegates": config.Params.RangeGate,
			"background": config.Params.Background,
			"remoterx":   config.Params.RemoteRx,
		},
	}

	for _, l := range config.Params.Lags {
		fish, ok := merged[l]
		if !ok {
			continue
		}

		name := fmt.Sprintf("lag_%04d.bin", l)
		f, err := os.Create(filepath.Join(config.outputDir, name))
		if err != nil {
			return errors.Wrapf(err, "creating %s", name)
		}
		if err = writePacked(f, fish); err != nil {
			f.Close()
			return errors.Wrapf(err, "writing %s", name)
		}
		if err = f.Close(); err != nil {
			return errors.Wrapf(err, "closing %s", name)
		}

		m.Lags = append(m.Lags, manifestLag{Lag: l, File: name, NRows: rowCounts[l]})
	}

	raw, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "encoding manifest")
	}
	return errors.Wrap(
		os.WriteFile(filepath.Join(config.outputDir, "normal-equations.yaml"), raw, 0o644),
		"writing manifest",
	)
}

func writePacked(f *os.File, fish accum.Fisher) error {
	for _, q := range fish.Q {
		if err := binary.Write(f, binary.LittleEndian, [2]float64{real(q), imag(q)}); err != nil {
			return err
		}
	}
	for _, y := range fish.Y {
		if err := binary.Write(f, binary.LittleEndian, [2]float64{real(y), imag(y)}); err != nil {
			return err
		}
	}
	return nil
}
