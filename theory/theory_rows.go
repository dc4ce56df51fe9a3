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

// Package theory turns range ambiguity functions and lagged products
// into theory matrix rows and the matching measurement vector, one
// sliding window at a time.
package theory

import "github.com/ilkkavir/lpi/iqbuf"

// Row is one theory matrix row paired with its measurement: A and I
// hold nRanges+1 entries (the last is the background term), M is the
// measured lagged product this row predicts, and Var is its variance.
type Row struct {
	A   []complex128
	I   []int32
	M   complex128
	Var float64
}

// RowBatch is the trimmed, per-row view of the flat output buffers
// TheoryRows / NewRows fill in.
type RowBatch struct {
	ARows   []complex128
	IRows   []int32
	M       []complex128
	Var     []float64
	NRanges int
}

// Row returns row k of the batch; A and I are subslices that share
// the batch's buffers.
func (b RowBatch) Row(k int) Row {
	w := b.NRanges + 1
	return Row{
		A:   b.ARows[k*w : (k+1)*w],
		I:   b.IRows[k*w : (k+1)*w],
		M:   b.M[k],
		Var: b.Var[k],
	}
}

// NRows reports how many rows the batch holds.
func (b RowBatch) NRows() int {
	return len(b.M)
}

// TheoryRows scans amb/prod over [nCur, nEnd) and emits one theory row
// per accepted sample into the caller-owned flat buffers aRows/iRows
// (each sized at least (nEnd-nCur+1)*(nRanges+1)) and mVec/mVar (each
// sized at least nEnd-nCur+1). It maintains a sliding range-gate
// integral: each gate's row value is the initial window sum over
// [rLims[i], rLims[i+1]), updated at every k by exactly one add and
// one subtract, so each sample costs O(nRanges) regardless of gate
// width. A sample at index k is stored only when its lagged-product
// marker is set and the running range-from-latest-pulse counter rCur
// is strictly between rLim and rMax -- rLim is -1 for remote-receiver
// operation (no suppression) or rLims[0]-2 otherwise, and rMax is
// rLims[nRanges]+1.
//
// *nCur is advanced to nEnd on return. TheoryRows reports success=false
// without producing any rows only when nCur (clamped to rLims[nRanges])
// is not smaller than nEnd, i.e. there is no room left in this call for
// even the initial row.
func TheoryRows(
	amb iqbuf.LagProfile,
	prod iqbuf.LagProfile,
	rvar []float64,
	nData int,
	nCur *int,
	nEnd int,
	rLims []int,
	nRanges int,
	aRows []complex128,
	iRows []int32,
	mVec []complex128,
	mVar []float64,
	background bool,
	remoteRx bool,
) (int, bool) {
	ambC := amb.Samples
	ambI := amb.Marker
	prodC := prod.Samples
	prodI := prod.Marker

	if nEnd > nData {
		nEnd = nData
	}
	nCurVal := *nCur
	if nCurVal > nData {
		nCurVal = nData
	}

	success := true

	rMin := rLims[0] - 2
	rLim := rMin
	if remoteRx {
		rLim = -1
	}
	rMax := rLims[nRanges] + 1

	nStart := nCurVal
	if nStart < rLims[nRanges] {
		nStart = rLims[nRanges]
	}

	if nStart < nEnd {
		for i := 0; i < nRanges; i++ {
			aRows[i] = 0
			iRows[i] = 0
			for j := rLims[i]; j < rLims[i+1]; j++ {
				if ambI[nStart-j] != 0 {
					aRows[i] += ambC[nStart-j]
					iRows[i] += ambI[nStart-j]
				}
			}
		}

		if background {
			aRows[nRanges] = 1
			iRows[nRanges] = 1
		} else {
			aRows[nRanges] = 0
			iRows[nRanges] = 0
		}
	} else {
		success = false
	}

	nRows := 0

	rCur := rMax
	for k := nStart - rMin; k < nStart; k++ {
		if k >= 0 {
			if ambI[k] != 0 {
				rCur = 0
			} else {
				rCur++
			}
		}
	}

	for k := nStart; k < nEnd; k++ {
		if prodI[k] != 0 && rCur > rLim && rCur < rMax {
			mVec[nRows] = prodC[k]
			mVar[nRows] = rvar[k]

			for i := 0; i < nRanges+1; i++ {
				cur := nRows*(nRanges+1) + i
				next := (nRows+1)*(nRanges+1) + i
				iRows[next] = iRows[cur]
				if iRows[cur] == 0 {
					aRows[next] = 0
					aRows[cur] = 0
				} else {
					aRows[next] = aRows[cur]
				}
			}
			nRows++
		}

		for i := 0; i < nRanges; i++ {
			gati := nRows*(nRanges+1) + i
			addi := k - rLims[i] + 1
			subi := k - rLims[i+1] + 1

			if addi < len(ambI) && ambI[addi] != 0 {
				aRows[gati] += ambC[addi]
				iRows[gati] += ambI[addi]
			}
			if ambI[subi] != 0 {
				aRows[gati] -= ambC[subi]
				iRows[gati] -= ambI[subi]
			}
		}

		if ambI[k] != 0 {
			rCur = 0
		} else {
			rCur++
		}
	}

	*nCur = nEnd

	return nRows, success
}

// NewRows allocates the flat output buffers for one TheoryRows call
// sized from (nEnd-nCur+1)*(nRanges+1), runs it, and returns a
// RowBatch. fitSize controls whether the batch is trimmed to the rows
// actually produced; callers that reuse the buffers across repeated
// calls keep them oversized.
func NewRows(
	amb iqbuf.LagProfile,
	prod iqbuf.LagProfile,
	rvar []float64,
	nData int,
	nCur *int,
	nEnd int,
	rLims []int,
	nRanges int,
	background bool,
	remoteRx bool,
	fitSize bool,
) (RowBatch, bool) {
	span := nEnd - *nCur + 1
	if span < 1 {
		span = 1
	}

	aRows := make([]complex128, span*(nRanges+1))
	iRows := make([]int32, span*(nRanges+1))
	mVec := make([]complex128, span)
	mVar := make([]float64, span)

	nRows, ok := TheoryRows(amb, prod, rvar, nData, nCur, nEnd, rLims, nRanges, aRows, iRows, mVec, mVar, background, remoteRx)

	if fitSize {
		aRows = aRows[:nRows*(nRanges+1)]
		iRows = iRows[:nRows*(nRanges+1)]
		mVec = mVec[:nRows]
		mVar = mVar[:nRows]
	}

	return RowBatch{ARows: aRows, IRows: iRows, M: mVec, Var: mVar, NRanges: nRanges}, ok
}
