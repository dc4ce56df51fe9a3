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

package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ilkkavir/lpi/iqbuf"
)

// A single ambiguity impulse at sample 5 with one gate [5, 10): the
// initial row at n_start=10 picks up exactly that impulse, and the
// sliding updates at later samples touch only zero-marker positions,
// leaving the working row unchanged.
func TestTheoryRowsImpulseWarmup(t *testing.T) {
	const n = 13

	amb := iqbuf.NewBuf(n)
	amb.Samples[5] = 1
	amb.Marker[5] = 1

	prod := iqbuf.NewBuf(n)
	rvar := make([]float64, n)
	for k := range rvar {
		rvar[k] = 1
	}

	rLims := []int{5, 10}
	aRows := make([]complex128, (n+1)*2)
	iRows := make([]int32, (n+1)*2)
	mVec := make([]complex128, n+1)
	mVar := make([]float64, n+1)

	nCur := 10
	nRows, ok := TheoryRows(amb, prod, rvar, n, &nCur, n, rLims, 1, aRows, iRows, mVec, mVar, false, false)
	require.True(t, ok)

	assert.Equal(t, 0, nRows)
	assert.Equal(t, n, nCur)
	assert.Equal(t, complex128(1), aRows[0])
	assert.Equal(t, int32(1), iRows[0])
	assert.Equal(t, complex128(0), aRows[1])
	assert.Equal(t, int32(0), iRows[1])
}

// referenceRow recomputes gate sums at sample k from scratch, the way
// the initial-row formula does at n_start.
func referenceRow(amb iqbuf.Buf, rLims []int, nRanges, k int) ([]complex128, []int32) {
	a := make([]complex128, nRanges+1)
	i := make([]int32, nRanges+1)
	for g := 0; g < nRanges; g++ {
		for j := rLims[g]; j < rLims[g+1]; j++ {
			if k-j >= 0 && amb.Marker[k-j] != 0 {
				a[g] += amb.Samples[k-j]
				i[g] += amb.Marker[k-j]
			}
		}
	}
	return a, i
}

// The O(nRanges)-per-sample sliding update must agree with a full
// recomputation of every stored row, up to summation order.
func TestTheoryRowsSlidingEqualsRecompute(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nRanges := rapid.IntRange(1, 4).Draw(t, "nranges")

		rLims := make([]int, nRanges+1)
		rLims[0] = rapid.IntRange(2, 6).Draw(t, "r0")
		for i := 1; i <= nRanges; i++ {
			rLims[i] = rLims[i-1] + rapid.IntRange(1, 5).Draw(t, "gw")
		}
		n := rLims[nRanges] + rapid.IntRange(10, 120).Draw(t, "tail")

		amb := iqbuf.NewBuf(n)
		prod := iqbuf.NewBuf(n)
		rvar := make([]float64, n)
		for k := 0; k < n; k++ {
			amb.Marker[k] = int32(rapid.IntRange(0, 1).Draw(t, "ambm"))
			if amb.Marker[k] != 0 {
				amb.Samples[k] = complex(rapid.Float64Range(-5, 5).Draw(t, "ar"), rapid.Float64Range(-5, 5).Draw(t, "ai"))
			}
			prod.Marker[k] = 1
			prod.Samples[k] = complex(float64(k), 0)
			rvar[k] = 1
		}

		width := nRanges + 1
		aRows := make([]complex128, (n+1)*width)
		iRows := make([]int32, (n+1)*width)
		mVec := make([]complex128, n+1)
		mVar := make([]float64, n+1)

		nCur := 0
		nRows, ok := TheoryRows(amb, prod, rvar, n, &nCur, n, rLims, nRanges, aRows, iRows, mVec, mVar, true, true)
		require.True(t, ok)
		require.LessOrEqual(t, nRows, n-rLims[nRanges])

		// Stored rows carry the sample they were stored at in mVec,
		// because prod was seeded with the sample index.
		for r := 0; r < nRows; r++ {
			k := int(real(mVec[r]))
			wantA, wantI := referenceRow(amb, rLims, nRanges, k)

			for g := 0; g < nRanges; g++ {
				assert.Equal(t, wantI[g], iRows[r*width+g], "row %d gate %d count", r, g)
				if wantI[g] == 0 {
					assert.Equal(t, complex128(0), aRows[r*width+g], "row %d gate %d blind", r, g)
				} else {
					assert.InDelta(t, real(wantA[g]), real(aRows[r*width+g]), 1e-9, "row %d gate %d re", r, g)
					assert.InDelta(t, imag(wantA[g]), imag(aRows[r*width+g]), 1e-9, "row %d gate %d im", r, g)
				}
			}
			assert.Equal(t, int32(1), iRows[r*width+nRanges], "row %d background count", r)
			assert.Equal(t, complex128(1), aRows[r*width+nRanges], "row %d background", r)
		}
	})
}

// When nCur already lies past nEnd there is no room for even the
// initial row: the generator signals an empty batch and sets the
// cursor to nEnd.
func TestTheoryRowsEmptyBatch(t *testing.T) {
	amb := iqbuf.NewBuf(20)
	prod := iqbuf.NewBuf(20)
	rvar := make([]float64, 20)

	rLims := []int{3, 8}
	aRows := make([]complex128, 42)
	iRows := make([]int32, 42)
	mVec := make([]complex128, 21)
	mVar := make([]float64, 21)

	nCur := 18
	nRows, ok := TheoryRows(amb, prod, rvar, 20, &nCur, 12, rLims, 1, aRows, iRows, mVec, mVar, false, false)

	assert.False(t, ok)
	assert.Equal(t, 0, nRows)
	assert.Equal(t, 12, nCur)
}
