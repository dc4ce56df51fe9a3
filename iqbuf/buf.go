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

// Package iqbuf holds the shared data model of the LPI pipeline:
// complex voltage buffers paired with an integer marker stream, and
// the derived shapes (lag profiles, range-ambiguity streams) that
// flow between the pipeline stages.
package iqbuf

// Buf is an ordered pair of a complex sample stream and one integer
// marker stream of equal length. The marker is not a strict 0/1 flag:
// readers and accumulators may leave counts >= 1 in it (see Truthy),
// except where an exact count is required, such as theory-row column
// occupancy.
type Buf struct {
	Samples []complex128
	Marker  []int32
	N       int
}

// NewBuf allocates a buffer of length n with zeroed samples and markers.
func NewBuf(n int) Buf {
	return Buf{
		Samples: make([]complex128, n),
		Marker:  make([]int32, n),
		N:       n,
	}
}

// Clone returns a deep copy truncated/expanded to b.N.
func (b Buf) Clone() Buf {
	out := Buf{
		Samples: make([]complex128, b.N),
		Marker:  make([]int32, b.N),
		N:       b.N,
	}
	copy(out.Samples, b.Samples)
	copy(out.Marker, b.Marker)
	return out
}

// Truthy reports whether a marker value should be treated as set. Loaders
// and resamplers may produce counts instead of strict booleans.
func Truthy(m int32) bool {
	return m != 0
}

// LagProfile is the output of a lagged-product or range-ambiguity
// computation: one complex stream, one marker stream, and the length
// actually produced (never larger than the inputs allow).
type LagProfile = Buf

// RangeAmb is the output of the interpolating range-ambiguity function.
// It has the same shape as a LagProfile; the distinct name documents
// intent and the fact that stale values may sit behind a false marker,
// so consumers branch on the marker before reading the value.
type RangeAmb = Buf
