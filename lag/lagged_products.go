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

// Package lag builds lagged products and the range-ambiguity function
// from a pair of complex voltage buffers.
package lag

import "github.com/ilkkavir/lpi/iqbuf"

// outputLen is the length shared by every lagged-product-shaped
// operation: the shorter of the two inputs, minus the lag.
func outputLen(n1, n2, lag int) int {
	npr := n1 - lag
	if n1 > n2 {
		npr = n2 - lag
	}
	return npr
}

// LaggedProduct writes buf1[k]*conj(buf2[k+lag]) into out for every k
// where both markers are set. out.Marker[k] is the product of the two
// input markers; out.Samples[k] is left untouched when the marker is
// false, so stale values can sit behind an unset marker and consumers
// must branch on the marker first. The trailing lag markers (from the
// returned count onward) are forced to zero. Returns the number of
// samples produced and success.
func LaggedProduct(buf1, buf2 iqbuf.Buf, lag int, out iqbuf.LagProfile) (int, bool) {
	npr := outputLen(buf1.N, buf2.N, lag)

	for k := 0; k < npr; k++ {
		m := buf1.Marker[k] * buf2.Marker[k+lag]
		out.Marker[k] = m
		if m != 0 {
			a := buf1.Samples[k]
			b := buf2.Samples[k+lag]
			out.Samples[k] = complex(
				real(a)*real(b)+imag(a)*imag(b),
				-real(a)*imag(b)+imag(a)*real(b),
			)
		}
	}

	for k := 0; k < lag; k++ {
		if npr+k < len(out.Marker) {
			out.Marker[npr+k] = 0
		}
	}

	return npr, true
}

// NewLaggedProduct allocates and returns buf1 (*) conj(buf2 shifted by
// lag), sized exactly to the number of samples produced.
func NewLaggedProduct(buf1, buf2 iqbuf.Buf, lag int) (iqbuf.LagProfile, bool) {
	npr := outputLen(buf1.N, buf2.N, lag)
	out := iqbuf.NewBuf(npr)
	n, ok := LaggedProduct(buf1, buf2, lag, out)
	out.Samples = out.Samples[:n]
	out.Marker = out.Marker[:n]
	out.N = n
	return out, ok
}

// RealProduct writes rd1[k]*rd2[k+lag] into out for every valid k, with
// no marker gating (the index vectors are carried separately by the
// complex lagged products this is used alongside for variance
// estimation). Returns the number of samples produced and success.
func RealProduct(rd1, rd2 []float64, lag int, out []float64) (int, bool) {
	npr := outputLen(len(rd1), len(rd2), lag)
	for k := 0; k < npr; k++ {
		out[k] = rd1[k] * rd2[k+lag]
	}
	return npr, true
}
