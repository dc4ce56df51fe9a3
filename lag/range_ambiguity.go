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

package lag

import "github.com/ilkkavir/lpi/iqbuf"

// ambNInterp is the number of linear-interpolation points taken on
// each side of a transmitter sample when building the range-ambiguity
// function; 2*ambNInterp values are averaged per output point.
const ambNInterp = 5

// RangeAmbiguity builds the range-ambiguity function of two transmitter
// sample buffers at the given lag: at every k where both markers are
// set, it linearly interpolates ambNInterp points towards buf1/buf2's
// previous sample and ambNInterp points towards their next sample, and
// averages the 2*ambNInterp pairwise lagged products. The interpolation
// towards the previous point is skipped for k<=1 and the interpolation
// towards the next point is skipped where either input has no sample
// past k, leaving those contributions at zero. Returns the number of
// samples produced and success.
func RangeAmbiguity(buf1, buf2 iqbuf.Buf, lag int, out iqbuf.RangeAmb) (int, bool) {
	npr := outputLen(buf1.N, buf2.N, lag)

	tmpr1 := make([]float64, 2*ambNInterp)
	tmpi1 := make([]float64, 2*ambNInterp)
	tmpr2 := make([]float64, 2*ambNInterp)
	tmpi2 := make([]float64, 2*ambNInterp)

	for k := 0; k < npr; k++ {
		m := buf1.Marker[k] * buf2.Marker[k+lag]
		out.Marker[k] = m
		if m == 0 {
			continue
		}

		for i := range tmpr1 {
			tmpr1[i], tmpi1[i], tmpr2[i], tmpi2[i] = 0, 0, 0, 0
		}

		if k > 1 {
			c1prev, c1cur := buf1.Samples[k-1], buf1.Samples[k]
			c2prev, c2cur := buf2.Samples[k-1+lag], buf2.Samples[k+lag]
			for i := 0; i < ambNInterp; i++ {
				frac := 1. - float64(i)/float64(2*ambNInterp)
				tmpr1[i] = real(c1prev) + (real(c1cur)-real(c1prev))*frac
				tmpi1[i] = imag(c1prev) + (imag(c1cur)-imag(c1prev))*frac
				tmpr2[i] = real(c2prev) + (real(c2cur)-real(c2prev))*frac
				tmpi2[i] = imag(c2prev) + (imag(c2cur)-imag(c2prev))*frac
			}
		}

		if k+1 < buf1.N && k+1+lag < buf2.N {
			c1cur, c1next := buf1.Samples[k], buf1.Samples[k+1]
			c2cur, c2next := buf2.Samples[k+lag], buf2.Samples[k+1+lag]
			for i := 0; i < ambNInterp; i++ {
				frac := float64(i) / float64(2*ambNInterp)
				tmpr1[i+ambNInterp] = real(c1cur) + (real(c1next)-real(c1cur))*frac
				tmpi1[i+ambNInterp] = imag(c1cur) + (imag(c1next)-imag(c1cur))*frac
				tmpr2[i+ambNInterp] = real(c2cur) + (real(c2next)-real(c2cur))*frac
				tmpi2[i+ambNInterp] = imag(c2cur) + (imag(c2next)-imag(c2cur))*frac
			}
		}

		var sr, si float64
		for i := 0; i < 2*ambNInterp; i++ {
			sr += tmpr1[i]*tmpr2[i] + tmpi1[i]*tmpi2[i]
			si += tmpr1[i]*tmpi2[i] - tmpi1[i]*tmpr2[i]
		}
		out.Samples[k] = complex(sr/float64(2*ambNInterp), si/float64(2*ambNInterp))
	}

	for k := 0; k < lag; k++ {
		if npr+k < len(out.Marker) {
			out.Marker[npr+k] = 0
		}
	}

	return npr, true
}

// NewRangeAmbiguity allocates and returns the range-ambiguity function
// of buf1 and buf2 at the given lag, sized to the number of samples
// produced.
func NewRangeAmbiguity(buf1, buf2 iqbuf.Buf, lag int) (iqbuf.RangeAmb, bool) {
	npr := outputLen(buf1.N, buf2.N, lag)
	out := iqbuf.NewBuf(npr)
	n, ok := RangeAmbiguity(buf1, buf2, lag, out)
	out.Samples = out.Samples[:n]
	out.Marker = out.Marker[:n]
	out.N = n
	return out, ok
}
