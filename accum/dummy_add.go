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

package accum

// DummyAdd accumulates a simple variance- and power-weighted average
// lag profile over the range window [rmin, rmax), meant for single-IPP
// operation where a full theory-row inversion is unnecessary overhead.
// msum/vsum must have length rmax-rmin.
//
// The TX-power weight is the real part of the range ambiguity function
// at the start of the current pulse, applied to both the real and
// imaginary accumulation -- not a full complex multiply by amb[r0].
// That is only valid because amb[r0] is real-dominated at zero lag,
// the only lag this accumulator is used for.
func DummyAdd(msum []complex128, vsum []float64, rmin, rmax int, measurements, amb []complex128, ambIdx, prodIdx []int32, variance []float64) bool {
	nd := len(measurements)

	r := rmax + 1
	r0 := 0

	for i := 0; i < nd; i++ {
		if r >= rmin && r < rmax && prodIdx[i] != 0 {
			j := r - rmin
			w := real(amb[r0])
			msum[j] += complex(real(measurements[i])/variance[i]*w, imag(measurements[i])/variance[i]*w)
			vsum[j] += w * w / variance[i]
		}

		if ambIdx[i] != 0 {
			r = 0
			r0 = i
		} else {
			r++
		}
	}

	return true
}
