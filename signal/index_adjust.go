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

package signal

// IndexAdjust shifts the rising edges of marker by shifts[0] samples and
// the falling edges by shifts[1] samples, both towards larger indices
// (negative shifts are allowed). marker is modified in place. The rising
// edge shift is applied first by translating the whole vector (the
// boundary sample is repeated into the vacated side); the falling edge
// shift is then applied as an effective shifts[1]-shifts[0], extending
// or shrinking the mask only at zero/one transitions, and the tail past
// lasttrue+shifts[1] is always forced to zero. Always reports success.
func IndexAdjust(marker []int32, shifts [2]int) bool {
	nd := len(marker)

	lasttrue := 0
	for k := nd - 1; k >= 0; k-- {
		if marker[k] != 0 {
			lasttrue = k
			break
		}
	}

	sh0 := shifts[0]
	if sh0 < 0 {
		for k := 0; k < nd+sh0; k++ {
			marker[k] = marker[k-sh0]
		}
		for k := nd + sh0; k < nd; k++ {
			marker[k] = marker[nd-1]
		}
	}
	if sh0 > 0 {
		for k := nd - 1; k >= sh0; k-- {
			marker[k] = marker[k-sh0]
		}
		for k := sh0 - 1; k > 0; k-- {
			marker[k] = marker[0]
		}
	}

	sh1 := shifts[1] - sh0
	if sh1 < 0 {
		ncut := 0
		for k := nd - 1; k >= 0; k-- {
			if marker[k] == 0 {
				ncut = 0
			} else {
				ncut--
			}
			if ncut >= sh1 {
				marker[k] = 0
			}
		}
	}
	if sh1 > 0 {
		nadd := 0
		for k := 0; k < nd; k++ {
			if marker[k] == 0 {
				nadd++
			} else {
				nadd = 0
			}
			if nadd <= sh1 {
				marker[k] = 1
			}
		}
	}

	for k := lasttrue + shifts[1] + 1; k < nd; k++ {
		if k >= 0 {
			marker[k] = 0
		}
	}

	return true
}

// IndexAdjustCopy returns an adjusted copy of marker, leaving the
// input untouched.
func IndexAdjustCopy(marker []int32, shifts [2]int) ([]int32, bool) {
	out := make([]int32, len(marker))
	copy(out, marker)
	ok := IndexAdjust(out, shifts)
	return out, ok
}
