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

package power

import "github.com/ilkkavir/lpi/iqbuf"

// AverageProfile averages a lagged-product vector over repeated code
// cycles to speed up inversion: two walkers, ind1 and ind2, step
// together through marker-delimited pulses, accumulating cd[ind2] into
// a running sum keyed by ind1's position within one code cycle. Every
// ncode pulses the cycle restarts at the first pulse, so sync gaps
// between pulses are skipped rather than counted. buf.Samples is
// overwritten with the per-cycle-position averages; buf.Marker is read
// only. Reports false if buf contains no marked pulse at all.
func AverageProfile(buf iqbuf.LagProfile, ncode int) bool {
	nd := buf.N
	id := buf.Marker
	cd := buf.Samples

	aver := make([]float64, nd)
	avei := make([]float64, nd)
	nave := make([]int, nd)

	advance := func(ind *int) {
		for *ind < nd && id[*ind] == 0 {
			*ind++
		}
	}

	ind1, ind2 := 0, 0
	advance(&ind1)
	advance(&ind2)
	if ind1 >= nd || ind2 >= nd {
		return false
	}
	ippCount := 0

	for ind2 < nd {
		for id[ind1] != 0 || id[ind2] != 0 {
			aver[ind1] += real(cd[ind2])
			avei[ind1] += imag(cd[ind2])
			nave[ind1]++
			ind1++
			ind2++
			if ind2 == nd {
				break
			}
		}
		if ind2 == nd {
			break
		}

		for id[ind1] == 0 && id[ind2] == 0 {
			aver[ind1] += real(cd[ind2])
			avei[ind1] += imag(cd[ind2])
			nave[ind1]++
			ind1++
			ind2++
			if ind2 == nd {
				break
			}
		}
		if ind2 == nd {
			break
		}

		advance(&ind1)
		advance(&ind2)
		if ind2 == nd {
			break
		}

		ippCount++
		if ippCount == ncode {
			ippCount = 0
			ind1 = 0
			advance(&ind1)
		}
	}

	for k := 0; k < nd; k++ {
		if nave[k] != 0 {
			aver[k] /= float64(nave[k])
			avei[k] /= float64(nave[k])
		}
	}

	ind1, ind2 = 0, 0
	advance(&ind1)
	advance(&ind2)
	ippCount = 0

	for ind2 < nd {
		for id[ind1] != 0 || id[ind2] != 0 {
			cd[ind2] = complex(aver[ind1], avei[ind1])
			ind1++
			ind2++
			if ind2 == nd {
				break
			}
		}
		if ind2 == nd {
			break
		}

		for id[ind1] == 0 && id[ind2] == 0 {
			cd[ind2] = complex(aver[ind1], avei[ind1])
			ind1++
			ind2++
			if ind2 == nd {
				break
			}
		}
		if ind2 == nd {
			break
		}

		advance(&ind1)
		advance(&ind2)
		if ind2 == nd {
			break
		}

		ippCount++
		if ippCount == ncode {
			ippCount = 0
			ind1 = 0
			advance(&ind1)
		}
	}

	return true
}
