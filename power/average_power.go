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

// Package power implements the average-power and average-profile
// pulse-clustering estimators used to feed variance estimates into the
// normal-equations accumulators.
package power

// AveragePower groups transmitter pulses by the shape of the maxrange
// samples immediately preceding each pulse's falling edge (pulses with
// an identical preceding window share a 0-lag range-ambiguity function
// and so can be power-averaged together), then averages received power
// within each group, sample position by sample position relative to
// the pulse's falling edge.
//
// samples/idatatx/idatarx must all have the same length nd. The
// returned vector has length nd; pd[0] is not a power sample -- it
// holds the ratio of distinct pulse groups to total pulses, a
// diagnostic of how well the clustering worked (high is bad). Only
// samples at least maxrange from the start enter the averages. Sample
// positions with fewer than nminave averaged samples are filled with
// the grand mean of every power sample that entered the averages.
// Samples before the first falling edge that received a group index
// are never written and stay zero.
func AveragePower(samples []complex128, idatatx, idatarx []int32, maxrange, nminave int) []float64 {
	nd := len(samples)
	if nd == 0 {
		return nil
	}

	idtx := make([]int32, nd)
	for k := 0; k < nd; k++ {
		if idatatx[k] != 0 {
			idtx[k] = 1
		}
	}

	pd := make([]float64, nd)
	ptmp := make([]float64, nd)
	nsamp := make([]int, nd)
	pedges := make([]int, nd)
	pinds := make([]int, nd)
	for k := range pinds {
		pinds[k] = -1
	}

	ntot := 0
	ptot := 0.0

	nedges := 0
	for k := 0; k < nd-1; k++ {
		if idtx[k] != 0 && idtx[k+1] == 0 {
			pedges[nedges] = k
			nedges++
		}
	}

	p1 := nedges
	for k := 0; k < nedges; k++ {
		if pedges[k] > maxrange {
			p1 = k
			break
		}
	}

	pindcur := 0
	for k := p1; k < nedges; k++ {
		if pinds[k] < 0 {
			for i := k; i < nedges; i++ {
				if pinds[i] < 0 {
					sameamb := true
					for j := 0; j < maxrange; j++ {
						if idtx[pedges[k]-j] != idtx[pedges[i]-j] {
							sameamb = false
							break
						}
					}
					if sameamb {
						pinds[i] = pindcur
					}
				}
			}
			pindcur++
		}
	}

	if p1 > 0 {
		for i := p1; i < nedges; i++ {
			sameamb := true
			for j := 0; j < pedges[p1-1]; j++ {
				if idtx[pedges[p1-1]-j] != idtx[pedges[i]-j] {
					sameamb = false
					break
				}
			}
			if sameamb {
				pinds[p1-1] = pinds[i]
				break
			}
		}
		if pinds[p1-1] < 0 {
			pinds[p1-1] = pindcur
		}
	}

	pindmax := pindcur

	if p1 > 0 {
		p1--
	}

	for k := p1; k < nedges; k++ {
		if pinds[k] < 0 {
			continue
		}

		for i := 0; i < nd; i++ {
			ptmp[i] = 0.
			nsamp[i] = 0
		}

		for j := k; j < nedges; j++ {
			if pinds[j] != pinds[k] {
				continue
			}

			var ippend int
			if j+1 >= nedges {
				ippend = nd - pedges[j]
			} else {
				ippend = pedges[j+1] - pedges[j]
			}

			for i := 0; i < ippend; i++ {
				r := pedges[j] + i
				if r >= maxrange && idatarx[r] != 0 {
					p := real(samples[r])*real(samples[r]) + imag(samples[r])*imag(samples[r])
					ptmp[i] += p
					nsamp[i]++
					ptot += p
					ntot++
				}
			}
		}

		for i := 0; i < nd; i++ {
			if nsamp[i] >= nminave {
				ptmp[i] /= float64(nsamp[i])
			} else {
				ptmp[i] = -1.
			}
		}

		pindcurK := pinds[k]
		for j := k; j < nedges; j++ {
			if pinds[j] != pindcurK {
				continue
			}

			var ippend int
			if j+1 >= nedges {
				ippend = nd - pedges[j]
			} else {
				ippend = pedges[j+1] - pedges[j]
			}

			for i := 0; i < ippend; i++ {
				r := pedges[j] + i
				pd[r] = ptmp[i]
			}
			pinds[j] = -1
		}
	}

	ptot /= float64(ntot)
	for i := 0; i < nd; i++ {
		if pd[i] < 0. {
			pd[i] = ptot
		}
	}

	pd[0] = float64(pindmax) / float64(nedges)

	return pd
}
