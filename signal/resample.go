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

import "github.com/ilkkavir/lpi/iqbuf"

// resampleInPlace implements linear-interpolation resampling: a boxcar
// filter of length nfilter (in upsampled units) slid across cd/id at
// steps of nu==nup, producing one output sample every nfilter/nup
// input samples, starting from upsampled offset nfirst*nup+nfirstfrac.
// It degenerates to a plain boxcar average when nfilter is an exact
// multiple of nup. cd and id are overwritten in place; the returned int
// is the number of samples actually produced, always <= buf.N. The
// marker of an output sample is the AND (ipartial==false) or the sum
// (ipartial==true) of the markers of every input sample the boxcar
// touched, including fractional edge samples weighted less than
// 0.00001 or more than 0.99999 being treated as whole.
func resampleInPlace(buf iqbuf.Buf, nup, nfilter, nfirst, nfirstfrac int, ipartial bool) (int, bool) {
	cd := buf.Samples
	id := buf.Marker
	nd := buf.N

	nu := nup
	nf := nfilter

	i := nfirst * nu
	j := nfirstfrac + nu - 1
	k := nfirst
	l := 0

	var tmpsumR, tmpsumI float64
	var tmpi0, tmpi1 int32 = 1, 0
	var frac float64

	for i+nf <= nd*nu {
		for j < nf {
			tmpsumR += real(cd[k])
			tmpsumI += imag(cd[k])
			tmpi0 *= id[k]
			tmpi1 += id[k]
			j += nu
			k++
		}

		frac = 0.
		if j-nf+1 == nu {
			frac = 1.
		}

		if k < nd {
			tmpsumR += (1. - frac) * real(cd[k])
			tmpsumI += (1. - frac) * imag(cd[k])
			if frac < .99999 {
				tmpi0 *= id[k]
				tmpi1 += id[k]
			}

			cd[l] = complex(tmpsumR, tmpsumI)
			if ipartial {
				id[l] = tmpi1
			} else {
				id[l] = tmpi0
			}

			tmpsumR = frac * real(cd[k])
			tmpsumI = frac * imag(cd[k])
			if frac < .00001 {
				tmpi0, tmpi1 = 1, 0
			} else {
				tmpi0, tmpi1 = id[k], id[k]
			}

			j -= nf
			j += nu
			l++
		}

		i += nf
		k++
	}

	if k == nd+1 && frac > .9999999 && l < nd {
		cd[l] = complex(tmpsumR, tmpsumI)
		if ipartial {
			id[l] = tmpi1
		} else {
			id[l] = tmpi0
		}
		l++
	}

	return l, true
}

// Resample returns a resampled copy of buf, trimmed to the number of
// samples actually produced, leaving buf untouched.
func Resample(buf iqbuf.Buf, nup, nfilter, nfirst, nfirstfrac int, ipartial bool) (iqbuf.Buf, bool) {
	out := buf.Clone()
	n, ok := resampleInPlace(out, nup, nfilter, nfirst, nfirstfrac, ipartial)
	out.Samples = out.Samples[:n]
	out.Marker = out.Marker[:n]
	out.N = n
	return out, ok
}
