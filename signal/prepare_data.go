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

// PrepareParams bundles the preparer stage's tuning knobs: the mixing
// frequency, the rising/falling edge shifts applied to the marker, and
// the resampler's upsampling factor, filter length, decimation start
// point and fractional start offset.
type PrepareParams struct {
	Frequency  float64
	Shifts     [2]int
	Nup        int
	Nfilter    int
	Nfirst     int
	NfirstFrac int
	IPartial   bool
}

// PrepareData runs the full preparer stage on a copy of buf: frequency
// mixing, marker-edge adjustment, resampling, and a final pass that
// zeroes every complex sample whose marker came out false. buf is left
// untouched; the returned buffer is trimmed to the resampler's output
// length.
func PrepareData(buf iqbuf.Buf, p PrepareParams) (iqbuf.Buf, bool) {
	out := buf.Clone()

	ok := MixFrequency(out, p.Frequency)
	ok = IndexAdjust(out.Marker, p.Shifts) && ok

	n, rok := resampleInPlace(out, p.Nup, p.Nfilter, p.Nfirst, p.NfirstFrac, p.IPartial)
	ok = rok && ok

	out.Samples = out.Samples[:n]
	out.Marker = out.Marker[:n]
	out.N = n

	for k := 0; k < n; k++ {
		if out.Marker[k] == 0 {
			out.Samples[k] = 0
		}
	}

	return out, ok
}
