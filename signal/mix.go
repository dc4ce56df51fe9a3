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

// Package signal implements the preparer stage of the LPI pipeline:
// frequency mixing, TX/RX index-mask adjustment, and the decimating
// resampler, plus PrepareData which runs all three in sequence.
package signal

import (
	"math"

	"github.com/ilkkavir/lpi/iqbuf"
)

// cycleEpsilon is how close f*k must be to an integer before we accept
// k as the period of the mixing table. 1e-9 is tight enough that two
// unrelated radar frequencies don't accidentally collapse onto a short
// spurious cycle, and loose enough to catch the rational frequencies
// radar engineers actually configure.
const cycleEpsilon = 1e-9

// MixFrequency rotates every complex sample k by exp(2*pi*i*f*k),
// overwriting buf.Samples in place. It detects the smallest integer
// period P <= buf.N with f*P integral (within cycleEpsilon) and
// reuses a length-P coefficient table cyclically; if P==1 the
// rotation is the identity and MixFrequency is a no-op. Always
// reports success.
func MixFrequency(buf iqbuf.Buf, freq float64) bool {
	n := buf.N

	ncycle := n
	for k := 1; k < n; k++ {
		prod := freq * float64(k)
		if math.Abs(prod-math.Round(prod)) <= cycleEpsilon {
			ncycle = k
			break
		}
	}

	if ncycle == 1 {
		return true
	}

	coefr := make([]float64, ncycle)
	coefi := make([]float64, ncycle)
	for k := 0; k < ncycle; k++ {
		arg := 2.0 * math.Pi * freq * float64(k)
		coefr[k] = math.Cos(arg)
		coefi[k] = math.Sin(arg)
	}

	nc := 0
	for k := 0; k < n; k++ {
		s := buf.Samples[k]
		re, im := real(s), imag(s)
		buf.Samples[k] = complex(re*coefr[nc]-im*coefi[nc], im*coefr[nc]+re*coefi[nc])
		nc++
		if nc == ncycle {
			nc = 0
		}
	}

	return true
}

// MixFrequencyCopy returns a rotated copy of buf, leaving buf
// untouched.
func MixFrequencyCopy(buf iqbuf.Buf, freq float64) (iqbuf.Buf, bool) {
	out := buf.Clone()
	ok := MixFrequency(out, freq)
	return out, ok
}
