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

// Package gdf reads the .gdf wire format: a concatenation of 32-bit
// records, each two little- or big-endian 16-bit signed (I, Q) samples.
package gdf

import (
	"os"

	"github.com/pkg/errors"
)

// FileSpan names one input file and the inclusive sample-index range to
// read from it (not byte offsets -- those are i*4 and i*4+3).
type FileSpan struct {
	Path   string
	IStart int
	IEnd   int
}

// Result is what the loader hands back to the caller: the widened
// complex samples plus the two one-bit marker streams extracted from
// the lowest bits of I and Q, PPS and TX respectively.
type Result struct {
	Samples []complex128
	PPS     []int32
	TX      []int32
	N       int
}

// Read loads the concatenation of spans into one Result. bigEndian
// applies uniformly to every span. Read reports success=false and a
// non-nil error the moment any file fails to open or yields fewer
// bytes than (IEnd-IStart+1)*4; a partially filled Result is still
// returned but the caller must treat it as invalid.
func Read(spans []FileSpan, bigEndian bool) (Result, bool, error) {
	n := 0
	for _, sp := range spans {
		n += sp.IEnd - sp.IStart + 1
	}

	res := Result{
		Samples: make([]complex128, n),
		PPS:     make([]int32, n),
		TX:      make([]int32, n),
		N:       n,
	}

	kd := 0
	for _, sp := range spans {
		f, err := os.Open(sp.Path)
		if err != nil {
			return res, false, errors.Wrapf(err, "gdf: opening %s", sp.Path)
		}

		want := (sp.IEnd - sp.IStart + 1) * 4
		block := make([]byte, want)

		got, err := f.ReadAt(block, int64(sp.IStart)*4)
		f.Close()
		if got != want {
			if err == nil {
				err = errors.Errorf("gdf: short read on %s: got %d of %d bytes", sp.Path, got, want)
			} else {
				err = errors.Wrapf(err, "gdf: reading %s", sp.Path)
			}
			return res, false, err
		}

		for k := 0; k < (sp.IEnd - sp.IStart + 1); k++ {
			var ir, ii int16
			if bigEndian {
				ir = int16(uint16(block[k*4])<<8 | uint16(block[k*4+1]))
				ii = int16(uint16(block[k*4+2])<<8 | uint16(block[k*4+3]))
			} else {
				ir = int16(uint16(block[k*4+1])<<8 | uint16(block[k*4]))
				ii = int16(uint16(block[k*4+3])<<8 | uint16(block[k*4+2]))
			}

			res.PPS[kd] = int32(ir & 0x0001)
			res.TX[kd] = int32(ii & 0x0001)

			ir &^= 0x0001
			ii &^= 0x0001

			res.Samples[kd] = complex(float64(ir), float64(ii))
			kd++
		}
	}

	return res, true, nil
}
