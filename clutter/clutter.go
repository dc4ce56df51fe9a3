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

// Package clutter implements ground-clutter suppression: a localised
// inverse problem over the contiguous range window [rmin, rmax] around
// the transmitter, measured with Measure and removed from the voltage
// stream with Subtract once the outer solver has turned the
// accumulated normal equations into a clutter profile.
package clutter

import (
	"github.com/ilkkavir/lpi/accum"
	"github.com/ilkkavir/lpi/iqbuf"
)

// Measure slides over the buffers and, at every usable receiver
// sample, adds one dense clutter measurement row into fish: the row is
// the nx = rmax-rmin+1 transmitter samples preceding the current
// sample, the measurement is the receiver sample, and the variance is
// one. fish must have been created with NewFisher(rmax-rmin+1).
//
// Both sample vectors are preconditioned in place: every complex
// sample whose marker is zero is set to (0,0), so that stale values
// behind an unset marker can never leak into the accumulated rows.
// A row is added only when the range counter from the latest
// transmitter sample lies in [rmin, rmax], at least one transmitter
// sample sits inside the current range window, and the receiver
// marker is set. Returns the number of rows added and success.
func Measure(tx, rx iqbuf.Buf, rmin, rmax int, fish accum.Fisher) (int, bool) {
	nd := tx.N
	if rx.N < nd {
		nd = rx.N
	}
	nx := rmax - rmin + 1
	if fish.N != nx {
		return 0, false
	}

	for i := 0; i < nd; i++ {
		if tx.Marker[i] == 0 {
			tx.Samples[i] = 0
		}
		if rx.Marker[i] == 0 {
			rx.Samples[i] = 0
		}
	}

	nr := 0
	r := 0
	isum := int32(0)
	for i := 0; i <= rmax && i < nd; i++ {
		if i < nx {
			isum += tx.Marker[i]
		}
		r++
		if tx.Marker[i] != 0 {
			r = 0
		}
	}

	// The receiver sample paired with the window ending at tx[i-rmin]
	// is rx[i+1], so the scan stops one sample short of the end.
	for i := rmax; i < nd-1; i++ {
		if tx.Marker[i] != 0 {
			r = 0
		}
		if r >= rmin && r <= rmax && isum != 0 && rx.Marker[i] != 0 {
			fishsAddClutter(fish, tx.Samples[i-rmax:i-rmax+nx], rx.Samples[i+1])
			nr++
		}
		isum -= tx.Marker[i-rmax]
		isum += tx.Marker[i-rmin+1]
		r++
	}

	return nr, true
}

// Subtract runs the same sliding scan as Measure but, instead of
// accumulating rows, convolves the current transmitter window with the
// solved clutter profile and removes the result from the receiver
// sample in place. profile must have length rmax-rmin+1. Returns the
// number of samples corrected and success.
func Subtract(tx, rx iqbuf.Buf, rmin, rmax int, profile []complex128) (int, bool) {
	nd := tx.N
	if rx.N < nd {
		nd = rx.N
	}
	nx := rmax - rmin + 1
	if len(profile) != nx {
		return 0, false
	}

	nr := 0
	r := 0
	isum := int32(0)
	for i := 0; i <= rmax && i < nd; i++ {
		if i < nx {
			isum += tx.Marker[i]
		}
		r++
		if tx.Marker[i] != 0 {
			r = 0
		}
	}

	for i := rmax; i < nd-nx; i++ {
		if tx.Marker[i] != 0 {
			r = 0
		}
		if r >= rmin && r <= rmax && isum != 0 && rx.Marker[i] != 0 {
			var clsum complex128
			for j := 0; j < nx; j++ {
				t := tx.Samples[i-rmax+j]
				c := profile[j]
				clsum += complex(
					real(t)*real(c)-imag(t)*imag(c),
					real(t)*imag(c)+imag(t)*real(c),
				)
			}
			rx.Samples[i+1] -= clsum
			nr++
		}
		isum -= tx.Marker[i-rmax]
		isum += tx.Marker[i-rmin+1]
		r++
	}

	return nr, true
}

// fishsAddClutter folds a single dense unit-variance row into the
// clutter Fisher matrix and measurement vector. Unlike the gated
// accumulators in package accum, every column participates; the rows
// here come straight from the transmitter samples, which Measure has
// already zeroed behind unset markers.
func fishsAddClutter(fish accum.Fisher, arow []complex128, meas complex128) {
	n := len(arow)
	qpos := 0
	for i := 0; i < n; i++ {
		ai := arow[i]
		for j := i; j < n; j++ {
			aj := arow[j]
			fish.Q[qpos] += complex(
				real(ai)*real(aj)+imag(ai)*imag(aj),
				real(ai)*imag(aj)-imag(ai)*real(aj),
			)
			qpos++
		}
		fish.Y[i] += complex(
			real(meas)*real(ai)+imag(meas)*imag(ai),
			imag(meas)*real(ai)-real(meas)*imag(ai),
		)
	}
}
