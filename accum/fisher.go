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

// Package accum implements the normal-equations accumulators: the
// Hermitian Fisher information matrix and modified measurement vector
// built up one theory-row batch at a time.
package accum

import "github.com/ilkkavir/lpi/theory"

// Fisher holds the Hermitian Fisher information matrix, packed into
// its upper triangle row-major (Q[i,j] for j>=i lives at QIndex(i,j)),
// and the modified measurement vector Y. Both grow by accumulation
// across any number of FishsAdd/DecoAdd calls over successive
// theory-row batches; Fisher never needs to know how many batches it
// has seen.
type Fisher struct {
	Q []complex128
	Y []complex128
	N int
}

// NewFisher allocates a zeroed Fisher information matrix for n unknowns.
func NewFisher(n int) Fisher {
	return Fisher{
		Q: make([]complex128, n*(n+1)/2),
		Y: make([]complex128, n),
		N: n,
	}
}

// QIndex returns the packed index of Q[i,j], i<=j<n.
func (f Fisher) QIndex(i, j int) int {
	return i*f.N - i*(i-1)/2 + (j - i)
}

// FishsAdd accumulates one batch of theory rows into f by direct outer
// product: for every row, Q[i,j] += conj(a[i])*a[j]/var for every i<=j
// where both a[i] and a[j] are flagged in the row's index vector, and
// Y[i] += conj(a[i])*m/var wherever a[i] is flagged. Skipping unflagged
// columns is an optimisation, not a correctness requirement, since the
// theory-row generator writes those entries as exactly zero; it just
// avoids multiplying by zero
// n(n+1)/2 times per row. Always reports success.
func FishsAdd(f Fisher, rows theory.RowBatch) bool {
	n := f.N

	for l := 0; l < rows.NRows(); l++ {
		row := rows.Row(l)
		a := row.A
		idx := row.I
		v := row.Var
		m := row.M

		qpos := 0
		for i := 0; i < n; i++ {
			if idx[i] != 0 {
				ai := a[i]
				for j := 0; j < n-i; j++ {
					if idx[i+j] != 0 {
						aj := a[i+j]
						f.Q[qpos] += complex(
							(real(ai)*real(aj)+imag(ai)*imag(aj))/v,
							(real(ai)*imag(aj)-imag(ai)*real(aj))/v,
						)
					}
					qpos++
				}

				f.Y[i] += complex(
					(real(m)*real(ai)+imag(m)*imag(ai))/v,
					(imag(m)*real(ai)-real(m)*imag(ai))/v,
				)
			} else {
				qpos += n - i
			}
		}
	}

	return true
}

// DecoAdd is the matched-filter-decoding variant of FishsAdd: it
// accumulates only the diagonal of the Fisher matrix (row cross terms
// are assumed negligible), with no index-vector gating at all -- a
// theory row with a zero entry simply contributes zero. Off-diagonal
// entries of Q are never touched. Always reports success.
func DecoAdd(f Fisher, rows theory.RowBatch) bool {
	n := f.N

	for l := 0; l < rows.NRows(); l++ {
		row := rows.Row(l)
		a := row.A
		v := row.Var
		m := row.M

		qpos := 0
		for i := 0; i < n; i++ {
			ai := a[i]
			f.Q[qpos] += complex(
				(real(ai)*real(ai)+imag(ai)*imag(ai))/v,
				0,
			)
			qpos += n - i
			f.Y[i] += complex(
				(real(m)*real(ai)+imag(m)*imag(ai))/v,
				(imag(m)*real(ai)-real(m)*imag(ai))/v,
			)
		}
	}

	return true
}
