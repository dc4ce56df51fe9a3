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

package lag

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ilkkavir/lpi/iqbuf"
)

func TestLaggedProductLagOne(t *testing.T) {
	buf := iqbuf.NewBuf(3)
	buf.Samples[0] = complex(1, 0)
	buf.Samples[1] = complex(0, 1)
	buf.Samples[2] = complex(2, 0)
	for k := range buf.Marker {
		buf.Marker[k] = 1
	}

	out, ok := NewLaggedProduct(buf, buf, 1)
	require.True(t, ok)

	require.Equal(t, 2, out.N)
	assert.Equal(t, buf.Samples[0]*cmplx.Conj(buf.Samples[1]), out.Samples[0])
	assert.Equal(t, buf.Samples[1]*cmplx.Conj(buf.Samples[2]), out.Samples[1])
	assert.Equal(t, []int32{1, 1}, out.Marker)
}

// Wherever the output marker is set, the product must be bit-equal to
// x1[k]*conj(x2[k+lag]); where it is unset, nothing may be written.
func TestLaggedProductExact(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 64).Draw(t, "n")
		l := rapid.IntRange(0, n-1).Draw(t, "lag")

		buf1 := iqbuf.NewBuf(n)
		buf2 := iqbuf.NewBuf(n)
		for k := 0; k < n; k++ {
			buf1.Samples[k] = complex(rapid.Float64Range(-10, 10).Draw(t, "r1"), rapid.Float64Range(-10, 10).Draw(t, "i1"))
			buf2.Samples[k] = complex(rapid.Float64Range(-10, 10).Draw(t, "r2"), rapid.Float64Range(-10, 10).Draw(t, "i2"))
			buf1.Marker[k] = int32(rapid.IntRange(0, 1).Draw(t, "m1"))
			buf2.Marker[k] = int32(rapid.IntRange(0, 1).Draw(t, "m2"))
		}

		out := iqbuf.NewBuf(n)
		npr, ok := LaggedProduct(buf1, buf2, l, out)
		require.True(t, ok)
		require.Equal(t, n-l, npr)

		for k := 0; k < npr; k++ {
			if out.Marker[k] != 0 {
				assert.Equal(t, buf1.Samples[k]*cmplx.Conj(buf2.Samples[k+l]), out.Samples[k], "index %d", k)
			} else {
				assert.Equal(t, complex128(0), out.Samples[k], "unmarked index %d", k)
			}
		}
		for k := npr; k < npr+l && k < out.N; k++ {
			assert.Equal(t, int32(0), out.Marker[k], "trailing marker %d", k)
		}
	})
}

func TestRealProduct(t *testing.T) {
	rd := []float64{1, 2, 3, 4, 5}
	out := make([]float64, 5)

	n, ok := RealProduct(rd, rd, 2, out)
	require.True(t, ok)

	require.Equal(t, 3, n)
	assert.Equal(t, []float64{3, 8, 15}, out[:3])
}
