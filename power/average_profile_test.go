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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkkavir/lpi/iqbuf"
)

// Two identical inter-pulse periods with ncode=1: samples one period
// apart average into the same code-cycle slot and both copies are
// overwritten with that average.
func TestAverageProfileOnePeriod(t *testing.T) {
	buf := iqbuf.NewBuf(12)
	for k := range buf.Samples {
		buf.Samples[k] = complex(float64(k), 0)
	}
	for _, k := range []int{2, 3, 8, 9} {
		buf.Marker[k] = 1
	}

	require.True(t, AverageProfile(buf, 1))

	want := []complex128{0, 1, 5, 6, 7, 8, 6, 7, 5, 6, 7, 8}
	assert.Equal(t, want, buf.Samples)
}

// A buffer with no marked pulse has nothing to average over.
func TestAverageProfileNoPulse(t *testing.T) {
	buf := iqbuf.NewBuf(8)
	assert.False(t, AverageProfile(buf, 1))
}
