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

package gdf

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeGdf writes int16 (I, Q) pairs in the requested byte order and
// returns the file path.
func writeGdf(t *testing.T, name string, bigEndian bool, pairs [][2]int16) string {
	t.Helper()

	var order binary.ByteOrder = binary.LittleEndian
	if bigEndian {
		order = binary.BigEndian
	}

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	for _, p := range pairs {
		require.NoError(t, binary.Write(f, order, p))
	}
	return path
}

func TestReadExtractsMarkerBits(t *testing.T) {
	for _, bigEndian := range []bool{false, true} {
		// I = 4|PPS, Q = 6|TX: the low bits must be stripped from the
		// numeric sample.
		pairs := [][2]int16{
			{5, 7},
			{4, 6},
			{-8, -6},
			{0, 1},
		}
		path := writeGdf(t, "markers.gdf", bigEndian, pairs)

		res, ok, err := Read([]FileSpan{{Path: path, IStart: 0, IEnd: 3}}, bigEndian)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, 4, res.N)

		assert.Equal(t, []int32{1, 0, 0, 0}, res.PPS)
		assert.Equal(t, []int32{1, 0, 0, 1}, res.TX)
		assert.Equal(t, complex(4.0, 6.0), res.Samples[0])
		assert.Equal(t, complex(4.0, 6.0), res.Samples[1])
		assert.Equal(t, complex(-8.0, -6.0), res.Samples[2])
		assert.Equal(t, complex(0.0, 0.0), res.Samples[3])
	}
}

func TestReadSlicesAndConcatenates(t *testing.T) {
	pairs := [][2]int16{{2, 0}, {4, 0}, {6, 0}, {8, 0}}
	path := writeGdf(t, "slice.gdf", false, pairs)

	res, ok, err := Read([]FileSpan{
		{Path: path, IStart: 1, IEnd: 2},
		{Path: path, IStart: 3, IEnd: 3},
	}, false)
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, 3, res.N)
	assert.Equal(t, complex(4.0, 0.0), res.Samples[0])
	assert.Equal(t, complex(6.0, 0.0), res.Samples[1])
	assert.Equal(t, complex(8.0, 0.0), res.Samples[2])
}

func TestReadShortFileFails(t *testing.T) {
	pairs := [][2]int16{{2, 0}, {4, 0}}
	path := writeGdf(t, "short.gdf", false, pairs)

	_, ok, err := Read([]FileSpan{{Path: path, IStart: 0, IEnd: 5}}, false)
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestReadMissingFileFails(t *testing.T) {
	_, ok, err := Read([]FileSpan{{Path: "/nonexistent/x.gdf", IStart: 0, IEnd: 1}}, false)
	assert.False(t, ok)
	assert.Error(t, err)
}
