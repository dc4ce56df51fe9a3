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

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ilkkavir/lpi/gdf"
)

const sampleParams = `
frequency: 0.0125
shifts: [1, -1]
nup: 1
nfilter: 4
ipartial: false
lags: [1, 2, 3]
rangegates: [20, 40, 60, 80]
background: true
remoterx: false
maxrange: 100
nminave: 10
ncode: 4
clutter:
  enabled: true
  rmin: 5
  rmax: 18
`

func TestParamsUnmarshal(t *testing.T) {
	var p Params
	require.NoError(t, yaml.Unmarshal([]byte(sampleParams), &p))
	require.NoError(t, p.validate())

	assert.Equal(t, []int{1, 2, 3}, p.Lags)
	assert.Equal(t, []int{20, 40, 60, 80}, p.RangeGate)
	assert.Equal(t, [2]int{1, -1}, p.Shifts)
	assert.True(t, p.Clutter.Enabled)

	prep := p.Prepare()
	assert.Equal(t, 0.0125, prep.Frequency)
	assert.Equal(t, 4, prep.Nfilter)
}

func TestParamsValidate(t *testing.T) {
	base := func() Params {
		var p Params
		require.NoError(t, yaml.Unmarshal([]byte(sampleParams), &p))
		return p
	}

	p := base()
	p.Lags = nil
	assert.Error(t, p.validate())

	p = base()
	p.RangeGate = []int{20, 20, 60}
	assert.Error(t, p.validate())

	p = base()
	p.Nfilter = 0
	assert.Error(t, p.validate())

	p = base()
	p.Clutter.RMax = p.Clutter.RMin - 1
	assert.Error(t, p.validate())
}

func TestSliceSpans(t *testing.T) {
	spans := []gdf.FileSpan{
		{Path: "a.gdf", IStart: 0, IEnd: 9},
		{Path: "b.gdf", IStart: 0, IEnd: 4},
	}

	got := sliceSpans(spans, 8, 12)
	require.Len(t, got, 2)
	assert.Equal(t, gdf.FileSpan{Path: "a.gdf", IStart: 8, IEnd: 9}, got[0])
	assert.Equal(t, gdf.FileSpan{Path: "b.gdf", IStart: 0, IEnd: 2}, got[1])

	got = sliceSpans(spans, 10, 14)
	require.Len(t, got, 1)
	assert.Equal(t, gdf.FileSpan{Path: "b.gdf", IStart: 0, IEnd: 4}, got[0])
}
