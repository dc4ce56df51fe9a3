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
	"fmt"
	"os"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/ilkkavir/lpi/signal"
)

var config Config

// Params holds the experiment description that does not reduce to
// command-line flags: the preparer tuning, the lag list, the
// range-gate table and the clutter window. It is loaded from a YAML
// file named with --params.
type Params struct {
	Frequency  float64 `yaml:"frequency"`
	Shifts     [2]int  `yaml:"shifts"`
	Nup        int     `yaml:"nup"`
	Nfilter    int     `yaml:"nfilter"`
	Nfirst     int     `yaml:"nfirst"`
	NfirstFrac int     `yaml:"nfirstfrac"`
	IPartial   bool    `yaml:"ipartial"`

	Lags      []int `yaml:"lags"`
	RangeGate []int `yaml:"rangegates"`

	Background bool `yaml:"background"`
	RemoteRx   bool `yaml:"remoterx"`

	MaxRange int `yaml:"maxrange"`
	NMinAve  int `yaml:"nminave"`
	NCode    int `yaml:"ncode"`

	Clutter struct {
		Enabled bool `yaml:"enabled"`
		RMin    int  `yaml:"rmin"`
		RMax    int  `yaml:"rmax"`
	} `yaml:"clutter"`
}

// Prepare returns the preparer-stage parameter bundle.
func (p Params) Prepare() signal.PrepareParams {
	return signal.PrepareParams{
		Frequency:  p.Frequency,
		Shifts:     p.Shifts,
		Nup:        p.Nup,
		Nfilter:    p.Nfilter,
		Nfirst:     p.Nfirst,
		NfirstFrac: p.NfirstFrac,
		IPartial:   p.IPartial,
	}
}

func (p Params) validate() error {
	if p.Nup < 1 || p.Nfilter < 1 {
		return errors.Errorf("nup and nfilter must be positive, got %d and %d", p.Nup, p.Nfilter)
	}
	if len(p.Lags) == 0 {
		return errors.New("at least one lag is required")
	}
	if len(p.RangeGate) < 2 {
		return errors.New("rangegates needs at least two entries (one gate)")
	}
	for i := 1; i < len(p.RangeGate); i++ {
		if p.RangeGate[i] <= p.RangeGate[i-1] {
			return errors.Errorf("rangegates must be strictly increasing, got %v", p.RangeGate)
		}
	}
	if p.Clutter.Enabled && p.Clutter.RMax < p.Clutter.RMin {
		return errors.Errorf("clutter window [%d, %d] is empty", p.Clutter.RMin, p.Clutter.RMax)
	}
	return nil
}

type Config struct {
	paramsFilename string
	outputDir      string

	Params    Params
	BigEndian bool
	Window    int
	Verbose   bool
	Files     []string
}

func (c Config) String() string {
	return fmt.Sprintf("{Params:%s BigEndian:%t Window:%d Files:%v Output:%s}",
		c.paramsFilename,
		c.BigEndian,
		c.Window,
		c.Files,
		c.outputDir,
	)
}

func (c *Config) Parse() (err error) {
	flag.StringVarP(&c.paramsFilename, "params", "p", "lpi.yaml", "experiment parameter file")
	flag.StringVarP(&c.outputDir, "output", "o", ".", "directory the accumulated normal equations are written to")
	flag.BoolVar(&c.BigEndian, "big-endian", false, "input samples are big-endian")
	flag.IntVarP(&c.Window, "window", "w", 1<<20, "integration window length in raw samples")
	flag.BoolVarP(&c.Verbose, "verbose", "v", false, "debug logging")

	flag.Parse()

	c.Files = flag.Args()
	if len(c.Files) == 0 {
		return errors.New("no input files")
	}
	if c.Window < 1 {
		return errors.Errorf("window must be positive, got %d", c.Window)
	}

	raw, err := os.ReadFile(c.paramsFilename)
	if err != nil {
		return errors.Wrapf(err, "reading %s", c.paramsFilename)
	}
	if err = yaml.Unmarshal(raw, &c.Params); err != nil {
		return errors.Wrapf(err, "parsing %s", c.paramsFilename)
	}
	if err = c.Params.validate(); err != nil {
		return errors.Wrapf(err, "%s", c.paramsFilename)
	}

	return nil
}
