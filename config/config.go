/*
Copyright (c) 2019-2021 Andreas T Jonsson

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

// Package config reads the machine description file.
package config

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

type Vector struct {
	Segment uint16 `yaml:"segment"`
	Offset  uint16 `yaml:"offset"`
}

func (v Vector) String() string {
	return fmt.Sprintf("%04X:%04X", v.Segment, v.Offset)
}

type Machine struct {
	// Firmware is the BIOS image loaded into the write protected area.
	Firmware     string `yaml:"firmware"`
	FirmwareBase uint32 `yaml:"firmware-base"`

	// Boot is where execution starts, normally the reset vector.
	Boot Vector `yaml:"boot"`

	// A20 enables the full address space from the start.
	A20 bool `yaml:"a20"`

	Headless bool `yaml:"headless"`
}

// Default is a machine that starts at the reset vector with the A20
// line disabled, like the real hardware does.
func Default() *Machine {
	return &Machine{
		FirmwareBase: 0xF0000,
		Boot:         Vector{Segment: 0xFFFF, Offset: 0},
	}
}

// Load reads a machine description. Missing fields keep their defaults.
func Load(fs afero.Fs, name string) (*Machine, error) {
	m := Default()

	data, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", name, err)
	}
	return m, nil
}
