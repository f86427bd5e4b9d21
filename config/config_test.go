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

package config

import (
	"testing"

	"github.com/spf13/afero"
)

func TestDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "machine.yaml", []byte("firmware: bios.bin\n"), 0644)

	m, err := Load(fs, "machine.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if m.Firmware != "bios.bin" {
		t.Errorf("firmware: %s", m.Firmware)
	}
	if m.FirmwareBase != 0xF0000 {
		t.Errorf("firmware base: %X", m.FirmwareBase)
	}
	if m.Boot.String() != "FFFF:0000" {
		t.Errorf("boot vector: %s", m.Boot)
	}
	if m.A20 {
		t.Error("a20 should be disabled by default")
	}
}

func TestOverride(t *testing.T) {
	const desc = `
firmware: rom.bin
firmware-base: 0xE0000
a20: true
boot:
  segment: 0xF000
  offset: 0xFFF0
`
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "machine.yaml", []byte(desc), 0644)

	m, err := Load(fs, "machine.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if m.FirmwareBase != 0xE0000 {
		t.Errorf("firmware base: %X", m.FirmwareBase)
	}
	if !m.A20 {
		t.Error("a20 should be enabled")
	}
	if m.Boot.String() != "F000:FFF0" {
		t.Errorf("boot vector: %s", m.Boot)
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := Load(afero.NewMemMapFs(), "nope.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBadYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "machine.yaml", []byte("firmware: [\n"), 0644)
	if _, err := Load(fs, "machine.yaml"); err == nil {
		t.Error("expected parse error")
	}
}
