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

package vga

import (
	"bytes"
	"testing"
)

func TestActiveWindow(t *testing.T) {
	m := &Device{Headless: true}
	m.Reset()

	if m.BaseAddress() != textBase || m.LimitAddress() != textLimit {
		t.Error("expected the text window after reset")
	}

	m.Out(0x3D8, 2) // Graphics mode.
	if m.BaseAddress() != graphicsBase || m.LimitAddress() != graphicsLimit {
		t.Error("expected the graphics window")
	}

	m.Out(0x3D8, 1)
	if m.BaseAddress() != textBase {
		t.Error("expected the text window again")
	}
}

func TestRegionMirroring(t *testing.T) {
	m := &Device{Headless: true}
	m.Reset()

	payload := []byte{'H', 0x07, 'i', 0x07}
	m.WriteRegion(textBase, payload)

	if !m.dirtyMemory {
		t.Error("expected a write to mark video memory dirty")
	}

	p := make([]byte, 4)
	m.ReadRegion(textBase, p)
	if !bytes.Equal(p, payload) {
		t.Errorf("expected % X, got % X", payload, p)
	}

	// Text and graphics windows share the backing store.
	m.ReadRegion(graphicsBase, p)
	if p[0] != 0 {
		t.Error("expected the graphics window to start clean")
	}
}

func TestCursor(t *testing.T) {
	m := &Device{Headless: true}
	m.Reset()

	if !m.cursor.visible {
		t.Error("expected the cursor to be visible after reset")
	}

	// Cursor at row 1, column 5 through the CRT index registers.
	pos := uint16(1*80 + 5)
	m.Out(0x3D4, 0xE)
	m.Out(0x3D5, byte(pos>>8))
	m.Out(0x3D4, 0xF)
	m.Out(0x3D5, byte(pos))

	if m.cursor.x != 5 || m.cursor.y != 1 {
		t.Errorf("cursor at %d:%d", m.cursor.x, m.cursor.y)
	}
	if !m.cursor.update {
		t.Error("expected a pending cursor update")
	}

	m.Out(0x3D4, 0xA)
	m.Out(0x3D5, 0x20) // Cursor off.
	if m.cursor.visible {
		t.Error("expected the cursor to hide")
	}

	if v := m.In(0x3D5); v != 0x20 {
		t.Errorf("expected CRT register readback, got 0x%02X", v)
	}
}

func TestStatusToggle(t *testing.T) {
	m := &Device{Headless: true}
	m.Reset()

	a, b := m.In(0x3DA), m.In(0x3DA)
	if a == b {
		t.Error("expected the refresh bits to toggle")
	}
}
