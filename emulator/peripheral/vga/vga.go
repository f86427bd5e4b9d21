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
	"sync"

	"github.com/andreas-jonsson/vdm86/emulator/memory"
	"github.com/andreas-jonsson/vdm86/emulator/processor"
	"github.com/gdamore/tcell"
)

// The backing store covers the whole legacy video window. The range
// exposed to the address bus depends on the current mode and is queried
// on every access.
const (
	vramBase = 0xA0000
	vramSize = 0x1C000

	graphicsBase  = 0xA0000
	graphicsLimit = 0xB8000

	textBase  = 0xB8000
	textLimit = 0xBC000
)

type consoleCursor struct {
	update, visible bool
	x, y            byte
}

// Device is the video adapter. Guest accesses to the active video window
// are mirrored to its own memory store by the address bus.
type Device struct {
	// Headless disables the terminal renderer. Memory mirroring and the
	// CRT registers behave as usual.
	Headless bool

	lock     sync.RWMutex
	quitChan chan struct{}

	dirtyMemory bool
	vram        [vramSize]byte
	crtReg      [0x100]byte

	crtAddr, modeCtrlReg,
	colorCtrlReg, oldColorCtrlReg,
	refresh byte

	cursorPos uint16
	cursor    consoleCursor

	keyboard keyboardHandler
	screen   tcell.Screen
	p        processor.Machine
}

type keyboardHandler interface {
	SendKeyEvent(interface{}) error
}

func (m *Device) Install(p processor.Machine) error {
	m.p = p

	p.InstallMemoryDevice(m)
	if err := p.InstallIODevice(m, 0x3B0, 0x3DF); err != nil {
		return err
	}
	if m.Headless {
		return nil
	}
	return m.startRenderLoop()
}

func (m *Device) Name() string {
	return "VGA compatible device"
}

func (m *Device) Reset() {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.colorCtrlReg = 0x20
	m.modeCtrlReg = 1
	m.cursorPos = 0
	m.cursor = consoleCursor{visible: true}
}

func (m *Device) Step(int) error {
	return nil
}

func (m *Device) graphicsMode() bool {
	return m.modeCtrlReg&2 != 0
}

// BaseAddress reports the start of the active video window.
func (m *Device) BaseAddress() memory.Pointer {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.graphicsMode() {
		return graphicsBase
	}
	return textBase
}

// LimitAddress reports the end of the active video window.
func (m *Device) LimitAddress() memory.Pointer {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.graphicsMode() {
		return graphicsLimit
	}
	return textLimit
}

func (m *Device) ReadRegion(addr memory.Pointer, p []byte) {
	m.lock.RLock()
	copy(p, m.vram[addr-vramBase:])
	m.lock.RUnlock()
}

func (m *Device) WriteRegion(addr memory.Pointer, p []byte) {
	m.lock.Lock()
	copy(m.vram[addr-vramBase:], p)
	m.dirtyMemory = true
	m.lock.Unlock()
}

func (m *Device) In(port uint16) byte {
	m.lock.Lock()
	defer m.lock.Unlock()

	switch port {
	case 0x3B5, 0x3D5:
		return m.crtReg[m.crtAddr]
	case 0x3D9:
		return m.colorCtrlReg
	case 0x3BA, 0x3DA:
		m.refresh ^= 0x9
		return m.refresh
	}
	return 0
}

func (m *Device) Out(port uint16, data byte) {
	m.lock.Lock()
	defer m.lock.Unlock()

	switch port {
	case 0x3B4, 0x3D4:
		m.crtAddr = data
	case 0x3B5, 0x3D5:
		m.crtReg[m.crtAddr] = data
		switch m.crtAddr {
		case 0xA:
			m.cursor.update = true
			m.cursor.visible = data&0x20 == 0
		case 0xE:
			m.cursor.update = true
			m.cursorPos = (m.cursorPos & 0x00FF) | (uint16(data) << 8)
		case 0xF:
			m.cursor.update = true
			m.cursorPos = (m.cursorPos & 0xFF00) | uint16(data)
		}

		m.cursor.x = byte(m.cursorPos % 80)
		m.cursor.y = byte(m.cursorPos / 80)
	case 0x3D8:
		m.modeCtrlReg = data
	case 0x3D9:
		m.colorCtrlReg = data
	}
}
