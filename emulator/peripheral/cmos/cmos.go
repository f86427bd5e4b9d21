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

/*
References:
	https://wiki.osdev.org/CMOS
*/

package cmos

import (
	"time"

	"github.com/andreas-jonsson/vdm86/emulator/processor"
)

const (
	addressPort = 0x70
	dataPort    = 0x71
)

// Clock and status registers.
const (
	regSeconds = 0x00
	regMinutes = 0x02
	regHours   = 0x04
	regWeekday = 0x06
	regDay     = 0x07
	regMonth   = 0x08
	regYear    = 0x09
	regStatusA = 0x0A
	regStatusB = 0x0B
	regStatusC = 0x0C
	regStatusD = 0x0D
	regCentury = 0x32
)

// Device is a MC146818 real-time clock and CMOS RAM. The clock registers
// track host wall time. Writes land in CMOS RAM but never adjust the
// host clock.
type Device struct {
	pic processor.InterruptController

	ram      [0x80]byte
	selected byte
	nmiMask  bool

	ticks int64
}

// Now is swapped out in tests.
var Now = time.Now

func (m *Device) Install(p processor.Machine) error {
	m.pic = p.GetInterruptController()
	return p.InstallIODevice(m, addressPort, dataPort)
}

func (m *Device) Name() string {
	return "Real-Time Clock (MC146818)"
}

func (m *Device) Reset() {
	pic := m.pic
	*m = Device{pic: pic}
	m.ram[regStatusA] = 0x26
	m.ram[regStatusB] = 2 // 24 hour mode, BCD
	m.ram[regStatusD] = 0x80
}

func (m *Device) Step(int) error {
	if m.ram[regStatusB]&0x40 == 0 || m.nmiMask {
		return nil
	}

	// Periodic interrupt at the rate selected in status A.
	rate := m.ram[regStatusA] & 0xF
	if rate == 0 {
		return nil
	}
	period := int64(1000000 / (32768 >> (rate - 1)))

	ticks := Now().UnixNano() / 1000
	if ticks >= m.ticks+period {
		m.ticks = ticks
		m.ram[regStatusC] |= 0xC0
		if m.pic != nil {
			m.pic.IRQ(8)
		}
	}
	return nil
}

func toBCD(v int) byte {
	return byte(((v / 10) << 4) | (v % 10))
}

func (m *Device) clock(reg byte) (byte, bool) {
	t := Now()
	var v int

	switch reg {
	case regSeconds:
		v = t.Second()
	case regMinutes:
		v = t.Minute()
	case regHours:
		v = t.Hour()
	case regWeekday:
		v = int(t.Weekday()) + 1
	case regDay:
		v = t.Day()
	case regMonth:
		v = int(t.Month())
	case regYear:
		v = t.Year() % 100
	case regCentury:
		v = t.Year() / 100
	default:
		return 0, false
	}

	if m.ram[regStatusB]&4 != 0 { // Binary mode.
		return byte(v), true
	}
	return toBCD(v), true
}

func (m *Device) In(port uint16) byte {
	if port == addressPort {
		return m.selected
	}

	if v, ok := m.clock(m.selected); ok {
		return v
	}
	if m.selected == regStatusC {
		v := m.ram[regStatusC]
		m.ram[regStatusC] = 0 // Read clears pending flags.
		return v
	}
	return m.ram[m.selected&0x7F]
}

func (m *Device) Out(port uint16, data byte) {
	if port == addressPort {
		m.selected = data & 0x7F
		m.nmiMask = data&0x80 != 0
		return
	}
	m.ram[m.selected] = data
}
