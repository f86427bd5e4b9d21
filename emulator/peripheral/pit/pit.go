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
	https://wiki.osdev.org/Programmable_Interval_Timer
*/

package pit

import (
	"time"

	"github.com/andreas-jonsson/vdm86/emulator/processor"
)

const baseFrequency = 1193182

const (
	accessLatch = iota
	accessLowByte
	accessHighByte
	accessToggle
)

type channel struct {
	enabled, flip bool
	access        byte
	counter, data uint16
	frequency     float64
}

// Device is an Intel 8253 on ports 0x40-0x43. Channel 0 drives IRQ 0,
// channel 2 feeds the speaker gate.
type Device struct {
	pic      processor.InterruptController
	channels [3]channel

	ticks, deviceTicks int64
}

func (m *Device) Install(p processor.Machine) error {
	m.pic = p.GetInterruptController()
	return p.InstallIODevice(m, 0x40, 0x43)
}

func (m *Device) Name() string {
	return "Programmable Interval Timer (Intel 8253)"
}

func (m *Device) Reset() {
	*m = Device{pic: m.pic, ticks: time.Now().UnixNano() / 1000}
}

func (m *Device) Step(int) error {
	// ticks in microseconds
	ticks := time.Now().UnixNano() / 1000

	if ch := &m.channels[0]; ch.enabled && ch.frequency > 0 {
		next := 1000000 / int64(ch.frequency)
		if ticks >= (m.ticks + next) {
			m.ticks = ticks
			if m.pic != nil {
				m.pic.IRQ(0)
			}
		}
	}

	const (
		step = 10
		next = 1000000 / (baseFrequency / step)
	)

	if ticks >= (m.deviceTicks + next) {
		for i := range m.channels {
			if ch := &m.channels[i]; ch.enabled {
				if ch.counter < step {
					ch.counter = ch.data
				} else {
					ch.counter -= step
				}
			}
		}
		m.deviceTicks = ticks
	}
	return nil
}

// GetFrequency reports the output frequency of a channel in Hz.
func (m *Device) GetFrequency(ch int) float64 {
	return m.channels[ch].frequency
}

func (m *Device) In(port uint16) byte {
	if port == 0x43 {
		return 0
	}

	ch := &m.channels[port&3]
	var ret uint16

	switch {
	case ch.access == accessLatch || ch.access == accessLowByte || (ch.access == accessToggle && !ch.flip):
		ret = ch.counter & 0xFF
	case ch.access == accessHighByte || (ch.access == accessToggle && ch.flip):
		ret = ch.counter >> 8
	}

	if ch.access == accessLatch || ch.access == accessToggle {
		ch.flip = !ch.flip
	}
	return byte(ret)
}

func (m *Device) Out(port uint16, data byte) {
	switch port {
	case 0x40, 0x41, 0x42:
		ch := &m.channels[port&3]
		ch.enabled = true

		if ch.access == accessLowByte || (ch.access == accessToggle && !ch.flip) {
			ch.data = (ch.data & 0xFF00) | uint16(data)
		} else if ch.access == accessHighByte || (ch.access == accessToggle && ch.flip) {
			ch.data = (ch.data & 0x00FF) | (uint16(data) << 8)
		}

		reload := uint32(ch.data)
		if reload == 0 {
			reload = 0x10000
		}
		ch.frequency = baseFrequency / float64(reload)

		if ch.access == accessToggle {
			ch.flip = !ch.flip
		}
	case 0x43: // Mode/Command register.
		if data>>6 == 3 { // Read-back is 8254 only.
			return
		}
		ch := &m.channels[data>>6]
		if ch.access = (data >> 4) & 3; ch.access == accessToggle {
			ch.flip = false
		}
	}
}
