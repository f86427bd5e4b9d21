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

package ps2

import (
	"errors"
	"time"

	"github.com/andreas-jonsson/vdm86/emulator/processor"
)

const MaxEvents = 64

// Device is the PS/2 keyboard controller on ports 0x60 and 0x64.
// Host key events are queued through SendKeyEvent and drained one
// scancode per tick, raising IRQ 1.
type Device struct {
	dataPort, commandPort byte

	state  Scancode
	events chan Scancode
	ticker *time.Ticker
	pic    processor.InterruptController
}

func (m *Device) Install(p processor.Machine) error {
	m.pic = p.GetInterruptController()
	m.ticker = time.NewTicker(time.Millisecond * 10)
	m.events = make(chan Scancode, MaxEvents)
	return p.InstallIODeviceAt(m, 0x60, 0x62, 0x64)
}

func (m *Device) Name() string {
	return "PS/2 Keyboard Controller"
}

func (m *Device) Reset() {
	m.dataPort = 0
	m.commandPort = 0
	for {
		select {
		case <-m.events:
		default:
			return
		}
	}
}

func (m *Device) checkEvents() bool {
	select {
	case <-m.ticker.C:
		select {
		case m.state = <-m.events:
			return true
		default:
		}
	default:
	}
	return false
}

func (m *Device) pushEvent(ev Scancode) error {
	select {
	case m.events <- ev:
		return nil
	default:
		return errors.New("event queue is full")
	}
}

func (m *Device) Step(int) error {
	if m.checkEvents() {
		m.commandPort |= 2
		m.dataPort = byte(m.state)
		if m.pic != nil {
			m.pic.IRQ(1)
		}
	}
	return nil
}

func (m *Device) Close() error {
	m.ticker.Stop()
	return nil
}

func (m *Device) In(port uint16) byte {
	switch port {
	case 0x60:
		m.commandPort = 0
		return m.dataPort
	case 0x62:
		return 0
	case 0x64:
		return m.commandPort
	}
	return 0
}

func (m *Device) Out(port uint16, data byte) {
}

type Scancode byte

const KeyUpMask Scancode = 0x80

const (
	ScanInvalid Scancode = iota
	ScanEscape
	Scan1
	Scan2
	Scan3
	Scan4
	Scan5
	Scan6
	Scan7
	Scan8
	Scan9
	Scan0
	ScanMinus
	ScanEqual
	ScanBackspace
	ScanTab
	ScanQ
	ScanW
	ScanE
	ScanR
	ScanT
	ScanY
	ScanU
	ScanI
	ScanO
	ScanP
	ScanLBracket
	ScanRBracket
	ScanEnter
	ScanControl
	ScanA
	ScanS
	ScanD
	ScanF
	ScanG
	ScanH
	ScanJ
	ScanK
	ScanL
	ScanSemicolon
	ScanQuote
	ScanBackquote
	ScanLShift
	ScanBackslash
	ScanZ
	ScanX
	ScanC
	ScanV
	ScanB
	ScanN
	ScanM
	ScanComma
	ScanPeriod
	ScanSlash
	ScanRShift
	ScanPrint
	ScanAlt
	ScanSpace
	ScanCapslock
	ScanF1
	ScanF2
	ScanF3
	ScanF4
	ScanF5
	ScanF6
	ScanF7
	ScanF8
	ScanF9
	ScanF10
	ScanNumlock
	ScanScrlock
	ScanKPHome
	ScanKPUp
	ScanKPPageup
	ScanKPMinus
	ScanKPLeft
	ScanKP5
	ScanKPRight
	ScanKPPlus
	ScanKPEnd
	ScanKPDown
	ScanKPPagedown
	ScanKPInsert
	ScanKPDelete
)
