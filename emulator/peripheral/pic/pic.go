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

package pic

import (
	"github.com/andreas-jonsson/vdm86/emulator/processor"
)

const (
	masterBasePort = 0x20
	slaveBasePort  = 0xA0

	cascadeIRQ = 2
)

type controller struct {
	maskReg, requestReg, serviceReg,
	icwStep, readMode byte
	icw [5]byte
}

// Device is a master/slave Intel 8259 pair wired the way the PC/AT does
// it: IRQ 0-7 on the master, IRQ 8-15 on the slave cascaded through
// master line 2.
type Device struct {
	master, slave controller
}

func (m *Device) Install(p processor.Machine) error {
	if err := p.InstallIODevice(m, masterBasePort, masterBasePort+1); err != nil {
		return err
	}
	return p.InstallIODevice(m, slaveBasePort, slaveBasePort+1)
}

func (m *Device) Name() string {
	return "Programmable Interrupt Controller (Intel 8259 pair)"
}

func (m *Device) Reset() {
	*m = Device{}
}

func (m *Device) Step(int) error {
	return nil
}

// IRQ latches interrupt line n in the request register.
func (m *Device) IRQ(n int) {
	if n < 8 {
		m.master.requestReg |= byte(1 << n)
		return
	}
	m.slave.requestReg |= byte(1 << (n - 8))
	m.master.requestReg |= 1 << cascadeIRQ
}

// GetInterrupt returns the highest priority pending vector and commits
// the controller to it. With nothing pending the spurious master line 7
// vector is returned together with ErrNoInterrupts.
func (m *Device) GetInterrupt() (int, error) {
	if has := m.master.requestReg & ^m.master.maskReg; has != 0 {
		for i := 0; i < 8; i++ {
			if (has>>i)&1 == 0 {
				continue
			}
			if i == cascadeIRQ {
				if n, ok := m.slave.acknowledge(); ok {
					m.master.requestReg &^= 1 << cascadeIRQ
					m.master.serviceReg |= 1 << cascadeIRQ
					return n, nil
				}
				continue
			}
			m.master.requestReg &^= 1 << i
			m.master.serviceReg |= 1 << i
			return int(m.master.icw[2]) + i, nil
		}
	}
	return int(m.master.icw[2]) + 7, processor.ErrNoInterrupts
}

func (c *controller) acknowledge() (int, bool) {
	has := c.requestReg & ^c.maskReg
	for i := 0; i < 8; i++ {
		if (has>>i)&1 != 0 {
			c.requestReg &^= 1 << i
			c.serviceReg |= 1 << i
			return int(c.icw[2]) + i, true
		}
	}
	return 0, false
}

func (m *Device) In(port uint16) byte {
	c := &m.master
	if port >= slaveBasePort {
		c = &m.slave
	}
	switch port & 1 {
	case 0:
		if c.readMode == 0 {
			return c.requestReg
		}
		return c.serviceReg
	default:
		return c.maskReg
	}
}

func (m *Device) Out(port uint16, data byte) {
	c := &m.master
	if port >= slaveBasePort {
		c = &m.slave
	}
	c.out(port&1, data)
}

func (c *controller) out(reg uint16, data byte) {
	switch reg {
	case 0:
		if data&0x10 != 0 { // ICW1
			c.icwStep = 1
			c.maskReg = 0
			c.icw[c.icwStep] = data
			c.icwStep++
			return
		}
		if (data & 0x98) == 8 { // OCW3
			if data&2 != 0 {
				c.readMode = data & 1
			}
			return
		}
		if data&0x20 != 0 { // EOI
			for i := 0; i < 8; i++ {
				if (c.serviceReg>>i)&1 != 0 {
					c.serviceReg &^= 1 << i
					return
				}
			}
		}
	case 1:
		if c.icwStep == 3 && c.icw[1]&2 != 0 {
			c.icwStep = 4
		}
		if c.icwStep > 0 && c.icwStep < 5 {
			c.icw[c.icwStep] = data
			c.icwStep++
			return
		}
		c.maskReg = data
	}
}
