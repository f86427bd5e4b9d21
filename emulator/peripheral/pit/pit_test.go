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

package pit

import (
	"math"
	"testing"
)

type fakePIC struct {
	requests []int
}

func (p *fakePIC) GetInterrupt() (int, error) {
	return 0, nil
}

func (p *fakePIC) IRQ(n int) {
	p.requests = append(p.requests, n)
}

func TestFrequency(t *testing.T) {
	var m Device

	// Channel 2, low/high byte access.
	m.Out(0x43, 0xB6)
	m.Out(0x42, 0x33)
	m.Out(0x42, 0x05) // Reload 0x0533 = 1331 -> ~896.5Hz

	if f := m.GetFrequency(2); math.Abs(f-896.45) > 0.1 {
		t.Errorf("expected ~896.5Hz, got %f", f)
	}

	// Reload 0 counts as 0x10000.
	m.Out(0x43, 0x36)
	m.Out(0x40, 0)
	m.Out(0x40, 0)
	if f := m.GetFrequency(0); math.Abs(f-18.2) > 0.1 {
		t.Errorf("expected ~18.2Hz, got %f", f)
	}
}

func TestChannelZeroIRQ(t *testing.T) {
	pic := &fakePIC{}
	m := Device{pic: pic}

	m.Out(0x43, 0x36)
	m.Out(0x40, 0)
	m.Out(0x40, 0) // 18.2Hz

	// The first tick after programming is already overdue.
	if err := m.Step(1); err != nil {
		t.Fatal(err)
	}
	if len(pic.requests) != 1 || pic.requests[0] != 0 {
		t.Errorf("expected one IRQ 0, got %v", pic.requests)
	}

	// Not enough time has passed for a second one.
	if err := m.Step(1); err != nil {
		t.Fatal(err)
	}
	if len(pic.requests) != 1 {
		t.Errorf("expected no further IRQs, got %v", pic.requests)
	}
}

func TestReadBack(t *testing.T) {
	var m Device

	// The read-back command is 8254 only and must not clobber a channel.
	m.Out(0x43, 0x36)
	m.Out(0x40, 0x10)
	m.Out(0x40, 0x00)
	f := m.GetFrequency(0)

	m.Out(0x43, 0xC0)
	if m.GetFrequency(0) != f {
		t.Error("read-back command changed channel state")
	}
}
