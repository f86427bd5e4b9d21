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
	"testing"
	"time"

	"github.com/andreas-jonsson/vdm86/emulator/memory"
	"github.com/andreas-jonsson/vdm86/emulator/processor"
)

type fakePIC struct {
	raised []int
}

func (p *fakePIC) GetInterrupt() (int, error) { return 0, processor.ErrNoInterrupts }

func (p *fakePIC) IRQ(n int) { p.raised = append(p.raised, n) }

type fakeMachine struct {
	pic   *fakePIC
	ports []uint16
}

func (m *fakeMachine) InstallIODevice(dev memory.IO, from, to uint16) error { return nil }

func (m *fakeMachine) InstallIODeviceAt(dev memory.IO, ports ...uint16) error {
	m.ports = append(m.ports, ports...)
	return nil
}

func (m *fakeMachine) InstallMemoryDevice(dev memory.MappedDevice) {}

func (m *fakeMachine) GetMappedIODevice(port uint16) memory.IO { return nil }

func (m *fakeMachine) GetInterruptController() processor.InterruptController { return m.pic }

func (m *fakeMachine) RegisterTrap(id byte, handler processor.TrapHandler) {}

func (m *fakeMachine) Stop() {}

func TestScancodeDelivery(t *testing.T) {
	p := &fakeMachine{pic: &fakePIC{}}
	dev := &Device{}
	if err := dev.Install(p); err != nil {
		t.Fatal(err)
	}
	defer dev.Close()

	if len(p.ports) != 3 {
		t.Fatalf("expected 3 ports, got %v", p.ports)
	}

	if err := dev.pushEvent(ScanEnter); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for dev.In(0x64)&2 == 0 {
		if time.Now().After(deadline) {
			t.Fatal("scancode was never delivered")
		}
		time.Sleep(time.Millisecond)
		dev.Step(1)
	}

	if len(p.pic.raised) != 1 || p.pic.raised[0] != 1 {
		t.Errorf("expected a single IRQ 1, got %v", p.pic.raised)
	}
	if sc := dev.In(0x60); Scancode(sc) != ScanEnter {
		t.Errorf("scancode: %X", sc)
	}
	if dev.In(0x64)&2 != 0 {
		t.Error("output buffer flag should clear after read")
	}
}

func TestQueueOverflow(t *testing.T) {
	p := &fakeMachine{pic: &fakePIC{}}
	dev := &Device{}
	if err := dev.Install(p); err != nil {
		t.Fatal(err)
	}
	defer dev.Close()

	for i := 0; i < MaxEvents; i++ {
		if err := dev.pushEvent(ScanSpace); err != nil {
			t.Fatal(err)
		}
	}
	if err := dev.pushEvent(ScanSpace); err == nil {
		t.Error("expected overflow error")
	}

	dev.Reset()
	if err := dev.pushEvent(ScanSpace); err != nil {
		t.Error("reset should drain the queue: ", err)
	}
}
