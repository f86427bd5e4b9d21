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

package memory

import (
	"bytes"
	"testing"
)

type testDevice struct {
	base, limit Pointer
	mem         [0x20000]byte

	reads, writes int
}

func (d *testDevice) BaseAddress() Pointer {
	return d.base
}

func (d *testDevice) LimitAddress() Pointer {
	return d.limit
}

func (d *testDevice) ReadRegion(addr Pointer, p []byte) {
	d.reads++
	copy(p, d.mem[addr-d.base:])
}

func (d *testDevice) WriteRegion(addr Pointer, p []byte) {
	d.writes++
	copy(d.mem[addr-d.base:], p)
}

func TestBounds(t *testing.T) {
	b := NewBus()
	b.SetA20(true)
	b.SetROMArea(0, 0) // Keep write protection out of the picture.

	for _, addr := range []uint32{MaxAddress, MaxAddress - 1, MaxAddress - 15, 0xFFFFFFF0} {
		payload := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
		b.WriteMemory(addr, payload)

		for i, v := range b.arena {
			if v != 0 {
				t.Fatalf("write at 0x%X touched arena byte 0x%X", addr, i)
			}
		}

		buffer := bytes.Repeat([]byte{0xAA}, 16)
		b.ReadMemory(addr, buffer)
		for _, v := range buffer {
			if v != 0xAA {
				t.Fatalf("read at 0x%X touched the destination buffer", addr)
			}
		}
	}

	// The last byte of the arena is not addressable. This is a quirk
	// carried over from how the original handled the limit check.
	b.WriteMemory(MaxAddress-2, []byte{1})
	if b.arena[MaxAddress-2] != 1 {
		t.Error("expected write to reach the arena")
	}
	b.WriteMemory(MaxAddress-1, []byte{1})
	if b.arena[MaxAddress-1] != 0 {
		t.Error("expected write to be dropped")
	}
}

func TestA20Masking(t *testing.T) {
	b := NewBus()
	const addr = 0x1234

	b.WriteMemory(addr|1<<20, []byte{0x42})
	if b.arena[addr] != 0x42 {
		t.Error("expected address to wrap with the gate disabled")
	}

	var p [1]byte
	b.ReadMemory(addr|1<<20, p[:])
	if p[0] != 0x42 {
		t.Error("expected read to wrap with the gate disabled")
	}

	b.SetA20(true)
	b.WriteMemory(addr|1<<20, []byte{0x91})
	if b.arena[addr] != 0x42 {
		// 0x101234 is beyond the 1MB arena so the write is dropped
		// instead of wrapping.
		t.Error("expected address to not wrap with the gate enabled")
	}
}

func TestROMProtection(t *testing.T) {
	b := NewBus()
	b.SetA20(true)

	if err := b.Load(ROMAreaStart, []byte{0xEA, 0x5B, 0xE0, 0x00, 0xF0}); err != nil {
		t.Fatal(err)
	}

	payload := bytes.Repeat([]byte{0xFF}, 16)

	// Fully inside.
	b.WriteMemory(ROMAreaStart, payload)
	// Straddling the region start.
	b.WriteMemory(ROMAreaStart-8, payload)

	if b.arena[ROMAreaStart] != 0xEA {
		t.Error("firmware was overwritten")
	}
	for i := 0; i < 8; i++ {
		if b.arena[ROMAreaStart-8+i] != 0 {
			t.Error("a write overlapping the ROM area must be dropped whole")
			break
		}
	}

	// The same shape outside the region goes through.
	b.WriteMemory(0x40000, payload)
	if b.arena[0x40000] != 0xFF {
		t.Error("expected write outside the ROM area to pass")
	}
}

func TestDeviceMirroring(t *testing.T) {
	dev := &testDevice{base: 0xA0000, limit: 0xB8000}
	b := NewBus()
	b.SetA20(true)
	b.Map(dev)

	t.Run("RoundTrip", func(t *testing.T) {
		payload := []byte{1, 2, 3, 4}
		b.WriteMemory(0xB0000, payload)

		if !bytes.Equal(dev.mem[0x10000:0x10004], payload) {
			t.Error("write was not forwarded to the device")
		}

		// The device owns the bytes now. A read must reflect its state,
		// not just the arena.
		dev.mem[0x10000] = 0x99
		var p [4]byte
		b.ReadMemory(0xB0000, p[:])
		if !bytes.Equal(p[:], []byte{0x99, 2, 3, 4}) {
			t.Errorf("read did not pull device state: % X", p)
		}
	})

	t.Run("PartialOverlap", func(t *testing.T) {
		dev.writes = 0
		payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
		b.WriteMemory(0xB7FFE, payload)

		if dev.writes != 1 {
			t.Fatalf("expected one device write, got %d", dev.writes)
		}

		// Only the first 2 bytes fall inside the device region.
		if !bytes.Equal(dev.mem[0x17FFE:0x18000], []byte{0xDE, 0xAD}) {
			t.Error("device did not receive the overlapping sub-range")
		}
		if dev.mem[0x18000] == 0xBE {
			t.Error("device received bytes outside its region")
		}

		// All 4 bytes land in the arena regardless.
		if !bytes.Equal(b.arena[0xB7FFE:0xB8002], payload) {
			t.Error("the generic transfer must always happen")
		}
	})

	t.Run("BelowRegion", func(t *testing.T) {
		dev.writes = 0
		b.WriteMemory(0x9FF00, []byte{1, 2, 3, 4})
		if dev.writes != 0 {
			t.Error("device notified for a write outside its region")
		}
	})

	t.Run("DynamicRegion", func(t *testing.T) {
		// Base and limit are queried on every access.
		dev.base, dev.limit = 0xB8000, 0xBC000
		dev.writes = 0

		b.WriteMemory(0xB0000, []byte{1})
		if dev.writes != 0 {
			t.Error("device notified for its old region")
		}
		b.WriteMemory(0xB8000, []byte{1})
		if dev.writes != 1 {
			t.Error("device not notified for its new region")
		}
	})
}

func TestByteAccess(t *testing.T) {
	b := NewBus()
	addr := NewPointer(0x1000, 0x1234)

	b.WriteByte(addr, 0x42)
	if v := b.ReadByte(addr); v != 0x42 {
		t.Errorf("read back 0x%X", v)
	}
	if v := b.ReadByte(NewAddress(0x1000, 0x1234).Pointer()); v != 0x42 {
		t.Errorf("seg:off form read back 0x%X", v)
	}
}

func TestRelease(t *testing.T) {
	b := NewBus()
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	// Accesses after release are dropped.
	b.WriteMemory(0x100, []byte{1})
	var p [1]byte
	b.ReadMemory(0x100, p[:])
	if p[0] != 0 {
		t.Error("expected no transfer after release")
	}
}
