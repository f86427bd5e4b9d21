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
	"errors"
	"fmt"
)

// MaxAddress is the size of the guest address space.
const MaxAddress = 0x100000 // 1MB

// Default firmware area. Writes to this range are dropped.
const (
	ROMAreaStart = 0xF0000
	ROMAreaEnd   = MaxAddress
)

var ErrOutOfRange = errors.New("address out of range")

// MappedDevice mirrors reads and writes of an address range to a device's
// own memory store. Base and limit may change at runtime (e.g. on a video
// mode switch) and are queried on every access.
type MappedDevice interface {
	BaseAddress() Pointer
	LimitAddress() Pointer
	ReadRegion(addr Pointer, p []byte)
	WriteRegion(addr Pointer, p []byte)
}

// Bus owns the guest address space and arbitrates every access to it.
// All operations are silent on out-of-range or read-only violations,
// the way the real address bus simply ignores them.
type Bus struct {
	arena []byte
	a20   bool

	romBase, romLimit Pointer
	devices           []MappedDevice
}

func NewBus() *Bus {
	return &Bus{
		arena:    make([]byte, MaxAddress),
		romBase:  ROMAreaStart,
		romLimit: ROMAreaEnd,
	}
}

// Close releases the guest address space. Safe to call more than once.
func (b *Bus) Close() error {
	b.arena = nil
	return nil
}

func (b *Bus) SetA20(enabled bool) {
	b.a20 = enabled
}

func (b *Bus) A20Enabled() bool {
	return b.a20
}

func (b *Bus) SetROMArea(base, limit Pointer) {
	b.romBase, b.romLimit = base, limit
}

// Map registers a device backed region with the bus.
func (b *Bus) Map(dev MappedDevice) {
	b.devices = append(b.devices, dev)
}

// clip intersects the request [addr, addr+size) with the region
// [base, limit) and returns the overlapping range.
func clip(addr uint32, size int, base, limit Pointer) (lo, hi uint32, ok bool) {
	lo, hi = addr, addr+uint32(size)
	if p := uint32(base); p > lo {
		lo = p
	}
	if p := uint32(limit); p < hi {
		hi = p
	}
	return lo, hi, lo < hi
}

// ReadMemory copies a range of the guest address space into p. Device
// backed regions pull fresh device state into the arena before the copy
// so the caller never observes stale bytes.
func (b *Bus) ReadMemory(addr uint32, p []byte) {
	if b.arena == nil {
		return
	}
	if !b.a20 {
		addr &^= 1 << 20
	}
	if uint64(addr)+uint64(len(p)) >= MaxAddress {
		return
	}

	for _, dev := range b.devices {
		if lo, hi, ok := clip(addr, len(p), dev.BaseAddress(), dev.LimitAddress()); ok {
			dev.ReadRegion(Pointer(lo), b.arena[lo:hi])
		}
	}
	copy(p, b.arena[addr:addr+uint32(len(p))])
}

// WriteMemory copies p into the guest address space. Writes touching the
// firmware area are dropped whole. Device backed regions are notified
// after the arena is updated so the device sees the final bytes.
func (b *Bus) WriteMemory(addr uint32, p []byte) {
	if b.arena == nil {
		return
	}
	if !b.a20 {
		addr &^= 1 << 20
	}
	if uint64(addr)+uint64(len(p)) >= MaxAddress {
		return
	}
	if _, _, ok := clip(addr, len(p), b.romBase, b.romLimit); ok {
		return
	}

	copy(b.arena[addr:addr+uint32(len(p))], p)

	for _, dev := range b.devices {
		if lo, hi, ok := clip(addr, len(p), dev.BaseAddress(), dev.LimitAddress()); ok {
			dev.WriteRegion(Pointer(lo), b.arena[lo:hi])
		}
	}
}

func (b *Bus) ReadByte(addr Pointer) byte {
	var p [1]byte
	b.ReadMemory(uint32(addr), p[:])
	return p[0]
}

func (b *Bus) WriteByte(addr Pointer, data byte) {
	p := [1]byte{data}
	b.WriteMemory(uint32(addr), p[:])
}

// Load stores a firmware or BIOS image directly in the arena, bypassing
// the write protection host side loaders would otherwise trip over.
func (b *Bus) Load(addr Pointer, data []byte) error {
	if b.arena == nil {
		return ErrOutOfRange
	}
	if uint64(addr)+uint64(len(data)) > MaxAddress {
		return fmt.Errorf("image of %d bytes does not fit at %v: %w", len(data), addr, ErrOutOfRange)
	}
	copy(b.arena[addr:], data)
	return nil
}
