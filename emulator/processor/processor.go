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

// Package processor defines the contract between the machine core and an
// external CPU execution engine. The engine is opaque to the core: it is
// constructed against the Bus interface and calls back into it for every
// guest memory, port and interrupt access.
package processor

import (
	"errors"

	"github.com/andreas-jonsson/vdm86/emulator/memory"
)

var (
	ErrNoEngine      = errors.New("no CPU engine registered")
	ErrNoInterrupts  = errors.New("no interrupts")
	ErrDeviceInstall = errors.New("could not install device")
)

// Stack is a snapshot of the guest stack frame passed to trap and
// exception callbacks.
type Stack []uint16

// Frame layout of Stack.
const (
	StackIP = iota
	StackCS
	StackFlags
)

// TrapHandler is a host side callback invoked when the engine decodes the
// designated call-out opcode.
type TrapHandler func(stack Stack)

// Exception is one of the 8 fault classes the engine may report. Values
// outside the enumeration indicate a bug in the engine integration.
type Exception byte

const (
	ExceptionDivideByZero Exception = iota
	ExceptionDebug
	ExceptionUnexpected
	ExceptionBreakpoint
	ExceptionOverflow
	ExceptionBoundRange
	ExceptionInvalidOpcode
	ExceptionNoFPU
	NumExceptions
)

var exceptionNames = [NumExceptions]string{
	"Division By Zero",
	"Debug",
	"Unexpected Error",
	"Breakpoint",
	"Integer Overflow",
	"Bound Range Exceeded",
	"Invalid Opcode",
	"FPU Not Available",
}

func (e Exception) String() string {
	if e >= NumExceptions {
		return "Unknown"
	}
	return exceptionNames[e]
}

// InterruptController is the "which vector is pending" surface of the PIC.
// GetInterrupt commits the controller to the returned vector.
type InterruptController interface {
	GetInterrupt() (int, error)
	IRQ(n int)
}

// Bus is the callback surface an engine is constructed against. Every
// guest memory and port access made by the engine goes through here.
type Bus interface {
	ReadMemory(addr uint32, p []byte)
	WriteMemory(addr uint32, p []byte)

	In(port uint16) byte
	Out(port uint16, data byte)

	// Acknowledge is queried by the engine after InterruptSignal to learn
	// which vector to service.
	Acknowledge() byte

	// Trap dispatches a call-out opcode to the registered host handler.
	Trap(id byte, stack Stack)

	// Exception reports one of the 8 fault classes. The machine halts.
	Exception(e Exception, stack Stack)
}

// AddressTranslator is an optional interface a Bus may implement to
// provide non flat address translation. The machine core does not
// implement it; real-mode addressing is flat.
type AddressTranslator interface {
	Translate(seg, offset uint16) (memory.Pointer, bool)
}

// Engine is the fetch-decode-execute core driven by the machine.
type Engine interface {
	ExecuteAt(seg, offset uint16)
	Step()
	Interrupt(n int)
	InterruptSignal()
	SetInterruptFlag(enabled bool)
}

// Factory constructs an engine bound to the given bus.
type Factory func(bus Bus) (Engine, error)

var defaultFactory Factory

// RegisterEngine sets the engine implementation used when a machine is
// created without an explicit factory. Call from the engine package's
// init function.
func RegisterEngine(f Factory) {
	defaultFactory = f
}

// NewEngine constructs an engine from the registered factory.
func NewEngine(bus Bus) (Engine, error) {
	if defaultFactory == nil {
		return nil, ErrNoEngine
	}
	return defaultFactory(bus)
}

// Machine is the surface peripherals install themselves against.
type Machine interface {
	InstallIODevice(dev memory.IO, from, to uint16) error
	InstallIODeviceAt(dev memory.IO, ports ...uint16) error
	InstallMemoryDevice(dev memory.MappedDevice)

	GetMappedIODevice(port uint16) memory.IO
	GetInterruptController() InterruptController
	RegisterTrap(id byte, handler TrapHandler)

	// Stop halts the machine. There is no way back.
	Stop()
}
