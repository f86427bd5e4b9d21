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

// Package emulator drives an external CPU engine over a sandboxed guest
// address space. It owns the machine lifecycle, routes every memory and
// port access the engine makes, delivers interrupts and handles guest
// faults. The engine never sees host memory outside the guest arena.
package emulator

import (
	"fmt"
	"log"
	"runtime"

	"github.com/andreas-jonsson/vdm86/emulator/memory"
	"github.com/andreas-jonsson/vdm86/emulator/peripheral"
	"github.com/andreas-jonsson/vdm86/emulator/processor"
	"github.com/spf13/afero"
)

// TrapDebugger breaks into the debugger from a 16-bit app.
const TrapDebugger = 0x56

const maxIODevices = 32

type Config struct {
	// Engine overrides the registered engine factory.
	Engine processor.Factory

	// Fs is used to read the firmware image. Defaults to the OS filesystem.
	Fs afero.Fs

	// Firmware is loaded at FirmwareBase during initialization.
	Firmware     string
	FirmwareBase memory.Pointer

	Peripherals []peripheral.Peripheral

	// Display receives guest fault reports. Defaults to log.Printf.
	Display func(format string, a ...interface{})
}

// Machine is the execution controller. It transitions from running to
// halted exactly once; there is no way back.
type Machine struct {
	bus     *memory.Bus
	engine  processor.Engine
	running bool
	closed  bool

	display     func(string, ...interface{})
	peripherals []peripheral.Peripheral
	pic         processor.InterruptController
	traps       [0x100]processor.TrapHandler

	iomap     [0x10000]byte
	ioDevices [maxIODevices]memory.IO
	numIO     int
}

// New builds a machine: guest address space, CPU engine, devices and the
// built-in debugger trap. The guest starts with interrupts enabled.
func New(config Config) (*Machine, error) {
	m := &Machine{
		bus:         memory.NewBus(),
		running:     true,
		display:     config.Display,
		peripherals: config.Peripherals,
	}
	if m.display == nil {
		m.display = log.Printf
	}

	dummyIO := &memory.DummyIO{}
	for i := range m.ioDevices {
		m.ioDevices[i] = dummyIO
	}
	m.numIO = 1

	factory := config.Engine
	if factory == nil {
		factory = processor.NewEngine
	}

	engine, err := factory(m)
	if err != nil {
		m.bus.Close()
		return nil, err
	}
	m.engine = engine

	m.installPeripherals()
	m.Reset()
	m.RegisterTrap(TrapDebugger, debugBreak)

	if config.Firmware != "" {
		if err := m.loadFirmware(config); err != nil {
			m.Close()
			return nil, err
		}
	}
	return m, nil
}

func (m *Machine) installPeripherals() {
	for _, d := range m.peripherals {
		if pic, ok := d.(processor.InterruptController); ok {
			m.pic = pic
		}
		if err := d.Install(m); err != nil {
			log.Print("Failed to install peripheral: ", err)
		}
	}
	if m.pic == nil {
		log.Print("No interrupt controller detected!")
	}
}

func (m *Machine) loadFirmware(config Config) error {
	fs := config.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	image, err := afero.ReadFile(fs, config.Firmware)
	if err != nil {
		return err
	}

	base := config.FirmwareBase
	if base == 0 {
		base = memory.ROMAreaStart
	}
	return m.bus.Load(base, image)
}

// Close tears down peripherals in reverse order and releases the guest
// address space. Safe to call more than once.
func (m *Machine) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.running = false

	for i := len(m.peripherals) - 1; i >= 0; i-- {
		if cd, ok := m.peripherals[i].(peripheral.PeripheralCloser); ok {
			if err := cd.Close(); err != nil {
				log.Print("Failed to close peripheral: ", err)
			}
		}
	}
	return m.bus.Close()
}

// Reset returns every peripheral to its power-on state and enables
// interrupts. New calls it once after the devices are installed.
func (m *Machine) Reset() {
	log.Print("Machine reset!")

	m.engine.SetInterruptFlag(true)
	for _, d := range m.peripherals {
		d.Reset()
	}
}

// Running reports if the machine still executes guest code. Callers must
// poll it after every Step.
func (m *Machine) Running() bool {
	return m.running
}

// Stop halts the machine in response to a guest terminate request.
func (m *Machine) Stop() {
	m.running = false
}

// ExecuteAt moves the engine's instruction pointer. 16-bit real-mode
// addressing is assumed.
func (m *Machine) ExecuteAt(seg, offset uint16) {
	m.engine.ExecuteAt(seg, offset)
}

// Step executes a single guest instruction and gives the peripherals a
// tick. A halted machine does nothing.
func (m *Machine) Step() {
	if !m.running {
		return
	}
	m.engine.Step()

	for _, d := range m.peripherals {
		if err := d.Step(1); err != nil {
			log.Print("Peripheral step failed: ", err)
		}
	}
}

// Interrupt asks the engine to service vector n as a software interrupt.
func (m *Machine) Interrupt(n int) {
	m.engine.Interrupt(n)
}

// InterruptSignal asserts the external interrupt line. The engine picks
// up the vector through Acknowledge at its next instruction boundary.
func (m *Machine) InterruptSignal() {
	m.engine.InterruptSignal()
}

// SetA20 flips the A20 address line gate.
func (m *Machine) SetA20(enabled bool) {
	m.bus.SetA20(enabled)
}

func (m *Machine) A20Enabled() bool {
	return m.bus.A20Enabled()
}

/* processor.Bus */

func (m *Machine) ReadMemory(addr uint32, p []byte) {
	m.bus.ReadMemory(addr, p)
}

func (m *Machine) WriteMemory(addr uint32, p []byte) {
	m.bus.WriteMemory(addr, p)
}

func (m *Machine) In(port uint16) byte {
	return m.ioDevices[m.iomap[port]].In(port)
}

func (m *Machine) Out(port uint16, data byte) {
	m.ioDevices[m.iomap[port]].Out(port, data)
}

// Acknowledge commits the interrupt controller to the pending vector and
// returns it to the engine.
func (m *Machine) Acknowledge() byte {
	if m.pic == nil {
		return 0xFF
	}
	n, err := m.pic.GetInterrupt()
	if err != nil {
		log.Print("Spurious interrupt acknowledge: ", err)
	}
	return byte(n)
}

// Trap dispatches a call-out opcode to its registered handler. An
// unregistered id is an integration bug, not guest behavior.
func (m *Machine) Trap(id byte, stack processor.Stack) {
	h := m.traps[id]
	if h == nil {
		log.Panicf("trap 0x%02X is not registered", id)
	}
	h(stack)
}

// Exception reports a guest fault: name, CS:IP and up to 10 opcode bytes
// from the fault site, then halts the machine for good.
func (m *Machine) Exception(e processor.Exception, stack processor.Stack) {
	if e >= processor.NumExceptions {
		log.Panicf("exception number out of range: %d", e)
	}

	addr := memory.NewAddress(stack[processor.StackCS], stack[processor.StackIP])

	var opcode [10]byte
	m.bus.ReadMemory(uint32(addr.Pointer()), opcode[:])

	m.display("Exception: %s occurred at %04X:%04X\nOpcode: % X", e, addr.Segment(), addr.Offset(), opcode[:])
	m.running = false
}

/* processor.Machine */

func (m *Machine) ioIndex(dev memory.IO) (byte, error) {
	for i := 1; i < m.numIO; i++ {
		if m.ioDevices[i] == dev {
			return byte(i), nil
		}
	}
	if m.numIO == maxIODevices {
		return 0, fmt.Errorf("can not install more than %d IO devices: %w", maxIODevices-1, processor.ErrDeviceInstall)
	}
	idx := byte(m.numIO)
	m.ioDevices[idx] = dev
	m.numIO++
	return idx, nil
}

func (m *Machine) InstallIODevice(dev memory.IO, from, to uint16) error {
	idx, err := m.ioIndex(dev)
	if err != nil {
		return err
	}
	for port := int(from); port <= int(to); port++ {
		m.iomap[port] = idx
	}
	return nil
}

func (m *Machine) InstallIODeviceAt(dev memory.IO, ports ...uint16) error {
	idx, err := m.ioIndex(dev)
	if err != nil {
		return err
	}
	for _, port := range ports {
		m.iomap[port] = idx
	}
	return nil
}

func (m *Machine) InstallMemoryDevice(dev memory.MappedDevice) {
	m.bus.Map(dev)
}

func (m *Machine) GetMappedIODevice(port uint16) memory.IO {
	return m.ioDevices[m.iomap[port]]
}

func (m *Machine) GetInterruptController() processor.InterruptController {
	return m.pic
}

// RegisterTrap associates a call-out id with a host handler. The last
// registration for an id wins.
func (m *Machine) RegisterTrap(id byte, handler processor.TrapHandler) {
	m.traps[id] = handler
}

func debugBreak(processor.Stack) {
	log.Print("guest requested a debugger break")
	runtime.Breakpoint()
}
