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

package speaker

import (
	"errors"
	"time"

	"github.com/andreas-jonsson/vdm86/emulator/processor"
)

const (
	frequency  = 48000
	latency    = 10
	toneVolume = 32
)

type pitInterface interface {
	GetFrequency(channel int) float64
}

// Device is the PC speaker behind port 0x61. The tone frequency comes
// from PIT channel 2; the audio backend is selected at build time.
type Device struct {
	machine processor.Machine
	pit     pitInterface

	lastStep    int64
	sampleIndex uint64
	soundBuffer [frequency / latency]byte

	deviceID uint32
	enabled  bool
	port     byte
}

func (m *Device) Install(p processor.Machine) error {
	m.machine = p
	m.lastStep = time.Now().UnixNano()

	if err := m.openAudio(); err != nil {
		return err
	}
	return p.InstallIODeviceAt(m, 0x61)
}

func (m *Device) Name() string {
	return "PC Speaker"
}

func (m *Device) Reset() {
	m.port = 0
	if m.enabled {
		m.enabled = false
		m.pauseAudio(true)
	}
}

func (m *Device) Step(int) error {
	if m.pit == nil {
		var ok bool
		if m.pit, ok = m.machine.GetMappedIODevice(0x40).(pitInterface); !ok {
			return errors.New("could not find PIT")
		}
	}

	now := time.Now().UnixNano()
	elapsed := now - m.lastStep
	m.lastStep = now

	if !m.enabled {
		return nil
	}

	toneHz := m.pit.GetFrequency(2)
	if toneHz <= 0 {
		return nil
	}

	n := int(int64(frequency) * elapsed / int64(time.Second))
	if n <= 0 {
		return nil
	}
	if n > len(m.soundBuffer) {
		n = len(m.soundBuffer)
	}

	period := uint64(frequency / toneHz)
	if period < 2 {
		period = 2
	}

	for i := 0; i < n; i++ {
		sample := byte(128 - toneVolume)
		if m.sampleIndex%period < period/2 {
			sample = 128 + toneVolume
		}
		m.soundBuffer[i] = sample
		m.sampleIndex++
	}
	m.queueAudio(m.soundBuffer[:n])
	return nil
}

func (m *Device) In(port uint16) byte {
	return m.port
}

func (m *Device) Out(_ uint16, data byte) {
	m.port = data
	if b := data&3 == 3; b != m.enabled {
		m.enabled = b
		m.pauseAudio(!b)
	}
}

func (m *Device) Close() error {
	m.closeAudio()
	return nil
}
