// +build sdl

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
	"log"

	"github.com/veandco/go-sdl2/sdl"
)

func nextPow(v uint16) uint16 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v++
	return v
}

func (m *Device) openAudio() error {
	var err error
	sdl.Do(func() {
		if err = sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
			return
		}

		spec := &sdl.AudioSpec{
			Freq:     frequency,
			Format:   sdl.AUDIO_U8,
			Channels: 1,
			Samples:  nextPow(uint16((frequency / 1000) * latency)),
		}

		var id sdl.AudioDeviceID
		if id, err = sdl.OpenAudioDevice("", false, spec, nil, 0); err != nil {
			return
		}
		m.deviceID = uint32(id)
		sdl.PauseAudioDevice(id, true)
	})
	return err
}

func (m *Device) queueAudio(buffer []byte) {
	sdl.Do(func() {
		if err := sdl.QueueAudio(sdl.AudioDeviceID(m.deviceID), buffer); err != nil {
			log.Print("could not queue audio: ", err)
		}
	})
}

func (m *Device) pauseAudio(b bool) {
	sdl.Do(func() {
		sdl.PauseAudioDevice(sdl.AudioDeviceID(m.deviceID), b)
	})
}

func (m *Device) closeAudio() {
	sdl.Do(func() {
		sdl.CloseAudioDevice(sdl.AudioDeviceID(m.deviceID))
	})
}
