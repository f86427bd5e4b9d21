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

package vga

import (
	"log"
	"time"

	"github.com/gdamore/tcell"
)

var vgaPalette = [16]tcell.Color{
	tcell.ColorBlack,
	tcell.ColorNavy,
	tcell.ColorGreen,
	tcell.ColorTeal,
	tcell.ColorMaroon,
	tcell.ColorPurple,
	tcell.ColorOlive,
	tcell.ColorSilver,
	tcell.ColorGray,
	tcell.ColorBlue,
	tcell.ColorLime,
	tcell.ColorAqua,
	tcell.ColorRed,
	tcell.ColorFuchsia,
	tcell.ColorYellow,
	tcell.ColorWhite,
}

type (
	redrawEvent struct{}
	quitEvent   struct{}
)

func (m *Device) Close() error {
	if m.Headless {
		return nil
	}
	m.screen.PostEventWait(tcell.NewEventInterrupt(quitEvent{}))
	<-m.quitChan
	return nil
}

func (m *Device) styleFromAttrib(attr byte) tcell.Style {
	blinkEnabled := m.modeCtrlReg&0x20 != 0
	return tcell.StyleDefault.Blink(blinkEnabled && attr&0x80 != 0).Background(vgaPalette[attr&0x70>>4]).Foreground(vgaPalette[attr&0xF])
}

func (m *Device) startRenderLoop() error {
	tcell.SetEncodingFallback(tcell.EncodingFallbackASCII)
	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err = s.Init(); err != nil {
		return err
	}

	s.ShowCursor(0, 0)
	s.DisableMouse()
	s.Clear()

	m.screen = s
	m.dirtyMemory = true
	m.quitChan = make(chan struct{})

	redrawTicker := time.NewTicker(time.Second / 30)
	go func() {
		for {
			ev := s.PollEvent()
			switch ev := ev.(type) {
			case *tcell.EventKey:
				switch ev.Key() {
				case tcell.KeyF12:
					m.p.Stop()
				default:
					if m.keyboard == nil {
						if kb, ok := m.p.GetMappedIODevice(0x60).(keyboardHandler); ok {
							m.keyboard = kb
						} else {
							log.Panic("could not find a compatible keyboard handler")
						}
					}
					m.keyboard.SendKeyEvent(ev)
				}
			case *tcell.EventResize:
				s.Sync()
				m.lock.Lock()
				m.dirtyMemory = true
				m.lock.Unlock()
			case *tcell.EventInterrupt:
				switch ev.Data().(type) {
				case quitEvent:
					s.Fini()
					redrawTicker.Stop()
					close(m.quitChan)
					return
				case redrawEvent:
					m.redraw()
					s.Show()
				}
			}
		}
	}()

	go func() {
		for range redrawTicker.C {
			m.lock.RLock()
			dirty := m.dirtyMemory
			m.lock.RUnlock()
			if dirty {
				s.PostEvent(tcell.NewEventInterrupt(redrawEvent{}))
			}
		}
	}()

	return nil
}

func (m *Device) redraw() {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.graphicsMode() {
		// Pixel modes can not be represented in a terminal.
		return
	}

	s := m.screen
	if bg := m.colorCtrlReg & 0xF; bg != m.oldColorCtrlReg {
		m.oldColorCtrlReg = bg
		s.Fill(' ', tcell.StyleDefault.Background(vgaPalette[bg]))
	}

	const numColumns = 80
	text := m.vram[textBase-vramBase:]
	for y := 0; y < 25; y++ {
		for x := 0; x < numColumns; x++ {
			offset := y*numColumns*2 + x*2
			s.SetCell(x, y, m.styleFromAttrib(text[offset+1]), codePage437[text[offset]])
		}
	}

	if m.cursor.update {
		m.cursor.update = false
		if m.cursor.visible {
			s.ShowCursor(int(m.cursor.x), int(m.cursor.y))
		} else {
			s.HideCursor()
		}
	}
	m.dirtyMemory = false
}
