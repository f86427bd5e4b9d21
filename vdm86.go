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

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/andreas-jonsson/vdm86/config"
	"github.com/andreas-jonsson/vdm86/emulator"
	"github.com/andreas-jonsson/vdm86/emulator/memory"
	"github.com/andreas-jonsson/vdm86/emulator/peripheral"
	"github.com/andreas-jonsson/vdm86/emulator/peripheral/cmos"
	"github.com/andreas-jonsson/vdm86/emulator/peripheral/pic"
	"github.com/andreas-jonsson/vdm86/emulator/peripheral/pit"
	"github.com/andreas-jonsson/vdm86/emulator/peripheral/ps2"
	"github.com/andreas-jonsson/vdm86/emulator/peripheral/speaker"
	"github.com/andreas-jonsson/vdm86/emulator/peripheral/vga"
	"github.com/andreas-jonsson/vdm86/version"
	"github.com/spf13/afero"
)

var (
	machineFile = "machine.yaml"
	ver,
	headless bool
)

func init() {
	flag.StringVar(&machineFile, "machine", machineFile, "Machine description file")
	flag.BoolVar(&ver, "v", false, "Print version information")
	flag.BoolVar(&headless, "headless", false, "Run without a display")
}

func main() {
	flag.Parse()

	if ver {
		fmt.Println(version.Current.FullString())
		return
	}

	cfg, err := config.Load(afero.NewOsFs(), machineFile)
	if err != nil {
		log.Fatal("Could not load machine description: ", err)
	}
	if headless {
		cfg.Headless = true
	}

	printLogo()

	video := &vga.Device{Headless: cfg.Headless}
	m, err := emulator.New(emulator.Config{
		Firmware:     cfg.Firmware,
		FirmwareBase: memory.Pointer(cfg.FirmwareBase),
		Peripherals: []peripheral.Peripheral{
			&pic.Device{},
			&pit.Device{},
			&cmos.Device{},
			&ps2.Device{},
			&speaker.Device{},
			video,
		},
	})
	if err != nil {
		log.Fatal("Could not start machine: ", err)
	}
	defer m.Close()

	m.SetA20(cfg.A20)
	m.ExecuteAt(cfg.Boot.Segment, cfg.Boot.Offset)

	for m.Running() {
		m.Step()
	}
}

func printLogo() {
	if headless {
		return
	}
	fmt.Fprint(os.Stderr, logo)
	fmt.Fprintln(os.Stderr, "v"+version.Current.String())
	fmt.Fprintln(os.Stderr, version.Copyright+"\n")
}

var logo = `
██╗   ██╗██████╗ ███╗   ███╗ █████╗  ██████╗
██║   ██║██╔══██╗████╗ ████║██╔══██╗██╔════╝
██║   ██║██║  ██║██╔████╔██║╚█████╔╝███████╗
╚██╗ ██╔╝██║  ██║██║╚██╔╝██║██╔══██╗██╔══██║
 ╚████╔╝ ██████╔╝██║ ╚═╝ ██║╚█████╔╝╚█████╔╝
  ╚═══╝  ╚═════╝ ╚═╝     ╚═╝ ╚════╝  ╚════╝ `
