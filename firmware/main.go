//go:build tinygo

//go:generate tinygo flash -target=m5stack

package main

import (
	"context"
	"machine"

	"github.com/Tamagotono/CycleTester/pkg/app"
	"github.com/Tamagotono/CycleTester/pkg/config"
	"github.com/Tamagotono/CycleTester/pkg/display"
	"github.com/Tamagotono/CycleTester/pkg/input"
	"github.com/Tamagotono/CycleTester/pkg/output"
	"github.com/Tamagotono/CycleTester/pkg/samples"
	"tinygo.org/x/drivers/ili9341"
	"tinygo.org/x/tinyfont"
)

// relay drives the fixture relay from a GPIO.
type relay struct {
	pin machine.Pin
}

// Ensure relay implements output.Output.
var _ output.Output = relay{}

func (r relay) SetHigh() error {
	r.pin.High()
	return nil
}

func (r relay) SetLow() error {
	r.pin.Low()
	return nil
}

func (r relay) Read() bool {
	return r.pin.Get()
}

// button reads an active-low push button.
func button(pin machine.Pin) input.Button {
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return input.ButtonFunc(func() bool { return !pin.Get() })
}

func main() {
	cfg := config.Default()

	// Relay first, so the fixture is de-energized as early as possible
	PIN_RELAY.Configure(machine.PinConfig{Mode: machine.PinOutput})
	out := relay{pin: PIN_RELAY}
	output.Polarity(out, cfg.Output.Inverted).SetLow()

	machine.SPI2.Configure(machine.SPIConfig{
		SCK:       LCD_SCK,
		SDO:       LCD_SDO,
		SDI:       LCD_SDI,
		Frequency: LCD_SPI_FREQ,
	})
	lcd := ili9341.NewSPI(machine.SPI2, LCD_DC, LCD_CS, LCD_RST)
	lcd.Configure(ili9341.Config{
		Width:            LCD_WIDTH,
		Height:           LCD_HEIGHT,
		DisplayInversion: true,
	})
	LCD_BL.Configure(machine.PinConfig{Mode: machine.PinOutput})
	LCD_BL.High()

	pad := input.NewPad(button(PIN_BUTTON_UP), button(PIN_BUTTON_DOWN), button(PIN_BUTTON_SEL))

	a := app.New(cfg, display.NewTiny(lcd, &tinyfont.TomThumb), samples.Volume(), out, pad)
	for {
		if err := a.Run(context.Background()); err != nil {
			println("app stopped:", err.Error())
		}
	}
}
