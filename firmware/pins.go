//go:build tinygo

package main

import "machine"

const (
	// LCD (ILI9342C on the M5Stack Core, landscape 320x240)
	LCD_SCK      = machine.LCD_SCK_PIN
	LCD_SDO      = machine.LCD_SDO_PIN
	LCD_SDI      = machine.LCD_SDI_PIN
	LCD_CS       = machine.LCD_SS_PIN
	LCD_DC       = machine.LCD_DC_PIN
	LCD_RST      = machine.LCD_RST_PIN
	LCD_BL       = machine.LCD_BL_PIN
	LCD_SPI_FREQ = 40000000
	LCD_WIDTH    = 320
	LCD_HEIGHT   = 240

	// Front panel buttons, active low, left to right
	PIN_BUTTON_UP   = machine.BUTTON_A
	PIN_BUTTON_DOWN = machine.BUTTON_B
	PIN_BUTTON_SEL  = machine.BUTTON_C

	// Relay driver on port B. GPIO4 is shared with the SD card interface.
	PIN_RELAY = machine.GPIO26
)
