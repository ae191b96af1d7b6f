package ui

import (
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
	"tinygo.org/x/tinyfont/freesans"
)

// Fonts used by the screens.
type Fonts struct {
	Title   tinyfont.Fonter
	Params  tinyfont.Fonter
	Status  tinyfont.Fonter
	Counter tinyfont.Fonter
	Popup   tinyfont.Fonter
	Menu    tinyfont.Fonter
	Footer  tinyfont.Fonter
}

// DefaultFonts fits a 320x240 panel.
func DefaultFonts() Fonts {
	return Fonts{
		Title:   &freemono.Bold9pt7b,
		Params:  &freemono.Regular9pt7b,
		Status:  &freemono.Bold9pt7b,
		Counter: &freesans.Bold9pt7b,
		Popup:   &freesans.Bold12pt7b,
		Menu:    &freesans.Regular9pt7b,
		Footer:  &freemono.Bold9pt7b,
	}
}
