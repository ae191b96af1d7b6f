package main

import (
	"fmt"
	"log"

	"github.com/Tamagotono/CycleTester/pkg/config"
	"github.com/Tamagotono/CycleTester/pkg/meter"
	"github.com/Tamagotono/CycleTester/pkg/output"
)

// fixture tracks the relay and the audit chain it feeds, for graceful
// shutdown.
type fixture struct {
	raw    output.Output
	serial *output.Serial
	chain  *meter.Chain

	// idle is driven low on Close. It starts with the device polarity; the
	// tester replaces it with the polarity of the last test it loaded.
	idle output.Output
}

// out is what the tester drives.
func (f *fixture) out() output.Output {
	return f.chain.Output
}

// openFixture connects the relay (or a mock) and attaches the audit.
func openFixture(cfg *config.Config, useMock bool, average int, m *meter.Meter) (*fixture, error) {
	f := &fixture{}

	if useMock {
		f.raw = output.NewMock()
		log.Printf("Using mocked relay")
	} else {
		s := output.NewSerial(cfg.Serial.Port, cfg.Serial.BaudRate)
		s.IdleHigh = cfg.Output.Inverted
		if err := s.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Serial.Port, err)
		}
		f.serial = s
		f.raw = s
		log.Printf("Connected to relay on %s", cfg.Serial.Port)
	}

	f.chain = meter.Attach(f.raw, m, average)
	f.idle = output.Polarity(f.raw, cfg.Output.Inverted)
	if err := f.idle.SetLow(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to power down relay: %w", err)
	}
	return f, nil
}

// Close powers the relay down, drains the audit and releases the port.
func (f *fixture) Close() {
	if f == nil {
		return
	}
	if err := f.idle.SetLow(); err != nil {
		log.Printf("Failed to power down relay: %v", err)
	}
	if n := f.chain.Close(); n > 0 {
		log.Printf("Audit missed %d output writes", n)
	}
	if f.serial != nil {
		if err := f.serial.Close(); err != nil {
			log.Printf("Failed to close relay port: %v", err)
		}
	}
}
