package output

import (
	"fmt"
	"io"
	"log"
	"sync"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate matches the relay board firmware.
	DefaultBaudRate = 115200
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial drives a USB-serial relay board. Each level change is sent as a
// single line: "1\n" energizes the relay, "0\n" releases it.
type Serial struct {
	// IdleHigh is the level written on Connect. Set it for active-low
	// relay boards so that connecting never energizes the relay.
	IdleHigh bool

	port     string
	baudRate int

	conn      io.WriteCloser
	mu        sync.RWMutex
	connected bool
	high      bool

	open func(name string, mode *serial.Mode) (io.WriteCloser, error)
}

// NewSerial creates a relay output on the given port. A zero baud rate
// selects DefaultBaudRate.
func NewSerial(port string, baudRate int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	return &Serial{
		port:     port,
		baudRate: baudRate,
		open: func(name string, mode *serial.Mode) (io.WriteCloser, error) {
			return serial.Open(name, mode)
		},
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect opens the serial port and releases the relay by writing the idle
// level.
func (s *Serial) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return fmt.Errorf("already connected")
	}

	conn, err := s.open(s.port, &serial.Mode{BaudRate: s.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.port, err)
	}

	s.conn = conn
	s.connected = true

	if err := s.write(s.IdleHigh); err != nil {
		return err
	}
	return nil
}

// Close closes the port. The relay keeps its level; power it down through
// the output that knows its polarity before closing.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil
	}

	if err := s.conn.Close(); err != nil {
		log.Printf("Error closing serial port: %v", err)
	}
	s.conn = nil
	s.connected = false

	return nil
}

// IsConnected returns whether the port is open.
func (s *Serial) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// SetHigh energizes the relay.
func (s *Serial) SetHigh() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(true)
}

// SetLow releases the relay.
func (s *Serial) SetLow() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(false)
}

// Read returns the last level successfully sent.
func (s *Serial) Read() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.high
}

// write must be called with mu held.
func (s *Serial) write(high bool) error {
	if !s.connected {
		return fmt.Errorf("not connected")
	}

	if _, err := s.conn.Write(command(high)); err != nil {
		return fmt.Errorf("failed to send relay command: %w", err)
	}
	s.high = high
	return nil
}

func command(high bool) []byte {
	if high {
		return []byte("1\n")
	}
	return []byte("0\n")
}
