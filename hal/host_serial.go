//go:build !tinygo

package hal

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// SerialPort is a host serial port to the sensor.
type SerialPort struct {
	port serial.Port
	name string
}

// OpenSerial opens name at baud, 8N1. Reads return after at most readTimeout
// with whatever has arrived, possibly nothing.
func OpenSerial(name string, baud int, readTimeout time.Duration) (*SerialPort, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", name, err)
	}
	if readTimeout <= 0 {
		readTimeout = 50 * time.Millisecond
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
	}
	return &SerialPort{port: p, name: name}, nil
}

// ListSerialPorts returns the names of the serial ports present.
func ListSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}

func (s *SerialPort) Name() string { return s.name }

func (s *SerialPort) Read(p []byte) (int, error) { return s.port.Read(p) }

func (s *SerialPort) Write(p []byte) (int, error) { return s.port.Write(p) }

// ResetInputBuffer drops bytes received but not yet read.
func (s *SerialPort) ResetInputBuffer() error { return s.port.ResetInputBuffer() }

func (s *SerialPort) Close() error { return s.port.Close() }
