package platform

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

var ErrPortNoData = errors.New("platform: no byte available")

// DevicePort is the byte port over a serial device node. The line
// discipline (baud, 8N1, raw mode) must already be configured by the
// platform init; the port only moves bytes.
type DevicePort struct {
	f       *os.File
	pending []byte
}

// OpenDevicePort opens the device non-blocking so HasData and RecvByte
// never stall the control loop.
func OpenDevicePort(path string) (*DevicePort, error) {
	f, err := os.OpenFile(path, os.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("platform: open serial device: %w", err)
	}
	return &DevicePort{f: f}, nil
}

func (p *DevicePort) SendByte(b byte) error {
	_, err := p.f.Write([]byte{b})
	return err
}

func (p *DevicePort) HasData() bool {
	if len(p.pending) > 0 {
		return true
	}
	return p.fill()
}

func (p *DevicePort) RecvByte() (byte, error) {
	if len(p.pending) == 0 && !p.fill() {
		return 0, ErrPortNoData
	}
	b := p.pending[0]
	p.pending = p.pending[1:]
	return b, nil
}

func (p *DevicePort) Close() error {
	return p.f.Close()
}

// fill pulls whatever the driver has buffered into the pending queue.
// A non-blocking read with nothing available (EAGAIN) and a hard device
// error both read as no data; the frame layer times out either way.
func (p *DevicePort) fill() bool {
	buf := make([]byte, 64)
	n, _ := p.f.Read(buf)
	if n > 0 {
		p.pending = append(p.pending, buf[:n]...)
		return true
	}
	return false
}
