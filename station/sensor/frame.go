// Package sensor talks to an MH-Z19 style NDIR CO2 sensor over a byte serial
// channel using fixed 9-byte frames.
package sensor

const (
	// FrameSize is the length of every request and reply.
	FrameSize = 9

	frameHeader  = 0xFF
	sensorNumber = 0x01

	cmdReadCO2         = 0x86
	cmdSelfCalibration = 0x79

	selfCalibrationEnable = 0xA0
)

// Frame is one request or reply: header, sensor address, command, five data
// bytes and a checksum.
type Frame [FrameSize]byte

var (
	// ReadCO2 requests a concentration reading.
	ReadCO2 = NewCommand(cmdReadCO2)
	// SelfCalibrationOn enables automatic baseline correction.
	SelfCalibrationOn = NewCommand(cmdSelfCalibration, selfCalibrationEnable)
	// SelfCalibrationOff disables automatic baseline correction.
	SelfCalibrationOff = NewCommand(cmdSelfCalibration, 0x00)
)

// NewCommand builds a request frame for cmd with up to five data bytes.
func NewCommand(cmd byte, data ...byte) Frame {
	f := Frame{frameHeader, sensorNumber, cmd}
	copy(f[3:8], data)
	f[8] = Checksum(f)
	return f
}

// Checksum is the two's complement of the sum of bytes 1 through 7.
func Checksum(f Frame) byte {
	var sum byte
	for _, b := range f[1:8] {
		sum += b
	}
	return 0xFF - sum + 1
}

// Valid reports whether the header and checksum bytes are consistent.
func (f Frame) Valid() bool {
	return f[0] == frameHeader && f[8] == Checksum(f)
}

// PPM decodes the concentration carried big-endian in data bytes 4 and 5.
func (f Frame) PPM() uint32 {
	return uint32(f[4])<<8 | uint32(f[5])
}
