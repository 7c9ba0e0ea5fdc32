package monarco

import (
	"encoding/binary"
	"fmt"
)

// FrameSize is the size of both outbound and inbound frames in bytes.
const FrameSize = 26

// checksumOffset is where the little-endian CRC trailer starts.
const checksumOffset = FrameSize - 2

// Frame is the raw wire representation of a frame.
type Frame [FrameSize]byte

// Checksum returns the CRC trailer stored in the frame.
func (b *Frame) Checksum() uint16 {
	return binary.LittleEndian.Uint16(b[checksumOffset:])
}

// ValidChecksum recomputes the CRC over the covered range and compares it
// with the trailer.
func (b *Frame) ValidChecksum() bool {
	return CRC16(b[:checksumOffset]) == b.Checksum()
}

// stamp computes the CRC over the covered range and writes the trailer.
func (b *Frame) stamp() uint16 {
	crc := CRC16(b[:checksumOffset])
	binary.LittleEndian.PutUint16(b[checksumOffset:], crc)
	return crc
}

const (
	sdcAddressMask uint16 = 0x0FFF
	sdcWriteBit    uint16 = 1 << 12
	sdcErrorBit    uint16 = 1 << 13
)

// SDCFrame is the service data channel sub-frame carried by both directions.
type SDCFrame struct {
	Value   uint16
	Address uint16
	Write   bool
	Error   bool
}

func (f SDCFrame) encode(b []byte) {
	binary.LittleEndian.PutUint16(b, f.Value)
	bits := f.Address & sdcAddressMask
	if f.Write {
		bits |= sdcWriteBit
	}
	if f.Error {
		bits |= sdcErrorBit
	}
	binary.LittleEndian.PutUint16(b[2:], bits)
}

func (f *SDCFrame) decode(b []byte) {
	f.Value = binary.LittleEndian.Uint16(b)
	bits := binary.LittleEndian.Uint16(b[2:])
	f.Address = bits & sdcAddressMask
	f.Write = bits&sdcWriteBit != 0
	f.Error = bits&sdcErrorBit != 0
}

// String implements fmt.Stringer.
func (f SDCFrame) String() string {
	return fmt.Sprintf("SDC[V:0x%04X A:0x%03X W:%d E:%d]", f.Value, f.Address, b2i(f.Write), b2i(f.Error))
}

// ControlByte is the outbound control byte.
type ControlByte struct {
	StatusLEDEnable bool
	StatusLEDOn     bool
	OneWireShutdown bool
	Counter1Reset   bool
	Counter2Reset   bool
	SignOfLife      uint8
}

// Byte packs the control byte.
func (c ControlByte) Byte() byte {
	var v byte
	v |= bit(c.StatusLEDEnable, 0)
	v |= bit(c.StatusLEDOn, 1)
	v |= bit(c.OneWireShutdown, 2)
	v |= bit(c.Counter1Reset, 4)
	v |= bit(c.Counter2Reset, 5)
	v |= (c.SignOfLife & 3) << 6
	return v
}

// ParseControlByte unpacks a control byte; the reserved bit is dropped.
func ParseControlByte(v byte) ControlByte {
	return ControlByte{
		StatusLEDEnable: v&(1<<0) != 0,
		StatusLEDOn:     v&(1<<1) != 0,
		OneWireShutdown: v&(1<<2) != 0,
		Counter1Reset:   v&(1<<4) != 0,
		Counter2Reset:   v&(1<<5) != 0,
		SignOfLife:      v >> 6,
	}
}

// StatusByte is the inbound status byte.
type StatusByte struct {
	Counter1ResetDone bool
	Counter2ResetDone bool
	SignOfLife        uint8
}

// Byte packs the status byte.
func (s StatusByte) Byte() byte {
	return bit(s.Counter1ResetDone, 4) | bit(s.Counter2ResetDone, 5) | (s.SignOfLife&3)<<6
}

// ParseStatusByte unpacks a status byte.
func ParseStatusByte(v byte) StatusByte {
	return StatusByte{
		Counter1ResetDone: v&(1<<4) != 0,
		Counter2ResetDone: v&(1<<5) != 0,
		SignOfLife:        v >> 6,
	}
}

// TxFrame is the outbound frame: process outputs and one SDC request.
type TxFrame struct {
	SDC     SDCFrame
	Control ControlByte
	// LEDMask selects the user LEDs driven by LEDValue.
	LEDMask  uint8
	LEDValue uint8
	DOut     uint8
	PWM1Div  uint16
	// PWM1Duty holds the duty cycles of channels 1A, 1B and 1C.
	PWM1Duty [3]uint16
	PWM2Div  uint16
	PWM2Duty uint16
	AOut     [2]uint16
	// CRC is the trailer of the last Encode or Decode.
	CRC uint16
}

// Encode writes the frame into b and stamps the checksum.
func (f *TxFrame) Encode(b *Frame) {
	f.SDC.encode(b[0:4])
	b[4] = f.Control.Byte()
	b[5] = f.LEDMask
	b[6] = f.LEDValue
	b[7] = f.DOut
	le := binary.LittleEndian
	le.PutUint16(b[8:], f.PWM1Div)
	le.PutUint16(b[10:], f.PWM1Duty[0])
	le.PutUint16(b[12:], f.PWM1Duty[1])
	le.PutUint16(b[14:], f.PWM1Duty[2])
	le.PutUint16(b[16:], f.PWM2Div)
	le.PutUint16(b[18:], f.PWM2Duty)
	le.PutUint16(b[20:], f.AOut[0])
	le.PutUint16(b[22:], f.AOut[1])
	f.CRC = b.stamp()
}

// Decode reads the frame from b. The checksum is not validated.
func (f *TxFrame) Decode(b *Frame) {
	f.SDC.decode(b[0:4])
	f.Control = ParseControlByte(b[4])
	f.LEDMask = b[5]
	f.LEDValue = b[6]
	f.DOut = b[7]
	le := binary.LittleEndian
	f.PWM1Div = le.Uint16(b[8:])
	f.PWM1Duty[0] = le.Uint16(b[10:])
	f.PWM1Duty[1] = le.Uint16(b[12:])
	f.PWM1Duty[2] = le.Uint16(b[14:])
	f.PWM2Div = le.Uint16(b[16:])
	f.PWM2Duty = le.Uint16(b[18:])
	f.AOut[0] = le.Uint16(b[20:])
	f.AOut[1] = le.Uint16(b[22:])
	f.CRC = b.Checksum()
}

// SetDOut switches digital output ch (1..4).
func (f *TxFrame) SetDOut(ch int, on bool) {
	f.DOut = setBit(f.DOut, ch, 4, on)
}

// DOutOn reports whether digital output ch (1..4) is switched on.
func (f *TxFrame) DOutOn(ch int) bool {
	return getBit(f.DOut, ch, 4)
}

// SetLED takes user LED ch (1..8) under host control and switches it.
func (f *TxFrame) SetLED(ch int, on bool) {
	f.LEDMask = setBit(f.LEDMask, ch, 8, true)
	f.LEDValue = setBit(f.LEDValue, ch, 8, on)
}

// ReleaseLED returns user LED ch (1..8) to firmware control.
func (f *TxFrame) ReleaseLED(ch int) {
	f.LEDMask = setBit(f.LEDMask, ch, 8, false)
	f.LEDValue = setBit(f.LEDValue, ch, 8, false)
}

// String implements fmt.Stringer.
func (f *TxFrame) String() string {
	return fmt.Sprintf("TX: %s CTRL:0x%02X LED_MASK:0x%02X LED_VALUE:0x%02X DO:0x%1X PWM1DIV:0x%04X PWM1A:0x%04X PWM1B:0x%04X PWM1C:0x%04X PWM2DIV:0x%04X PWM2A:0x%04X AO1:0x%04X AO2:0x%04X CRC:0x%04X",
		f.SDC, f.Control.Byte(), f.LEDMask, f.LEDValue, f.DOut,
		f.PWM1Div, f.PWM1Duty[0], f.PWM1Duty[1], f.PWM1Duty[2],
		f.PWM2Div, f.PWM2Duty, f.AOut[0], f.AOut[1], f.CRC)
}

// RxFrame is the inbound frame: process inputs and one SDC response.
type RxFrame struct {
	SDC      SDCFrame
	Status   StatusByte
	Reserved uint16
	DIn      uint8
	Counter  [3]uint32
	AIn      [2]uint16
	CRC      uint16
}

// Encode writes the frame into b and stamps the checksum.
func (f *RxFrame) Encode(b *Frame) {
	f.SDC.encode(b[0:4])
	b[4] = f.Status.Byte()
	le := binary.LittleEndian
	le.PutUint16(b[5:], f.Reserved)
	b[7] = f.DIn
	le.PutUint32(b[8:], f.Counter[0])
	le.PutUint32(b[12:], f.Counter[1])
	le.PutUint32(b[16:], f.Counter[2])
	le.PutUint16(b[20:], f.AIn[0])
	le.PutUint16(b[22:], f.AIn[1])
	f.CRC = b.stamp()
}

// Decode reads the frame from b. The checksum is not validated.
func (f *RxFrame) Decode(b *Frame) {
	f.SDC.decode(b[0:4])
	f.Status = ParseStatusByte(b[4])
	le := binary.LittleEndian
	f.Reserved = le.Uint16(b[5:])
	f.DIn = b[7]
	f.Counter[0] = le.Uint32(b[8:])
	f.Counter[1] = le.Uint32(b[12:])
	f.Counter[2] = le.Uint32(b[16:])
	f.AIn[0] = le.Uint16(b[20:])
	f.AIn[1] = le.Uint16(b[22:])
	f.CRC = b.Checksum()
}

// DInOn reports whether digital input ch (1..4) is active.
func (f RxFrame) DInOn(ch int) bool {
	return getBit(f.DIn, ch, 4)
}

// String implements fmt.Stringer.
func (f *RxFrame) String() string {
	return fmt.Sprintf("RX: %s STAT:0x%02X DI:0x%1X CNT1:0x%08X CNT2:0x%08X CNT3:0x%08X AI1:0x%04X AI2:0x%04X CRC:0x%04X",
		f.SDC, f.Status.Byte(), f.DIn, f.Counter[0], f.Counter[1], f.Counter[2],
		f.AIn[0], f.AIn[1], f.CRC)
}

func bit(on bool, pos uint) byte {
	if on {
		return 1 << pos
	}
	return 0
}

func b2i(v bool) int {
	if v {
		return 1
	}
	return 0
}

func setBit(v uint8, ch, max int, on bool) uint8 {
	if ch < 1 || ch > max {
		return v
	}
	if on {
		return v | 1<<uint(ch-1)
	}
	return v &^ (1 << uint(ch-1))
}

func getBit(v uint8, ch, max int) bool {
	if ch < 1 || ch > max {
		return false
	}
	return v&(1<<uint(ch-1)) != 0
}
