package monarco

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSDCFrameLayout(t *testing.T) {
	testCases := []struct {
		name  string
		frame SDCFrame
		bytes [4]byte
	}{
		{"read", SDCFrame{Value: 0x1234, Address: 0x001}, [4]byte{0x34, 0x12, 0x01, 0x00}},
		{"write", SDCFrame{Value: 0x0042, Address: 0x00A, Write: true}, [4]byte{0x42, 0x00, 0x0A, 0x10}},
		{"error", SDCFrame{Value: 0xFFFF, Address: 0xABC, Error: true}, [4]byte{0xFF, 0xFF, 0xBC, 0x2A}},
		{"write error", SDCFrame{Value: 0xCCCC, Address: 0xFFF, Write: true, Error: true}, [4]byte{0xCC, 0xCC, 0xFF, 0x3F}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var b [4]byte
			tc.frame.encode(b[:])
			require.Equal(t, tc.bytes, b)
			var decoded SDCFrame
			decoded.decode(b[:])
			require.Equal(t, tc.frame, decoded)
		})
	}
}

func TestSDCFrameMasksAddressAndReserved(t *testing.T) {
	var b [4]byte
	SDCFrame{Address: 0x1FFF}.encode(b[:])
	require.Equal(t, byte(0x0F), b[3])

	b = [4]byte{0x00, 0x00, 0x24, 0xC0}
	var f SDCFrame
	f.decode(b[:])
	require.Equal(t, SDCFrame{Address: 0x024}, f)
}

func TestControlAndStatusBytes(t *testing.T) {
	ctl := ControlByte{
		StatusLEDEnable: true,
		StatusLEDOn:     true,
		OneWireShutdown: true,
		Counter1Reset:   true,
		Counter2Reset:   true,
		SignOfLife:      3,
	}
	require.Equal(t, byte(0xF7), ctl.Byte())
	require.Equal(t, ctl, ParseControlByte(0xFF))
	require.Equal(t, byte(0x10), ControlByte{Counter1Reset: true}.Byte())
	require.Equal(t, byte(0x80), ControlByte{SignOfLife: 2}.Byte())

	st := ParseStatusByte(0x6F)
	require.Equal(t, StatusByte{Counter2ResetDone: true, SignOfLife: 1}, st)
	require.Equal(t, byte(0x60), st.Byte())
}

func TestTxFrameLayout(t *testing.T) {
	tx := TxFrame{
		SDC:      SDCFrame{Value: 0x0180, Address: RegRS485Baud, Write: true},
		Control:  ControlByte{StatusLEDEnable: true},
		LEDMask:  0xF0,
		LEDValue: 0x50,
		DOut:     0x09,
		PWM1Div:  0x0102,
		PWM1Duty: [3]uint16{0x0304, 0x0506, 0x0708},
		PWM2Div:  0x090A,
		PWM2Duty: 0x0B0C,
		AOut:     [2]uint16{0x0FFF, 0x0800},
	}
	var b Frame
	tx.Encode(&b)
	require.Equal(t, []byte{
		0x80, 0x01, 0x10, 0x10, // SDC
		0x01,             // control
		0xF0, 0x50, 0x09, // LEDs, DOUT
		0x02, 0x01, 0x04, 0x03, 0x06, 0x05, 0x08, 0x07, // PWM1
		0x0A, 0x09, 0x0C, 0x0B, // PWM2
		0xFF, 0x0F, 0x00, 0x08, // AOUT
	}, b[:checksumOffset])
	require.Equal(t, CRC16(b[:checksumOffset]), tx.CRC)
	require.Equal(t, byte(tx.CRC), b[24])
	require.Equal(t, byte(tx.CRC>>8), b[25])
	require.True(t, b.ValidChecksum())

	var decoded TxFrame
	decoded.Decode(&b)
	require.Equal(t, tx, decoded)
}

func TestRxFrameLayout(t *testing.T) {
	b := Frame{
		0xCD, 0xAB, 0x00, 0x00, // SDC: status OK
		0x90,       // status: cnt1 reset done, sign of life 2
		0x00, 0x00, // reserved
		0x05,                   // DIN
		0x01, 0x00, 0x00, 0x00, // CNT1
		0x00, 0x01, 0x00, 0x00, // CNT2
		0xFF, 0xFF, 0xFF, 0xFF, // CNT3
		0xFF, 0x0F, 0x34, 0x02, // AIN
	}
	var rx RxFrame
	rx.Decode(&b)
	require.Equal(t, SDCFrame{Value: StatusOK, Address: RegStatus}, rx.SDC)
	require.Equal(t, StatusByte{Counter1ResetDone: true, SignOfLife: 2}, rx.Status)
	require.Equal(t, uint8(0x05), rx.DIn)
	require.Equal(t, [3]uint32{1, 256, 0xFFFFFFFF}, rx.Counter)
	require.Equal(t, [2]uint16{0x0FFF, 0x0234}, rx.AIn)
	require.True(t, rx.DInOn(1))
	require.False(t, rx.DInOn(2))
	require.True(t, rx.DInOn(3))
	require.False(t, rx.DInOn(5))

	var encoded Frame
	rx.Encode(&encoded)
	require.Equal(t, b[:checksumOffset], encoded[:checksumOffset])
	require.True(t, encoded.ValidChecksum())
}

func TestTxFrameOutputs(t *testing.T) {
	var tx TxFrame
	tx.SetDOut(1, true)
	tx.SetDOut(4, true)
	tx.SetDOut(5, true)
	require.Equal(t, uint8(0x09), tx.DOut)
	require.True(t, tx.DOutOn(4))
	tx.SetDOut(1, false)
	require.Equal(t, uint8(0x08), tx.DOut)

	tx.SetLED(2, true)
	tx.SetLED(8, false)
	require.Equal(t, uint8(0x82), tx.LEDMask)
	require.Equal(t, uint8(0x02), tx.LEDValue)
	tx.ReleaseLED(2)
	require.Equal(t, uint8(0x80), tx.LEDMask)
	require.Equal(t, uint8(0x00), tx.LEDValue)
}

func TestFrameDump(t *testing.T) {
	tx := TxFrame{SDC: SDCFrame{Value: 0x0042, Address: RegHWConfig1, Write: true}, DOut: 0x3}
	require.Contains(t, tx.String(), "TX: SDC[V:0x0042 A:0x00A W:1 E:0] CTRL:0x00")
	require.Contains(t, tx.String(), "DO:0x3")
	rx := RxFrame{DIn: 0xF, AIn: [2]uint16{1, 2}}
	require.Contains(t, rx.String(), "RX: SDC[V:0x0000 A:0x000 W:0 E:0] STAT:0x00 DI:0xF")
	require.Contains(t, rx.String(), "AI1:0x0001 AI2:0x0002")
}
