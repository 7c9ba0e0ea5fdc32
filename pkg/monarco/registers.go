package monarco

// Service register addresses.
const (
	RegStatus     uint16 = 0x000 // status code
	RegFWVerL     uint16 = 0x001 // firmware version, low word [R]
	RegFWVerH     uint16 = 0x002 // firmware version, high word [R]
	RegHWVerL     uint16 = 0x003 // hardware version, low word [R]
	RegHWVerH     uint16 = 0x004 // hardware version, high word [R]
	RegMCUID1     uint16 = 0x005 // MCU unique ID words [R]
	RegMCUID2     uint16 = 0x006
	RegMCUID3     uint16 = 0x007
	RegMCUID4     uint16 = 0x008
	RegHWConfig1  uint16 = 0x00A // see Config1*
	RegWDTimeout  uint16 = 0x00F // process data watchdog, 1 ms units, 0 disables
	RegRS485Baud  uint16 = 0x010 // 100 Bd units, 3..1000
	RegRS485Mode  uint16 = 0x011 // see RS485*
	RegHostBaud   uint16 = 0x012 // host UART, 100 Bd units, 0 puts MCU pins in Hi-Z
	RegRS485RxCnt uint16 = 0x014 // diagnostics counters [R]
	RegRS485TxCnt uint16 = 0x015
	RegRS485FECnt uint16 = 0x018
	RegRS485PECnt uint16 = 0x019
	RegCnt1Cfg    uint16 = 0x024 // see Counter* [W]
	RegCnt2Cfg    uint16 = 0x025
)

// Values of RegStatus and error codes carried in SDC responses.
const (
	StatusOK             uint16 = 0xABCD
	StatusErrorCRC       uint16 = 0xCCCC
	ErrorUnknownRegister uint16 = 0xFFFF
)

// Counter configuration.
const (
	CounterModeShift = 0
	CounterModeMask  = 0x7 << CounterModeShift
	CounterModeOff   = 0 << CounterModeShift
	CounterModePCNT  = 1 << CounterModeShift
	CounterModeQuad  = 2 << CounterModeShift

	CounterCtrlShift = 3
	CounterCtrlMask  = 0x7 << CounterCtrlShift
	CounterCtrlUp    = 0 << CounterCtrlShift
	// CounterCtrlExt selects direction by input B, high counts down.
	CounterCtrlExt = 1 << CounterCtrlShift

	CounterEdgeShift = 6
	CounterEdgeMask  = 0x3 << CounterEdgeShift
	CounterEdgeRise  = 0 << CounterEdgeShift
	CounterEdgeFall  = 1 << CounterEdgeShift
	CounterEdgeBoth  = 2 << CounterEdgeShift

	CounterCaptureShift = 8
	CounterCaptureMask  = 0x3 << CounterCaptureShift
	CounterCaptureOff   = 0 << CounterCaptureShift
	CounterCaptureRise  = 1 << CounterCaptureShift
	CounterCaptureFall  = 2 << CounterCaptureShift
	CounterCaptureBoth  = 3 << CounterCaptureShift
)

// RegHWConfig1 flags.
const (
	Config1RS485Term = 1 << 0
	Config1AI1Volts  = 0
	Config1AI1Loop   = 1 << 1
	Config1AI2Volts  = 0
	Config1AI2Loop   = 1 << 2
)

// RegRS485Mode fields.
const (
	RS485ParityShift = 0
	RS485ParityMask  = 0x7 << RS485ParityShift
	RS485ParityNone  = 0 << RS485ParityShift
	RS485ParityEven  = 1 << RS485ParityShift
	RS485ParityOdd   = 2 << RS485ParityShift

	RS485DataBitsShift = 3
	RS485DataBitsMask  = 0x3 << RS485DataBitsShift
	RS485DataBits5     = 0 << RS485DataBitsShift
	RS485DataBits6     = 1 << RS485DataBitsShift
	RS485DataBits7     = 2 << RS485DataBitsShift
	RS485DataBits8     = 3 << RS485DataBitsShift

	RS485StopBitsShift = 5
	RS485StopBitsMask  = 0x3 << RS485StopBitsShift
	RS485StopBits0_5   = 0 << RS485StopBitsShift
	RS485StopBits1     = 1 << RS485StopBitsShift
	RS485StopBits1_5   = 2 << RS485StopBitsShift
	RS485StopBits2     = 3 << RS485StopBitsShift

	RS485DefaultBaud = 96
	RS485DefaultMode = RS485ParityNone | RS485DataBits8 | RS485StopBits1
)
