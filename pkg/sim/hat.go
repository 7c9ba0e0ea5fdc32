// Package sim simulates the Monarco HAT peripheral behind the SPI link.
package sim

import (
	"fmt"
	"os"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/monarco.go/pkg/monarco"
)

// Identity reported by the simulated firmware.
const (
	FirmwareVersion uint32 = 0x00020001
	HardwareVersion uint32 = 0x00010003
)

// HAT is a simulated peripheral implementing monarco.Transport.
//
// Digital outputs are wired back to digital inputs and analog outputs to
// analog inputs. Counter 1 counts edges of DOUT1 and counter 2 counts edges
// of DOUT2 when enabled through their configuration registers.
type HAT struct {
	// Immediate answers the service request of the current exchange instead
	// of the one from the previous exchange.
	Immediate bool

	lock      sync.Mutex
	regs      map[uint16]uint16
	readOnly  map[uint16]bool
	pending   monarco.SDCFrame
	outputs   monarco.TxFrame
	counters  [3]uint32
	exchanges uint64
	corrupt   int
	fail      error
	closed    bool
}

// NewHAT creates a HAT with power-on register values.
func NewHAT() *HAT {
	h := &HAT{
		regs: map[uint16]uint16{
			monarco.RegStatus:     monarco.StatusOK,
			monarco.RegFWVerL:     uint16(FirmwareVersion & 0xFFFF),
			monarco.RegFWVerH:     uint16(FirmwareVersion >> 16),
			monarco.RegHWVerL:     uint16(HardwareVersion & 0xFFFF),
			monarco.RegHWVerH:     uint16(HardwareVersion >> 16),
			monarco.RegMCUID1:     0x4D4F,
			monarco.RegMCUID2:     0x4E41,
			monarco.RegMCUID3:     0x5243,
			monarco.RegMCUID4:     0x4F01,
			monarco.RegHWConfig1:  0,
			monarco.RegWDTimeout:  0,
			monarco.RegRS485Baud:  monarco.RS485DefaultBaud,
			monarco.RegRS485Mode:  monarco.RS485DefaultMode,
			monarco.RegHostBaud:   0,
			monarco.RegRS485RxCnt: 0,
			monarco.RegRS485TxCnt: 0,
			monarco.RegRS485FECnt: 0,
			monarco.RegRS485PECnt: 0,
			monarco.RegCnt1Cfg:    monarco.CounterModeOff,
			monarco.RegCnt2Cfg:    monarco.CounterModeOff,
		},
		readOnly: make(map[uint16]bool),
	}
	for _, addr := range []uint16{
		monarco.RegStatus,
		monarco.RegFWVerL, monarco.RegFWVerH,
		monarco.RegHWVerL, monarco.RegHWVerH,
		monarco.RegMCUID1, monarco.RegMCUID2, monarco.RegMCUID3, monarco.RegMCUID4,
		monarco.RegRS485RxCnt, monarco.RegRS485TxCnt,
		monarco.RegRS485FECnt, monarco.RegRS485PECnt,
	} {
		h.readOnly[addr] = true
	}
	return h
}

// Register returns the current value of a register.
func (h *HAT) Register(addr uint16) (uint16, bool) {
	h.lock.Lock()
	defer h.lock.Unlock()
	val, ok := h.regs[addr]
	return val, ok
}

// SetRegister overrides a register, creating it if needed.
func (h *HAT) SetRegister(addr, val uint16) {
	h.lock.Lock()
	h.regs[addr] = val
	h.lock.Unlock()
}

// Outputs returns the last outbound frame which passed checksum validation.
func (h *HAT) Outputs() monarco.TxFrame {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.outputs
}

// Exchanges returns the number of completed exchanges.
func (h *HAT) Exchanges() uint64 {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.exchanges
}

// CorruptNext corrupts the checksum of the next n inbound frames.
func (h *HAT) CorruptNext(n int) {
	h.lock.Lock()
	h.corrupt = n
	h.lock.Unlock()
}

// FailNext makes the next exchange fail with err.
func (h *HAT) FailNext(err error) {
	h.lock.Lock()
	h.fail = err
	h.lock.Unlock()
}

// Exchange implements monarco.Transport.
func (h *HAT) Exchange(tx, rx []byte) error {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.closed {
		return os.ErrClosed
	}
	if err := h.fail; err != nil {
		h.fail = nil
		return err
	}
	if len(tx) != monarco.FrameSize || len(rx) != monarco.FrameSize {
		return fmt.Errorf("invalid transfer size %d/%d", len(tx), len(rx))
	}

	var out, in monarco.Frame
	copy(out[:], tx)
	var resp monarco.RxFrame
	if out.ValidChecksum() {
		var req monarco.TxFrame
		req.Decode(&out)
		current := req.SDC
		if !h.Immediate {
			req.SDC, h.pending = h.pending, current
		}
		resp.SDC = h.service(req.SDC)
		h.update(&req, &resp)
	} else {
		glog.V(2).Info("sim: invalid TX CRC")
		h.regs[monarco.RegStatus] = monarco.StatusErrorCRC
		resp.SDC = monarco.SDCFrame{Address: monarco.RegStatus, Value: monarco.StatusErrorCRC}
		h.fillInputs(&resp)
	}
	resp.Encode(&in)
	if h.corrupt > 0 {
		h.corrupt--
		in[7] ^= 0xFF
	}
	copy(rx, in[:])
	h.exchanges++
	return nil
}

// Close implements io.Closer.
func (h *HAT) Close() error {
	h.lock.Lock()
	h.closed = true
	h.lock.Unlock()
	return nil
}

func (h *HAT) service(req monarco.SDCFrame) monarco.SDCFrame {
	resp := monarco.SDCFrame{Address: req.Address, Write: req.Write}
	val, ok := h.regs[req.Address]
	switch {
	case !ok || (req.Write && h.readOnly[req.Address]):
		resp.Error, resp.Value = true, monarco.ErrorUnknownRegister
	case req.Write:
		h.regs[req.Address] = req.Value
		resp.Value = req.Value
	default:
		resp.Value = val
		if req.Address == monarco.RegStatus {
			h.regs[monarco.RegStatus] = monarco.StatusOK
		}
	}
	return resp
}

func (h *HAT) update(req *monarco.TxFrame, resp *monarco.RxFrame) {
	prev := h.outputs.DOut
	h.outputs = *req
	for n, cfg := range []uint16{h.regs[monarco.RegCnt1Cfg], h.regs[monarco.RegCnt2Cfg]} {
		if cfg&monarco.CounterModeMask == monarco.CounterModeOff {
			continue
		}
		mask := uint8(1) << uint(n)
		rising, falling := req.DOut&mask != 0 && prev&mask == 0, req.DOut&mask == 0 && prev&mask != 0
		switch cfg & monarco.CounterEdgeMask {
		case monarco.CounterEdgeRise:
			if rising {
				h.counters[n]++
			}
		case monarco.CounterEdgeFall:
			if falling {
				h.counters[n]++
			}
		case monarco.CounterEdgeBoth:
			if rising || falling {
				h.counters[n]++
			}
		}
	}
	if req.Control.Counter1Reset {
		h.counters[0] = 0
		resp.Status.Counter1ResetDone = true
	}
	if req.Control.Counter2Reset {
		h.counters[1] = 0
		resp.Status.Counter2ResetDone = true
	}
	resp.Status.SignOfLife = req.Control.SignOfLife
	h.fillInputs(resp)
}

func (h *HAT) fillInputs(resp *monarco.RxFrame) {
	resp.DIn = h.outputs.DOut & 0x0F
	resp.AIn = h.outputs.AOut
	resp.Counter = h.counters
}
