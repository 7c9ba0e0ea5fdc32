package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/monarco.go/pkg/monarco"
)

type nopLogger struct{}

func (nopLogger) Errorf(string, ...interface{})   {}
func (nopLogger) Warningf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})    {}
func (nopLogger) Verbosef(string, ...interface{}) {}

func runUntilDone(t *testing.T, e *monarco.Engine, max int) {
	for n := 0; n < max; n++ {
		require.NoError(t, e.Cycle())
		if e.AllDone() {
			return
		}
	}
	t.Fatalf("SDC items not done after %d cycles", max)
}

func TestHATServiceRegisters(t *testing.T) {
	hat := NewHAT()
	e := monarco.New(hat, monarco.WithLogger(nopLogger{}))
	status := monarco.PeriodicItem(monarco.RegStatus)
	fwL := monarco.ReadItem(monarco.RegFWVerL)
	fwH := monarco.ReadItem(monarco.RegFWVerH)
	wd := monarco.WriteItem(monarco.RegWDTimeout, 500)
	unknown := monarco.ReadItem(0x0FE)
	readOnly := monarco.WriteItem(monarco.RegHWVerL, 1)
	require.NoError(t, e.Add(status, fwL, fwH, wd, unknown, readOnly))

	runUntilDone(t, e, 50)

	require.Equal(t, monarco.StatusOK, status.Value)
	require.Equal(t, FirmwareVersion, uint32(fwH.Value)<<16|uint32(fwL.Value))
	require.Equal(t, uint16(500), wd.Value)
	require.False(t, wd.Errored())
	val, _ := hat.Register(monarco.RegWDTimeout)
	require.Equal(t, uint16(500), val)

	require.True(t, unknown.Errored())
	require.Equal(t, monarco.ErrorUnknownRegister, unknown.Value)
	require.True(t, readOnly.Errored())
	val, _ = hat.Register(monarco.RegHWVerL)
	require.Equal(t, uint16(HardwareVersion&0xFFFF), val)
}

func TestHATProcessData(t *testing.T) {
	hat := NewHAT()
	hat.Immediate = true
	e := monarco.New(hat, monarco.WithLogger(nopLogger{}))
	require.NoError(t, e.Add(monarco.WriteItem(monarco.RegCnt1Cfg, monarco.CounterModePCNT|monarco.CounterEdgeRise)))
	require.NoError(t, e.Cycle())

	e.Tx().AOut = [2]uint16{0x0800, 0x0FFF}
	e.Tx().Control.SignOfLife = 2
	for n := 0; n < 3; n++ {
		e.Tx().SetDOut(1, true)
		require.NoError(t, e.Cycle())
		e.Tx().SetDOut(1, false)
		require.NoError(t, e.Cycle())
	}
	e.Tx().SetDOut(3, true)
	require.NoError(t, e.Cycle())

	rx := e.Rx()
	require.Equal(t, uint32(3), rx.Counter[0])
	require.Equal(t, uint32(0), rx.Counter[1])
	require.True(t, rx.DInOn(3))
	require.False(t, rx.DInOn(1))
	require.Equal(t, [2]uint16{0x0800, 0x0FFF}, rx.AIn)
	require.Equal(t, uint8(2), rx.Status.SignOfLife)

	e.Tx().Control.Counter1Reset = true
	require.NoError(t, e.Cycle())
	require.Equal(t, uint32(0), e.Rx().Counter[0])
	require.True(t, e.Rx().Status.Counter1ResetDone)
}

func TestHATFaults(t *testing.T) {
	hat := NewHAT()
	e := monarco.New(hat, monarco.WithLogger(nopLogger{}))
	e.Tx().SetDOut(2, true)
	require.NoError(t, e.Cycle())

	hat.CorruptNext(2)
	e.Tx().SetDOut(2, false)
	require.Equal(t, monarco.ErrChecksum, e.Cycle())
	require.Equal(t, monarco.ErrChecksum, e.Cycle())
	require.True(t, e.Rx().DInOn(2))
	require.NoError(t, e.Cycle())
	require.False(t, e.Rx().DInOn(2))

	boom := errors.New("boom")
	hat.FailNext(boom)
	require.ErrorIs(t, e.Cycle(), boom)
	require.NoError(t, e.Cycle())

	require.NoError(t, e.Close())
	require.Equal(t, monarco.ErrNotReady, e.Cycle())
}

func TestHATRejectsBadChecksum(t *testing.T) {
	hat := NewHAT()
	var tx monarco.TxFrame
	tx.DOut = 0x0F
	var out monarco.Frame
	tx.Encode(&out)
	out[7] = 0x01

	in := make([]byte, monarco.FrameSize)
	require.NoError(t, hat.Exchange(out[:], in))
	require.Equal(t, uint8(0), hat.Outputs().DOut)
	val, _ := hat.Register(monarco.RegStatus)
	require.Equal(t, monarco.StatusErrorCRC, val)

	var rxBuf monarco.Frame
	copy(rxBuf[:], in)
	require.True(t, rxBuf.ValidChecksum())
	var rx monarco.RxFrame
	rx.Decode(&rxBuf)
	require.Equal(t, monarco.StatusErrorCRC, rx.SDC.Value)

	require.Error(t, hat.Exchange(out[:4], in))
}
