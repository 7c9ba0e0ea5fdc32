package monarco

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestItemLifecycle(t *testing.T) {
	item := &Item{Address: RegFWVerL}
	require.Equal(t, ItemIdle, item.State())
	require.False(t, item.eligible())

	item.Request()
	require.Equal(t, ItemRequested, item.State())
	require.True(t, item.eligible())

	req := item.dispatch()
	require.Equal(t, SDCFrame{Address: RegFWVerL}, req)
	require.Equal(t, ItemInFlight, item.State())
	require.Equal(t, 1, item.Busy())
	require.False(t, item.Requested())

	item.complete(SDCFrame{Address: RegFWVerL, Value: 0x0105})
	require.Equal(t, ItemCompleted, item.State())
	require.True(t, item.Done())
	require.Equal(t, uint16(0x0105), item.Value)
	require.NoError(t, item.Err())

	item.ClearDone()
	require.Equal(t, ItemIdle, item.State())
}

func TestItemRequestClearsCompletion(t *testing.T) {
	item := WriteItem(RegWDTimeout, 100)
	item.dispatch()
	item.complete(SDCFrame{Address: RegWDTimeout, Write: true, Value: 100})
	require.Equal(t, ItemCompleted, item.State())

	item.RequestWrite(200)
	require.Equal(t, ItemRequested, item.State())
	require.False(t, item.Done())
	require.Equal(t, SDCFrame{Address: RegWDTimeout, Write: true, Value: 200}, item.dispatch())
}

func TestItemRequestWriteWhileInFlight(t *testing.T) {
	item := WriteItem(RegWDTimeout, 100)
	sent := item.dispatch()

	item.RequestWrite(200)
	require.Equal(t, ItemInFlight, item.State())
	require.Equal(t, uint16(100), item.Value)

	item.complete(sent)
	require.Equal(t, ItemRequested, item.State())
	require.Equal(t, uint16(100), item.Value)

	require.Equal(t, SDCFrame{Address: RegWDTimeout, Write: true, Value: 200}, item.dispatch())
	require.Equal(t, ItemInFlight, item.State())
	require.False(t, item.Done())
}

func TestItemError(t *testing.T) {
	item := ReadItem(0x0FF)
	item.dispatch()
	item.complete(SDCFrame{Address: 0x0FF, Value: ErrorUnknownRegister, Error: true})
	require.True(t, item.Errored())
	var regErr *RegisterError
	require.ErrorAs(t, item.Err(), &regErr)
	require.Equal(t, uint16(0x0FF), regErr.Address)
	require.Equal(t, ErrorUnknownRegister, regErr.Code)
}

func TestItemTickSaturates(t *testing.T) {
	item := ReadItem(RegStatus)
	item.dispatch()
	for n := 2; n < ItemTimeoutCycles; n++ {
		require.False(t, item.tick())
	}
	require.True(t, item.tick())
	require.False(t, item.tick())

	item.busy = maxBusy - 1
	item.tick()
	require.Equal(t, maxBusy, item.Busy())
	item.tick()
	require.Equal(t, maxBusy, item.Busy())
}

func TestPeriodicItemStaysEligible(t *testing.T) {
	item := PeriodicItem(RegStatus)
	require.True(t, item.eligible())
	item.dispatch()
	item.complete(SDCFrame{Address: RegStatus, Value: StatusOK})
	require.True(t, item.eligible())
	require.Equal(t, ItemCompleted, item.State())
	require.Equal(t, "completed", item.State().String())
}
