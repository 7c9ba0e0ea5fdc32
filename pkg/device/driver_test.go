package device

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/monarco.go/pkg/framework"
	"github.com/robotalks/monarco.go/pkg/monarco"
	"github.com/robotalks/monarco.go/pkg/sim"
)

type nopLogger struct{}

func (nopLogger) Errorf(string, ...interface{})   {}
func (nopLogger) Warningf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})    {}
func (nopLogger) Verbosef(string, ...interface{}) {}

func TestDriverCycles(t *testing.T) {
	hat := sim.NewHAT()
	engine := monarco.New(hat, monarco.WithLogger(nopLogger{}))
	require.NoError(t, engine.Add(
		monarco.ReadItem(monarco.RegFWVerL),
		monarco.WriteItem(monarco.RegWDTimeout, 100),
	))
	d := New(engine)
	loop := fx.NewLoop()
	loop.Add(d)

	for n := 0; n < 6; n++ {
		loop.Step(context.Background())
	}
	require.True(t, d.InitDone())
	stats := d.Stats()
	require.Equal(t, uint64(6), stats.Cycles)
	require.Zero(t, stats.Failures())
	require.Equal(t, uint8(6&3), engine.Rx().Status.SignOfLife)

	hat.CorruptNext(1)
	loop.Step(context.Background())
	hat.FailNext(errors.New("bus error"))
	loop.Step(context.Background())
	loop.Step(context.Background())
	stats = d.Stats()
	require.Equal(t, uint64(9), stats.Cycles)
	require.Equal(t, uint64(1), stats.ChecksumErrors)
	require.Equal(t, uint64(1), stats.TransportErrors)
	require.Equal(t, uint64(2), stats.Failures())
}

func TestDriverNotReady(t *testing.T) {
	d := New(monarco.New(nil, monarco.WithLogger(nopLogger{})))
	loop := fx.NewLoop()
	loop.Add(d)
	loop.Step(context.Background())
	loop.Step(context.Background())
	require.Equal(t, Stats{Cycles: 2, NotReady: 2}, d.Stats())
	require.False(t, d.InitDone())
	require.NoError(t, d.Close())
}
