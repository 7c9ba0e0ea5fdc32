package framework

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type closeRecorder struct {
	closed  int
	unblock chan struct{}
}

func (c *closeRecorder) Close() error {
	c.closed++
	if c.unblock != nil {
		close(c.unblock)
	}
	return nil
}

func TestRunnerWait(t *testing.T) {
	boom := errors.New("boom")
	r := NewRunner()
	r.Go(
		RunFunc(func(context.Context) error { return nil }),
		NamedRun("canceled", RunFunc(func(context.Context) error { return context.Canceled })),
		RunFunc(func(context.Context) error { return boom }),
	)
	err := r.Wait()
	require.Error(t, err)
	var agg *AggregatedError
	require.ErrorAs(t, err, &agg)
	require.Equal(t, []error{boom}, agg.Errors)

	require.NoError(t, NewRunner().Wait())
}

func TestRunWithContextCloser(t *testing.T) {
	t.Run("fn returns", func(t *testing.T) {
		c := &closeRecorder{}
		err := RunWithContextCloser(context.Background(), c, func() error {
			return errors.New("eof")
		})
		require.EqualError(t, err, "eof")
		require.Equal(t, 1, c.closed)
	})
	t.Run("canceled", func(t *testing.T) {
		c := &closeRecorder{unblock: make(chan struct{})}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := RunWithContextCloser(ctx, c, func() error {
			<-c.unblock
			return errors.New("closed")
		})
		require.Equal(t, context.Canceled, err)
		require.Equal(t, 1, c.closed)
	})
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())
	errs.Add(errors.New("a"))
	require.EqualError(t, errs.Aggregate(), "a")
	errs.Add(errors.New("b"))
	require.EqualError(t, errs.Aggregate(), "multiple errors:\na\nb")
}
