package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bazaar-next/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	name     string
	startErr error
	stopped  atomic.Bool
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return nil
}

func (s *fakeService) Stop(context.Context) error {
	s.stopped.Store(true)
	return nil
}

func TestRunnerStopsAllServicesOnCancel(t *testing.T) {
	a := &fakeService{name: "a"}
	b := &fakeService{name: "b"}
	closed := false
	runner := NewRunner(a, b).WithCloser(func() { closed = true })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	require.NoError(t, runner.Run(ctx, time.Second, nil))
	assert.True(t, a.stopped.Load())
	assert.True(t, b.stopped.Load())
	assert.True(t, closed)
}

func TestRunnerReturnsFirstStartError(t *testing.T) {
	boom := errors.New("listen failed")
	failing := &fakeService{name: "http", startErr: boom}
	idle := &fakeService{name: "worker"}

	err := NewRunner(failing, idle).Run(context.Background(), time.Second, nil)
	assert.ErrorIs(t, err, boom)
	assert.True(t, idle.stopped.Load())
}

func TestRunnerWithoutServices(t *testing.T) {
	assert.Error(t, NewRunner().Run(context.Background(), time.Second, nil))
}

func TestBuildRunnerValidatesInput(t *testing.T) {
	_, err := BuildRunner(nil, ModeAll)
	assert.Error(t, err)

	_, err = BuildRunner(&config.Config{}, "cron")
	assert.EqualError(t, err, "unknown mode: cron")
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAll, mode)

	mode, err = ParseMode(" Worker ")
	require.NoError(t, err)
	assert.Equal(t, ModeWorker, mode)

	_, err = ParseMode("cron")
	assert.Error(t, err)
}

func TestHTTPServiceReportsBindError(t *testing.T) {
	svc := NewHTTPService("256.0.0.1:0", nil)
	assert.Error(t, svc.Start(context.Background()))
	assert.NoError(t, svc.Stop(context.Background()))
}

func TestNormalizeOptionsDefaults(t *testing.T) {
	opts := normalizeOptions(Options{})
	assert.Equal(t, ModeAll, opts.Mode)
	assert.Equal(t, 10*time.Second, opts.ShutdownTimeout)
	assert.NotNil(t, opts.Logger)
}
