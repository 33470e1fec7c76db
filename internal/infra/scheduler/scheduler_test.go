package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"tienda/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPurger struct {
	calls int
	err   error
}

func (p *countingPurger) PurgeExpiredTokens(context.Context) (int64, error) {
	p.calls++

	return 2, p.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewCron_RejectsBadSpec(t *testing.T) {
	_, err := newCron("", discardLogger(), []Job{{Name: "bad", Spec: "not a spec", Run: func(context.Context) error { return nil }}})
	assert.Error(t, err)
}

func TestNewCron_RejectsBadLocation(t *testing.T) {
	_, err := newCron("Mars/Olympus", discardLogger(), nil)
	assert.Error(t, err)
}

func TestNewCron_RegistersJobs(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scheduler.TokenPurge = "@daily"

	sched, err := newCron("America/Mexico_City", discardLogger(), []Job{
		NewTokenPurgeJob(cfg, &countingPurger{}, discardLogger()),
	})
	require.NoError(t, err)
	assert.Len(t, sched.Entries(), 1)
}

func TestWrap_RunsJobAndSwallowsFailures(t *testing.T) {
	cfg := &config.Config{}
	purger := &countingPurger{}
	wrap(NewTokenPurgeJob(cfg, purger, discardLogger()), discardLogger())()
	assert.Equal(t, 1, purger.calls)

	failing := &countingPurger{err: errors.New("db down")}
	assert.NotPanics(t, wrap(NewTokenPurgeJob(cfg, failing, discardLogger()), discardLogger()))

	panicking := Job{Name: "boom", Run: func(context.Context) error { panic("boom") }}
	assert.NotPanics(t, wrap(panicking, discardLogger()))
}
