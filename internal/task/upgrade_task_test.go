package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citypages_202510/internal/api/dto"
	"citypages_202510/internal/service"
)

type fakeUpgrader struct {
	calls   int32
	limit   int
	err     error
	block   chan struct{}
	started chan struct{}
}

func (f *fakeUpgrader) UpgradeSpinnerPages(ctx context.Context, limit int) (*dto.UpgradeSummary, error) {
	atomic.AddInt32(&f.calls, 1)
	f.limit = limit
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return &dto.UpgradeSummary{Scanned: 3, Upgraded: 2}, nil
}

func TestUpgradeTask_Defaults(t *testing.T) {
	task := NewUpgradeTask(&fakeUpgrader{}, UpgradeTaskConfig{}, nil)

	assert.Equal(t, "0 */30 * * * *", task.cfg.Spec)
	assert.Equal(t, 20, task.cfg.Limit)
	assert.Equal(t, 10*time.Minute, task.cfg.Timeout)
}

func TestUpgradeTask_RunOnce(t *testing.T) {
	up := &fakeUpgrader{}
	task := NewUpgradeTask(up, UpgradeTaskConfig{Limit: 5}, nil)

	summary, err := task.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Upgraded)
	assert.Equal(t, 5, up.limit)
}

func TestUpgradeTask_RunOnce_Errors(t *testing.T) {
	task := NewUpgradeTask(&fakeUpgrader{err: service.ErrAIUnavailable}, UpgradeTaskConfig{}, nil)
	_, err := task.RunOnce(context.Background())
	assert.ErrorIs(t, err, service.ErrAIUnavailable)

	task = NewUpgradeTask(&fakeUpgrader{err: errors.New("db down")}, UpgradeTaskConfig{}, nil)
	_, err = task.RunOnce(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestUpgradeTask_RunOnce_SkipsOverlap(t *testing.T) {
	up := &fakeUpgrader{block: make(chan struct{}), started: make(chan struct{})}
	task := NewUpgradeTask(up, UpgradeTaskConfig{}, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = task.RunOnce(context.Background())
	}()
	<-up.started

	summary, err := task.RunOnce(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, summary)

	close(up.block)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&up.calls))
}

func TestUpgradeTask_Start(t *testing.T) {
	task := NewUpgradeTask(&fakeUpgrader{}, UpgradeTaskConfig{Spec: "not a cron"}, nil)
	assert.Error(t, task.Start())

	task = NewUpgradeTask(&fakeUpgrader{}, UpgradeTaskConfig{Spec: "0 0 3 * * *"}, nil)
	require.NoError(t, task.Start())
	assert.Len(t, task.cron.Entries(), 1)
	task.Stop()
}
