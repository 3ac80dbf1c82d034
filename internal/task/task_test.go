package task

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haierkeys/note-registry-service/internal/app"
	"github.com/haierkeys/note-registry-service/internal/service"
	"github.com/haierkeys/note-registry-service/pkg/safe_close"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T, mutate func(cfg *app.AppConfig)) *app.App {
	t.Helper()
	cfg, err := app.ParseConfig([]byte("database:\n  type: memory\n"))
	require.NoError(t, err)
	if mutate != nil {
		mutate(cfg)
	}
	a, err := app.NewApp(cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(nil) })
	return a
}

func taskNames(tasks []Task) []string {
	names := make([]string, 0, len(tasks))
	for _, t := range tasks {
		names = append(names, t.Name())
	}
	return names
}

func TestManager_RegisterTasks(t *testing.T) {
	a := newTestApp(t, nil)
	m := NewManager(zap.NewNop(), safe_close.NewSafeClose(), a)
	require.NoError(t, m.RegisterTasks())

	// snapshot is off by default
	assert.ElementsMatch(t, []string{"RegistryStats"}, taskNames(m.Tasks()))
}

func TestManager_StatsDisabled(t *testing.T) {
	a := newTestApp(t, func(cfg *app.AppConfig) {
		cfg.Registry.StatsInterval = "0"
		cfg.Snapshot.Enabled = true
		cfg.Snapshot.Storage.SavePath = t.TempDir()
	})
	m := NewManager(zap.NewNop(), safe_close.NewSafeClose(), a)
	require.NoError(t, m.RegisterTasks())

	assert.ElementsMatch(t, []string{"RegistrySnapshot"}, taskNames(m.Tasks()))
}

func TestNewRegistrySnapshotTask_InvalidCron(t *testing.T) {
	a := newTestApp(t, func(cfg *app.AppConfig) {
		cfg.Snapshot.Enabled = true
		cfg.Snapshot.Cron = "every day"
	})
	_, err := NewRegistrySnapshotTask(a)
	assert.Error(t, err)
}

func TestRegistrySnapshotTask_RunsWhenDue(t *testing.T) {
	dir := t.TempDir()
	a := newTestApp(t, func(cfg *app.AppConfig) {
		cfg.Snapshot.Enabled = true
		cfg.Snapshot.Cron = "0 3 * * *"
		cfg.Snapshot.Storage.SavePath = dir
	})
	ctx := context.Background()
	_, _, err := a.RegistryService.Create(ctx, "alice", []byte("cid"))
	require.NoError(t, err)

	created, err := NewRegistrySnapshotTask(a)
	require.NoError(t, err)
	task := created.(*RegistrySnapshotTask)

	clock := time.Date(2026, 1, 1, 1, 0, 0, 0, time.Local)
	task.now = func() time.Time { return clock }

	// first run only schedules
	require.NoError(t, task.Run(ctx))
	assert.Equal(t, time.Date(2026, 1, 1, 3, 0, 0, 0, time.Local), task.nextRun)

	// not yet due
	clock = clock.Add(time.Hour)
	require.NoError(t, task.Run(ctx))
	files, _ := filepath.Glob(filepath.Join(dir, SnapshotKeyPrefix, "*.json"))
	assert.Empty(t, files)

	clock = time.Date(2026, 1, 1, 3, 0, 30, 0, time.Local)
	require.NoError(t, task.Run(ctx))
	assert.Equal(t, time.Date(2026, 1, 2, 3, 0, 0, 0, time.Local), task.nextRun)

	files, err = filepath.Glob(filepath.Join(dir, SnapshotKeyPrefix, "*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	raw, err := os.ReadFile(files[0])
	require.NoError(t, err)
	var snap service.SnapshotDTO
	require.NoError(t, sonic.Unmarshal(raw, &snap))
	assert.Equal(t, uint32(1), snap.NextID)
	require.Len(t, snap.Notes, 1)
	assert.Equal(t, "alice", snap.Notes[0].Owner)
}

func TestRegistryStatsTask_Run(t *testing.T) {
	a := newTestApp(t, nil)
	created, err := NewRegistryStatsTask(a)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, time.Minute, created.LoopInterval())
	assert.NoError(t, created.Run(context.Background()))
}

type countingTask struct {
	runs atomic.Int32
}

func (c *countingTask) Name() string                { return "counting" }
func (c *countingTask) LoopInterval() time.Duration { return 5 * time.Millisecond }
func (c *countingTask) IsStartupRun() bool          { return true }
func (c *countingTask) Run(ctx context.Context) error {
	if c.runs.Add(1) == 2 {
		panic("second run")
	}
	return nil
}

func TestScheduler_RunsAndStops(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)
	task := &countingTask{}
	s.AddTask(task)
	s.Start()

	assert.Eventually(t, func() bool { return task.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)

	sc.SendCloseSignal(nil)
	assert.NoError(t, sc.WaitClosed())
}
