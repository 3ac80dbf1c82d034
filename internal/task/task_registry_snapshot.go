package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/note-registry-service/internal/app"
	"github.com/haierkeys/note-registry-service/internal/service"
	"github.com/haierkeys/note-registry-service/pkg/code"
	"github.com/haierkeys/note-registry-service/pkg/storage"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SnapshotKeyPrefix 快照对象的存储前缀
const SnapshotKeyPrefix = "snapshots"

// RegistrySnapshotTask 按 cron 表达式把注册表快照上传到配置的存储
type RegistrySnapshotTask struct {
	app      *app.App
	logger   *zap.Logger
	schedule cron.Schedule
	storager storage.Storager

	mu      sync.Mutex
	nextRun time.Time
	now     func() time.Time
}

// Name returns the task name
func (t *RegistrySnapshotTask) Name() string {
	return "RegistrySnapshot"
}

// LoopInterval 每分钟检查一次是否到达 cron 时间
func (t *RegistrySnapshotTask) LoopInterval() time.Duration {
	return time.Minute
}

// IsStartupRun 启动时计算第一次执行时间
func (t *RegistrySnapshotTask) IsStartupRun() bool {
	return true
}

// Run 到达计划时间时导出一次快照
func (t *RegistrySnapshotTask) Run(ctx context.Context) error {
	t.mu.Lock()
	now := t.now()
	if t.nextRun.IsZero() {
		t.nextRun = t.schedule.Next(now)
		t.logger.Info("registry snapshot scheduled", zap.Time("nextRun", t.nextRun))
		t.mu.Unlock()
		return nil
	}
	if now.Before(t.nextRun) {
		t.mu.Unlock()
		return nil
	}
	t.nextRun = t.schedule.Next(now)
	t.mu.Unlock()

	return t.app.SubmitTask(ctx, func(ctx context.Context) error {
		key, err := UploadSnapshot(ctx, t.app.RegistryService, t.storager, now)
		if err != nil {
			return err
		}
		t.logger.Info("registry snapshot uploaded", zap.String("key", key))
		return nil
	})
}

// SnapshotKey 返回 at 时刻快照对象的存储路径
func SnapshotKey(at time.Time) string {
	return fmt.Sprintf("%s/%s-%s.json", SnapshotKeyPrefix, at.UTC().Format("20060102-150405"), uuid.NewString()[:8])
}

// UploadSnapshot 导出快照并写入存储, 返回存储返回的路径
func UploadSnapshot(ctx context.Context, svc service.RegistryService, storager storage.Storager, at time.Time) (string, error) {
	snap, err := svc.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	content, err := sonic.Marshal(snap)
	if err != nil {
		return "", errors.Wrap(err, "marshal snapshot")
	}

	dst, err := storager.SendContent(SnapshotKey(at), content, at)
	if err != nil {
		return "", code.ErrorSnapshotUpload.WithDetails(err.Error())
	}
	return dst, nil
}

// NewRegistrySnapshotTask 创建快照任务, snapshot.enabled 为 false 时不启用
func NewRegistrySnapshotTask(appContainer *app.App) (Task, error) {
	cfg := appContainer.Config().Snapshot
	if !cfg.Enabled {
		return nil, nil
	}

	schedule, err := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(cfg.Cron)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid snapshot cron %q", cfg.Cron)
	}

	storager, err := storage.NewClient(&cfg.Storage, appContainer.Logger())
	if err != nil {
		return nil, errors.Wrap(err, "snapshot storage")
	}

	return &RegistrySnapshotTask{
		app:      appContainer,
		logger:   appContainer.Logger(),
		schedule: schedule,
		storager: storager,
		now:      time.Now,
	}, nil
}

func init() {
	RegisterWithApp(NewRegistrySnapshotTask)
}
