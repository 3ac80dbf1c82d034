package task

import (
	"context"
	"time"

	"github.com/haierkeys/note-registry-service/internal/app"
	"github.com/haierkeys/note-registry-service/pkg/convert"

	"go.uber.org/zap"
)

// RegistryStatsTask 定期刷新注册表统计指标
type RegistryStatsTask struct {
	app      *app.App
	logger   *zap.Logger
	interval time.Duration
}

// Name returns the task name
func (t *RegistryStatsTask) Name() string {
	return "RegistryStats"
}

// LoopInterval returns the execution interval
func (t *RegistryStatsTask) LoopInterval() time.Duration {
	return t.interval
}

// IsStartupRun returns whether to run on startup
func (t *RegistryStatsTask) IsStartupRun() bool {
	return true
}

// Run 读取统计并写入 prometheus gauge
func (t *RegistryStatsTask) Run(ctx context.Context) error {
	stats, err := t.app.RegistryService.Stats(ctx)
	if err != nil {
		return err
	}

	fields, err := convert.StructToMap(stats)
	if err != nil {
		return err
	}
	t.logger.Info("registry stats", zap.Any("stats", fields))
	return nil
}

// NewRegistryStatsTask 创建统计任务, registry.stats-interval 为 0 时不启用
func NewRegistryStatsTask(appContainer *app.App) (Task, error) {
	interval := appContainer.Config().GetStatsInterval()
	if interval <= 0 {
		appContainer.Logger().Info("registry stats task is disabled (stats-interval not configured)")
		return nil, nil
	}
	return &RegistryStatsTask{
		app:      appContainer,
		logger:   appContainer.Logger(),
		interval: interval,
	}, nil
}

func init() {
	RegisterWithApp(NewRegistryStatsTask)
}
