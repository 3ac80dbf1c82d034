package task

import (
	"github.com/haierkeys/note-registry-service/internal/app"
	"github.com/haierkeys/note-registry-service/pkg/safe_close"

	"go.uber.org/zap"
)

// Manager 任务管理器,负责创建和管理所有任务
type Manager struct {
	scheduler *Scheduler
	logger    *zap.Logger
	app       *app.App
}

// NewManager 创建任务管理器
func NewManager(logger *zap.Logger, sc *safe_close.SafeClose, appContainer *app.App) *Manager {
	return &Manager{
		scheduler: NewScheduler(logger, sc),
		logger:    logger,
		app:       appContainer,
	}
}

// RegisterTasks 通过已注册的工厂创建任务并加入调度器
// 某个任务创建失败不影响其他任务
func (m *Manager) RegisterTasks() error {
	var firstErr error
	for _, factory := range GetFactories() {
		t, err := factory(m.app)
		if err != nil {
			m.logger.Warn("failed to create task", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if t == nil {
			continue
		}
		m.scheduler.AddTask(t)
	}
	return firstErr
}

// Tasks 返回已加入调度器的任务
func (m *Manager) Tasks() []Task {
	return m.scheduler.tasks
}

// Start 启动所有已注册的任务
func (m *Manager) Start() {
	m.scheduler.Start()
}
