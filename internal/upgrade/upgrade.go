// Package upgrade 按版本执行数据升级并记录已应用的结构版本
package upgrade

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/haierkeys/note-registry-service/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"
)

// Migration 定义升级接口
type Migration interface {
	Version() string
	Description() string
	Up(ctx context.Context) error
}

// MigrationManager 升级管理器
type MigrationManager struct {
	repo       domain.SchemaRepository
	logger     *zap.Logger
	migrations []Migration
}

// NewMigrationManager 创建升级管理器
func NewMigrationManager(repo domain.SchemaRepository, logger *zap.Logger, migrations ...Migration) *MigrationManager {
	return &MigrationManager{
		repo:       repo,
		logger:     logger,
		migrations: migrations,
	}
}

// canonical 补齐 "v" 前缀, semver 库需要
func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// Run executes every migration newer than the recorded version and up to running,
// then records running as the schema version.
// Run 执行所有比已记录版本新且不超过 running 的升级, 然后记录 running
func (m *MigrationManager) Run(ctx context.Context, running string) error {
	runningVersion := canonical(running)
	if !semver.IsValid(runningVersion) {
		return fmt.Errorf("running version %q is not a valid semver", running)
	}

	stored, err := m.repo.GetSchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	lastVersion := canonical(stored)
	if lastVersion != "" && !semver.IsValid(lastVersion) {
		m.logger.Warn("recorded schema version is not a valid semver, running all migrations", zap.String("lastVersion", stored))
		lastVersion = ""
	}

	if lastVersion != "" {
		switch c := semver.Compare(runningVersion, lastVersion); {
		case c == 0:
			m.logger.Debug("schema is up to date", zap.String("version", runningVersion))
			return nil
		case c < 0:
			// 旧版本程序读取新结构, 不做降级
			m.logger.Warn("running version is older than the recorded schema version",
				zap.String("runningVersion", runningVersion),
				zap.String("lastVersion", lastVersion))
			return nil
		}
	}

	pending := make([]Migration, 0, len(m.migrations))
	for _, mig := range m.migrations {
		v := canonical(mig.Version())
		if !semver.IsValid(v) {
			return fmt.Errorf("migration %q has an invalid version", mig.Version())
		}
		if lastVersion != "" && semver.Compare(v, lastVersion) <= 0 {
			continue
		}
		if semver.Compare(v, runningVersion) > 0 {
			continue
		}
		pending = append(pending, mig)
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return semver.Compare(canonical(pending[i].Version()), canonical(pending[j].Version())) < 0
	})

	for _, mig := range pending {
		m.logger.Info("running migration",
			zap.String("version", mig.Version()),
			zap.String("description", mig.Description()))
		if err := mig.Up(ctx); err != nil {
			return fmt.Errorf("migration %s failed: %w", mig.Version(), err)
		}
		// 每个升级成功后立即记录, 失败重启时从断点继续
		if err := m.repo.SetSchemaVersion(ctx, canonical(mig.Version())); err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
	}

	if err := m.repo.SetSchemaVersion(ctx, runningVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	m.logger.Info("schema version recorded",
		zap.String("from", lastVersion),
		zap.String("to", runningVersion),
		zap.Int("migrations", len(pending)))
	return nil
}

// Execute 使用注册的升级脚本执行升级
func Execute(ctx context.Context, repo domain.SchemaRepository, running string, logger *zap.Logger) error {
	return NewMigrationManager(repo, logger, registered...).Run(ctx, running)
}

// registered 按版本登记的升级脚本
var registered []Migration
