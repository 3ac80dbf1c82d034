// Package model 定义数据模型
package model

import (
	"gorm.io/gorm"
)

// AutoMigrate 创建或更新注册表相关的表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&RegistryCounter{},
		&RegistryNote{},
		&RegistryEvent{},
		&RegistryMeta{},
	)
}
