package dao

import (
	"context"

	"github.com/haierkeys/note-registry-service/internal/domain"
	"github.com/haierkeys/note-registry-service/internal/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const metaSchemaVersion = "schema_version"

// schemaRepository 实现 domain.SchemaRepository 接口
type schemaRepository struct {
	dao *Dao
}

// NewSchemaRepository 创建 SchemaRepository 实例
func NewSchemaRepository(dao *Dao) domain.SchemaRepository {
	return &schemaRepository{dao: dao}
}

func (r *schemaRepository) GetSchemaVersion(ctx context.Context) (string, error) {
	var m model.RegistryMeta
	err := r.dao.WithContext(ctx).Where("meta_key = ?", metaSchemaVersion).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.Value, nil
}

func (r *schemaRepository) SetSchemaVersion(ctx context.Context, version string) error {
	return r.dao.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "meta_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"meta_value"}),
	}).Create(&model.RegistryMeta{Key: metaSchemaVersion, Value: version}).Error
}
