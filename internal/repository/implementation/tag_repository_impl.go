package implementation

import (
	"context"

	"curator-bot/internal/model"
	"curator-bot/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TagRepositoryImpl struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) contract.TagRepository {
	return &TagRepositoryImpl{db: db}
}

func (r *TagRepositoryImpl) AddTags(ctx context.Context, recordID uuid.UUID, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	rows := make([]model.RecordTag, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, model.RecordTag{RecordId: recordID, Tag: t})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *TagRepositoryImpl) FindByRecordID(ctx context.Context, recordID uuid.UUID) ([]string, error) {
	var tags []string
	err := r.db.WithContext(ctx).
		Model(&model.RecordTag{}).
		Where("record_id = ?", recordID).
		Order("tag ASC").
		Pluck("tag", &tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *TagRepositoryImpl) DeleteByRecordID(ctx context.Context, recordID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("record_id = ?", recordID).Delete(&model.RecordTag{}).Error
}
