package implementation

import (
	"context"

	"curator-bot/internal/entity"
	"curator-bot/internal/mapper"
	"curator-bot/internal/model"
	"curator-bot/internal/repository/contract"
	"curator-bot/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttachmentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AttachmentMapper
}

func NewAttachmentRepository(db *gorm.DB) contract.AttachmentRepository {
	return &AttachmentRepositoryImpl{
		db:     db,
		mapper: mapper.NewAttachmentMapper(),
	}
}

func (r *AttachmentRepositoryImpl) table(ctx context.Context, kind entity.MediaKind) *gorm.DB {
	return r.db.WithContext(ctx).Table(model.AttachmentTable(kind))
}

func (r *AttachmentRepositoryImpl) CreateBulk(ctx context.Context, kind entity.MediaKind, attachments []*entity.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}

	models := make([]*model.Attachment, 0, len(attachments))
	for _, a := range attachments {
		if a.Id == uuid.Nil {
			a.Id = uuid.New()
		}
		models = append(models, r.mapper.ToModel(a))
	}

	if err := r.table(ctx, kind).Create(&models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*attachments[i] = *r.mapper.ToEntity(kind, m)
	}
	return nil
}

func (r *AttachmentRepositoryImpl) FindAll(ctx context.Context, kind entity.MediaKind, specs ...specification.Specification) ([]*entity.Attachment, error) {
	var models []*model.Attachment
	query := r.table(ctx, kind)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	res := make([]*entity.Attachment, 0, len(models))
	for _, m := range models {
		res = append(res, r.mapper.ToEntity(kind, m))
	}
	return res, nil
}

func (r *AttachmentRepositoryImpl) MaxOrder(ctx context.Context, kind entity.MediaKind, recordID uuid.UUID) (int, error) {
	var max int
	err := r.table(ctx, kind).
		Where("record_id = ?", recordID).
		Select("COALESCE(MAX(sort_order), -1)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}

func (r *AttachmentRepositoryImpl) Reassign(ctx context.Context, kind entity.MediaKind, id, recordID uuid.UUID, order int) error {
	res := r.table(ctx, kind).
		Where("id = ?", id).
		Updates(map[string]interface{}{"record_id": recordID, "sort_order": order})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return entity.ErrRecordNotFound
	}
	return nil
}

func (r *AttachmentRepositoryImpl) DeleteByRecordID(ctx context.Context, kind entity.MediaKind, recordID uuid.UUID) error {
	return r.table(ctx, kind).Where("record_id = ?", recordID).Delete(&model.Attachment{}).Error
}
