package mapper

import (
	"time"

	"curator-bot/internal/entity"
	"curator-bot/internal/model"

	"gorm.io/datatypes"
)

type RecordMapper struct{}

func NewRecordMapper() *RecordMapper {
	return &RecordMapper{}
}

func (m *RecordMapper) ToEntity(r *model.Record) *entity.Record {
	if r == nil {
		return nil
	}

	var updatedAt *time.Time
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		updatedAt = &t
	}

	return &entity.Record{
		Id:           r.Id,
		Title:        r.Title,
		ShortSummary: r.ShortSummary,
		FullSummary:  r.FullSummary,
		Status:       entity.RecordStatus(r.Status),
		Metadata:     r.Metadata.Data(),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *RecordMapper) ToModel(r *entity.Record) *model.Record {
	if r == nil {
		return nil
	}

	var updatedAt time.Time
	if r.UpdatedAt != nil {
		updatedAt = *r.UpdatedAt
	}

	return &model.Record{
		Id:           r.Id,
		Title:        r.Title,
		ShortSummary: r.ShortSummary,
		FullSummary:  r.FullSummary,
		Status:       string(r.Status),
		Metadata:     datatypes.NewJSONType(r.Metadata),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *RecordMapper) ToEntities(records []*model.Record) []*entity.Record {
	res := make([]*entity.Record, 0, len(records))
	for _, r := range records {
		res = append(res, m.ToEntity(r))
	}
	return res
}

type AttachmentMapper struct{}

func NewAttachmentMapper() *AttachmentMapper {
	return &AttachmentMapper{}
}

func (m *AttachmentMapper) ToEntity(kind entity.MediaKind, a *model.Attachment) *entity.Attachment {
	if a == nil {
		return nil
	}
	return &entity.Attachment{
		Id:        a.Id,
		RecordId:  a.RecordId,
		Kind:      kind,
		Reference: a.Url,
		Order:     a.SortOrder,
		CreatedAt: a.CreatedAt,
	}
}

func (m *AttachmentMapper) ToModel(a *entity.Attachment) *model.Attachment {
	if a == nil {
		return nil
	}
	return &model.Attachment{
		Id:        a.Id,
		RecordId:  a.RecordId,
		Url:       a.Reference,
		SortOrder: a.Order,
		CreatedAt: a.CreatedAt,
	}
}
