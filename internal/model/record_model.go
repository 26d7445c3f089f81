package model

import (
	"time"

	"curator-bot/internal/entity"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Record struct {
	Id           uuid.UUID                                `gorm:"type:uuid;primaryKey"`
	Title        string                                   `gorm:"type:varchar(255);not null"`
	ShortSummary string                                   `gorm:"type:text"`
	FullSummary  string                                   `gorm:"type:text"`
	Status       string                                   `gorm:"type:varchar(16);not null;default:draft;index"`
	Metadata     datatypes.JSONType[entity.RecordMetadata] `gorm:"not null"`
	CreatedAt    time.Time                                `gorm:"autoCreateTime"`
	UpdatedAt    time.Time                                `gorm:"autoUpdateTime"`

	Images    []RecordImage    `gorm:"foreignKey:RecordId;constraint:OnDelete:CASCADE"`
	Videos    []RecordVideo    `gorm:"foreignKey:RecordId;constraint:OnDelete:CASCADE"`
	Documents []RecordDocument `gorm:"foreignKey:RecordId;constraint:OnDelete:CASCADE"`
	Tags      []RecordTag      `gorm:"foreignKey:RecordId;constraint:OnDelete:CASCADE"`
}

func (Record) TableName() string {
	return "records"
}

func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.Id == uuid.Nil {
		r.Id = uuid.New()
	}
	return nil
}

// Attachment is the shared row layout of the three per-kind attachment tables.
type Attachment struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	RecordId  uuid.UUID `gorm:"type:uuid;not null;index:,composite:record_order"`
	Url       string    `gorm:"type:text;not null"`
	SortOrder int       `gorm:"not null;index:,composite:record_order"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type RecordImage struct{ Attachment }
type RecordVideo struct{ Attachment }
type RecordDocument struct{ Attachment }

func (RecordImage) TableName() string    { return "record_images" }
func (RecordVideo) TableName() string    { return "record_videos" }
func (RecordDocument) TableName() string { return "record_documents" }

// AttachmentTable maps a media kind to its table.
func AttachmentTable(kind entity.MediaKind) string {
	switch kind {
	case entity.MediaKindVideo:
		return "record_videos"
	case entity.MediaKindDocument:
		return "record_documents"
	default:
		return "record_images"
	}
}

type RecordTag struct {
	RecordId  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Tag       string    `gorm:"type:varchar(64);primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (RecordTag) TableName() string {
	return "record_tags"
}

// All returns every model in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Record{},
		&RecordImage{},
		&RecordVideo{},
		&RecordDocument{},
		&RecordTag{},
	}
}
