package specification

import (
	"curator-bot/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByIDPrefix matches records whose textual id starts with Prefix.
// Callers must pass a prefix already restricted to [0-9a-f-].
type ByIDPrefix struct {
	Prefix string
}

func (s ByIDPrefix) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("CAST(id AS TEXT) LIKE ?", s.Prefix+"%")
}

type ByStatus struct {
	Status entity.RecordStatus
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", string(s.Status))
}

// ByRecordID filters child rows (attachments, tags) by owning record.
type ByRecordID struct {
	RecordID uuid.UUID
}

func (s ByRecordID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("record_id = ?", s.RecordID)
}

type ByRecordIDs struct {
	RecordIDs []uuid.UUID
}

func (s ByRecordIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("record_id IN ?", s.RecordIDs)
}
