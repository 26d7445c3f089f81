package dto

import "curator-bot/internal/entity"

type FinalizeRecordRequest struct {
	Draft    *entity.Draft `validate:"required"`
	Media    entity.MediaRefs
	Metadata entity.RecordMetadata
}

// RecordListItem is one row of the record browser.
type RecordListItem struct {
	Record *entity.Record
	Label  string
}
