package entity

import (
	"time"

	"github.com/google/uuid"
)

type RecordStatus string
type MediaKind string

const (
	RecordStatusDraft     RecordStatus = "draft"
	RecordStatusPublished RecordStatus = "published"

	MediaKindImage    MediaKind = "image"
	MediaKindVideo    MediaKind = "video"
	MediaKindDocument MediaKind = "document"
)

// MediaKinds lists every attachment kind in the order records render them.
var MediaKinds = []MediaKind{MediaKindImage, MediaKindVideo, MediaKindDocument}

type RecordMetadata struct {
	Date     string `json:"date,omitempty"`
	Location string `json:"location,omitempty"`
}

type Record struct {
	Id           uuid.UUID
	Title        string
	ShortSummary string
	FullSummary  string
	Status       RecordStatus
	Metadata     RecordMetadata
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

type Attachment struct {
	Id        uuid.UUID
	RecordId  uuid.UUID
	Kind      MediaKind
	Reference string
	Order     int
	CreatedAt time.Time
}

// RecordDetail is a record with its ordered attachments and tag set.
type RecordStats struct {
	Drafts    int64
	Published int64
}

type RecordDetail struct {
	Record    *Record
	Images    []*Attachment
	Videos    []*Attachment
	Documents []*Attachment
	Tags      []string
}

func (d *RecordDetail) Attachments(kind MediaKind) []*Attachment {
	switch kind {
	case MediaKindImage:
		return d.Images
	case MediaKindVideo:
		return d.Videos
	case MediaKindDocument:
		return d.Documents
	}
	return nil
}
