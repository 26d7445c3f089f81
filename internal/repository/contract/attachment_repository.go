package contract

import (
	"context"

	"curator-bot/internal/entity"
	"curator-bot/internal/repository/specification"

	"github.com/google/uuid"
)

// AttachmentRepository stores ordered media rows; every call is scoped to one media kind.
type AttachmentRepository interface {
	CreateBulk(ctx context.Context, kind entity.MediaKind, attachments []*entity.Attachment) error
	FindAll(ctx context.Context, kind entity.MediaKind, specs ...specification.Specification) ([]*entity.Attachment, error)
	// MaxOrder returns -1 when the record has no attachments of this kind.
	MaxOrder(ctx context.Context, kind entity.MediaKind, recordID uuid.UUID) (int, error)
	Reassign(ctx context.Context, kind entity.MediaKind, id, recordID uuid.UUID, order int) error
	DeleteByRecordID(ctx context.Context, kind entity.MediaKind, recordID uuid.UUID) error
}
