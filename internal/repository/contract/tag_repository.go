package contract

import (
	"context"

	"github.com/google/uuid"
)

type TagRepository interface {
	// AddTags ignores tags the record already carries.
	AddTags(ctx context.Context, recordID uuid.UUID, tags []string) error
	FindByRecordID(ctx context.Context, recordID uuid.UUID) ([]string, error)
	DeleteByRecordID(ctx context.Context, recordID uuid.UUID) error
}
