package unitofwork

import (
	"context"

	"curator-bot/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	RecordRepository() contract.RecordRepository
	AttachmentRepository() contract.AttachmentRepository
	TagRepository() contract.TagRepository
}
