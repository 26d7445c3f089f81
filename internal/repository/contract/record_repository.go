package contract

import (
	"context"

	"curator-bot/internal/entity"
	"curator-bot/internal/repository/specification"

	"github.com/google/uuid"
)

type RecordRepository interface {
	Create(ctx context.Context, record *entity.Record) error
	Update(ctx context.Context, record *entity.Record) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.RecordStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Record, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Record, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
