package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"curator-bot/internal/dto"
	"curator-bot/internal/entity"
	"curator-bot/internal/pkg/logger"
	"curator-bot/internal/repository/specification"
	"curator-bot/internal/repository/unitofwork"
	"curator-bot/pkg/draft"
	"curator-bot/pkg/events"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type ILifecycleService interface {
	Finalize(ctx context.Context, req *dto.FinalizeRecordRequest) (*entity.Record, error)
	Publish(ctx context.Context, id uuid.UUID) (*entity.Record, error)
	Unpublish(ctx context.Context, id uuid.UUID) (*entity.Record, error)
	Reject(ctx context.Context, id uuid.UUID) error
	Merge(ctx context.Context, ids []uuid.UUID) (*entity.RecordDetail, error)

	List(ctx context.Context) ([]*entity.Record, error)
	Stats(ctx context.Context) (*entity.RecordStats, error)
	Show(ctx context.Context, id uuid.UUID) (*entity.RecordDetail, error)
	ResolvePrefix(ctx context.Context, prefix string, limit int) ([]uuid.UUID, error)
}

type lifecycleService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	validate         *validator.Validate
	logger           logger.ILogger
}

func NewLifecycleService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	log logger.ILogger,
) ILifecycleService {
	return &lifecycleService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		validate:         validator.New(),
		logger:           log,
	}
}

// Finalize stores a composed draft and its media as one draft-status record.
func (s *lifecycleService) Finalize(ctx context.Context, req *dto.FinalizeRecordRequest) (*entity.Record, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrValidation, err)
	}
	if err := s.validate.Struct(req.Draft); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrValidation, err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, s.storageError("finalize", err, nil)
	}
	defer uow.Rollback()

	record := &entity.Record{
		Id:           uuid.New(),
		Title:        req.Draft.Title,
		ShortSummary: req.Draft.ShortSummary,
		FullSummary:  req.Draft.FullSummary,
		Status:       entity.RecordStatusDraft,
		Metadata:     req.Metadata,
		CreatedAt:    time.Now(),
	}
	if err := uow.RecordRepository().Create(ctx, record); err != nil {
		return nil, s.storageError("finalize", err, nil)
	}

	for _, kind := range entity.MediaKinds {
		refs := req.Media.ByKind(kind)
		attachments := make([]*entity.Attachment, 0, len(refs))
		for i, ref := range refs {
			attachments = append(attachments, &entity.Attachment{
				RecordId:  record.Id,
				Kind:      kind,
				Reference: ref,
				Order:     i,
			})
		}
		if err := uow.AttachmentRepository().CreateBulk(ctx, kind, attachments); err != nil {
			return nil, s.storageError("finalize", err, map[string]interface{}{"kind": kind})
		}
	}

	if err := uow.TagRepository().AddTags(ctx, record.Id, draft.NormalizeTags(req.Draft.Tags)); err != nil {
		return nil, s.storageError("finalize", err, nil)
	}

	if err := uow.Commit(); err != nil {
		return nil, s.storageError("finalize", err, nil)
	}

	s.logger.Info("LifecycleService", "Record finalized", map[string]interface{}{
		"record_id": record.Id.String(),
		"images":    len(req.Media.Photos),
		"videos":    len(req.Media.Videos),
		"documents": len(req.Media.Documents),
	})
	s.emit(ctx, events.RecordFinalized, record, nil)

	return record, nil
}

func (s *lifecycleService) Publish(ctx context.Context, id uuid.UUID) (*entity.Record, error) {
	return s.setStatus(ctx, id, entity.RecordStatusPublished, events.RecordPublished)
}

func (s *lifecycleService) Unpublish(ctx context.Context, id uuid.UUID) (*entity.Record, error) {
	return s.setStatus(ctx, id, entity.RecordStatusDraft, events.RecordUnpublished)
}

// setStatus flips the record status. Repeating a flip is a no-op that
// neither touches the row nor emits an event.
func (s *lifecycleService) setStatus(ctx context.Context, id uuid.UUID, status entity.RecordStatus, eventType string) (*entity.Record, error) {
	op := string(status)
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, s.storageError(op, err, nil)
	}
	defer uow.Rollback()

	record, err := uow.RecordRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, s.storageError(op, err, map[string]interface{}{"record_id": id.String()})
	}
	if record == nil {
		return nil, entity.ErrRecordNotFound
	}
	if record.Status == status {
		return record, nil
	}

	if err := uow.RecordRepository().UpdateStatus(ctx, id, status); err != nil {
		return nil, s.storageError(op, err, map[string]interface{}{"record_id": id.String()})
	}
	if err := uow.Commit(); err != nil {
		return nil, s.storageError(op, err, map[string]interface{}{"record_id": id.String()})
	}

	now := time.Now()
	record.Status = status
	record.UpdatedAt = &now

	s.logger.Info("LifecycleService", "Record status changed", map[string]interface{}{
		"record_id": id.String(),
		"status":    status,
	})
	s.emit(ctx, eventType, record, nil)

	return record, nil
}

// Reject deletes a record with all of its attachments and tags, or nothing.
func (s *lifecycleService) Reject(ctx context.Context, id uuid.UUID) error {
	details := map[string]interface{}{"record_id": id.String()}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return s.storageError("reject", err, details)
	}
	defer uow.Rollback()

	record, err := uow.RecordRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return s.storageError("reject", err, details)
	}
	if record == nil {
		return entity.ErrRecordNotFound
	}

	if err := deleteRecordTree(ctx, uow, id); err != nil {
		return s.storageError("reject", err, details)
	}

	if err := uow.Commit(); err != nil {
		return s.storageError("reject", err, details)
	}

	s.logger.Info("LifecycleService", "Record rejected", details)
	s.emit(ctx, events.RecordRejected, record, nil)
	return nil
}

// Merge folds every record after ids[0] into ids[0]: attachments continue the
// primary's order per kind, tags are unioned, full summaries are joined with a
// blank line and the folded records are deleted. All of it commits or none.
func (s *lifecycleService) Merge(ctx context.Context, ids []uuid.UUID) (*entity.RecordDetail, error) {
	ids = uniqueIDs(ids)
	if len(ids) < 2 {
		return nil, fmt.Errorf("%w: merge needs at least two distinct records", entity.ErrValidation)
	}
	primaryID, others := ids[0], ids[1:]
	details := map[string]interface{}{"primary_id": primaryID.String(), "merged": len(others)}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, s.storageError("merge", err, details)
	}
	defer uow.Rollback()

	records, err := uow.RecordRepository().FindAll(ctx, specification.ByIDs{IDs: ids})
	if err != nil {
		return nil, s.storageError("merge", err, details)
	}
	byID := make(map[uuid.UUID]*entity.Record, len(records))
	for _, r := range records {
		byID[r.Id] = r
	}
	for _, id := range ids {
		if byID[id] == nil {
			return nil, fmt.Errorf("%w: %s", entity.ErrRecordNotFound, id)
		}
	}
	primary := byID[primaryID]

	for _, kind := range entity.MediaKinds {
		last, err := uow.AttachmentRepository().MaxOrder(ctx, kind, primaryID)
		if err != nil {
			return nil, s.storageError("merge", err, details)
		}
		next := last + 1

		sourceAttachments, err := uow.AttachmentRepository().FindAll(ctx, kind,
			specification.ByRecordIDs{RecordIDs: others},
			specification.OrderBy{Field: "sort_order"},
			specification.OrderBy{Field: "id"},
		)
		if err != nil {
			return nil, s.storageError("merge", err, details)
		}
		bySource := make(map[uuid.UUID][]*entity.Attachment, len(others))
		for _, a := range sourceAttachments {
			bySource[a.RecordId] = append(bySource[a.RecordId], a)
		}

		for _, otherID := range others {
			for _, a := range bySource[otherID] {
				if err := uow.AttachmentRepository().Reassign(ctx, kind, a.Id, primaryID, next); err != nil {
					return nil, s.storageError("merge", err, details)
				}
				next++
			}
		}
	}

	summaries := make([]string, 0, len(ids))
	if strings.TrimSpace(primary.FullSummary) != "" {
		summaries = append(summaries, primary.FullSummary)
	}
	for _, otherID := range others {
		other := byID[otherID]

		tags, err := uow.TagRepository().FindByRecordID(ctx, otherID)
		if err != nil {
			return nil, s.storageError("merge", err, details)
		}
		if err := uow.TagRepository().AddTags(ctx, primaryID, tags); err != nil {
			return nil, s.storageError("merge", err, details)
		}

		if strings.TrimSpace(other.FullSummary) != "" {
			summaries = append(summaries, other.FullSummary)
		}
		if primary.Metadata.Date == "" {
			primary.Metadata.Date = other.Metadata.Date
		}
		if primary.Metadata.Location == "" {
			primary.Metadata.Location = other.Metadata.Location
		}
	}
	primary.FullSummary = strings.Join(summaries, "\n\n")

	if err := uow.RecordRepository().Update(ctx, primary); err != nil {
		return nil, s.storageError("merge", err, details)
	}

	for _, otherID := range others {
		if err := deleteRecordTree(ctx, uow, otherID); err != nil {
			return nil, s.storageError("merge", err, details)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, s.storageError("merge", err, details)
	}

	s.logger.Info("LifecycleService", "Records merged", details)

	mergedIDs := make([]string, 0, len(others))
	for _, id := range others {
		mergedIDs = append(mergedIDs, id.String())
	}
	s.emit(ctx, events.RecordMerged, primary, map[string]interface{}{"merged_ids": mergedIDs})

	return s.Show(ctx, primaryID)
}

// List returns every record, newest first.
func (s *lifecycleService) List(ctx context.Context) ([]*entity.Record, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	records, err := uow.RecordRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.OrderBy{Field: "id"},
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Stats counts records per status.
func (s *lifecycleService) Stats(ctx context.Context) (*entity.RecordStats, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	drafts, err := uow.RecordRepository().Count(ctx, specification.ByStatus{Status: entity.RecordStatusDraft})
	if err != nil {
		return nil, fmt.Errorf("count drafts: %w", err)
	}
	published, err := uow.RecordRepository().Count(ctx, specification.ByStatus{Status: entity.RecordStatusPublished})
	if err != nil {
		return nil, fmt.Errorf("count published: %w", err)
	}
	return &entity.RecordStats{Drafts: drafts, Published: published}, nil
}

func (s *lifecycleService) Show(ctx context.Context, id uuid.UUID) (*entity.RecordDetail, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	record, err := uow.RecordRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, fmt.Errorf("show record: %w", err)
	}
	if record == nil {
		return nil, entity.ErrRecordNotFound
	}

	detail := &entity.RecordDetail{Record: record}
	for _, kind := range entity.MediaKinds {
		attachments, err := uow.AttachmentRepository().FindAll(ctx, kind,
			specification.ByRecordID{RecordID: id},
			specification.OrderBy{Field: "sort_order"},
		)
		if err != nil {
			return nil, fmt.Errorf("show record attachments: %w", err)
		}
		switch kind {
		case entity.MediaKindImage:
			detail.Images = attachments
		case entity.MediaKindVideo:
			detail.Videos = attachments
		case entity.MediaKindDocument:
			detail.Documents = attachments
		}
	}

	detail.Tags, err = uow.TagRepository().FindByRecordID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("show record tags: %w", err)
	}
	return detail, nil
}

// ResolvePrefix returns up to limit ids starting with prefix, smallest first.
func (s *lifecycleService) ResolvePrefix(ctx context.Context, prefix string, limit int) ([]uuid.UUID, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	records, err := uow.RecordRepository().FindAll(ctx,
		specification.ByIDPrefix{Prefix: prefix},
		specification.OrderBy{Field: "id"},
		specification.Limit{N: limit},
	)
	if err != nil {
		return nil, fmt.Errorf("resolve reference: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.Id)
	}
	return ids, nil
}

func deleteRecordTree(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) error {
	for _, kind := range entity.MediaKinds {
		if err := uow.AttachmentRepository().DeleteByRecordID(ctx, kind, id); err != nil {
			return err
		}
	}
	if err := uow.TagRepository().DeleteByRecordID(ctx, id); err != nil {
		return err
	}
	return uow.RecordRepository().Delete(ctx, id)
}

// storageError logs a failed lifecycle step and classifies it. Lookups that
// found nothing keep their own sentinel; everything else is a failed
// transaction the operator may retry.
func (s *lifecycleService) storageError(op string, err error, details map[string]interface{}) error {
	if errors.Is(err, entity.ErrRecordNotFound) {
		return err
	}

	fields := map[string]interface{}{"operation": op, "error": err}
	for k, v := range details {
		fields[k] = v
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		fields["pg_code"] = pgErr.Code
		fields["pg_constraint"] = pgErr.ConstraintName
	}
	s.logger.Error("LifecycleService", "Lifecycle transaction failed", fields)

	return fmt.Errorf("%s: %w: %w", op, entity.ErrTransactionFailed, err)
}

// emit publishes after commit; a failed publish is logged and never undoes the change.
func (s *lifecycleService) emit(ctx context.Context, eventType string, record *entity.Record, extra map[string]interface{}) {
	if s.publisherService == nil {
		return
	}

	data := map[string]interface{}{
		"record_id":     record.Id.String(),
		"title":         record.Title,
		"short_summary": record.ShortSummary,
		"status":        string(record.Status),
	}
	for k, v := range extra {
		data[k] = v
	}

	evt := events.BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
	if err := s.publisherService.Publish(ctx, evt); err != nil {
		s.logger.Warn("LifecycleService", "Lifecycle event dropped", map[string]interface{}{
			"event_type": eventType,
			"record_id":  record.Id.String(),
			"error":      err.Error(),
		})
	}
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
