package router

import (
	"context"
	"fmt"

	"curator-bot/internal/entity"
	"curator-bot/pkg/reference"
)

func (r *Router) VisitSelect(ctx context.Context, ev ButtonEvent, a SelectAction) error {
	id, err := r.codec.Decode(ctx, a.Prefix)
	if err != nil {
		return err
	}
	return r.showRecord(ctx, ev.ChatID, ev.MessageRef, id, "")
}

func (r *Router) VisitPage(ctx context.Context, ev ButtonEvent, a PageAction) error {
	// showList clamps past the last page
	return r.showList(ctx, ev.ChatID, ev.MessageRef, reference.PageIndex(a.Arg, 0))
}

func (r *Router) VisitBackToList(ctx context.Context, ev ButtonEvent, _ BackToListAction) error {
	return r.showList(ctx, ev.ChatID, ev.MessageRef, 0)
}

func (r *Router) VisitFinish(ctx context.Context, ev ButtonEvent, _ FinishAction) error {
	return r.finish(ctx, ev.ChatID, 0)
}

func (r *Router) VisitCancel(ctx context.Context, ev ButtonEvent, _ CancelAction) error {
	return r.cancel(ctx, ev.ChatID, ev.MessageRef)
}

func (r *Router) VisitSetDate(ctx context.Context, ev ButtonEvent, _ SetDateAction) error {
	return r.setMetadata(ctx, ev.ChatID, entity.DraftFieldDate, "")
}

func (r *Router) VisitSetLocation(ctx context.Context, ev ButtonEvent, _ SetLocationAction) error {
	return r.setMetadata(ctx, ev.ChatID, entity.DraftFieldLocation, "")
}

// VisitPublish saves the session's draft and publishes it in one go. The
// session ends only when both steps succeed.
func (r *Router) VisitPublish(ctx context.Context, ev ButtonEvent, _ PublishAction) error {
	s, err := r.requireSession(ctx, ev.ChatID)
	if err != nil {
		return err
	}
	if s.Draft == nil {
		return fmt.Errorf("%w: finish the draft before publishing", entity.ErrValidation)
	}

	record, err := r.finalize(ctx, s)
	if err != nil {
		return err
	}
	if _, err := r.lifecycle.Publish(ctx, record.Id); err != nil {
		r.logger.Error("Router", "Publish failed after save", map[string]interface{}{
			"chat_id":   ev.ChatID,
			"record_id": record.Id.String(),
			"error":     err.Error(),
		})
		notice := "Saved as draft, but publishing failed. Press Publish to try again."
		if showErr := r.showRecord(ctx, ev.ChatID, 0, record.Id, notice); showErr != nil {
			return showErr
		}
		return handledError{err: err}
	}
	r.endSession(ctx, ev.ChatID, record.Id)
	return r.showRecord(ctx, ev.ChatID, 0, record.Id, "Published.")
}

func (r *Router) VisitEditField(ctx context.Context, ev ButtonEvent, a EditFieldAction) error {
	s, err := r.requireEditable(ctx, ev.ChatID)
	if err != nil {
		return err
	}
	if s.Draft == nil {
		return fmt.Errorf("%w: there is no draft to edit yet", entity.ErrValidation)
	}

	field := entity.DraftFieldTitle
	switch a.Field {
	case EditShort:
		field = entity.DraftFieldShortSummary
	case EditFull:
		field = entity.DraftFieldFullSummary
	}
	return r.promptField(ctx, ev.ChatID, field)
}

func (r *Router) VisitRegenerate(ctx context.Context, ev ButtonEvent, _ RegenerateAction) error {
	s, err := r.requireEditable(ctx, ev.ChatID)
	if err != nil {
		return err
	}
	return r.compose(ctx, s, s.Draft != nil)
}

func (r *Router) VisitPublishRecord(ctx context.Context, ev ButtonEvent, a PublishRecordAction) error {
	id, err := r.codec.Decode(ctx, a.Prefix)
	if err != nil {
		return err
	}
	if _, err := r.lifecycle.Publish(ctx, id); err != nil {
		return err
	}
	return r.showRecord(ctx, ev.ChatID, ev.MessageRef, id, "")
}

func (r *Router) VisitUnpublishRecord(ctx context.Context, ev ButtonEvent, a UnpublishRecordAction) error {
	id, err := r.codec.Decode(ctx, a.Prefix)
	if err != nil {
		return err
	}
	if _, err := r.lifecycle.Unpublish(ctx, id); err != nil {
		return err
	}
	return r.showRecord(ctx, ev.ChatID, ev.MessageRef, id, "")
}

// VisitDeleteRecord only asks for confirmation; reject-record deletes.
func (r *Router) VisitDeleteRecord(ctx context.Context, ev ButtonEvent, a DeleteRecordAction) error {
	id, err := r.codec.Decode(ctx, a.Prefix)
	if err != nil {
		return err
	}
	detail, payloads, err := r.loadRecord(ctx, id)
	if err != nil {
		return err
	}
	return r.show(ctx, ev.ChatID, ev.MessageRef, deleteConfirmView(detail, payloads))
}

func (r *Router) VisitRejectRecord(ctx context.Context, ev ButtonEvent, a RejectRecordAction) error {
	id, err := r.codec.Decode(ctx, a.Prefix)
	if err != nil {
		return err
	}
	detail, err := r.lifecycle.Show(ctx, id)
	if err != nil {
		return err
	}
	if err := r.lifecycle.Reject(ctx, id); err != nil {
		return err
	}
	return r.show(ctx, ev.ChatID, ev.MessageRef, deletedView(detail.Record.Title))
}
