package router

import (
	"context"
	"fmt"

	"curator-bot/pkg/reference"
)

// Action is a decoded button press. Each variant is handled by exactly one
// ActionVisitor method.
type Action interface {
	accept(ctx context.Context, v ActionVisitor, ev ButtonEvent) error
}

type ActionVisitor interface {
	VisitSelect(ctx context.Context, ev ButtonEvent, a SelectAction) error
	VisitPage(ctx context.Context, ev ButtonEvent, a PageAction) error
	VisitBackToList(ctx context.Context, ev ButtonEvent, a BackToListAction) error
	VisitFinish(ctx context.Context, ev ButtonEvent, a FinishAction) error
	VisitCancel(ctx context.Context, ev ButtonEvent, a CancelAction) error
	VisitSetDate(ctx context.Context, ev ButtonEvent, a SetDateAction) error
	VisitSetLocation(ctx context.Context, ev ButtonEvent, a SetLocationAction) error
	VisitPublish(ctx context.Context, ev ButtonEvent, a PublishAction) error
	VisitEditField(ctx context.Context, ev ButtonEvent, a EditFieldAction) error
	VisitRegenerate(ctx context.Context, ev ButtonEvent, a RegenerateAction) error
	VisitPublishRecord(ctx context.Context, ev ButtonEvent, a PublishRecordAction) error
	VisitUnpublishRecord(ctx context.Context, ev ButtonEvent, a UnpublishRecordAction) error
	VisitDeleteRecord(ctx context.Context, ev ButtonEvent, a DeleteRecordAction) error
	VisitRejectRecord(ctx context.Context, ev ButtonEvent, a RejectRecordAction) error
}

type (
	SelectAction          struct{ Prefix string }
	PageAction            struct{ Arg string }
	BackToListAction      struct{}
	FinishAction          struct{}
	CancelAction          struct{}
	SetDateAction         struct{}
	SetLocationAction     struct{}
	PublishAction         struct{}
	RegenerateAction      struct{}
	PublishRecordAction   struct{ Prefix string }
	UnpublishRecordAction struct{ Prefix string }
	DeleteRecordAction    struct{ Prefix string }
	RejectRecordAction    struct{ Prefix string }
)

// EditFieldAction covers edit-title, edit-short and edit-full.
type EditFieldAction struct {
	Field EditableField
}

type EditableField string

const (
	EditTitle EditableField = "title"
	EditShort EditableField = "short"
	EditFull  EditableField = "full"
)

func (a SelectAction) accept(ctx context.Context, v ActionVisitor, ev ButtonEvent) error {
	return v.VisitSelect(ctx, ev, a)
}

func (a PageAction) accept(ctx context.Context, v ActionVisitor, ev ButtonEvent) error {
	return v.VisitPage(ctx, ev, a)
}

func (a BackToListAction) accept(ctx context.Context, v ActionVisitor, ev ButtonEvent) error {
	return v.VisitBackToList(ctx, ev, a)
}

func (a FinishAction) accept(ctx context.Context, v ActionVisitor, ev ButtonEvent) error {
	return v.VisitFinish(ctx, ev, a)
}

func (a CancelAction) accept(ctx context.Context, v ActionVisitor, ev ButtonEvent) error {
	return v.VisitCancel(ctx, ev, a)
}

func (a SetDateAction) accept(ctx context.Context, v ActionVisitor, ev ButtonEvent) error {
	return v.VisitSetDate(ctx, ev, a)
}

func (a SetLocationAction) accept(ctx context.Context, v ActionVisitor, ev ButtonEvent) error {
	return v.VisitSetLocation(ctx, ev, a)
}

func (a PublishAction) accept(ctx context.Context, v ActionVisitor, ev ButtonEvent) error {
	return v.VisitPublish(ctx, ev, a)
}

func (a EditFieldAction) accept(ctx context.Context, v ActionVisitor, ev ButtonEvent) error {
	return v.VisitEditField(ctx, ev, a)
}

func (a RegenerateAction) accept(ctx context.Context, v ActionVisitor, ev ButtonEvent) error {
	return v.VisitRegenerate(ctx, ev, a)
}

func (a PublishRecordAction) accept(ctx context.Context, v ActionVisitor, ev ButtonEvent) error {
	return v.VisitPublishRecord(ctx, ev, a)
}

func (a UnpublishRecordAction) accept(ctx context.Context, v ActionVisitor, ev ButtonEvent) error {
	return v.VisitUnpublishRecord(ctx, ev, a)
}

func (a DeleteRecordAction) accept(ctx context.Context, v ActionVisitor, ev ButtonEvent) error {
	return v.VisitDeleteRecord(ctx, ev, a)
}

func (a RejectRecordAction) accept(ctx context.Context, v ActionVisitor, ev ButtonEvent) error {
	return v.VisitRejectRecord(ctx, ev, a)
}

// ParseAction decodes a button payload into its Action variant.
func ParseAction(payload string) (Action, error) {
	tok, err := reference.Parse(payload)
	if err != nil {
		return nil, err
	}

	switch tok.Action {
	case reference.ActionSelect:
		return SelectAction{Prefix: tok.Arg}, nil
	case reference.ActionPage:
		return PageAction{Arg: tok.Arg}, nil
	case reference.ActionBackToList:
		return BackToListAction{}, nil
	case reference.ActionFinish:
		return FinishAction{}, nil
	case reference.ActionCancel:
		return CancelAction{}, nil
	case reference.ActionSetDate:
		return SetDateAction{}, nil
	case reference.ActionSetLocation:
		return SetLocationAction{}, nil
	case reference.ActionPublish:
		return PublishAction{}, nil
	case reference.ActionEditTitle:
		return EditFieldAction{Field: EditTitle}, nil
	case reference.ActionEditShort:
		return EditFieldAction{Field: EditShort}, nil
	case reference.ActionEditFull:
		return EditFieldAction{Field: EditFull}, nil
	case reference.ActionRegenerate:
		return RegenerateAction{}, nil
	case reference.ActionPublishRecord:
		return PublishRecordAction{Prefix: tok.Arg}, nil
	case reference.ActionUnpublishRecord:
		return UnpublishRecordAction{Prefix: tok.Arg}, nil
	case reference.ActionDeleteRecord:
		return DeleteRecordAction{Prefix: tok.Arg}, nil
	case reference.ActionRejectRecord:
		return RejectRecordAction{Prefix: tok.Arg}, nil
	}
	return nil, fmt.Errorf("unhandled action %q", tok.Action)
}
