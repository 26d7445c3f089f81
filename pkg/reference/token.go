package reference

import (
	"fmt"
	"strings"
)

type Action string

const (
	ActionSelect          Action = "select"
	ActionPage            Action = "page"
	ActionBackToList      Action = "back-to-list"
	ActionFinish          Action = "finish"
	ActionCancel          Action = "cancel"
	ActionSetDate         Action = "set-date"
	ActionSetLocation     Action = "set-location"
	ActionPublish         Action = "publish"
	ActionEditTitle       Action = "edit-title"
	ActionEditShort       Action = "edit-short"
	ActionEditFull        Action = "edit-full"
	ActionRegenerate      Action = "regenerate"
	ActionPublishRecord   Action = "publish-record"
	ActionUnpublishRecord Action = "unpublish-record"
	ActionDeleteRecord    Action = "delete-record"
	ActionRejectRecord    Action = "reject-record"
)

const (
	Delimiter = ":"
	// MaxPayloadBytes is the button payload ceiling imposed by the transport.
	MaxPayloadBytes = 64
)

var knownActions = map[Action]bool{
	ActionSelect: true, ActionPage: true, ActionBackToList: true, ActionFinish: true,
	ActionCancel: true, ActionSetDate: true, ActionSetLocation: true, ActionPublish: true,
	ActionEditTitle: true, ActionEditShort: true, ActionEditFull: true, ActionRegenerate: true,
	ActionPublishRecord: true, ActionUnpublishRecord: true, ActionDeleteRecord: true,
	ActionRejectRecord: true,
}

// Token is a decoded button payload: an action tag and its optional argument
// (a record id prefix or a page number).
type Token struct {
	Action Action
	Arg    string
}

func (t Token) String() string {
	if t.Arg == "" {
		return string(t.Action)
	}
	return string(t.Action) + Delimiter + t.Arg
}

// Payload renders t and enforces the byte ceiling.
func (t Token) Payload() (string, error) {
	if !knownActions[t.Action] {
		return "", fmt.Errorf("unknown action %q", t.Action)
	}
	p := t.String()
	if len(p) > MaxPayloadBytes {
		return "", fmt.Errorf("payload %q exceeds %d bytes", p, MaxPayloadBytes)
	}
	return p, nil
}

func Parse(payload string) (Token, error) {
	if len(payload) > MaxPayloadBytes {
		return Token{}, fmt.Errorf("payload exceeds %d bytes", MaxPayloadBytes)
	}
	action, arg, _ := strings.Cut(payload, Delimiter)
	t := Token{Action: Action(action), Arg: arg}
	if !knownActions[t.Action] {
		return Token{}, fmt.Errorf("unknown action %q", action)
	}
	return t, nil
}
