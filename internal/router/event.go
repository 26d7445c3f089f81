package router

// Event is one transport-agnostic inbound occurrence from a chat.
type Event interface {
	Chat() int64
}

type CommandEvent struct {
	ChatID int64
	Name   string // lower-case, without the leading slash
	Args   []string
}

type MediaKind string

const (
	MediaPhoto    MediaKind = "photo"
	MediaVideo    MediaKind = "video"
	MediaVoice    MediaKind = "voice"
	MediaDocument MediaKind = "document"
)

type MediaEvent struct {
	ChatID int64
	Kind   MediaKind
	Ref    string
}

type TextEvent struct {
	ChatID  int64
	Content string
}

// ButtonEvent is an inline button press. MessageRef is the message carrying
// the button, so views can be edited in place.
type ButtonEvent struct {
	ChatID     int64
	Payload    string
	MessageRef int
	CallbackID string
}

func (e CommandEvent) Chat() int64 { return e.ChatID }
func (e MediaEvent) Chat() int64   { return e.ChatID }
func (e TextEvent) Chat() int64    { return e.ChatID }
func (e ButtonEvent) Chat() int64  { return e.ChatID }
