package store

import (
	"time"

	"curator-bot/internal/entity"
)

// AuthoringSession is the per-chat accumulation of raw material before it
// becomes a persisted record.
type AuthoringSession struct {
	ID     string `json:"id"` // generation id, replaced on every Start
	ChatID int64  `json:"chat_id"`

	RawText          []string `json:"raw_text"`
	Photos           []string `json:"photos"`
	Videos           []string `json:"videos"`
	Documents        []string `json:"documents"`
	VoiceTranscripts []string `json:"voice_transcripts"`

	Draft        *entity.Draft     `json:"draft,omitempty"`
	EditingField entity.DraftField `json:"editing_field,omitempty"`

	Date     string `json:"date,omitempty"`
	Location string `json:"location,omitempty"`

	// RecordID is set once the draft has been saved; later saves reuse that record.
	RecordID string `json:"record_id,omitempty"`

	StartedAt time.Time `json:"started_at"`
}

// Media returns the collected media references.
func (s *AuthoringSession) Media() entity.MediaRefs {
	return entity.MediaRefs{
		Photos:    s.Photos,
		Videos:    s.Videos,
		Documents: s.Documents,
	}
}

func (s *AuthoringSession) Metadata() entity.RecordMetadata {
	return entity.RecordMetadata{Date: s.Date, Location: s.Location}
}

// HasInput reports whether anything has been collected that a draft can be composed from.
func (s *AuthoringSession) HasInput() bool {
	return len(s.RawText) > 0 || len(s.VoiceTranscripts) > 0
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (s *AuthoringSession) Clone() *AuthoringSession {
	if s == nil {
		return nil
	}
	c := *s
	c.RawText = append([]string(nil), s.RawText...)
	c.Photos = append([]string(nil), s.Photos...)
	c.Videos = append([]string(nil), s.Videos...)
	c.Documents = append([]string(nil), s.Documents...)
	c.VoiceTranscripts = append([]string(nil), s.VoiceTranscripts...)
	if s.Draft != nil {
		d := *s.Draft
		d.Tags = append([]string(nil), s.Draft.Tags...)
		c.Draft = &d
	}
	return &c
}
