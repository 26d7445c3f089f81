package draft

import (
	"fmt"
	"strings"

	"curator-bot/internal/entity"
	"curator-bot/pkg/llm"
	"curator-bot/pkg/store"
)

const systemPrompt = `You are an editor turning an operator's raw notes into a publishable record.
Answer with a single JSON object and nothing else:
{
  "title": "short headline, at most 120 characters",
  "short_summary": "one or two sentences",
  "full_summary": "a complete write-up of every fact in the notes",
  "tags": ["three to six lowercase keywords"]
}
Write in the language of the notes. Do not invent facts that are not in the notes.`

// buildMessages renders the instruction template for a session. A previous
// draft, when given, is included so the model offers an alternative.
func buildMessages(s *store.AuthoringSession, previous *entity.Draft) []llm.Message {
	var b strings.Builder

	if len(s.RawText) > 0 {
		b.WriteString("Typed notes:\n")
		for _, t := range s.RawText {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}
	if len(s.VoiceTranscripts) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Transcribed voice notes (may contain recognition errors):\n")
		for _, t := range s.VoiceTranscripts {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}
	if s.Date != "" {
		fmt.Fprintf(&b, "\nDate: %s\n", s.Date)
	}
	if s.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", s.Location)
	}
	if n := len(s.Photos) + len(s.Videos) + len(s.Documents); n > 0 {
		fmt.Fprintf(&b, "\n%d media attachment(s) accompany the record.\n", n)
	}

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: strings.TrimSpace(b.String())},
	}
	if previous != nil {
		messages = append(messages,
			llm.Message{Role: "assistant", Content: renderJSON(previous)},
			llm.Message{Role: "user", Content: "Write a different version with a new title and fresh wording. Same JSON format."},
		)
	}
	return messages
}
