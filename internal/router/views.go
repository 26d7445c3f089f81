package router

import (
	"fmt"
	"strings"

	"curator-bot/internal/entity"
	"curator-bot/pkg/reference"
	"curator-bot/pkg/store"
)

const helpText = `Commands:
/start - begin a new record
/finish - compose the draft, or save it when one exists
/cancel - discard the current session
/set_date <value> - date shown on the record
/set_location <value> - location shown on the record
/list - browse stored records
/stats - count drafts and published records
/merge <ref> <ref>... - fold records into the first one
/help - this message`

func statsView(st *entity.RecordStats) reference.View {
	return reference.View{Text: fmt.Sprintf("Drafts: %d\nPublished: %d\nTotal: %d", st.Drafts, st.Published, st.Drafts+st.Published)}
}

func button(text string, action reference.Action) reference.Button {
	return reference.Button{Text: text, Payload: reference.Token{Action: action}.String()}
}

func sessionStartedView() reference.View {
	return reference.View{
		Text: "Session started. Send text, photos, videos, documents or voice notes, then tap Finish.",
		Buttons: [][]reference.Button{
			{button("Finish", reference.ActionFinish), button("Cancel", reference.ActionCancel)},
		},
	}
}

func draftView(s *store.AuthoringSession) reference.View {
	d := s.Draft
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", d.Title)
	if d.ShortSummary != "" {
		fmt.Fprintf(&b, "%s\n\n", d.ShortSummary)
	}
	if d.FullSummary != "" {
		fmt.Fprintf(&b, "%s\n\n", d.FullSummary)
	}
	if len(d.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: #%s\n", strings.Join(d.Tags, " #"))
	}
	writeMetadata(&b, s.Metadata())
	fmt.Fprintf(&b, "Media: %d photos, %d videos, %d documents", len(s.Photos), len(s.Videos), len(s.Documents))

	return reference.View{
		Text: b.String(),
		Buttons: [][]reference.Button{
			{
				button("Edit title", reference.ActionEditTitle),
				button("Edit short", reference.ActionEditShort),
				button("Edit full", reference.ActionEditFull),
			},
			{button("Set date", reference.ActionSetDate), button("Set location", reference.ActionSetLocation)},
			{button("Regenerate", reference.ActionRegenerate)},
			{button("Save as draft", reference.ActionFinish), button("Publish", reference.ActionPublish)},
			{button("Cancel", reference.ActionCancel)},
		},
	}
}

func writeMetadata(b *strings.Builder, meta entity.RecordMetadata) {
	if meta.Date != "" {
		fmt.Fprintf(b, "Date: %s\n", meta.Date)
	}
	if meta.Location != "" {
		fmt.Fprintf(b, "Location: %s\n", meta.Location)
	}
}

func statusLabel(status entity.RecordStatus) string {
	if status == entity.RecordStatusPublished {
		return "published"
	}
	return "draft"
}

func listLabel(r *entity.Record) string {
	return fmt.Sprintf("[%s] %s", statusLabel(r.Status), r.Title)
}

// recordPayloads holds the encoded buttons of one record view.
type recordPayloads struct {
	Publish   string
	Unpublish string
	Delete    string
	Reject    string
	Select    string
}

func recordView(d *entity.RecordDetail, p recordPayloads) reference.View {
	r := d.Record
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\n\n", r.Title, statusLabel(r.Status))
	if r.ShortSummary != "" {
		fmt.Fprintf(&b, "%s\n\n", r.ShortSummary)
	}
	if r.FullSummary != "" {
		fmt.Fprintf(&b, "%s\n\n", r.FullSummary)
	}
	if len(d.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: #%s\n", strings.Join(d.Tags, " #"))
	}
	writeMetadata(&b, r.Metadata)
	fmt.Fprintf(&b, "Media: %d images, %d videos, %d documents\n", len(d.Images), len(d.Videos), len(d.Documents))
	fmt.Fprintf(&b, "Ref: %s", r.Id.String())

	toggle := reference.Button{Text: "Publish", Payload: p.Publish}
	if r.Status == entity.RecordStatusPublished {
		toggle = reference.Button{Text: "Unpublish", Payload: p.Unpublish}
	}
	return reference.View{
		Text: b.String(),
		Buttons: [][]reference.Button{
			{toggle, {Text: "Delete", Payload: p.Delete}},
			{button("« Back to list", reference.ActionBackToList)},
		},
	}
}

func deleteConfirmView(d *entity.RecordDetail, p recordPayloads) reference.View {
	return reference.View{
		Text: fmt.Sprintf("Delete %q with all of its media and tags? This cannot be undone.", d.Record.Title),
		Buttons: [][]reference.Button{
			{{Text: "Yes, delete", Payload: p.Reject}, {Text: "Keep", Payload: p.Select}},
		},
	}
}

func deletedView(title string) reference.View {
	return reference.View{
		Text:    fmt.Sprintf("Deleted %q.", title),
		Buttons: [][]reference.Button{{button("« Back to list", reference.ActionBackToList)}},
	}
}
