package entity

type DraftField string

const (
	DraftFieldTitle        DraftField = "title"
	DraftFieldShortSummary DraftField = "short_summary"
	DraftFieldFullSummary  DraftField = "full_summary"
	DraftFieldDate         DraftField = "date"
	DraftFieldLocation     DraftField = "location"
)

// Draft is a composed, not yet persisted record.
type Draft struct {
	Title        string   `json:"title" validate:"required,max=255"`
	ShortSummary string   `json:"short_summary" validate:"max=1024"`
	FullSummary  string   `json:"full_summary"`
	Tags         []string `json:"tags" validate:"dive,max=64"`
}

// MediaRefs are transport references collected for one record, in arrival order.
type MediaRefs struct {
	Photos    []string
	Videos    []string
	Documents []string
}

func (m MediaRefs) ByKind(kind MediaKind) []string {
	switch kind {
	case MediaKindImage:
		return m.Photos
	case MediaKindVideo:
		return m.Videos
	case MediaKindDocument:
		return m.Documents
	}
	return nil
}
