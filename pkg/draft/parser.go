package draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"curator-bot/internal/entity"
)

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

type rawDraft struct {
	Title           string          `json:"title"`
	ShortSummary    string          `json:"short_summary"`
	ShortSummaryAlt string          `json:"shortSummary"`
	FullSummary     string          `json:"full_summary"`
	FullSummaryAlt  string          `json:"fullSummary"`
	Tags            json.RawMessage `json:"tags"`
}

// Parse extracts a draft from a model answer, tolerating code fences and
// prose around the JSON object.
func Parse(raw string) (*entity.Draft, error) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return nil, errors.New("model returned an empty answer")
	}
	if m := fencePattern.FindStringSubmatch(body); len(m) == 2 {
		body = strings.TrimSpace(m[1])
	}

	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON object in model answer")
	}

	var rd rawDraft
	if err := json.Unmarshal([]byte(body[start:end+1]), &rd); err != nil {
		return nil, fmt.Errorf("decode model answer: %w", err)
	}

	d := &entity.Draft{
		Title:        strings.TrimSpace(rd.Title),
		ShortSummary: strings.TrimSpace(firstNonEmpty(rd.ShortSummary, rd.ShortSummaryAlt)),
		FullSummary:  strings.TrimSpace(firstNonEmpty(rd.FullSummary, rd.FullSummaryAlt)),
		Tags:         NormalizeTags(decodeTags(rd.Tags)),
	}
	return d, nil
}

// decodeTags accepts either a JSON array or a comma separated string.
func decodeTags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		return strings.Split(joined, ",")
	}
	return nil
}

// NormalizeTags trims, strips a leading '#', lowercases and de-duplicates
// tags, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(t), "#")))
		if t == "" || len(t) > 64 || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func renderJSON(d *entity.Draft) string {
	data, _ := json.Marshal(d)
	return string(data)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
