package reference

import (
	"fmt"
	"strconv"
	"strings"
)

// Paginate splits list into zero-indexed pages of at most pageSize items.
// An empty list yields a single empty page.
func Paginate[T any](list []T, pageSize int) [][]T {
	if pageSize < 1 {
		pageSize = 1
	}
	if len(list) == 0 {
		return [][]T{{}}
	}

	pages := make([][]T, 0, (len(list)+pageSize-1)/pageSize)
	for start := 0; start < len(list); start += pageSize {
		end := min(start+pageSize, len(list))
		pages = append(pages, list[start:end:end])
	}
	return pages
}

type Button struct {
	Text    string
	Payload string
}

// View is a rendered message: text plus rows of buttons.
type View struct {
	Text    string
	Buttons [][]Button
}

type PageItem struct {
	Label   string
	Payload string
}

type PageInput struct {
	Title      string
	Items      []PageItem
	PageIndex  int
	TotalPages int
	Empty      string // text shown when Items is empty
}

// RenderPage is pure: equal inputs render byte-identical views, so a list
// message can be edited in place.
func RenderPage(in PageInput) View {
	var b strings.Builder
	b.WriteString(in.Title)
	if in.TotalPages > 1 {
		fmt.Fprintf(&b, " (%d/%d)", in.PageIndex+1, in.TotalPages)
	}

	if len(in.Items) == 0 {
		if in.Empty != "" {
			b.WriteString("\n\n")
			b.WriteString(in.Empty)
		}
		return View{Text: b.String()}
	}

	rows := make([][]Button, 0, len(in.Items)+1)
	for _, item := range in.Items {
		rows = append(rows, []Button{{Text: item.Label, Payload: item.Payload}})
	}

	if in.TotalPages > 1 {
		var nav []Button
		if in.PageIndex > 0 {
			nav = append(nav, Button{Text: "« Prev", Payload: pagePayload(in.PageIndex - 1)})
		}
		nav = append(nav, Button{
			Text:    fmt.Sprintf("%d/%d", in.PageIndex+1, in.TotalPages),
			Payload: pagePayload(in.PageIndex),
		})
		if in.PageIndex < in.TotalPages-1 {
			nav = append(nav, Button{Text: "Next »", Payload: pagePayload(in.PageIndex + 1)})
		}
		rows = append(rows, nav)
	}

	return View{Text: b.String(), Buttons: rows}
}

func pagePayload(index int) string {
	return Token{Action: ActionPage, Arg: strconv.Itoa(index)}.String()
}

// PageIndex parses the argument of a page token, clamped to [0, total).
func PageIndex(arg string, total int) int {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return 0
	}
	if total > 0 && n >= total {
		return total - 1
	}
	return n
}
