package handler

import (
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
)

const (
	maxButtonTitle  = 60
	defaultPageSize = 6
)

// totalPages returns ceil(n/size).
func totalPages(n, size int) int {
	if n <= 0 {
		return 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	return (n + size - 1) / size
}

func clampPage(page, pages int) int {
	if page >= pages {
		page = pages - 1
	}
	if page < 0 {
		page = 0
	}
	return page
}

// BuildResultsKeyboard renders one page of results as buttons, one per row,
// followed by the navigation row with the page indicator.
func BuildResultsKeyboard(results []platform.SearchResult, page, pageSize int) *telego.InlineKeyboardMarkup {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	pages := totalPages(len(results), pageSize)
	if pages == 0 {
		return nil
	}
	page = clampPage(page, pages)

	start := page * pageSize
	end := min(start+pageSize, len(results))

	rows := make([][]telego.InlineKeyboardButton, 0, end-start+1)
	for i := start; i < end; i++ {
		rows = append(rows, []telego.InlineKeyboardButton{resultButton(i, results[i])})
	}

	nav := make([]telego.InlineKeyboardButton, 0, 3)
	if page > 0 {
		nav = append(nav, telego.InlineKeyboardButton{
			Text:         "◀️ Prev",
			CallbackData: Selection{Kind: SelectPage, Index: page - 1}.Encode(),
		})
	}
	nav = append(nav, telego.InlineKeyboardButton{
		Text:         fmt.Sprintf("📄 %d/%d", page+1, pages),
		CallbackData: Selection{Kind: SelectNoop}.Encode(),
	})
	if page < pages-1 {
		nav = append(nav, telego.InlineKeyboardButton{
			Text:         "Next ▶️",
			CallbackData: Selection{Kind: SelectPage, Index: page + 1}.Encode(),
		})
	}
	rows = append(rows, nav)
	return &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func resultButton(index int, result platform.SearchResult) telego.InlineKeyboardButton {
	if result.IsAlbum() {
		title := result.Title
		if !strings.HasPrefix(title, platform.AlbumEmoji) {
			title = platform.AlbumEmoji + " " + title
		}
		return telego.InlineKeyboardButton{
			Text:         truncateTitle(title, maxButtonTitle),
			CallbackData: Selection{Kind: SelectAlbum, Index: index}.Encode(),
		}
	}
	return telego.InlineKeyboardButton{
		Text:         truncateTitle(result.Title, maxButtonTitle),
		CallbackData: Selection{Kind: SelectDownload, Index: index}.Encode(),
	}
}

// truncateTitle cuts s to max runes and appends "..." when it was longer.
func truncateTitle(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
