package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mymmrac/telego"
)

// maxDownloadBytes matches the Bot API getFile limit.
const maxDownloadBytes = 20 << 20

// Fetcher downloads files the chat transport refers to by file id.
type Fetcher struct {
	bot    *telego.Bot
	client *http.Client
}

func NewFetcher(bot *telego.Bot) *Fetcher {
	return &Fetcher{
		bot:    bot,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (f *Fetcher) Fetch(ctx context.Context, fileID string) ([]byte, error) {
	file, err := f.bot.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("telegram: get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.bot.FileDownloadURL(file.FilePath), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram: download file: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
}
