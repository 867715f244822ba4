package tasks

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/chickadee/reader/app/database"
	"github.com/chickadee/reader/app/fetch"
)

const extractBatchSize = 20

// ExtractContentTask backfills summaries for items whose feed entry and
// page metadata both came up empty, using readable-content extraction
// on the cached page HTML. One task drains one batch per tick.
type ExtractContentTask struct {
	Task
	client   *fetch.Client
	itemRepo database.ItemRepository
}

func NewExtractContentTask(client *fetch.Client, itemRepo database.ItemRepository) *ExtractContentTask {
	return &ExtractContentTask{
		Task:     NewTask(TaskTypeExtractContent, "items"),
		client:   client,
		itemRepo: itemRepo,
	}
}

func (t *ExtractContentTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	items, err := t.itemRepo.GetItemsMissingSummary(extractBatchSize)
	if err != nil {
		return err
	}

	extracted := 0
	skipped := 0

	for _, item := range items {
		summary, err := t.extractSummary(ctx, item.Key())
		if err != nil || summary == "" {
			skipped++
			continue
		}

		item.Summary = summary

		contextURL := ""
		if item.Context != nil {
			contextURL = item.Context.URL
		}
		if err := t.itemRepo.UpsertItem(contextURL, item); err != nil {
			slog.Warn("Failed to store extracted summary", "url", item.Key(), "error", err)
			continue
		}
		extracted++
	}

	if len(items) > 0 {
		slog.Info("Task completed",
			"type", "ExtractContent",
			"duration", t.GetDuration(),
			"total", len(items),
			"extracted", extracted,
			"skipped", skipped)
	}

	return nil
}

func (t *ExtractContentTask) extractSummary(ctx context.Context, rawURL string) (string, error) {
	resp, err := t.client.FromCache(rawURL)
	if err != nil {
		return "", err
	}
	if resp == nil {
		resp, err = t.client.Do(ctx, rawURL)
		if err != nil {
			return "", err
		}
	}

	if !resp.OK() || len(resp.Body) == 0 {
		return "", nil
	}

	u, err := url.Parse(resp.URL)
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(bytes.NewReader(resp.Body), u)
	if err != nil {
		return "", err
	}

	if excerpt := strings.TrimSpace(article.Excerpt); excerpt != "" {
		return excerpt, nil
	}

	text := []rune(strings.TrimSpace(article.TextContent))
	if len(text) > 280 {
		text = text[:280]
	}
	return string(text), nil
}
