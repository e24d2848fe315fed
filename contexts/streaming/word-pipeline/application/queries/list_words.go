package queries

import (
	"context"
	"log/slog"

	application "ccdemo/contexts/streaming/word-pipeline/application"
	"ccdemo/contexts/streaming/word-pipeline/domain/entities"
	"ccdemo/contexts/streaming/word-pipeline/domain/services"
	"ccdemo/contexts/streaming/word-pipeline/ports"
)

type ListWordsQuery struct {
	Cursor *int64
	Limit  int64
}

type ListWordsResult struct {
	Items      []entities.Word
	NextCursor *int64
	Limit      int
}

type ListWordsUseCase struct {
	Words   ports.WordRepository
	Metrics ports.PipelineMetrics
	Logger  *slog.Logger
}

func (u ListWordsUseCase) Execute(ctx context.Context, query ListWordsQuery) (ListWordsResult, error) {
	logger := application.ResolveLogger(u.Logger)
	metrics := application.ResolveMetrics(u.Metrics)
	limit := services.ClampLimit(query.Limit)

	logger.Debug("list words started",
		"event", "list_words_started",
		"module", "streaming/word-pipeline",
		"layer", "application",
		"cursor", cursorAttr(query.Cursor),
		"limit", limit,
	)

	page, err := u.Words.ListWords(ctx, query.Cursor, limit)
	if err != nil {
		logger.Error("list words failed",
			"event", "list_words_failed",
			"module", "streaming/word-pipeline",
			"layer", "application",
			"cursor", cursorAttr(query.Cursor),
			"limit", limit,
			"error", err.Error(),
		)
		return ListWordsResult{}, err
	}
	metrics.PageServed(len(page.Items))

	logger.Info("list words completed",
		"event", "list_words_completed",
		"module", "streaming/word-pipeline",
		"layer", "application",
		"items_count", len(page.Items),
		"has_next_cursor", page.HasNext(),
	)

	return ListWordsResult{
		Items:      page.Items,
		NextCursor: page.NextCursor,
		Limit:      limit,
	}, nil
}

func cursorAttr(cursor *int64) any {
	if cursor == nil {
		return nil
	}
	return *cursor
}
