package httpadapter

import (
	"context"
	"log/slog"

	application "ccdemo/contexts/streaming/word-pipeline/application"
	"ccdemo/contexts/streaming/word-pipeline/application/queries"
	"ccdemo/contexts/streaming/word-pipeline/domain/entities"
	httptransport "ccdemo/contexts/streaming/word-pipeline/transport/http"
)

type Handler struct {
	ListWords queries.ListWordsUseCase
	Logger    *slog.Logger
}

// ListWordsHandler godoc
// @Summary List stored words
// @Description Returns the next ascending page of words after the cursor as an HTML fragment.
// @Description A trailing row requests the following page when a next cursor exists.
// @Tags word-pipeline
// @Produce html
// @Param cursor query int false "Exclusive lower bound on word id"
// @Param limit query int false "Page size (default 1, clamped to 1..200)"
// @Success 200 {string} string "table rows fragment"
// @Failure 400 {string} string "invalid query parameter"
// @Failure 500 {string} string "internal server error"
// @Router /api/words [get]
func (h Handler) ListWordsHandler(ctx context.Context, req httptransport.ListWordsRequest) (httptransport.ListWordsResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Debug("list words request received",
		"event", "http_list_words_received",
		"module", "streaming/word-pipeline",
		"layer", "transport",
	)

	result, err := h.ListWords.Execute(ctx, queries.ListWordsQuery{
		Cursor: req.Cursor,
		Limit:  req.Limit,
	})
	if err != nil {
		logger.Error("list words request failed",
			"event", "http_list_words_failed",
			"module", "streaming/word-pipeline",
			"layer", "transport",
			"error", err.Error(),
		)
		return httptransport.ListWordsResponse{}, err
	}

	return httptransport.ListWordsResponse{
		Items:      mapWords(result.Items),
		NextCursor: result.NextCursor,
		Limit:      result.Limit,
	}, nil
}

func mapWords(items []entities.Word) []httptransport.WordDTO {
	out := make([]httptransport.WordDTO, 0, len(items))
	for _, item := range items {
		out = append(out, httptransport.WordDTO{
			ID:   item.ID,
			Word: item.Word,
		})
	}
	return out
}
