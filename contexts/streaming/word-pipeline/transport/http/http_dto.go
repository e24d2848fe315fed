package httptransport

type ListWordsRequest struct {
	Cursor *int64 `json:"cursor,omitempty"`
	Limit  int64  `json:"limit,omitempty"`
}

type WordDTO struct {
	ID   int64  `json:"id"`
	Word string `json:"word"`
}

type ListWordsResponse struct {
	Items      []WordDTO `json:"items"`
	NextCursor *int64    `json:"next_cursor,omitempty"`
	Limit      int       `json:"limit"`
}
