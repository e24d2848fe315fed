package entities

// Word is the only persisted record. ID is assigned by storage on insert and
// doubles as the pagination cursor.
type Word struct {
	ID   int64
	Word string
}

// Page is one ascending slice of words. NextCursor is nil once the caller
// has reached the end of the data.
type Page struct {
	Items      []Word
	NextCursor *int64
}

// HasNext reports whether a follow-up request may return more rows.
func (p Page) HasNext() bool {
	return p.NextCursor != nil
}
