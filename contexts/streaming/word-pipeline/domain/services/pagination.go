package services

import "ccdemo/contexts/streaming/word-pipeline/domain/entities"

const (
	MinPageLimit     = 1
	MaxPageLimit     = 200
	DefaultPageLimit = 1
)

// ClampLimit bounds a requested page size to [MinPageLimit, MaxPageLimit].
func ClampLimit(limit int64) int {
	if limit < MinPageLimit {
		return MinPageLimit
	}
	if limit > MaxPageLimit {
		return MaxPageLimit
	}
	return int(limit)
}

// BuildPage turns an ascending result slice into a page. A full page carries
// the last id as the next cursor even when no further rows exist; a short
// page ends the walk.
func BuildPage(rows []entities.Word, limit int) entities.Page {
	page := entities.Page{Items: rows}
	if page.Items == nil {
		page.Items = []entities.Word{}
	}
	if len(rows) == 0 || len(rows) < limit {
		return page
	}
	last := rows[len(rows)-1].ID
	page.NextCursor = &last
	return page
}
