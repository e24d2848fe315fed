package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	application "ccdemo/contexts/streaming/word-pipeline/application"
	"ccdemo/contexts/streaming/word-pipeline/domain/entities"
	domainerrors "ccdemo/contexts/streaming/word-pipeline/domain/errors"
	"ccdemo/contexts/streaming/word-pipeline/domain/services"
)

// Store is an in-memory word repository for local runtime and tests.
// It is not intended as production persistence.
type Store struct {
	mu       sync.RWMutex
	words    []entities.Word
	sequence int64
	logger   *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	return &Store{
		words:  make([]entities.Word, 0),
		logger: application.ResolveLogger(logger),
	}
}

func (s *Store) EnsureSchema(context.Context) error {
	return nil
}

func (s *Store) InsertWord(ctx context.Context, word string) (entities.Word, error) {
	if err := ctx.Err(); err != nil {
		return entities.Word{}, err
	}
	if word == "" {
		return entities.Word{}, domainerrors.ErrEmptyWord
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequence++
	row := entities.Word{ID: s.sequence, Word: word}
	s.words = append(s.words, row)
	return row, nil
}

func (s *Store) ListWords(ctx context.Context, cursor *int64, limit int) (entities.Page, error) {
	if err := ctx.Err(); err != nil {
		return entities.Page{}, err
	}
	if limit <= 0 {
		return entities.Page{}, domainerrors.ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if cursor != nil {
		after := *cursor
		start = sort.Search(len(s.words), func(i int) bool {
			return s.words[i].ID > after
		})
	}
	end := start + limit
	if end > len(s.words) {
		end = len(s.words)
	}
	rows := append([]entities.Word(nil), s.words[start:end]...)
	return services.BuildPage(rows, limit), nil
}

// Len returns the number of stored rows.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.words)
}

// All returns a copy of every stored row in insertion order.
func (s *Store) All() []entities.Word {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Word(nil), s.words...)
}
