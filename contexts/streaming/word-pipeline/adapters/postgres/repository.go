package postgresadapter

import (
	"context"
	"fmt"
	"log/slog"

	"ccdemo/contexts/streaming/word-pipeline/domain/entities"
	domainerrors "ccdemo/contexts/streaming/word-pipeline/domain/errors"
	"ccdemo/contexts/streaming/word-pipeline/domain/services"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the only component that issues SQL against the words table.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the words table when it does not exist yet. Columns
// are never altered once the table exists.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	migrator := r.db.WithContext(ctx).Migrator()
	if migrator.HasTable(&wordModel{}) {
		return nil
	}

	r.logger.Info("creating words table",
		"event", "word_schema_bootstrap",
		"module", "streaming/word-pipeline",
		"layer", "adapter",
		"table", wordModel{}.TableName(),
	)
	if err := migrator.CreateTable(&wordModel{}); err != nil {
		// Another process may have won the race between HasTable and CreateTable.
		if migrator.HasTable(&wordModel{}) {
			return nil
		}
		return fmt.Errorf("%w: create words table: %w", domainerrors.ErrPersistence, err)
	}
	return nil
}

func (r *Repository) InsertWord(ctx context.Context, word string) (entities.Word, error) {
	if word == "" {
		return entities.Word{}, domainerrors.ErrEmptyWord
	}

	row := wordModel{Word: word}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return entities.Word{}, fmt.Errorf("%w: insert word: %w", domainerrors.ErrPersistence, err)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListWords(ctx context.Context, cursor *int64, limit int) (entities.Page, error) {
	if limit <= 0 {
		return entities.Page{}, domainerrors.ErrInvalidLimit
	}

	tx := r.db.WithContext(ctx).Model(&wordModel{})
	if cursor != nil {
		tx = tx.Where("id > ?", *cursor)
	}

	var rows []wordModel
	if err := tx.
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: false}).
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return entities.Page{}, fmt.Errorf("%w: list words: %w", domainerrors.ErrPersistence, err)
	}

	items := make([]entities.Word, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return services.BuildPage(items, limit), nil
}

type wordModel struct {
	ID   int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Word string `gorm:"column:word;type:text;not null"`
}

func (wordModel) TableName() string {
	return "words"
}

func (m wordModel) toEntity() entities.Word {
	return entities.Word{
		ID:   m.ID,
		Word: m.Word,
	}
}
