package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ccdemo/contexts/streaming/word-pipeline/domain/entities"
	domainerrors "ccdemo/contexts/streaming/word-pipeline/domain/errors"
)

func newTestRepository(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps every statement on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewRepository(db, nil)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo, db
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	repo, db := newTestRepository(t)
	_, err := repo.InsertWord(context.Background(), "kept")
	require.NoError(t, err)

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.True(t, db.Migrator().HasTable("words"))

	page, err := repo.ListWords(context.Background(), nil, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
}

func TestInsertWordReturnsAssignedID(t *testing.T) {
	repo, _ := newTestRepository(t)

	first, err := repo.InsertWord(context.Background(), "never")
	require.NoError(t, err)
	second, err := repo.InsertWord(context.Background(), "never")
	require.NoError(t, err)

	require.Equal(t, "never", first.Word)
	require.Greater(t, second.ID, first.ID)
}

func TestInsertWordRejectsEmpty(t *testing.T) {
	repo, _ := newTestRepository(t)
	_, err := repo.InsertWord(context.Background(), "")
	require.ErrorIs(t, err, domainerrors.ErrEmptyWord)
}

func TestInsertWordWrapsDatabaseFailure(t *testing.T) {
	repo, db := newTestRepository(t)
	require.NoError(t, db.Migrator().DropTable("words"))

	_, err := repo.InsertWord(context.Background(), "orphan")
	require.Error(t, err)
	require.True(t, errors.Is(err, domainerrors.ErrPersistence), "got %v", err)
}

func TestListWordsPagesByCursor(t *testing.T) {
	repo, _ := newTestRepository(t)
	for _, word := range []string{"a", "b", "c", "d", "e"} {
		_, err := repo.InsertWord(context.Background(), word)
		require.NoError(t, err)
	}

	page, err := repo.ListWords(context.Background(), nil, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, []string{page.Items[0].Word, page.Items[1].Word})
	require.NotNil(t, page.NextCursor)
	require.Equal(t, page.Items[1].ID, *page.NextCursor)

	page, err = repo.ListWords(context.Background(), page.NextCursor, 2)
	require.NoError(t, err)
	require.Equal(t, "c", page.Items[0].Word)
	require.NotNil(t, page.NextCursor)

	page, err = repo.ListWords(context.Background(), page.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "e", page.Items[0].Word)
	require.Nil(t, page.NextCursor)
}

func TestListWordsEmptyTable(t *testing.T) {
	repo, _ := newTestRepository(t)
	page, err := repo.ListWords(context.Background(), nil, 1)
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.Nil(t, page.NextCursor)
}

func TestListWordsRejectsNonPositiveLimit(t *testing.T) {
	repo, _ := newTestRepository(t)
	_, err := repo.ListWords(context.Background(), nil, 0)
	require.ErrorIs(t, err, domainerrors.ErrInvalidLimit)
}

func TestListWordsExactPages(t *testing.T) {
	repo, _ := newTestRepository(t)
	for _, word := range []string{"a", "b", "c"} {
		_, err := repo.InsertWord(context.Background(), word)
		require.NoError(t, err)
	}

	page, err := repo.ListWords(context.Background(), nil, 2)
	require.NoError(t, err)
	require.Equal(t, []entities.Word{{ID: 1, Word: "a"}, {ID: 2, Word: "b"}}, page.Items)
	require.NotNil(t, page.NextCursor)
	require.Equal(t, int64(2), *page.NextCursor)

	page, err = repo.ListWords(context.Background(), page.NextCursor, 2)
	require.NoError(t, err)
	require.Equal(t, []entities.Word{{ID: 3, Word: "c"}}, page.Items)
	require.Nil(t, page.NextCursor)
}

func TestListWordsWalkAcrossLimits(t *testing.T) {
	words := []string{"a", "b", "c", "d", "e", "f", "g"}
	for _, limit := range []int{1, 2, 3, 199, 200} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			repo, _ := newTestRepository(t)
			for _, word := range words {
				_, err := repo.InsertWord(context.Background(), word)
				require.NoError(t, err)
			}

			var cursor *int64
			var ids []int64
			for calls := 0; calls <= len(words)+1; calls++ {
				page, err := repo.ListWords(context.Background(), cursor, limit)
				require.NoError(t, err)
				require.LessOrEqual(t, len(page.Items), limit)
				for _, item := range page.Items {
					ids = append(ids, item.ID)
				}
				if len(page.Items) == limit {
					require.NotNil(t, page.NextCursor)
					require.Equal(t, page.Items[limit-1].ID, *page.NextCursor)
				} else {
					require.Nil(t, page.NextCursor)
				}
				if page.NextCursor == nil {
					break
				}
				cursor = page.NextCursor
			}
			require.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7}, ids)
		})
	}
}
