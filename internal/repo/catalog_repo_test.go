package repo

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/pagevault/library/internal/db"
	"github.com/pagevault/library/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *db.DB {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func duneInput() BookInput {
	return BookInput{Title: "Dune", Author: "Herbert", Genre: "SciFi", ISBN: "111", Photo: "x.png"}
}

func TestAddBook(t *testing.T) {
	database := setupTestDB(t)
	log := logger.NewLogger("test", "info")
	repo := NewCatalogRepository(database, log)

	ctx := context.Background()

	book, err := repo.AddBook(ctx, duneInput())
	require.NoError(t, err)
	assert.NotEmpty(t, book.ID)

	books, err := repo.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "111", books[0].ISBN)
	assert.Equal(t, "Dune", books[0].BookTitle)
	assert.Equal(t, "x.png", books[0].BookPhoto)
}

func TestAddBookDuplicateISBN(t *testing.T) {
	database := setupTestDB(t)
	log := logger.NewLogger("test", "info")
	repo := NewCatalogRepository(database, log)

	ctx := context.Background()

	_, err := repo.AddBook(ctx, duneInput())
	require.NoError(t, err)

	other := BookInput{Title: "Children of Dune", Author: "Herbert", Genre: "SciFi", ISBN: "111", Photo: "y.png"}
	_, err = repo.AddBook(ctx, other)
	assert.ErrorIs(t, err, ErrISBNAlreadyExists)

	books, err := repo.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestAddBookValidation(t *testing.T) {
	database := setupTestDB(t)
	log := logger.NewLogger("test", "info")
	repo := NewCatalogRepository(database, log)

	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*BookInput)
		wantErr error
	}{
		{"missing title", func(in *BookInput) { in.Title = "" }, ErrMissingField},
		{"blank author", func(in *BookInput) { in.Author = "   " }, ErrMissingField},
		{"missing genre", func(in *BookInput) { in.Genre = "" }, ErrMissingField},
		{"missing isbn", func(in *BookInput) { in.ISBN = "" }, ErrMissingField},
		{"missing photo", func(in *BookInput) { in.Photo = "" }, ErrMissingPhoto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := duneInput()
			tt.mutate(&in)
			_, err := repo.AddBook(ctx, in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	books, err := repo.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestMissingFieldNamesTheField(t *testing.T) {
	database := setupTestDB(t)
	repo := NewCatalogRepository(database, logger.NewLogger("test", "info"))

	in := duneInput()
	in.Genre = ""
	_, err := repo.AddBook(context.Background(), in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "genre")
}

func TestGetBookNotFound(t *testing.T) {
	database := setupTestDB(t)
	log := logger.NewLogger("test", "info")
	repo := NewCatalogRepository(database, log)

	_, err := repo.GetBook(context.Background(), "NONEXISTENT")
	assert.True(t, errors.Is(err, ErrBookNotFound))
}

func TestUpdateBookKeepsPhotoWhenNoneSupplied(t *testing.T) {
	database := setupTestDB(t)
	log := logger.NewLogger("test", "info")
	repo := NewCatalogRepository(database, log)

	ctx := context.Background()

	book, err := repo.AddBook(ctx, duneInput())
	require.NoError(t, err)

	updated, err := repo.UpdateBook(ctx, book.ID, BookInput{Title: "Dune Messiah", Author: "Herbert", Genre: "SciFi", ISBN: "111"})
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", updated.BookTitle)
	assert.Equal(t, "x.png", updated.BookPhoto)

	updated, err = repo.UpdateBook(ctx, book.ID, BookInput{Title: "Dune Messiah", Author: "Herbert", Genre: "SciFi", ISBN: "111", Photo: "z.png"})
	require.NoError(t, err)
	assert.Equal(t, "z.png", updated.BookPhoto)
}

func TestUpdateBookErrors(t *testing.T) {
	database := setupTestDB(t)
	log := logger.NewLogger("test", "info")
	repo := NewCatalogRepository(database, log)

	ctx := context.Background()

	first, err := repo.AddBook(ctx, duneInput())
	require.NoError(t, err)
	second, err := repo.AddBook(ctx, BookInput{Title: "Emma", Author: "Austen", Genre: "Classic", ISBN: "222", Photo: "e.png"})
	require.NoError(t, err)

	// all text fields are required on every update
	_, err = repo.UpdateBook(ctx, first.ID, BookInput{Title: "Dune", Author: "Herbert", Genre: "SciFi"})
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = repo.UpdateBook(ctx, "missing-id", duneInput())
	assert.ErrorIs(t, err, ErrBookNotFound)

	_, err = repo.UpdateBook(ctx, second.ID, BookInput{Title: "Emma", Author: "Austen", Genre: "Classic", ISBN: "111"})
	assert.ErrorIs(t, err, ErrISBNAlreadyExists)
}

func TestDeleteBook(t *testing.T) {
	database := setupTestDB(t)
	log := logger.NewLogger("test", "info")
	repo := NewCatalogRepository(database, log)

	ctx := context.Background()

	book, err := repo.AddBook(ctx, duneInput())
	require.NoError(t, err)

	require.NoError(t, repo.DeleteBook(ctx, book.ID))

	_, err = repo.GetBook(ctx, book.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)

	// already absent
	assert.ErrorIs(t, repo.DeleteBook(ctx, book.ID), ErrBookNotFound)
}

func TestListBooksIsStable(t *testing.T) {
	database := setupTestDB(t)
	log := logger.NewLogger("test", "info")
	repo := NewCatalogRepository(database, log)

	ctx := context.Background()

	for _, isbn := range []string{"1", "2", "3"} {
		_, err := repo.AddBook(ctx, BookInput{Title: "Book " + isbn, Author: "A", Genre: "G", ISBN: isbn, Photo: "p.png"})
		require.NoError(t, err)
	}

	first, err := repo.ListBooks(ctx)
	require.NoError(t, err)
	second, err := repo.ListBooks(ctx)
	require.NoError(t, err)

	assert.Len(t, first, 3)
	assert.Equal(t, first, second)

	total, err := repo.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestAddBookConcurrentSameISBNOneWins(t *testing.T) {
	database := setupTestDB(t)
	log := logger.NewLogger("test", "info")
	repo := NewCatalogRepository(database, log)

	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.AddBook(ctx, duneInput())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrISBNAlreadyExists)
		}
	}
	assert.Equal(t, 1, wins)

	count, err := repo.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
