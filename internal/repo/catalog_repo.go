package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/pagevault/library/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BookInput carries the caller supplied fields of a book. Photo is the
// public URL of an already stored cover.
type BookInput struct {
	Title  string
	Author string
	Genre  string
	ISBN   string
	Photo  string
}

func (in BookInput) validate() error {
	return requireFields(
		[2]string{"bookTitle", in.Title},
		[2]string{"author", in.Author},
		[2]string{"genre", in.Genre},
		[2]string{"isbn", in.ISBN},
	)
}

// CatalogRepository handles book catalog operations
type CatalogRepository struct {
	db  *db.DB
	log *zap.Logger
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(database *db.DB, logger *zap.Logger) *CatalogRepository {
	return &CatalogRepository{
		db:  database,
		log: logger,
	}
}

// AddBook inserts a new book. ISBN uniqueness is decided by the unique index,
// so concurrent adds of the same ISBN cannot both succeed.
func (r *CatalogRepository) AddBook(ctx context.Context, in BookInput) (*db.Book, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Photo == "" {
		return nil, ErrMissingPhoto
	}

	book := &db.Book{
		BookTitle: in.Title,
		Author:    in.Author,
		Genre:     in.Genre,
		ISBN:      in.ISBN,
		BookPhoto: in.Photo,
	}
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrISBNAlreadyExists
		}
		r.log.Error("Failed to create book", zap.String("isbn", in.ISBN), zap.Error(err))
		return nil, fmt.Errorf("create book: %w", err)
	}

	r.log.Info("Book created", zap.String("id", book.ID), zap.String("isbn", book.ISBN))
	return book, nil
}

// ListBooks returns every book, oldest first
func (r *CatalogRepository) ListBooks(ctx context.Context) ([]*db.Book, error) {
	books := make([]*db.Book, 0)
	if err := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&books).Error; err != nil {
		r.log.Error("Failed to list books", zap.Error(err))
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// GetBook retrieves a book by id
func (r *CatalogRepository) GetBook(ctx context.Context, id string) (*db.Book, error) {
	var book db.Book
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		r.log.Error("Failed to get book", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("get book: %w", err)
	}

	return &book, nil
}

// UpdateBook rewrites the text fields of a book. The photo is only replaced
// when in.Photo is set.
func (r *CatalogRepository) UpdateBook(ctx context.Context, id string, in BookInput) (*db.Book, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	if _, err := r.GetBook(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"book_title": in.Title,
		"author":     in.Author,
		"genre":      in.Genre,
		"isbn":       in.ISBN,
	}
	if in.Photo != "" {
		updates["book_photo"] = in.Photo
	}

	result := r.db.WithContext(ctx).Model(&db.Book{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrISBNAlreadyExists
		}
		r.log.Error("Failed to update book", zap.String("id", id), zap.Error(result.Error))
		return nil, fmt.Errorf("update book: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// deleted between the lookup and the update
		return nil, ErrBookNotFound
	}

	r.log.Info("Book updated", zap.String("id", id), zap.Bool("photo_replaced", in.Photo != ""))
	return r.GetBook(ctx, id)
}

// DeleteBook removes a book. Rental requests that reference it are kept.
func (r *CatalogRepository) DeleteBook(ctx context.Context, id string) error {
	if _, err := r.GetBook(ctx, id); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.Book{})
	if result.Error != nil {
		r.log.Error("Failed to delete book", zap.String("id", id), zap.Error(result.Error))
		return fmt.Errorf("delete book: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}

	r.log.Info("Book deleted", zap.String("id", id))
	return nil
}

// CountBooks returns the catalog size for metrics
func (r *CatalogRepository) CountBooks(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&db.Book{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return total, nil
}
