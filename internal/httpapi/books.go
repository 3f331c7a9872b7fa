package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pagevault/library/internal/events"
	"github.com/pagevault/library/internal/repo"
	"go.uber.org/zap"
)

func bookInputFromForm(c *gin.Context) repo.BookInput {
	return repo.BookInput{
		Title:  c.PostForm("bookTitle"),
		Author: c.PostForm("author"),
		Genre:  c.PostForm("genre"),
		ISBN:   c.PostForm("isbn"),
	}
}

// savePhoto stores the optional bookPhoto file and returns its URL, or ""
// when the form carries no file.
func (s *Server) savePhoto(c *gin.Context) (string, error) {
	fh, err := c.FormFile("bookPhoto")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", err
	}
	return s.storage.Save(fh)
}

func (s *Server) discardPhoto(url string) {
	if url == "" {
		return
	}
	if err := s.storage.Remove(url); err != nil {
		s.log.Warn("Failed to remove unused photo", zap.String("url", url), zap.Error(err))
	}
}

func (s *Server) addBook(c *gin.Context) {
	in := bookInputFromForm(c)

	photo, err := s.savePhoto(c)
	if err != nil {
		s.respondError(c, "add book", err)
		return
	}
	in.Photo = photo

	book, err := s.catalog.AddBook(c.Request.Context(), in)
	if err != nil {
		s.discardPhoto(photo)
		s.respondError(c, "add book", err)
		return
	}

	s.publish(c, events.EventTypeCatalogCreated, events.BookPayload(book))

	c.JSON(http.StatusCreated, gin.H{
		"message": "Book added successfully!",
		"book":    book,
	})
}

func (s *Server) updateBook(c *gin.Context) {
	id := c.Param("id")
	in := bookInputFromForm(c)

	photo, err := s.savePhoto(c)
	if err != nil {
		s.respondError(c, "update book", err)
		return
	}
	in.Photo = photo

	book, err := s.catalog.UpdateBook(c.Request.Context(), id, in)
	if err != nil {
		s.discardPhoto(photo)
		s.respondError(c, "update book", err)
		return
	}

	s.publish(c, events.EventTypeCatalogUpdated, events.BookPayload(book))

	c.JSON(http.StatusOK, gin.H{
		"message": "Book updated successfully!",
		"book":    book,
	})
}

func (s *Server) deleteBook(c *gin.Context) {
	id := c.Param("id")

	if err := s.catalog.DeleteBook(c.Request.Context(), id); err != nil {
		s.respondError(c, "delete book", err)
		return
	}

	s.publish(c, events.EventTypeCatalogDeleted, events.BookDeletedPayload(id))

	c.JSON(http.StatusOK, gin.H{"message": "Book deleted successfully!"})
}

func (s *Server) listBooks(c *gin.Context) {
	books, err := s.catalog.ListBooks(c.Request.Context())
	if err != nil {
		s.respondError(c, "list books", err)
		return
	}
	c.JSON(http.StatusOK, books)
}
