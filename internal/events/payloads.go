package events

import (
	"time"

	"github.com/pagevault/library/internal/db"
)

// BookPayload is the payload of catalog.created and catalog.updated
func BookPayload(book *db.Book) map[string]interface{} {
	return map[string]interface{}{
		"id":        book.ID,
		"bookTitle": book.BookTitle,
		"author":    book.Author,
		"genre":     book.Genre,
		"isbn":      book.ISBN,
		"bookPhoto": book.BookPhoto,
	}
}

// BookDeletedPayload is the payload of catalog.deleted
func BookDeletedPayload(id string) map[string]interface{} {
	return map[string]interface{}{
		"id": id,
	}
}

// RentPayload is the payload of rental.requested and rental.reviewed
func RentPayload(rent *db.RentalRequest) map[string]interface{} {
	payload := map[string]interface{}{
		"id":     rent.ID,
		"userId": rent.UserID,
		"bookId": rent.BookID,
		"status": string(rent.Status),
	}
	if rent.ReviewedBy != nil {
		payload["reviewedBy"] = *rent.ReviewedBy
	}
	if rent.ReviewedAt != nil {
		payload["reviewedAt"] = rent.ReviewedAt.UTC().Format(time.RFC3339)
	}
	return payload
}
