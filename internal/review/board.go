// Package review holds the admin's working view of the rental ledger:
// a local copy of the joined requests that can be filtered and reviewed.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pagevault/library/internal/db"
	"github.com/pagevault/library/internal/repo"
	"go.uber.org/zap"
)

// Status filters accepted by Filter
const (
	StatusAll      = "all"
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Notification types
const (
	NotifySuccess = "success"
	NotifyError   = "error"
)

// ErrUnknownStatus is returned for a status filter outside all|pending|accepted|rejected
var ErrUnknownStatus = errors.New("status must be all, pending, accepted or rejected")

// ErrNotOnBoard is returned when reviewing an id the board was not seeded with
var ErrNotOnBoard = errors.New("rent request is not on the board")

// Source loads the joined ledger
type Source interface {
	ListRentRequests(ctx context.Context) ([]repo.JoinedRental, error)
}

// Reviewer applies a review action remotely
type Reviewer interface {
	Review(ctx context.Context, id, action string) (*db.RentalRequest, error)
}

// Notification is the short message shown after an action
type Notification struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Board is a local, filterable copy of the joined rental requests
type Board struct {
	mu       sync.RWMutex
	rows     []repo.JoinedRental
	reviewer Reviewer
	log      *zap.Logger
}

// NewBoard creates a board over rows
func NewBoard(rows []repo.JoinedRental, reviewer Reviewer, log *zap.Logger) *Board {
	copied := make([]repo.JoinedRental, len(rows))
	copy(copied, rows)
	return &Board{rows: copied, reviewer: reviewer, log: log}
}

// Load seeds a board from src
func Load(ctx context.Context, src Source, reviewer Reviewer, log *zap.Logger) (*Board, error) {
	rows, err := src.ListRentRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rent requests: %w", err)
	}
	return NewBoard(rows, reviewer, log), nil
}

// Rows returns a snapshot of every row
func (b *Board) Rows() []repo.JoinedRental {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]repo.JoinedRental, len(b.rows))
	copy(out, b.rows)
	return out
}

// Filter returns the rows whose user name, book title or genre contains
// search (case-insensitive) and whose status matches. Rows whose book or
// user no longer exists are kept.
func (b *Board) Filter(search, status string) ([]repo.JoinedRental, error) {
	if status == "" {
		status = StatusAll
	}
	switch status {
	case StatusAll, StatusPending, StatusAccepted, StatusRejected:
	default:
		return nil, ErrUnknownStatus
	}

	needle := strings.ToLower(search)

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]repo.JoinedRental, 0, len(b.rows))
	for _, row := range b.rows {
		if matchesSearch(row, needle) && matchesStatus(row, status) {
			out = append(out, row)
		}
	}
	return out, nil
}

// An empty search matches every row; otherwise only the resolved sides
// of a row are searched.
func matchesSearch(row repo.JoinedRental, needle string) bool {
	if needle == "" {
		return true
	}
	if row.User != nil && strings.Contains(strings.ToLower(row.User.FullName), needle) {
		return true
	}
	if row.Book == nil {
		return false
	}
	return strings.Contains(strings.ToLower(row.Book.BookTitle), needle) ||
		strings.Contains(strings.ToLower(row.Book.Genre), needle)
}

func matchesStatus(row repo.JoinedRental, status string) bool {
	switch status {
	case StatusAll:
		return true
	case StatusPending:
		return row.Status == "" || row.Status == db.RentalPending
	}
	return string(row.Status) == status
}

// Accept accepts the request id
func (b *Board) Accept(ctx context.Context, id string) (Notification, error) {
	return b.review(ctx, id, repo.ActionAccept)
}

// Reject rejects the request id
func (b *Board) Reject(ctx context.Context, id string) (Notification, error) {
	return b.review(ctx, id, repo.ActionReject)
}

func (b *Board) review(ctx context.Context, id, action string) (Notification, error) {
	if !b.has(id) {
		return Notification{}, ErrNotOnBoard
	}

	rent, err := b.reviewer.Review(ctx, id, action)
	if err != nil {
		b.log.Warn("Review failed", zap.String("id", id), zap.String("action", action), zap.Error(err))
		return Notification{Message: "Could not update the book request", Type: NotifyError}, err
	}

	b.mu.Lock()
	for i := range b.rows {
		if b.rows[i].ID == id {
			b.rows[i].Status = rent.Status
		}
	}
	b.mu.Unlock()

	if rent.Status == db.RentalAccepted {
		return Notification{Message: "Book request has been accepted", Type: NotifySuccess}, nil
	}
	return Notification{Message: "Book request has been rejected", Type: NotifyError}, nil
}

func (b *Board) has(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, row := range b.rows {
		if row.ID == id {
			return true
		}
	}
	return false
}
