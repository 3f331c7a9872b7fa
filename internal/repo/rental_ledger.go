package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pagevault/library/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Review actions accepted by ReviewRentalRequest
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// JoinedRental is a rental request decorated with its book and account.
// Book or User is nil when the referenced row no longer exists.
type JoinedRental struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	BookID    string          `json:"bookId"`
	Status    db.RentalStatus `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	Book      *db.Book        `json:"book"`
	User      *db.Account     `json:"user"`
}

// LedgerOption configures a RentalLedger
type LedgerOption func(*RentalLedger)

// WithStrictReferences makes CreateRentalRequest reject ids that do not
// resolve to an existing book and account.
func WithStrictReferences(strict bool) LedgerOption {
	return func(l *RentalLedger) {
		l.strict = strict
	}
}

// RentalLedger handles the rental request table
type RentalLedger struct {
	db     *db.DB
	log    *zap.Logger
	strict bool
}

// NewRentalLedger creates a new rental ledger
func NewRentalLedger(database *db.DB, logger *zap.Logger, opts ...LedgerOption) *RentalLedger {
	l := &RentalLedger{
		db:  database,
		log: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CreateRentalRequest records a pending request of userID for bookID.
// The same pair may be requested any number of times.
func (l *RentalLedger) CreateRentalRequest(ctx context.Context, userID, bookID string) (*db.RentalRequest, error) {
	if err := requireFields(
		[2]string{"userId", userID},
		[2]string{"bookId", bookID},
	); err != nil {
		return nil, err
	}

	if l.strict {
		if err := l.checkReferences(ctx, userID, bookID); err != nil {
			return nil, err
		}
	}

	rent := &db.RentalRequest{
		UserID: userID,
		BookID: bookID,
		Status: db.RentalPending,
	}
	if err := l.db.WithContext(ctx).Create(rent).Error; err != nil {
		l.log.Error("Failed to create rent request",
			zap.String("user_id", userID),
			zap.String("book_id", bookID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create rent request: %w", err)
	}

	l.log.Info("Rent request created",
		zap.String("id", rent.ID),
		zap.String("user_id", userID),
		zap.String("book_id", bookID),
	)
	return rent, nil
}

func (l *RentalLedger) checkReferences(ctx context.Context, userID, bookID string) error {
	var count int64
	if err := l.db.WithContext(ctx).Model(&db.Account{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return fmt.Errorf("check account: %w", err)
	}
	if count == 0 {
		return ErrAccountNotFound
	}
	if err := l.db.WithContext(ctx).Model(&db.Book{}).Where("id = ?", bookID).Count(&count).Error; err != nil {
		return fmt.Errorf("check book: %w", err)
	}
	if count == 0 {
		return ErrBookNotFound
	}
	return nil
}

// GetRentalRequest retrieves a rental request by id
func (l *RentalLedger) GetRentalRequest(ctx context.Context, id string) (*db.RentalRequest, error) {
	var rent db.RentalRequest
	err := l.db.WithContext(ctx).Where("id = ?", id).First(&rent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRentRequestNotFound
		}
		l.log.Error("Failed to get rent request", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("get rent request: %w", err)
	}
	return &rent, nil
}

// ListRentalRequestsJoined returns every request with its book and account.
// An empty ledger yields ErrNoRentRequests rather than an empty slice.
func (l *RentalLedger) ListRentalRequestsJoined(ctx context.Context) ([]JoinedRental, error) {
	var rents []db.RentalRequest
	if err := l.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&rents).Error; err != nil {
		l.log.Error("Failed to list rent requests", zap.Error(err))
		return nil, fmt.Errorf("list rent requests: %w", err)
	}
	if len(rents) == 0 {
		return nil, ErrNoRentRequests
	}

	bookIDs := make([]string, 0, len(rents))
	userIDs := make([]string, 0, len(rents))
	seenBooks := make(map[string]struct{}, len(rents))
	seenUsers := make(map[string]struct{}, len(rents))
	for _, rent := range rents {
		if _, ok := seenBooks[rent.BookID]; !ok {
			seenBooks[rent.BookID] = struct{}{}
			bookIDs = append(bookIDs, rent.BookID)
		}
		if _, ok := seenUsers[rent.UserID]; !ok {
			seenUsers[rent.UserID] = struct{}{}
			userIDs = append(userIDs, rent.UserID)
		}
	}

	var books []db.Book
	if err := l.db.WithContext(ctx).Where("id IN ?", bookIDs).Find(&books).Error; err != nil {
		l.log.Error("Failed to load books for rent requests", zap.Error(err))
		return nil, fmt.Errorf("load books: %w", err)
	}
	var accounts []db.Account
	if err := l.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&accounts).Error; err != nil {
		l.log.Error("Failed to load accounts for rent requests", zap.Error(err))
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	booksByID := make(map[string]*db.Book, len(books))
	for i := range books {
		booksByID[books[i].ID] = &books[i]
	}
	accountsByID := make(map[string]*db.Account, len(accounts))
	for i := range accounts {
		accountsByID[accounts[i].ID] = &accounts[i]
	}

	joined := make([]JoinedRental, 0, len(rents))
	for _, rent := range rents {
		joined = append(joined, JoinedRental{
			ID:        rent.ID,
			UserID:    rent.UserID,
			BookID:    rent.BookID,
			Status:    rent.Status,
			CreatedAt: rent.CreatedAt,
			Book:      booksByID[rent.BookID],
			User:      accountsByID[rent.UserID],
		})
	}

	return joined, nil
}

// ReviewRentalRequest moves a pending request to accepted or rejected. The
// update is conditional on the pending status, so only one review can win.
func (l *RentalLedger) ReviewRentalRequest(ctx context.Context, id, action, reviewerID string) (*db.RentalRequest, error) {
	if err := requireFields([2]string{"id", id}, [2]string{"action", action}); err != nil {
		return nil, err
	}

	var status db.RentalStatus
	switch action {
	case ActionAccept:
		status = db.RentalAccepted
	case ActionReject:
		status = db.RentalRejected
	default:
		return nil, ErrInvalidAction
	}

	updates := map[string]interface{}{
		"status":      status,
		"reviewed_at": time.Now(),
	}
	if reviewerID != "" {
		updates["reviewed_by"] = reviewerID
	}

	result := l.db.WithContext(ctx).Model(&db.RentalRequest{}).
		Where("id = ? AND status = ?", id, db.RentalPending).
		Updates(updates)
	if result.Error != nil {
		l.log.Error("Failed to review rent request", zap.String("id", id), zap.Error(result.Error))
		return nil, fmt.Errorf("review rent request: %w", result.Error)
	}

	rent, err := l.GetRentalRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}

	l.log.Info("Rent request reviewed",
		zap.String("id", id),
		zap.String("status", string(status)),
		zap.String("reviewer_id", reviewerID),
	)
	return rent, nil
}

// CountByStatus returns the number of requests per status for metrics
func (l *RentalLedger) CountByStatus(ctx context.Context) (map[db.RentalStatus]int64, error) {
	var rows []struct {
		Status db.RentalStatus
		Count  int64
	}
	if err := l.db.WithContext(ctx).Model(&db.RentalRequest{}).
		Select("status, count(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count rent requests: %w", err)
	}

	counts := map[db.RentalStatus]int64{
		db.RentalPending:  0,
		db.RentalAccepted: 0,
		db.RentalRejected: 0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
