package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the access level of an account
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// RentalStatus is the review state of a rental request
type RentalStatus string

const (
	RentalPending  RentalStatus = "pending"
	RentalAccepted RentalStatus = "accepted"
	RentalRejected RentalStatus = "rejected"
)

// Book represents a book in the catalog
type Book struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	BookTitle string    `gorm:"column:book_title;type:varchar(255);not null" json:"bookTitle"`
	Author    string    `gorm:"type:varchar(255);not null" json:"author"`
	Genre     string    `gorm:"type:varchar(100);not null;index:idx_books_genre" json:"genre"`
	ISBN      string    `gorm:"column:isbn;type:varchar(32);not null;uniqueIndex:idx_books_isbn" json:"isbn"`
	BookPhoto string    `gorm:"column:book_photo;type:text;not null" json:"bookPhoto"`
	CreatedAt time.Time `gorm:"not null;index:idx_books_created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// TableName specifies the table name for Book model
func (Book) TableName() string {
	return "books"
}

// BeforeCreate assigns an id and timestamps when missing
func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = now
	}
	return nil
}

// Account is a registered user of the library
type Account struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	FullName    string    `gorm:"column:full_name;type:varchar(255);not null" json:"full_name"`
	Email       string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_accounts_email" json:"email"`
	Password    string    `gorm:"type:varchar(255);not null" json:"-"`
	PhoneNumber string    `gorm:"column:phone_number;type:varchar(50)" json:"phone_number"`
	Location    string    `gorm:"type:varchar(255)" json:"location"`
	Role        Role      `gorm:"type:varchar(16);not null;default:'User'" json:"role"`
	CreatedAt   time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" json:"-"`
}

// TableName specifies the table name for Account model
func (Account) TableName() string {
	return "accounts"
}

// BeforeCreate assigns an id, a default role and timestamps
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Role == "" {
		a.Role = RoleUser
	}
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	return nil
}

// RentalRequest is one row of the rental ledger. UserID and BookID are not
// foreign-key constrained: rows outlive deleted books and accounts.
type RentalRequest struct {
	ID         string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID     string       `gorm:"column:user_id;type:varchar(36);not null;index:idx_rentals_user" json:"userId"`
	BookID     string       `gorm:"column:book_id;type:varchar(36);not null;index:idx_rentals_book" json:"bookId"`
	Status     RentalStatus `gorm:"type:varchar(16);not null;default:'pending';index:idx_rentals_status" json:"status"`
	ReviewedBy *string      `gorm:"column:reviewed_by;type:varchar(36)" json:"reviewedBy,omitempty"`
	ReviewedAt *time.Time   `gorm:"column:reviewed_at" json:"reviewedAt,omitempty"`
	CreatedAt  time.Time    `gorm:"not null;index:idx_rentals_created_at" json:"createdAt"`
	UpdatedAt  time.Time    `gorm:"not null" json:"updatedAt"`
}

// TableName specifies the table name for RentalRequest model
func (RentalRequest) TableName() string {
	return "rental_requests"
}

// BeforeCreate assigns an id, the pending status and timestamps
func (r *RentalRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = RentalPending
	}
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
	return nil
}
