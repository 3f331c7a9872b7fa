package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pagevault/library/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AccountRepository persists accounts. Password hashing happens in the auth
// package; this layer only ever sees hashes.
type AccountRepository struct {
	db  *db.DB
	log *zap.Logger
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(database *db.DB, logger *zap.Logger) *AccountRepository {
	return &AccountRepository{
		db:  database,
		log: logger,
	}
}

// CreateAccount inserts an account whose Password is already hashed
func (r *AccountRepository) CreateAccount(ctx context.Context, account *db.Account) error {
	account.Email = normalizeEmail(account.Email)
	if err := requireFields(
		[2]string{"full_name", account.FullName},
		[2]string{"email", account.Email},
		[2]string{"password", account.Password},
	); err != nil {
		return err
	}
	if account.Role != "" && !account.Role.Valid() {
		return ErrInvalidRole
	}

	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailAlreadyExists
		}
		r.log.Error("Failed to create account", zap.Error(err))
		return fmt.Errorf("create account: %w", err)
	}

	r.log.Info("Account created", zap.String("id", account.ID), zap.String("role", string(account.Role)))
	return nil
}

// FindByEmail looks an account up by its login email
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*db.Account, error) {
	var account db.Account
	err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		r.log.Error("Failed to find account by email", zap.Error(err))
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &account, nil
}

// GetAccount retrieves an account by id
func (r *AccountRepository) GetAccount(ctx context.Context, id string) (*db.Account, error) {
	var account db.Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		r.log.Error("Failed to get account", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &account, nil
}

// ListAccounts returns every account, oldest first
func (r *AccountRepository) ListAccounts(ctx context.Context) ([]*db.Account, error) {
	accounts := make([]*db.Account, 0)
	if err := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&accounts).Error; err != nil {
		r.log.Error("Failed to list accounts", zap.Error(err))
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// SetRole changes the role of an account
func (r *AccountRepository) SetRole(ctx context.Context, id string, role db.Role) (*db.Account, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	result := r.db.WithContext(ctx).Model(&db.Account{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		r.log.Error("Failed to set role", zap.String("id", id), zap.Error(result.Error))
		return nil, fmt.Errorf("set role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrAccountNotFound
	}

	r.log.Info("Account role changed", zap.String("id", id), zap.String("role", string(role)))
	return r.GetAccount(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
