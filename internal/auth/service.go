package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pagevault/library/internal/db"
	"github.com/pagevault/library/internal/repo"
	"go.uber.org/zap"
)

// ErrForbiddenRole is returned when a caller without the Admin role tries to
// hand out the Admin role.
var ErrForbiddenRole = errors.New("only an administrator can grant the Admin role")

// RegisterInput is a registration request
type RegisterInput struct {
	FullName    string
	Email       string
	Password    string
	PhoneNumber string
	Location    string
	Role        db.Role
}

// Principal is the authenticated caller of a request
type Principal struct {
	AccountID string
	Role      db.Role
	SessionID string
}

// IsAdmin reports whether the principal holds the Admin role
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == db.RoleAdmin
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Token     string
	AccountID string
	Role      db.Role
	ExpiresAt time.Time
}

// Service implements registration, login and role management on top of
// the account repository.
type Service struct {
	accounts *repo.AccountRepository
	tokens   *TokenIssuer
	sessions *SessionStore
	log      *zap.Logger
}

// NewService creates an auth service
func NewService(accounts *repo.AccountRepository, tokens *TokenIssuer, sessions *SessionStore, log *zap.Logger) *Service {
	return &Service{
		accounts: accounts,
		tokens:   tokens,
		sessions: sessions,
		log:      log,
	}
}

// Register creates an account. The Admin role is only granted when the
// caller is already an Admin.
func (s *Service) Register(ctx context.Context, in RegisterInput, caller *Principal) (*db.Account, error) {
	role := in.Role
	if role == "" {
		role = db.RoleUser
	}
	if !role.Valid() {
		return nil, repo.ErrInvalidRole
	}
	if role == db.RoleAdmin && !caller.IsAdmin() {
		s.log.Warn("Rejected self-assigned admin registration", zap.String("email", in.Email))
		return nil, ErrForbiddenRole
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password", repo.ErrMissingField)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &db.Account{
		FullName:    in.FullName,
		Email:       in.Email,
		Password:    hash,
		PhoneNumber: in.PhoneNumber,
		Location:    in.Location,
		Role:        role,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Login checks the credentials and opens a session
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email", repo.ErrMissingField)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password", repo.ErrMissingField)
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !ComparePassword(account.Password, password) {
		return nil, repo.ErrBadCredential
	}

	token, claims, err := s.tokens.Issue(account.ID, account.Role)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, claims.SessionID, account.ID, s.tokens.TTL()); err != nil {
		s.log.Error("Failed to store session", zap.String("account_id", account.ID), zap.Error(err))
		return nil, err
	}

	s.log.Info("Account logged in", zap.String("account_id", account.ID))
	return &LoginResult{
		Token:     token,
		AccountID: account.ID,
		Role:      account.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Authenticate resolves a bearer token to a principal
func (s *Service) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	accountID, err := s.sessions.Lookup(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if accountID != claims.Subject {
		return nil, ErrInvalidToken
	}

	// Role changes take effect on live sessions
	account, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, repo.ErrAccountNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return &Principal{
		AccountID: account.ID,
		Role:      account.Role,
		SessionID: claims.SessionID,
	}, nil
}

// Logout revokes the principal's session
func (s *Service) Logout(ctx context.Context, p *Principal) error {
	return s.sessions.Delete(ctx, p.SessionID)
}

// GrantRole changes an account's role; only Admins may call it
func (s *Service) GrantRole(ctx context.Context, caller *Principal, accountID string, role db.Role) (*db.Account, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbiddenRole
	}
	return s.accounts.SetRole(ctx, accountID, role)
}

// ListAccounts returns every account
func (s *Service) ListAccounts(ctx context.Context) ([]*db.Account, error) {
	return s.accounts.ListAccounts(ctx)
}

// SeedAdmin makes sure an Admin account exists for email. An existing
// account is promoted; its password is left alone. It reports whether a new
// account was created.
func (s *Service) SeedAdmin(ctx context.Context, email, password, fullName string) (*db.Account, bool, error) {
	existing, err := s.accounts.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == db.RoleAdmin {
			return existing, false, nil
		}
		promoted, err := s.accounts.SetRole(ctx, existing.ID, db.RoleAdmin)
		return promoted, false, err
	case !errors.Is(err, repo.ErrAccountNotFound):
		return nil, false, err
	}

	// The operator is the privileged actor here
	account, err := s.Register(ctx, RegisterInput{
		FullName: fullName,
		Email:    email,
		Password: password,
		Role:     db.RoleAdmin,
	}, &Principal{Role: db.RoleAdmin})
	if err != nil {
		return nil, false, err
	}
	s.log.Info("Admin account seeded", zap.String("account_id", account.ID))
	return account, true, nil
}
