// Package services contains server-side business logic. This file implements
// AccountService, which handles registration, both login modes, profile
// reads, credential updates, and account deletion.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/avidalm/iptvgate/internal/common"
	"github.com/avidalm/iptvgate/internal/cryptox"
	"github.com/avidalm/iptvgate/internal/server/auth"
	"github.com/avidalm/iptvgate/internal/server/config"
	"github.com/avidalm/iptvgate/internal/server/models"
	"github.com/avidalm/iptvgate/internal/server/repositories/repomanager"
	"github.com/avidalm/iptvgate/internal/xtream"
)

// ShadowIdentitySuffix is appended to the provider username to derive the
// email of accounts created through provider login. The domain is not
// routable, so shadow identities can never collide with real registrations
// that pass email validation.
const ShadowIdentitySuffix = "@provider.local"

const bcryptCost = 10

// Gateway is the slice of the upstream client the services need.
type Gateway interface {
	Authenticate(ctx context.Context, creds xtream.Credentials) (*xtream.AuthResult, error)
	GetLiveCategories(ctx context.Context, creds xtream.Credentials) ([]xtream.Item, error)
	GetLiveStreams(ctx context.Context, creds xtream.Credentials, categoryID string) ([]xtream.Item, error)
	GetVodCategories(ctx context.Context, creds xtream.Credentials) ([]xtream.Item, error)
	GetVodStreams(ctx context.Context, creds xtream.Credentials, categoryID string) ([]xtream.Item, error)
	GetVodInfo(ctx context.Context, creds xtream.Credentials, vodID string) (xtream.Item, error)
}

// ProviderCredentials carries plaintext IPTV provider credentials through the
// service layer. They are encrypted before they reach a repository and only
// decrypted on the way out.
type ProviderCredentials struct {
	BaseURL  string
	Username string
	Password string
}

// Session is the result of a successful registration or login.
type Session struct {
	Token   string
	Account *models.Account
}

type AccountService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	vault                 *cryptox.Vault
	gateway               Gateway
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

// NewAccountService constructs an AccountService using repositories, the
// credential vault, the upstream gateway, and server config.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, vault *cryptox.Vault, gateway Gateway, cfg *config.Config) *AccountService {
	return &AccountService{
		db:                    db,
		repomanager:           m,
		vault:                 vault,
		gateway:               gateway,
		jwtSecret:             []byte(cfg.JWTSecret),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

func (s *AccountService) encryptCredentials(creds ProviderCredentials) (url, username, password string, err error) {
	if url, err = s.vault.Encrypt(creds.BaseURL); err != nil {
		return "", "", "", err
	}
	if username, err = s.vault.Encrypt(creds.Username); err != nil {
		return "", "", "", err
	}
	if password, err = s.vault.Encrypt(creds.Password); err != nil {
		return "", "", "", err
	}
	return url, username, password, nil
}

func (s *AccountService) decryptCredentials(account *models.Account) (ProviderCredentials, error) {
	creds := ProviderCredentials{}
	if !account.HasProviderCredentials() {
		return creds, nil
	}
	var err error
	if creds.BaseURL, err = s.vault.Decrypt(account.ProviderURL); err != nil {
		return ProviderCredentials{}, err
	}
	if creds.Username, err = s.vault.Decrypt(account.ProviderUsername); err != nil {
		return ProviderCredentials{}, err
	}
	if creds.Password, err = s.vault.Decrypt(account.ProviderPassword); err != nil {
		return ProviderCredentials{}, err
	}
	return creds, nil
}

func (s *AccountService) issueToken(userID string) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.tokenValidityDuration)
}

// Register creates a new account with a local password and bound provider
// credentials, then issues a token. The email must be unique; a taken email
// yields common.ErrDuplicateIdentity without mutating the existing row.
func (s *AccountService) Register(ctx context.Context, email, password string, creds ProviderCredentials) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrValidation)
	}
	if creds.BaseURL == "" || creds.Username == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: iptv url, username and password are required", common.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, common.ErrInternal
	}

	encURL, encUser, encPass, err := s.encryptCredentials(creds)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		ID:               uuid.NewString(),
		Email:            email,
		PasswordHash:     string(hash),
		ProviderURL:      encURL,
		ProviderUsername: encUser,
		ProviderPassword: encPass,
	}

	repo := s.repomanager.Accounts(s.db)
	created, err := repo.Create(ctx, account)
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(created.ID)
	if err != nil {
		return nil, common.ErrInternal
	}
	return &Session{Token: token, Account: created}, nil
}

// LoginLocal verifies email and password against the stored bcrypt hash.
// Unknown email and wrong password both yield common.ErrAuthenticationFailed
// so the response never reveals whether an account exists.
func (s *AccountService) LoginLocal(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrValidation)
	}

	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrAuthenticationFailed
		}
		return nil, common.ErrInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrAuthenticationFailed
	}

	token, err := s.issueToken(account.ID)
	if err != nil {
		return nil, common.ErrInternal
	}
	return &Session{Token: token, Account: account}, nil
}

// ShadowIdentity derives the email of the account backing a provider login.
func ShadowIdentity(providerUsername string) string {
	return strings.ToLower(providerUsername) + ShadowIdentitySuffix
}

// LoginProvider validates the credentials against the provider itself and, on
// success, upserts a shadow account bound to them. The account gets a random
// local password hash so it can never be entered through the local mode. The
// stored ciphertexts are refreshed on every provider login. A provider-side
// rejection yields common.ErrAuthenticationFailed and creates no row.
func (s *AccountService) LoginProvider(ctx context.Context, creds ProviderCredentials) (*Session, error) {
	if creds.BaseURL == "" || creds.Username == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: iptv url, username and password are required", common.ErrValidation)
	}

	_, err := s.gateway.Authenticate(ctx, xtream.Credentials{
		BaseURL:  creds.BaseURL,
		Username: creds.Username,
		Password: creds.Password,
	})
	if err != nil {
		if errors.Is(err, common.ErrUpstreamAuthFailed) {
			return nil, common.ErrAuthenticationFailed
		}
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword(common.GenerateRandByteArray(32), bcryptCost)
	if err != nil {
		return nil, common.ErrInternal
	}

	encURL, encUser, encPass, err := s.encryptCredentials(creds)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		ID:               uuid.NewString(),
		Email:            ShadowIdentity(creds.Username),
		PasswordHash:     string(hash),
		ProviderURL:      encURL,
		ProviderUsername: encUser,
		ProviderPassword: encPass,
	}

	repo := s.repomanager.Accounts(s.db)
	saved, err := repo.Upsert(ctx, account)
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(saved.ID)
	if err != nil {
		return nil, common.ErrInternal
	}
	return &Session{Token: token, Account: saved}, nil
}

// Profile returns the account and its decrypted provider credentials. A
// valid token whose account has been deleted fails closed with
// common.ErrNotFound.
func (s *AccountService) Profile(ctx context.Context, userID string) (*models.Account, ProviderCredentials, error) {
	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, ProviderCredentials{}, err
	}

	creds, err := s.decryptCredentials(account)
	if err != nil {
		return nil, ProviderCredentials{}, err
	}
	return account, creds, nil
}

// CredentialsUpdate carries a partial credentials change. Nil fields keep
// their current values.
type CredentialsUpdate struct {
	BaseURL  *string
	Username *string
	Password *string
}

// UpdateCredentials merges the supplied fields over the currently stored
// plaintext values, re-encrypts all three, and persists them. Last writer
// wins; there is no optimistic locking on credential rows.
func (s *AccountService) UpdateCredentials(ctx context.Context, userID string, update CredentialsUpdate) (*models.Account, error) {
	if update.BaseURL == nil && update.Username == nil && update.Password == nil {
		return nil, fmt.Errorf("%w: at least one credential field is required", common.ErrValidation)
	}

	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	current, err := s.decryptCredentials(account)
	if err != nil {
		return nil, err
	}

	if update.BaseURL != nil {
		current.BaseURL = *update.BaseURL
	}
	if update.Username != nil {
		current.Username = *update.Username
	}
	if update.Password != nil {
		current.Password = *update.Password
	}
	if current.BaseURL == "" || current.Username == "" || current.Password == "" {
		return nil, fmt.Errorf("%w: iptv url, username and password must all be set", common.ErrValidation)
	}

	encURL, encUser, encPass, err := s.encryptCredentials(current)
	if err != nil {
		return nil, err
	}

	return repo.UpdateCredentials(ctx, userID, encURL, encUser, encPass)
}

// DeleteAccount removes the account row. Tokens already issued keep
// verifying but every operation behind them fails closed afterwards.
func (s *AccountService) DeleteAccount(ctx context.Context, userID string) error {
	repo := s.repomanager.Accounts(s.db)
	return repo.Delete(ctx, userID)
}
