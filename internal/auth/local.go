package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// LocalProvider is an in-process identity provider for development and
// tests. Accounts live only for the lifetime of the process; any password
// is accepted on first sign-in and must match afterwards. Passwords are
// stored as bcrypt hashes, never in the clear.
type LocalProvider struct {
	mu       sync.Mutex
	accounts map[string]localAccount
}

type localAccount struct {
	userID string
	hash   []byte
}

// NewLocalProvider creates a LocalProvider.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{accounts: make(map[string]localAccount)}
}

func hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// SignIn authenticates against the in-process account table. An unknown
// email is registered implicitly.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	account, ok := p.accounts[email]
	if !ok {
		hash, err := hashPassword(password)
		if err != nil {
			return nil, err
		}
		account = localAccount{userID: uuid.NewString(), hash: hash}
		p.accounts[email] = account
	}
	if err := bcrypt.CompareHashAndPassword(account.hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verify password: %w", err)
	}

	return &Session{UserID: account.userID, Email: email}, nil
}

// SignUp registers an account. Registering an existing email fails.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.accounts[email]; ok {
		return nil, fmt.Errorf("account %s already exists", email)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	account := localAccount{userID: uuid.NewString(), hash: hash}
	p.accounts[email] = account

	return &Session{UserID: account.userID, Email: email}, nil
}

// SignInAnonymously mints a throwaway user.
func (p *LocalProvider) SignInAnonymously(ctx context.Context) (*Session, error) {
	return &Session{UserID: uuid.NewString(), Anonymous: true}, nil
}
