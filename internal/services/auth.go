package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/brewlog/internal/cloud"
	"github.com/dmitrijs2005/brewlog/internal/common"
)

// Accounts is the account surface of the cloud service.
type Accounts interface {
	IsConfigured() bool
	IsAuthenticated() bool
	SignUp(ctx context.Context, email string, password []byte) (*cloud.Session, error)
	SignIn(ctx context.Context, email string, password []byte) (*cloud.Session, error)
	SignOut(ctx context.Context) error
	RestoreSession(ctx context.Context, sess cloud.Session) error
	Session() *cloud.Session
}

// ErrCloudDisabled is returned when no cloud database is configured.
var ErrCloudDisabled = errors.New("cloud sync is not configured")

// AuthService signs the user in and out of the cloud. The session itself is
// persisted by the cloud service's session callback (see SessionStore).
type AuthService interface {
	Register(ctx context.Context, email string, password []byte) error
	Login(ctx context.Context, email string, password []byte) error
	Logout(ctx context.Context) error
	// Restore re-adopts the saved session. A session that can no longer be
	// used is discarded and reported as common.ErrUnauthorized.
	Restore(ctx context.Context) error
	// Email of the signed-in user, or "".
	Email() string
}

type authService struct {
	accounts Accounts
	sessions *SessionStore
}

// NewAuthService returns an AuthService. accounts may be nil when no cloud is
// configured; every call then fails with ErrCloudDisabled.
func NewAuthService(accounts Accounts, sessions *SessionStore) AuthService {
	return &authService{accounts: accounts, sessions: sessions}
}

func (a *authService) enabled() bool {
	return a.accounts != nil && a.accounts.IsConfigured()
}

func (a *authService) Register(ctx context.Context, email string, password []byte) error {
	if !a.enabled() {
		return ErrCloudDisabled
	}
	defer common.WipeByteArray(password)

	if _, err := a.accounts.SignUp(ctx, email, password); err != nil {
		return fmt.Errorf("register error: %w", err)
	}
	return nil
}

func (a *authService) Login(ctx context.Context, email string, password []byte) error {
	if !a.enabled() {
		return ErrCloudDisabled
	}
	defer common.WipeByteArray(password)

	if _, err := a.accounts.SignIn(ctx, email, password); err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	return nil
}

func (a *authService) Logout(ctx context.Context) error {
	if !a.enabled() {
		return ErrCloudDisabled
	}
	err := a.accounts.SignOut(ctx)
	// the local session is gone either way
	a.sessions.Save(nil)
	if err != nil {
		return fmt.Errorf("logout error: %w", err)
	}
	return nil
}

func (a *authService) Restore(ctx context.Context) error {
	if !a.enabled() {
		return ErrCloudDisabled
	}
	sess, err := a.sessions.Load(ctx)
	if err != nil {
		return fmt.Errorf("error loading session: %w", err)
	}
	if sess == nil {
		return common.ErrNotAuthenticated
	}
	if err := a.accounts.RestoreSession(ctx, *sess); err != nil {
		a.sessions.Save(nil)
		if errors.Is(err, common.ErrUnauthorized) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
	}
	return nil
}

func (a *authService) Email() string {
	if !a.enabled() {
		return ""
	}
	if sess := a.accounts.Session(); sess != nil {
		return sess.Email
	}
	return ""
}
