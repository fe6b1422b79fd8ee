package cloud

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/cloud/auth"
	"github.com/dmitrijs2005/brewlog/internal/cloud/models"
	"github.com/dmitrijs2005/brewlog/internal/cloud/repositories/repomanager"
	"github.com/dmitrijs2005/brewlog/internal/common"
	"github.com/dmitrijs2005/brewlog/internal/cryptox"
	"github.com/dmitrijs2005/brewlog/internal/dbx"
	"github.com/dmitrijs2005/brewlog/internal/logging"
	recmodels "github.com/dmitrijs2005/brewlog/internal/models"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Options configures a PostgresService.
type Options struct {
	SecretKey                    string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	Logger                       logging.Logger
	// OnSessionChange is called after sign in, token rotation and sign out
	// (with nil) so the caller can persist the session.
	OnSessionChange func(*Session)
}

// PostgresService is the remote data service over PostgreSQL.
type PostgresService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager

	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	onSessionChange              func(*Session)
	log                          logging.Logger

	mu      sync.Mutex
	session *Session
}

// Open connects to dsn with the pgx driver and applies the schema.
func Open(ctx context.Context, dsn string, opts Options) (*PostgresService, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cloud database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping cloud database: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewPostgresService(db, rm, opts), nil
}

// NewPostgresService wraps an open, migrated database.
func NewPostgresService(db *sql.DB, rm repomanager.RepositoryManager, opts Options) *PostgresService {
	s := &PostgresService{
		db:                           db,
		repomanager:                  rm,
		jwtSecret:                    []byte(opts.SecretKey),
		accessTokenValidityDuration:  opts.AccessTokenValidityDuration,
		refreshTokenValidityDuration: opts.RefreshTokenValidityDuration,
		onSessionChange:              opts.OnSessionChange,
		log:                          opts.Logger,
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	return s
}

// IsConfigured reports whether a database is attached.
func (s *PostgresService) IsConfigured() bool {
	return s != nil && s.db != nil
}

// IsAuthenticated reports whether a session is held.
func (s *PostgresService) IsAuthenticated() bool {
	if !s.IsConfigured() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// Session returns a copy of the current session, or nil.
func (s *PostgresService) Session() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	cp := *s.session
	return &cp
}

// Close releases the database pool.
func (s *PostgresService) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SignUp creates an account and signs it in. Only a random salt and a
// verifier derived from the password are stored.
func (s *PostgresService) SignUp(ctx context.Context, email string, password []byte) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || len(password) == 0 {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrInvalidRecord)
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	user := &models.User{Email: email, Salt: salt, Verifier: cryptox.VerifierFor(password, salt)}

	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	s.log.Info(ctx, "account created", "user_id", u.ID)

	return s.startSession(ctx, u)
}

// SignIn verifies the password and starts a session. Unknown emails and
// wrong passwords both yield common.ErrUnauthorized.
func (s *PostgresService) SignIn(ctx context.Context, email string, password []byte) (*Session, error) {
	u, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	if !cryptox.CheckVerifier(u.Verifier, cryptox.VerifierFor(password, u.Salt)) {
		return nil, common.ErrUnauthorized
	}
	return s.startSession(ctx, u)
}

func (s *PostgresService) startSession(ctx context.Context, u *models.User) (*Session, error) {
	pair, err := s.generateTokenPair(ctx, u.ID, s.db)
	if err != nil {
		return nil, err
	}
	sess := &Session{
		UserID:       u.ID,
		Email:        u.Email,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		IssuedAt:     time.Now().UTC(),
	}
	s.setSession(sess)
	return s.Session(), nil
}

// SignOut revokes the refresh token and forgets the session. A revocation
// failure is logged; the local session is dropped regardless.
func (s *PostgresService) SignOut(ctx context.Context) error {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()

	if sess == nil {
		return nil
	}
	err := s.repomanager.RefreshTokens(s.db).Delete(ctx, sess.RefreshToken)
	if err != nil {
		s.log.Warn(ctx, "refresh token revocation failed", "error", err)
	}
	s.setSession(nil)
	return err
}

// RestoreSession adopts a previously persisted session. An expired access
// token is refreshed; a session that can no longer be refreshed is rejected
// with common.ErrUnauthorized.
func (s *PostgresService) RestoreSession(ctx context.Context, sess Session) error {
	userID, err := auth.GetUserIDFromToken(sess.AccessToken, s.jwtSecret)
	switch {
	case err == nil:
		if userID != sess.UserID {
			return common.ErrUnauthorized
		}
		s.mu.Lock()
		s.session = &sess
		s.mu.Unlock()
		return nil
	case errors.Is(err, common.ErrTokenExpired):
		s.mu.Lock()
		defer s.mu.Unlock()
		s.session = &sess
		if _, err := s.refreshLocked(ctx); err != nil {
			s.session = nil
			return fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
	}
}

// userID resolves the signed-in user, refreshing an expired access token.
func (s *PostgresService) userID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return "", common.ErrNotAuthenticated
	}
	id, err := auth.GetUserIDFromToken(s.session.AccessToken, s.jwtSecret)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, common.ErrTokenExpired) {
		return "", fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
	}
	return s.refreshLocked(ctx)
}

// refreshLocked rotates the refresh token in a transaction. s.mu must be held.
func (s *PostgresService) refreshLocked(ctx context.Context) (string, error) {
	old := s.session.RefreshToken

	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, old)
	if err != nil {
		return "", fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return "", common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, old); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, tx)
		return genErr
	}); err != nil {
		return "", err
	}

	next := *s.session
	next.UserID = token.UserID
	next.AccessToken = pair.AccessToken
	next.RefreshToken = pair.RefreshToken
	next.IssuedAt = time.Now().UTC()
	s.session = &next
	s.notify(&next)
	s.log.Debug(ctx, "access token refreshed", "user_id", token.UserID)
	return token.UserID, nil
}

func (s *PostgresService) setSession(sess *Session) {
	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
	s.notify(sess)
}

func (s *PostgresService) notify(sess *Session) {
	if s.onSessionChange == nil {
		return
	}
	if sess == nil {
		s.onSessionChange(nil)
		return
	}
	cp := *sess
	s.onSessionChange(&cp)
}

func (s *PostgresService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, userID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetUpdatedJournalEntries returns the user's entries, deleted ones
// included, that reached the server after since.
func (s *PostgresService) GetUpdatedJournalEntries(ctx context.Context, since time.Time) ([]recmodels.JournalEntry, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Journal(s.db).SelectUpdated(ctx, uid, since)
}

// GetUpdatedBars is GetUpdatedJournalEntries for bars.
func (s *PostgresService) GetUpdatedBars(ctx context.Context, since time.Time) ([]recmodels.Bar, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Bars(s.db).SelectUpdated(ctx, uid, since)
}

// UpsertJournalEntries writes the batch in one transaction.
func (s *PostgresService) UpsertJournalEntries(ctx context.Context, entries []recmodels.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	uid, err := s.userID(ctx)
	if err != nil {
		return err
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Journal(tx)
		for i := range entries {
			if err := repo.Upsert(ctx, uid, &entries[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertBars writes the batch in one transaction.
func (s *PostgresService) UpsertBars(ctx context.Context, bars []recmodels.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	uid, err := s.userID(ctx)
	if err != nil {
		return err
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Bars(tx)
		for i := range bars {
			if err := repo.Upsert(ctx, uid, &bars[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// FetchJournalEntries returns the user's non-deleted entries.
func (s *PostgresService) FetchJournalEntries(ctx context.Context) ([]recmodels.JournalEntry, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Journal(s.db).SelectActive(ctx, uid)
}

// FetchBars returns the user's non-deleted bars.
func (s *PostgresService) FetchBars(ctx context.Context) ([]recmodels.Bar, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Bars(s.db).SelectActive(ctx, uid)
}
