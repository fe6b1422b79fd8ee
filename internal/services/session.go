package services

import (
	"context"

	"github.com/dmitrijs2005/brewlog/internal/cloud"
	"github.com/dmitrijs2005/brewlog/internal/logging"
	"github.com/dmitrijs2005/brewlog/internal/storage"
)

// SessionStore keeps the cloud session in the local store under
// storage.KeySession so a restart does not require signing in again.
type SessionStore struct {
	store storage.Store
	log   logging.Logger
}

// NewSessionStore keeps the cloud session under the _session key of store.
func NewSessionStore(store storage.Store, log logging.Logger) *SessionStore {
	if log == nil {
		log = logging.Discard()
	}
	return &SessionStore{store: store, log: log}
}

// Load returns the saved session, or nil.
func (s *SessionStore) Load(ctx context.Context) (*cloud.Session, error) {
	var sess cloud.Session
	ok, err := storage.ReadJSON(ctx, s.store, storage.KeySession, &sess)
	if err != nil || !ok {
		return nil, err
	}
	return &sess, nil
}

// Save persists sess; nil clears it. Failures are logged since the callers
// are token refreshes that cannot report them.
func (s *SessionStore) Save(sess *cloud.Session) {
	ctx := context.Background()
	var err error
	if sess == nil {
		err = s.store.Delete(ctx, storage.KeySession)
	} else {
		err = storage.WriteJSON(ctx, s.store, storage.KeySession, sess)
	}
	if err != nil {
		s.log.Error(ctx, "error saving session", "error", err)
	}
}
