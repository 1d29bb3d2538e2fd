package session

import (
	"context"
	"sync"
	"time"

	"github.com/fairyhunter13/product-catalog-editor/internal/catalog"
	"github.com/fairyhunter13/product-catalog-editor/internal/editor"
	"github.com/fairyhunter13/product-catalog-editor/internal/notify"
	"github.com/fairyhunter13/product-catalog-editor/internal/obs"
)

// Options configure the editors the store creates.
type Options struct {
	FlushConcurrency int
	NotifyBacklog    int
	IdleTimeout      time.Duration
}

// Store holds live sessions by ID.
type Store struct {
	client catalog.Client
	opts   Options
	now    func() time.Time

	mu sync.RWMutex
	m  map[string]*Session
}

// NewStore returns an empty Store whose sessions talk to client.
func NewStore(client catalog.Client, opts Options) *Store {
	return &Store{client: client, opts: opts, now: time.Now, m: make(map[string]*Session)}
}

// Open creates a session for cred. The editor is not loaded yet.
func (s *Store) Open(cred catalog.Credential) (*Session, error) {
	if cred.Empty() {
		return nil, ErrNoCredential
	}
	now := s.now()
	claims, _ := ParseClaims(string(cred))
	if !claims.ExpiresAt.IsZero() && !now.Before(claims.ExpiresAt) {
		return nil, ErrExpired
	}
	feed := notify.NewFeed(s.opts.NotifyBacklog, nil)
	sess := &Session{
		ID:         newID(),
		Subject:    claims.Subject,
		ExpiresAt:  claims.ExpiresAt,
		Credential: cred,
		Notices:    feed,
		idle:       s.opts.IdleTimeout,
		lastSeen:   now,
	}
	sess.Editor = editor.New(s.client, cred, editor.Options{
		Notifier:         feed,
		FlushConcurrency: s.opts.FlushConcurrency,
		Logger:           obs.Logger.With("session_id", sess.ID),
	})

	s.mu.Lock()
	s.m[sess.ID] = sess
	s.mu.Unlock()
	obs.SessionOpened()
	obs.Logger.Info("session_opened", "session_id", sess.ID, "subject", sess.Subject, "expires_at", sess.ExpiresAt)
	return sess, nil
}

// Get returns the live session for id and marks it active. Expired sessions
// are removed and reported as absent.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.m[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	now := s.now()
	if sess.Expired(now) {
		s.remove(id, "expired")
		return nil, false
	}
	sess.Touch(now)
	return sess, true
}

// Close ends the session. It reports whether the session existed.
func (s *Store) Close(id string) bool {
	return s.remove(id, "closed")
}

func (s *Store) remove(id, reason string) bool {
	s.mu.Lock()
	_, ok := s.m[id]
	delete(s.m, id)
	s.mu.Unlock()
	if ok {
		obs.SessionClosed()
		obs.Logger.Info("session_ended", "session_id", id, "reason", reason)
	}
	return ok
}

// Len returns the number of sessions held, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// Sweep removes every expired session and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.now()
	var expired []string
	s.mu.RLock()
	for id, sess := range s.m {
		if sess.Expired(now) {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()
	n := 0
	for _, id := range expired {
		if s.remove(id, "expired") {
			n++
		}
	}
	return n
}

// Start sweeps expired sessions every interval until ctx is done.
func (s *Store) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := s.Sweep(); n > 0 {
					obs.Logger.Info("sessions_swept", "removed", n, "remaining", s.Len())
				}
			}
		}
	}()
}
