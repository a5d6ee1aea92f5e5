// Package session owns the authenticated session: the current identity
// and token, their persistence across runs, and the status of in-flight
// auth operations.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/dmitrijs2005/docvault/internal/client/api"
	"github.com/dmitrijs2005/docvault/internal/client/models"
	"github.com/dmitrijs2005/docvault/internal/client/storage"
	"github.com/dmitrijs2005/docvault/internal/logging"
)

// Durable storage keys. Both are written in one transaction and cleared
// together; the pair is never allowed to go half-present.
const (
	userKey  = "user"
	tokenKey = "token"
)

// ErrStaleResponse marks an auth response that resolved after a newer
// operation was initiated (or after logout). The store has already
// ignored it; callers should not surface it to the user.
var ErrStaleResponse = errors.New("stale auth response discarded")

// Status is the lifecycle state of the store's current/last operation.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusError   Status = "error"
)

// Fallback messages shown when the server supplies no msg of its own.
const (
	registerFallbackMsg = "Registration failed"
	loginFallbackMsg    = "Login failed"
)

// Store is the session store. All methods are safe for concurrent use;
// when auth operations overlap, the one initiated last determines the
// final state regardless of response arrival order.
type Store struct {
	api     api.Client
	storage storage.Repository
	log     logging.Logger

	mu       sync.Mutex
	user     *models.User
	token    string
	status   Status
	lastErr  string
	seq      uint64 // token of the most recently initiated auth call
	epoch    uint64 // bumped on every successful login/register and logout
}

func NewStore(apiClient api.Client, repo storage.Repository, log logging.Logger) *Store {
	return &Store{
		api:     apiClient,
		storage: repo,
		log:     log.With("component", "session"),
		status:  StatusIdle,
	}
}

// Restore rehydrates the session from durable storage. It is called once
// at startup, before anything renders. A half-written or malformed pair
// is wiped and treated as "not logged in" rather than an error.
func (s *Store) Restore(ctx context.Context) error {
	rawUser, err := s.storage.Get(ctx, userKey)
	if err != nil {
		return err
	}
	rawToken, err := s.storage.Get(ctx, tokenKey)
	if err != nil {
		return err
	}

	if rawUser == nil || rawToken == nil {
		if rawUser != nil || rawToken != nil {
			s.log.Warn(ctx, "half-present session in storage, wiping")
			return s.wipe(ctx)
		}
		return nil
	}

	var user models.User
	if err := json.Unmarshal(rawUser, &user); err != nil {
		s.log.Warn(ctx, "malformed persisted user, wiping", "error", err)
		return s.wipe(ctx)
	}

	s.mu.Lock()
	s.user = &user
	s.token = string(rawToken)
	s.mu.Unlock()
	s.api.SetToken(string(rawToken))
	return nil
}

func (s *Store) wipe(ctx context.Context) error {
	return s.storage.Update(ctx, func(r storage.Repository) error {
		if err := r.Delete(ctx, userKey); err != nil {
			return err
		}
		return r.Delete(ctx, tokenKey)
	})
}

// Register creates an account and, on success, establishes the session
// exactly as Login does.
func (s *Store) Register(ctx context.Context, req api.RegisterRequest) error {
	seq := s.begin()
	res, err := s.api.Register(ctx, req)
	return s.finish(ctx, seq, res, err, registerFallbackMsg)
}

// Login authenticates and, on success, atomically installs and persists
// the user/token pair.
func (s *Store) Login(ctx context.Context, email, password string) error {
	seq := s.begin()
	res, err := s.api.Login(ctx, email, password)
	return s.finish(ctx, seq, res, err, loginFallbackMsg)
}

// begin marks a new auth operation as the latest-initiated one.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.status = StatusPending
	s.lastErr = ""
	return s.seq
}

// finish applies an auth outcome, unless a newer operation was initiated
// while this one was in flight.
func (s *Store) finish(ctx context.Context, seq uint64, res *api.AuthResult, err error, fallback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		s.log.Info(ctx, "discarding stale auth response", "seq", seq, "latest", s.seq)
		return ErrStaleResponse
	}

	if err != nil {
		s.status = StatusError
		s.lastErr = api.Message(err, fallback)
		return err
	}

	// Persist first: memory and durable storage must describe the same
	// session, so a failed write fails the whole operation.
	persistErr := s.storage.Update(ctx, func(r storage.Repository) error {
		rawUser, err := json.Marshal(res.User)
		if err != nil {
			return err
		}
		if err := r.Set(ctx, userKey, rawUser); err != nil {
			return err
		}
		return r.Set(ctx, tokenKey, []byte(res.Token))
	})
	if persistErr != nil {
		s.status = StatusError
		s.lastErr = fallback
		s.log.Error(ctx, "persisting session failed", "error", persistErr)
		return persistErr
	}

	user := res.User
	s.user = &user
	s.token = res.Token
	s.status = StatusIdle
	s.epoch++
	s.api.SetToken(res.Token)
	return nil
}

// Logout clears the session and its durable trace. It is synchronous and
// idempotent, and also retires any in-flight auth operation so a late
// response cannot resurrect the session.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.storage.Update(ctx, func(r storage.Repository) error {
		if err := r.Delete(ctx, userKey); err != nil {
			return err
		}
		return r.Delete(ctx, tokenKey)
	})
	if err != nil {
		return err
	}

	s.user = nil
	s.token = ""
	s.status = StatusIdle
	s.lastErr = ""
	s.seq++ // retire in-flight auth calls
	s.epoch++
	s.api.SetToken("")
	return nil
}

// Authenticated reports whether a user is present. Route guards call
// this on every navigation; it is never cached.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// User returns a copy of the current identity, or nil when logged out.
func (s *Store) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Epoch identifies the current session generation. Other stores capture
// it when initiating a request and discard the response if it changed,
// so work started under one session never bleeds into the next.
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}
