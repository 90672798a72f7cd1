// Package session owns the credential token and the authenticated profile.
//
// A session is authenticated only when a token, a profile and the persisted
// copy of the token all exist together. Every transition updates the
// persisted token and the in-memory state under one lock, persisting first.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/five82/rewear/internal/marketplace"
	"github.com/five82/rewear/internal/state"
	"github.com/five82/rewear/internal/storage"
)

// Gateway is the subset of the API client the session needs.
type Gateway interface {
	Login(ctx context.Context, identifier, secret string) (string, error)
	DemoLogin(ctx context.Context) (string, error)
	Me(ctx context.Context, token string) (marketplace.User, error)
	Register(ctx context.Context, reg marketplace.Registration) (marketplace.User, error)
}

// Snapshot is the observable session state.
type Snapshot struct {
	Token         string
	User          *marketplace.User
	Authenticated bool
	Loading       bool
	LastError     error

	// PendingRestore is set while a persisted token could not be checked
	// because the API was unreachable. The token is kept for a later Restore.
	PendingRestore bool
}

func cloneSnapshot(s Snapshot) Snapshot {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	s.LastError = state.CloneError(s.LastError)
	return s
}

// Session is safe for concurrent use.
type Session struct {
	gw     Gateway
	store  storage.Storage
	logger *zap.Logger
	state  *state.Store[Snapshot]
	now    func() time.Time
}

// New returns an unauthenticated session. Call Restore to resume a persisted
// one.
func New(gw Gateway, store storage.Storage, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		gw:     gw,
		store:  store,
		logger: logger.Named("session"),
		state:  state.NewStore(Snapshot{}, cloneSnapshot),
		now:    time.Now,
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot { return s.state.Snapshot() }

// Token returns the current token, empty when unauthenticated.
func (s *Session) Token() string {
	snap := s.state.Snapshot()
	if !snap.Authenticated {
		return ""
	}
	return snap.Token
}

// User returns the authenticated profile, or nil.
func (s *Session) User() *marketplace.User {
	snap := s.state.Snapshot()
	if !snap.Authenticated {
		return nil
	}
	return snap.User
}

// ClearError drops the last recorded error.
func (s *Session) ClearError() {
	s.state.Update(func(v *Snapshot) { v.LastError = nil })
}

func (s *Session) begin() {
	s.state.Update(func(v *Snapshot) {
		v.Loading = true
		v.LastError = nil
	})
}

func (s *Session) done() {
	s.state.Update(func(v *Snapshot) { v.Loading = false })
}

func (s *Session) fail(err error) {
	s.state.Update(func(v *Snapshot) { v.LastError = err })
}

// Restore resumes the persisted session, if any. An expired token, or one
// the server rejects, is discarded and the session stays unauthenticated
// without recording an error. Any other failure keeps the persisted token,
// marks the restore as pending and is returned so the caller can retry.
func (s *Session) Restore(ctx context.Context) error {
	s.begin()
	defer s.done()

	token, ok, err := s.store.Get(ctx, storage.TokenKey)
	if err != nil {
		return fmt.Errorf("read persisted token: %w", err)
	}
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		s.state.Update(func(v *Snapshot) { v.PendingRestore = false })
		return nil
	}
	if expired(token, s.now()) {
		s.logger.Info("persisted token expired, discarding")
		s.deauthenticate(ctx, nil)
		return nil
	}

	user, err := s.gw.Me(ctx, token)
	if errors.Is(err, marketplace.ErrUnauthorized) {
		s.logger.Info("persisted token rejected, discarding", zap.Error(err))
		s.deauthenticate(ctx, nil)
		return nil
	}
	if err != nil {
		s.logger.Warn("restore session deferred", zap.Error(err))
		s.state.Update(func(v *Snapshot) {
			if !v.Authenticated {
				v.PendingRestore = true
			}
		})
		return fmt.Errorf("restore session: %w", err)
	}
	s.state.Update(func(v *Snapshot) {
		v.PendingRestore = false
		if v.Authenticated {
			return
		}
		v.Token = token
		v.User = &user
		v.Authenticated = true
	})
	s.logger.Info("session restored", zap.Int64("user_id", user.ID))
	return nil
}

// Login exchanges credentials for a token, resolves the profile and only then
// persists and publishes both together.
func (s *Session) Login(ctx context.Context, identifier, secret string) error {
	return s.authenticate(ctx, "login", func(ctx context.Context) (string, error) {
		return s.gw.Login(ctx, strings.TrimSpace(identifier), secret)
	})
}

// DemoLogin authenticates as the shared demo account.
func (s *Session) DemoLogin(ctx context.Context) error {
	return s.authenticate(ctx, "demo login", s.gw.DemoLogin)
}

func (s *Session) authenticate(ctx context.Context, op string, obtain func(context.Context) (string, error)) error {
	s.begin()
	defer s.done()

	token, err := obtain(ctx)
	if err != nil {
		return s.authFailed(ctx, op, err)
	}
	user, err := s.gw.Me(ctx, token)
	if err != nil {
		return s.authFailed(ctx, op, err)
	}
	err = s.state.Apply(func(v *Snapshot) error {
		if err := s.store.Set(ctx, storage.TokenKey, token); err != nil {
			return fmt.Errorf("persist token: %w", err)
		}
		v.Token = token
		v.User = &user
		v.Authenticated = true
		v.PendingRestore = false
		return nil
	})
	if err != nil {
		return s.authFailed(ctx, op, err)
	}
	s.logger.Info(op+" succeeded", zap.Int64("user_id", user.ID))
	return nil
}

func (s *Session) authFailed(ctx context.Context, op string, err error) error {
	s.logger.Warn(op+" failed", zap.Error(err))
	s.deauthenticate(ctx, err)
	return err
}

// Register creates an account. It does not log in.
func (s *Session) Register(ctx context.Context, reg marketplace.Registration) (marketplace.User, error) {
	s.begin()
	defer s.done()

	reg.Email = strings.TrimSpace(reg.Email)
	reg.Username = strings.TrimSpace(reg.Username)
	if err := marketplace.Check(reg); err != nil {
		s.fail(err)
		return marketplace.User{}, err
	}
	user, err := s.gw.Register(ctx, reg)
	if err != nil {
		s.logger.Warn("register failed", zap.Error(err))
		s.fail(err)
		return marketplace.User{}, err
	}
	s.logger.Info("registered", zap.Int64("user_id", user.ID))
	return user, nil
}

// Refresh re-fetches the profile for the current token. A rejected token ends
// the session; any other failure keeps it and records the error.
func (s *Session) Refresh(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		err := &marketplace.APIError{Kind: marketplace.ErrUnauthorized, Detail: "not logged in"}
		s.fail(err)
		return err
	}

	s.begin()
	defer s.done()

	user, err := s.gw.Me(ctx, token)
	if errors.Is(err, marketplace.ErrUnauthorized) {
		s.logger.Info("token rejected on refresh, ending session", zap.Error(err))
		s.deauthenticateToken(ctx, token, err)
		return err
	}
	if err != nil {
		s.logger.Warn("refresh profile failed", zap.Error(err))
		s.fail(err)
		return err
	}
	s.state.Update(func(v *Snapshot) {
		// A logout or new login while the request was in flight wins.
		if v.Authenticated && v.Token == token {
			v.User = &user
		}
	})
	return nil
}

// Logout ends the session unconditionally. It is idempotent; the returned
// error only reports a failure to remove the persisted token.
func (s *Session) Logout(ctx context.Context) error {
	var removeErr error
	s.state.Update(func(v *Snapshot) {
		removeErr = s.store.Remove(ctx, storage.TokenKey)
		v.Token = ""
		v.User = nil
		v.Authenticated = false
		v.PendingRestore = false
		v.LastError = nil
	})
	if removeErr != nil {
		s.logger.Error("remove persisted token failed", zap.Error(removeErr))
		return fmt.Errorf("remove token: %w", removeErr)
	}
	return nil
}

func (s *Session) deauthenticate(ctx context.Context, cause error) {
	s.state.Update(func(v *Snapshot) {
		if err := s.store.Remove(ctx, storage.TokenKey); err != nil {
			s.logger.Warn("remove persisted token failed", zap.Error(err))
		}
		v.Token = ""
		v.User = nil
		v.Authenticated = false
		v.PendingRestore = false
		v.LastError = cause
	})
}

// deauthenticateToken ends the session only if token is still current.
func (s *Session) deauthenticateToken(ctx context.Context, token string, cause error) {
	s.state.Update(func(v *Snapshot) {
		v.LastError = cause
		if v.Token != token {
			return
		}
		if err := s.store.Remove(ctx, storage.TokenKey); err != nil {
			s.logger.Warn("remove persisted token failed", zap.Error(err))
		}
		v.Token = ""
		v.User = nil
		v.Authenticated = false
	})
}

// expired reports whether token is a JWT whose exp claim is in the past.
// Tokens that are not JWTs, or carry no exp, are left to the server to judge.
func expired(token string, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
