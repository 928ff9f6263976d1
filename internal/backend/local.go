// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mileusna/useragent"

	"github.com/olegiv/randomweb/internal/store"
)

// MinPasswordLength is the shortest password SignUp accepts.
const MinPasswordLength = 6

// DefaultSessionLifetime is used when LocalConfig.SessionLifetime is zero.
const DefaultSessionLifetime = 7 * 24 * time.Hour

// Messages returned to users inside failures.
const (
	msgInvalidCredentials = "Invalid login credentials"
	msgUserExists         = "User already registered"
	msgPasswordTooShort   = "Password should be at least 6 characters"
	msgEmailRequired      = "Email and password are required"
	msgInvalidSession     = "Session not found or expired"
	msgUnavailable        = "Service temporarily unavailable"
)

// LocalConfig configures a Local session store.
type LocalConfig struct {
	// TokenSecret signs access tokens.
	TokenSecret []byte
	// Issuer is written into and required on every access token.
	Issuer string
	// SessionLifetime is how long a session stays valid after sign-in.
	SessionLifetime time.Duration
	// Now overrides the clock, for tests.
	Now    func() time.Time
	Logger *slog.Logger
}

// Local implements Client on the application's SQLite database.
type Local struct {
	db       *sql.DB
	queries  *store.Queries
	bus      *Bus
	tokens   *tokenSigner
	lifetime time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

var _ Client = (*Local)(nil)

// NewLocal creates a Local session store over db. db must be migrated.
func NewLocal(db *sql.DB, cfg LocalConfig) (*Local, error) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SessionLifetime <= 0 {
		cfg.SessionLifetime = DefaultSessionLifetime
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "randomweb"
	}

	tokens, err := newTokenSigner(cfg.TokenSecret, cfg.Issuer, cfg.Now)
	if err != nil {
		return nil, err
	}

	return &Local{
		db:       db,
		queries:  store.New(db),
		bus:      NewBus(),
		tokens:   tokens,
		lifetime: cfg.SessionLifetime,
		now:      cfg.Now,
		logger:   cfg.Logger,
	}, nil
}

// Events returns the bus change events are published on.
func (l *Local) Events() *Bus {
	return l.bus
}

// OnAuthStateChange subscribes fn to session changes.
func (l *Local) OnAuthStateChange(fn func(ChangeEvent)) Unsubscribe {
	return l.bus.Subscribe(fn)
}

// SignInWithPassword checks credentials and opens a new session.
func (l *Local) SignInWithPassword(ctx context.Context, c Credentials) Result[Session] {
	email := normalizeEmail(c.Email)
	if email == "" || c.Password == "" {
		return Err[Session](Fail(ReasonValidation, msgEmailRequired, nil))
	}

	user, err := l.queries.GetAuthUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			l.logger.Debug("sign in for unknown email", "email", email)
			return Err[Session](Fail(ReasonInvalidCredentials, msgInvalidCredentials, nil))
		}
		return Err[Session](l.unavailable("loading user", err))
	}

	valid, err := CheckPassword(c.Password, user.PasswordHash)
	if err != nil {
		l.logger.Error("password check error", "error", err, "user_id", user.ID)
		return Err[Session](Fail(ReasonInvalidCredentials, msgInvalidCredentials, err))
	}
	if !valid {
		l.logger.Debug("invalid password attempt", "email", email)
		return Err[Session](Fail(ReasonInvalidCredentials, msgInvalidCredentials, nil))
	}

	if NeedsRehash(user.PasswordHash) {
		l.rehash(ctx, user.ID, c.Password)
	}

	session, failure := l.openSession(ctx, toUser(user), c.UserAgent)
	if failure != nil {
		return Err[Session](failure)
	}
	l.bus.Publish(ChangeEvent{Kind: EventSignedIn, SessionID: session.ID, Session: &session})
	return Ok(session)
}

// SignUp creates an account and signs it in.
func (l *Local) SignUp(ctx context.Context, c Credentials) Result[Session] {
	email := normalizeEmail(c.Email)
	if email == "" || c.Password == "" {
		return Err[Session](Fail(ReasonValidation, msgEmailRequired, nil))
	}
	if len(c.Password) < MinPasswordLength {
		return Err[Session](Fail(ReasonValidation, msgPasswordTooShort, nil))
	}

	if _, err := l.queries.GetAuthUserByEmail(ctx, email); err == nil {
		return Err[Session](Fail(ReasonUserExists, msgUserExists, nil))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return Err[Session](l.unavailable("checking existing user", err))
	}

	hash, err := HashPassword(c.Password)
	if err != nil {
		return Err[Session](l.unavailable("hashing password", err))
	}

	now := l.now().UTC()
	created, err := l.queries.CreateAuthUser(ctx, store.CreateAuthUserParams{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return Err[Session](Fail(ReasonUserExists, msgUserExists, err))
		}
		return Err[Session](l.unavailable("creating user", err))
	}

	l.logger.Info("user signed up", "user_id", created.ID, "email", created.Email)

	session, failure := l.openSession(ctx, toUser(created), c.UserAgent)
	if failure != nil {
		return Err[Session](failure)
	}
	l.bus.Publish(ChangeEvent{Kind: EventSignedIn, SessionID: session.ID, Session: &session})
	return Ok(session)
}

// SignOut ends the session behind accessToken.
func (l *Local) SignOut(ctx context.Context, accessToken string) error {
	claims, err := l.tokens.parse(accessToken)
	if err != nil {
		return Fail(ReasonInvalidSession, msgInvalidSession, err)
	}

	if _, err := l.queries.DeleteAuthSession(ctx, claims.SessionID); err != nil {
		return l.unavailable("deleting session", err)
	}

	l.logger.Info("user signed out", "user_id", claims.Subject, "session_id", claims.SessionID)
	l.bus.Publish(ChangeEvent{Kind: EventSignedOut, SessionID: claims.SessionID})
	return nil
}

// GetSession returns the live session behind accessToken.
func (l *Local) GetSession(ctx context.Context, accessToken string) Result[Session] {
	claims, err := l.tokens.parse(accessToken)
	if err != nil {
		return Err[Session](Fail(ReasonInvalidSession, msgInvalidSession, err))
	}

	row, err := l.queries.GetAuthSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Err[Session](Fail(ReasonInvalidSession, msgInvalidSession, nil))
		}
		return Err[Session](l.unavailable("loading session", err))
	}
	if !l.now().Before(row.ExpiresAt) {
		return Err[Session](Fail(ReasonInvalidSession, msgInvalidSession, nil))
	}

	user, err := l.queries.GetAuthUserByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Err[Session](Fail(ReasonInvalidSession, msgInvalidSession, nil))
		}
		return Err[Session](l.unavailable("loading session user", err))
	}

	return Ok(Session{
		ID:          row.ID,
		AccessToken: accessToken,
		User:        toUser(user),
		ExpiresAt:   row.ExpiresAt,
		UserAgent:   row.UserAgent,
	})
}

// PurgeExpired deletes expired sessions and announces each one.
func (l *Local) PurgeExpired(ctx context.Context) (int, error) {
	expired, err := l.queries.ListExpiredAuthSessions(ctx, l.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("listing expired sessions: %w", err)
	}

	purged := 0
	for _, s := range expired {
		n, err := l.queries.DeleteAuthSession(ctx, s.ID)
		if err != nil {
			return purged, fmt.Errorf("deleting session %s: %w", s.ID, err)
		}
		if n == 0 {
			continue
		}
		purged++
		l.bus.Publish(ChangeEvent{Kind: EventSessionExpired, SessionID: s.ID})
	}
	return purged, nil
}

// GetProfile loads the profile row for a user id.
func (l *Local) GetProfile(ctx context.Context, id string) Result[Profile] {
	p, err := l.queries.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Err[Profile](Fail(ReasonNotFound, "Profile not found", nil))
		}
		return Err[Profile](l.unavailable("loading profile", err))
	}
	return Ok(Profile{ID: p.ID, Email: p.Email, Role: Role(p.Role)})
}

// InsertProfile inserts a profile row. An empty role is stored as RoleUser.
func (l *Local) InsertProfile(ctx context.Context, p Profile) Result[Profile] {
	if p.Role == "" {
		p.Role = RoleUser
	}
	created, err := l.queries.CreateProfile(ctx, store.CreateProfileParams{
		ID:        p.ID,
		Email:     p.Email,
		Role:      string(p.Role),
		CreatedAt: l.now().UTC(),
	})
	if err != nil {
		if isConstraintViolation(err) {
			return Err[Profile](Fail(ReasonConstraint, "Profile could not be saved", err))
		}
		return Err[Profile](l.unavailable("creating profile", err))
	}
	return Ok(Profile{ID: created.ID, Email: created.Email, Role: Role(created.Role)})
}

// ListWebsites returns every website row.
func (l *Local) ListWebsites(ctx context.Context, opts ListOptions) Result[[]Website] {
	var (
		rows []store.Website
		err  error
	)
	if opts.NewestFirst {
		rows, err = l.queries.ListWebsitesNewestFirst(ctx)
	} else {
		rows, err = l.queries.ListWebsites(ctx)
	}
	if err != nil {
		return Err[[]Website](l.unavailable("listing websites", err))
	}

	websites := make([]Website, 0, len(rows))
	for _, r := range rows {
		websites = append(websites, toWebsite(r))
	}
	return Ok(websites)
}

// InsertWebsite inserts a website row stamped with the current time.
func (l *Local) InsertWebsite(ctx context.Context, w NewWebsite) Result[Website] {
	created, err := l.queries.CreateWebsite(ctx, store.CreateWebsiteParams{
		Title:     w.Title,
		URL:       w.URL,
		CreatedBy: w.CreatedBy,
		CreatedAt: l.now().UTC(),
	})
	if err != nil {
		if isConstraintViolation(err) {
			return Err[Website](Fail(ReasonConstraint, "Website could not be saved", err))
		}
		return Err[Website](l.unavailable("creating website", err))
	}
	return Ok(toWebsite(created))
}

// DeleteWebsite deletes a website row by id.
func (l *Local) DeleteWebsite(ctx context.Context, id int64) error {
	if err := l.queries.DeleteWebsite(ctx, id); err != nil {
		return l.unavailable("deleting website", err)
	}
	return nil
}

func (l *Local) openSession(ctx context.Context, user User, agent string) (Session, *Failure) {
	now := l.now().UTC()
	expires := now.Add(l.lifetime)
	id := uuid.NewString()

	if _, err := l.queries.CreateAuthSession(ctx, store.CreateAuthSessionParams{
		ID:        id,
		UserID:    user.ID,
		UserAgent: agent,
		CreatedAt: now,
		ExpiresAt: expires,
	}); err != nil {
		return Session{}, l.unavailable("creating session", err)
	}

	token, err := l.tokens.issue(user, id, now, expires)
	if err != nil {
		return Session{}, l.unavailable("issuing token", err)
	}

	l.logger.Info("session opened",
		"user_id", user.ID,
		"session_id", id,
		"client", describeAgent(agent),
	)

	return Session{
		ID:          id,
		AccessToken: token,
		User:        user,
		ExpiresAt:   expires,
		UserAgent:   agent,
	}, nil
}

func (l *Local) rehash(ctx context.Context, userID, password string) {
	newHash, err := HashPassword(password)
	if err != nil {
		return
	}
	if err := l.queries.UpdateAuthUserPassword(ctx, store.UpdateAuthUserPasswordParams{
		PasswordHash: newHash,
		UpdatedAt:    l.now().UTC(),
		ID:           userID,
	}); err != nil {
		l.logger.Error("failed to re-hash password", "error", err, "user_id", userID)
		return
	}
	l.logger.Info("password re-hashed with updated parameters", "user_id", userID)
}

func (l *Local) unavailable(op string, err error) *Failure {
	l.logger.Error("session store error", "op", op, "error", err)
	return Fail(ReasonUnavailable, msgUnavailable, fmt.Errorf("%s: %w", op, err))
}

// describeAgent renders a user agent as "Browser on OS".
func describeAgent(agent string) string {
	if agent == "" {
		return "unknown"
	}
	ua := useragent.Parse(agent)
	switch {
	case ua.Bot:
		return "bot " + ua.Name
	case ua.Name != "" && ua.OS != "":
		return ua.Name + " on " + ua.OS
	case ua.Name != "":
		return ua.Name
	default:
		return "unknown"
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isConstraintViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "constraint failed")
}

func toUser(u store.AuthUser) User {
	return User{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

func toWebsite(w store.Website) Website {
	return Website{
		ID:        w.ID,
		Title:     w.Title,
		URL:       w.URL,
		CreatedBy: w.CreatedBy,
		CreatedAt: w.CreatedAt,
	}
}
