// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries runs the application's SQL against a DBTX.
type Queries struct {
	db DBTX
}

// New returns Queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// =============================================================================
// AUTH USERS
// =============================================================================

const createAuthUser = `INSERT INTO auth_users (id, email, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id, email, password_hash, created_at, updated_at`

type CreateAuthUserParams struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (q *Queries) CreateAuthUser(ctx context.Context, arg CreateAuthUserParams) (AuthUser, error) {
	row := q.db.QueryRowContext(ctx, createAuthUser,
		arg.ID, arg.Email, arg.PasswordHash, arg.CreatedAt, arg.UpdatedAt)
	var i AuthUser
	err := row.Scan(&i.ID, &i.Email, &i.PasswordHash, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getAuthUserByEmail = `SELECT id, email, password_hash, created_at, updated_at
FROM auth_users WHERE email = ?`

func (q *Queries) GetAuthUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	row := q.db.QueryRowContext(ctx, getAuthUserByEmail, email)
	var i AuthUser
	err := row.Scan(&i.ID, &i.Email, &i.PasswordHash, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getAuthUserByID = `SELECT id, email, password_hash, created_at, updated_at
FROM auth_users WHERE id = ?`

func (q *Queries) GetAuthUserByID(ctx context.Context, id string) (AuthUser, error) {
	row := q.db.QueryRowContext(ctx, getAuthUserByID, id)
	var i AuthUser
	err := row.Scan(&i.ID, &i.Email, &i.PasswordHash, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const updateAuthUserPassword = `UPDATE auth_users SET password_hash = ?, updated_at = ? WHERE id = ?`

type UpdateAuthUserPasswordParams struct {
	PasswordHash string
	UpdatedAt    time.Time
	ID           string
}

func (q *Queries) UpdateAuthUserPassword(ctx context.Context, arg UpdateAuthUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx, updateAuthUserPassword, arg.PasswordHash, arg.UpdatedAt, arg.ID)
	return err
}

// =============================================================================
// AUTH SESSIONS
// =============================================================================

const createAuthSession = `INSERT INTO auth_sessions (id, user_id, user_agent, created_at, expires_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id, user_id, user_agent, created_at, expires_at`

type CreateAuthSessionParams struct {
	ID        string
	UserID    string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (q *Queries) CreateAuthSession(ctx context.Context, arg CreateAuthSessionParams) (AuthSession, error) {
	row := q.db.QueryRowContext(ctx, createAuthSession,
		arg.ID, arg.UserID, arg.UserAgent, arg.CreatedAt, arg.ExpiresAt)
	var i AuthSession
	err := row.Scan(&i.ID, &i.UserID, &i.UserAgent, &i.CreatedAt, &i.ExpiresAt)
	return i, err
}

const getAuthSession = `SELECT id, user_id, user_agent, created_at, expires_at
FROM auth_sessions WHERE id = ?`

func (q *Queries) GetAuthSession(ctx context.Context, id string) (AuthSession, error) {
	row := q.db.QueryRowContext(ctx, getAuthSession, id)
	var i AuthSession
	err := row.Scan(&i.ID, &i.UserID, &i.UserAgent, &i.CreatedAt, &i.ExpiresAt)
	return i, err
}

const deleteAuthSession = `DELETE FROM auth_sessions WHERE id = ?`

func (q *Queries) DeleteAuthSession(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAuthSession, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listExpiredAuthSessions = `SELECT id, user_id, user_agent, created_at, expires_at
FROM auth_sessions WHERE expires_at <= ? ORDER BY expires_at`

func (q *Queries) ListExpiredAuthSessions(ctx context.Context, now time.Time) ([]AuthSession, error) {
	rows, err := q.db.QueryContext(ctx, listExpiredAuthSessions, now)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []AuthSession
	for rows.Next() {
		var i AuthSession
		if err := rows.Scan(&i.ID, &i.UserID, &i.UserAgent, &i.CreatedAt, &i.ExpiresAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// =============================================================================
// PROFILES
// =============================================================================

const createProfile = `INSERT INTO profiles (id, email, role, created_at)
VALUES (?, ?, ?, ?)
RETURNING id, email, role, created_at`

type CreateProfileParams struct {
	ID        string
	Email     string
	Role      string
	CreatedAt time.Time
}

func (q *Queries) CreateProfile(ctx context.Context, arg CreateProfileParams) (Profile, error) {
	row := q.db.QueryRowContext(ctx, createProfile, arg.ID, arg.Email, arg.Role, arg.CreatedAt)
	var i Profile
	err := row.Scan(&i.ID, &i.Email, &i.Role, &i.CreatedAt)
	return i, err
}

const getProfile = `SELECT id, email, role, created_at FROM profiles WHERE id = ?`

func (q *Queries) GetProfile(ctx context.Context, id string) (Profile, error) {
	row := q.db.QueryRowContext(ctx, getProfile, id)
	var i Profile
	err := row.Scan(&i.ID, &i.Email, &i.Role, &i.CreatedAt)
	return i, err
}

// =============================================================================
// WEBSITES
// =============================================================================

const listWebsites = `SELECT id, title, url, created_by, created_at FROM websites`

func (q *Queries) ListWebsites(ctx context.Context) ([]Website, error) {
	return q.queryWebsites(ctx, listWebsites)
}

const listWebsitesNewestFirst = `SELECT id, title, url, created_by, created_at
FROM websites ORDER BY created_at DESC, id DESC`

func (q *Queries) ListWebsitesNewestFirst(ctx context.Context) ([]Website, error) {
	return q.queryWebsites(ctx, listWebsitesNewestFirst)
}

func (q *Queries) queryWebsites(ctx context.Context, query string) ([]Website, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []Website{}
	for rows.Next() {
		var i Website
		if err := rows.Scan(&i.ID, &i.Title, &i.URL, &i.CreatedBy, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countWebsites = `SELECT COUNT(*) FROM websites`

func (q *Queries) CountWebsites(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countWebsites).Scan(&n)
	return n, err
}

const createWebsite = `INSERT INTO websites (title, url, created_by, created_at)
VALUES (?, ?, ?, ?)
RETURNING id, title, url, created_by, created_at`

type CreateWebsiteParams struct {
	Title     string
	URL       string
	CreatedBy string
	CreatedAt time.Time
}

func (q *Queries) CreateWebsite(ctx context.Context, arg CreateWebsiteParams) (Website, error) {
	row := q.db.QueryRowContext(ctx, createWebsite, arg.Title, arg.URL, arg.CreatedBy, arg.CreatedAt)
	var i Website
	err := row.Scan(&i.ID, &i.Title, &i.URL, &i.CreatedBy, &i.CreatedAt)
	return i, err
}

const deleteWebsite = `DELETE FROM websites WHERE id = ?`

func (q *Queries) DeleteWebsite(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteWebsite, id)
	return err
}

// =============================================================================
// EVENTS
// =============================================================================

const createEvent = `INSERT INTO events (level, category, message, metadata, created_at)
VALUES (?, ?, ?, ?, ?)`

type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) error {
	_, err := q.db.ExecContext(ctx, createEvent, arg.Level, arg.Category, arg.Message, arg.Metadata, arg.CreatedAt)
	return err
}

const listEvents = `SELECT id, level, category, message, metadata, created_at
FROM events ORDER BY created_at DESC, id DESC LIMIT ?`

func (q *Queries) ListEvents(ctx context.Context, limit int64) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, listEvents, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Event
	for rows.Next() {
		var i Event
		if err := rows.Scan(&i.ID, &i.Level, &i.Category, &i.Message, &i.Metadata, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
