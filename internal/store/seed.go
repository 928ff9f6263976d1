// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// AdminSeed describes the admin account created on first start.
// PasswordHash must already be hashed by the caller.
type AdminSeed struct {
	ID           string
	Email        string
	PasswordHash string
}

// Seed creates the admin account and its admin profile if the email is not
// registered yet. It is a no-op when doSeed is false.
func Seed(ctx context.Context, db *sql.DB, doSeed bool, admin AdminSeed) error {
	if !doSeed {
		return nil
	}

	queries := New(db)

	_, err := queries.GetAuthUserByEmail(ctx, admin.Email)
	if err == nil {
		slog.Info("admin user already exists, skipping seed", "email", admin.Email)
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := queries.WithTx(tx)
	now := time.Now().UTC()

	user, err := qtx.CreateAuthUser(ctx, CreateAuthUserParams{
		ID:           admin.ID,
		Email:        admin.Email,
		PasswordHash: admin.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	if _, err := qtx.CreateProfile(ctx, CreateProfileParams{
		ID:        user.ID,
		Email:     user.Email,
		Role:      "admin",
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("creating admin profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed: %w", err)
	}

	slog.Info("created default admin user", "id", user.ID, "email", user.Email)
	return nil
}
