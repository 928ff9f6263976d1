// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package catalog implements the curated website operations behind the
// dashboard and the random picker. Every outcome a user should see is
// reported through a notice.Notifier.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/olegiv/randomweb/internal/backend"
	"github.com/olegiv/randomweb/internal/metrics"
	"github.com/olegiv/randomweb/internal/notice"
)

// ErrMissingFields is returned by Add when title or URL is empty.
var ErrMissingFields = errors.New("title and url are required")

// Notice copy.
const (
	TitleError          = "Error"
	TitleSuccess        = "Success"
	DescMissingFields   = "Please fill in all fields"
	DescLoadFailed      = "Failed to load websites"
	DescNoWebsites      = "No websites available"
	DescAddSucceeded    = "Website added successfully"
	DescAddFailed       = "Failed to add website"
	DescDeleteSucceeded = "Website deleted successfully"
	DescDeleteFailed    = "Failed to delete website"
)

// Service runs catalog operations against the websites table.
type Service struct {
	websites backend.Websites
	notifier notice.Notifier
	picker   *Picker
	logger   *slog.Logger
}

// NewService creates a Service. A nil src uses DefaultSource.
func NewService(websites backend.Websites, notifier notice.Notifier, src Source, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		websites: websites,
		notifier: notifier,
		picker:   NewPicker(src),
		logger:   logger,
	}
}

// Newest lists every website, newest first. On failure it notifies and
// returns an empty list with the error.
func (s *Service) Newest(ctx context.Context) ([]backend.Website, error) {
	return s.list(ctx, backend.ListOptions{NewestFirst: true})
}

// All lists every website in storage order.
func (s *Service) All(ctx context.Context) ([]backend.Website, error) {
	return s.list(ctx, backend.ListOptions{})
}

func (s *Service) list(ctx context.Context, opts backend.ListOptions) ([]backend.Website, error) {
	websites, err := s.websites.ListWebsites(ctx, opts).Unwrap()
	metrics.CatalogOperationsTotal.WithLabelValues("list", metrics.Result(err)).Inc()
	if err != nil {
		s.logger.Warn("failed to load websites", "error", err)
		s.notifier.Notify(ctx, notice.Failure(TitleError, DescLoadFailed))
		return []backend.Website{}, err
	}
	return websites, nil
}

// Add inserts a website created by userID. Empty fields are rejected
// without calling the store.
func (s *Service) Add(ctx context.Context, userID, title, url string) (backend.Website, error) {
	title, url = strings.TrimSpace(title), strings.TrimSpace(url)
	if title == "" || url == "" {
		s.notifier.Notify(ctx, notice.Failure(TitleError, DescMissingFields))
		return backend.Website{}, ErrMissingFields
	}

	created, err := s.websites.InsertWebsite(ctx, backend.NewWebsite{
		Title:     title,
		URL:       url,
		CreatedBy: userID,
	}).Unwrap()
	metrics.CatalogOperationsTotal.WithLabelValues("add", metrics.Result(err)).Inc()
	if err != nil {
		s.logger.Warn("failed to add website", "error", err, "user_id", userID)
		s.notifier.Notify(ctx, notice.Failure(TitleError, DescAddFailed))
		return backend.Website{}, err
	}

	s.logger.Info("website added", "website_id", created.ID, "user_id", userID)
	s.notifier.Notify(ctx, notice.Success(TitleSuccess, DescAddSucceeded))
	return created, nil
}

// Delete removes a website by id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.websites.DeleteWebsite(ctx, id)
	metrics.CatalogOperationsTotal.WithLabelValues("delete", metrics.Result(err)).Inc()
	if err != nil {
		s.logger.Warn("failed to delete website", "error", err, "website_id", id)
		s.notifier.Notify(ctx, notice.Failure(TitleError, DescDeleteFailed))
		return err
	}

	s.logger.Info("website deleted", "website_id", id)
	s.notifier.Notify(ctx, notice.Success(TitleSuccess, DescDeleteSucceeded))
	return nil
}

// Pick draws one website from list. An empty list produces exactly one
// error notice and ErrNoWebsites.
func (s *Service) Pick(ctx context.Context, list []backend.Website) (backend.Website, error) {
	w, err := s.picker.Pick(list)
	metrics.RandomPicksTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		s.notifier.Notify(ctx, notice.Failure(TitleError, DescNoWebsites))
		return backend.Website{}, err
	}
	return w, nil
}
