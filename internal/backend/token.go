// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// accessClaims is the payload of an access token.
type accessClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	SessionID string `json:"sid"`
}

// tokenSigner issues and verifies HS256 access tokens.
type tokenSigner struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func newTokenSigner(secret []byte, issuer string, now func() time.Time) (*tokenSigner, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if now == nil {
		now = time.Now
	}
	return &tokenSigner{secret: secret, issuer: issuer, now: now}, nil
}

func (s *tokenSigner) issue(user User, sessionID string, issuedAt, expiresAt time.Time) (string, error) {
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID,
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:     user.Email,
		SessionID: sessionID,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return token, nil
}

func (s *tokenSigner) parse(token string) (*accessClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("access token is required")
	}

	var claims accessClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.SessionID == "" || claims.Subject == "" {
		return nil, errors.New("access token is missing session claims")
	}
	return &claims, nil
}
