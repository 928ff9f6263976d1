// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"
	"strings"
)

// Validation errors carry the notice description shown to the user.
var (
	ErrMissingFields    = errors.New(MsgMissingFields)
	ErrPasswordMismatch = errors.New(MsgPasswordMismatch)
)

// credentialsForm holds the login and register form fields.
type credentialsForm struct {
	Email           string
	Password        string
	ConfirmPassword string

	// requireConfirm is set for the register form.
	requireConfirm bool
}

func parseLoginForm(r *http.Request) credentialsForm {
	return credentialsForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
}

func parseRegisterForm(r *http.Request) credentialsForm {
	f := parseLoginForm(r)
	f.ConfirmPassword = r.PostFormValue("confirm_password")
	f.requireConfirm = true
	return f
}

// validate checks the form before anything reaches the session store.
func (f credentialsForm) validate() error {
	if f.Email == "" || f.Password == "" {
		return ErrMissingFields
	}
	if f.requireConfirm {
		if f.ConfirmPassword == "" {
			return ErrMissingFields
		}
		if f.Password != f.ConfirmPassword {
			return ErrPasswordMismatch
		}
	}
	return nil
}
