// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package models

import (
	"slices"
	"time"
)

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// DefaultRoles is assigned to newly registered users.
var DefaultRoles = []string{RoleUser}

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	UserName     string    `json:"user_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// PrimaryRole is the role placed in issued tokens: admin wins over user.
func (u *User) PrimaryRole() string {
	if u.IsAdmin() {
		return RoleAdmin
	}
	return RoleUser
}

// StoredUser is the on-disk layout of a User. It carries the password hash,
// which User hides from JSON.
type StoredUser struct {
	User
	PasswordHash string `json:"password_hash"`
}

// Stored returns the persisted representation of u.
func (u *User) Stored() StoredUser {
	return StoredUser{User: *u, PasswordHash: u.PasswordHash}
}

// Restore converts a decoded StoredUser back into a User.
func (s StoredUser) Restore() *User {
	u := s.User
	u.PasswordHash = s.PasswordHash
	return &u
}
