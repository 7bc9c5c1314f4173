// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

/*
Package auth issues and verifies the JWTs that identify Geoboard users.

Key Components:

  - JWTManager: HS256 token creation and validation (golang-jwt/jwt/v5)
  - PasswordHasher: bcrypt hashing for registration and login
  - Middleware: chi-compatible middleware that puts *Claims on the context

Tokens are accepted from the Authorization header ("Bearer <token>"), the
"token" cookie, or the "token" query parameter (WebSocket upgrades).

Usage:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	mw := auth.NewMiddleware(jwtManager, nil)

	r.With(mw.Authenticate).Get("/api/v1/bulletins/{id}", h.GetBulletin)

	claims, ok := auth.ClaimsFromContext(r.Context())

Authorization decisions (who may change what) live in the authz package.
*/
package auth
