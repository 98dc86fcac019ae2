// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

/*
Package auth implements the authentication layer.

The layer resolves the caller's identity through an IdentityProvider and
checks session validity plus the optional email-verified and onboarding
requirements. It never returns an error for expected failures: any provider
or store error is treated as "not authenticated".

Key Components:

  - IdentityProvider: get session/user, subscribe to changes, sign out
  - Authenticator: GetCurrentUser, IsSessionValid, CheckAuthentication, OnAuthStateChange
  - SessionProvider: opaque session tokens backed by a SessionStore (memory or BadgerDB)
  - JWTProvider: HS256 access tokens issued by the hosted auth platform
  - CredentialsMiddleware: moves the bearer token or session cookie into the request context

Request Scoping:

Providers read the caller's credential from the context (see WithToken). The
HTTP stack installs it with CredentialsMiddleware:

	r.Use(auth.CredentialsMiddleware(auth.DefaultCredentialsConfig()))

Evaluation Order:

CheckAuthentication evaluates, in order:

 1. RequireAuth: a valid session must exist (not_authenticated)
 2. RequireEmailVerified: the identity's email must be confirmed (email_not_verified)
 3. RequireOnboardingComplete: the profile row must report onboarding done (onboarding_incomplete)

Requirements 2 and 3 imply 1: without a user they fail with not_authenticated.

Subscriptions:

OnAuthStateChange returns a disposer that is safe to call any number of
times, including from inside the callback.

	stop := authenticator.OnAuthStateChange(func(s auth.AuthState) {
	    hub.Broadcast(s)
	})
	defer stop()
*/
package auth
