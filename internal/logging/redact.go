// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package logging

import "strings"

// RedactToken masks a bearer or session token, keeping 4 characters at each end.
//
//	"eyJhbGciOiJIUzI1NiJ9.payload.sig" -> "eyJh....sig"
func RedactToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// RedactUserID masks a user ID. Short IDs are fully hidden.
func RedactUserID(userID string) string {
	if userID == "" {
		return ""
	}
	if len(userID) <= 8 {
		return "***"
	}
	return userID[:4] + "..." + userID[len(userID)-4:]
}

// RedactEmail keeps the first two characters of the local part.
//
//	"jane.doe@example.com" -> "ja***@example.com"
func RedactEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return "***" + domain
	}
	return local[:2] + "***" + domain
}

var sensitiveErrorTerms = []string{
	"password",
	"secret",
	"token",
	"bearer",
	"authorization",
	"cookie",
}

// RedactError collapses provider error text that may echo credentials.
func RedactError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	for _, term := range sensitiveErrorTerms {
		if strings.Contains(lower, term) {
			return "credential error"
		}
	}
	if len(msg) > 200 {
		return msg[:200] + "..."
	}
	return msg
}
