// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package database

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// quoteIdent validates name and returns it quoted for Postgres.
func quoteIdent(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return pgx.Identifier{name}.Sanitize(), nil
}

// buildSelectOne builds a single-row SELECT with equality filters combined
// by AND. Filter columns are emitted in sorted order so equal inputs give
// equal SQL.
//
// Example:
//
//	sql, args, _ := buildSelectOne("landing_pages", []string{"user_id", "team_id"}, map[string]any{"id": "page_42"})
//	// sql  = SELECT "user_id", "team_id" FROM "landing_pages" WHERE "id" = $1 LIMIT 1
//	// args = []any{"page_42"}
func buildSelectOne(table string, columns []string, filters map[string]any) (string, []any, error) {
	if len(columns) == 0 {
		return "", nil, fmt.Errorf("%w: no columns", ErrInvalidIdentifier)
	}
	if len(filters) == 0 {
		return "", nil, fmt.Errorf("%w: no filters", ErrInvalidIdentifier)
	}

	qTable, err := quoteIdent(table)
	if err != nil {
		return "", nil, err
	}

	cols := make([]string, len(columns))
	for i, c := range columns {
		if cols[i], err = quoteIdent(c); err != nil {
			return "", nil, err
		}
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conditions := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		qk, err := quoteIdent(k)
		if err != nil {
			return "", nil, err
		}
		conditions[i] = fmt.Sprintf("%s = $%d", qk, i+1)
		args[i] = filters[k]
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 1",
		strings.Join(cols, ", "), qTable, strings.Join(conditions, " AND "))
	return sql, args, nil
}
