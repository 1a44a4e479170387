// Package schema applies the meal-tracker table definitions.
//
// All statements use CREATE TABLE IF NOT EXISTS, so Apply is idempotent:
// safe against a brand-new empty image and a no-op against an image that
// already carries the tables.
//
// The declared ON DELETE CASCADE relationships only hold when the consuming
// connection has run PRAGMA foreign_keys = ON. SQLite leaves it off by
// default; enabling it is the store manager's responsibility, not this
// package's.
package schema

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/lk9900/pojedi/internal/engine"
)

//go:embed schema.sql
var schemaSQL string

// Tables lists the tables the schema defines, in dependency order.
var Tables = []string{"restaurants", "sections", "meals"}

// Apply creates the tables if they do not exist.
//
// Statements are executed one at a time through the engine's autocommit
// Execute path, matching how every other mutation flows through it.
func Apply(ctx context.Context, e *engine.Engine) error {
	for _, stmt := range statements() {
		if _, err := e.Execute(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// statements splits the embedded DDL into individual statements, dropping
// comments and blank fragments.
func statements() []string {
	var out []string
	for _, raw := range strings.Split(schemaSQL, ";") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, "--") {
				continue
			}
			lines = append(lines, line)
		}
		stmt := strings.TrimSpace(strings.Join(lines, "\n"))
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
