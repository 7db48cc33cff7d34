// Package migrations embeds SQLite schema migrations for clock storage.
package migrations

import "embed"

// FS contains embedded SQLite migrations for clock storage.
//
//go:embed *.sql
var FS embed.FS
