package migrations

import "embed"

// FS contains embedded SQLite migrations for the atelier data store.
//
//go:embed *.sql
var FS embed.FS
