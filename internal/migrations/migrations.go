package migrations

import "embed"

// Files holds the schema migrations, applied in file name order
// (001_init.sql, 002_...).
//
//go:embed *.sql
var Files embed.FS
