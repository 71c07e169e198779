package db

import "embed"

// MigrationFS embeds every SQL migration into the compiled binary, so
// the schema travels with the binary and no migration files need to
// exist on disk at runtime.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
