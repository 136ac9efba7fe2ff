package migration

import "embed"

// Migrations are applied in lexical filename order, so new files take the
// next numeric prefix.
const migrationsDir = "migrations"

//go:embed migrations/*.up.sql
var embeddedMigrations embed.FS
